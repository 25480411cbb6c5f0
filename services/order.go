package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"happy-sandwich/models"
)

func (r *Repository) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := r.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return r.store.GetOrder(ctx, id)
}

// CreateOrder persists o as given, filling timestamps and a missing order date.
func (r *Repository) CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	return r.createOrder(ctx, r.store, o)
}

func (r *Repository) createOrder(ctx context.Context, st Store, o *models.Order) (*models.Order, error) {
	if err := validateOrder(o); err != nil {
		return nil, err
	}
	now := r.now()
	if o.OrderDate.IsZero() {
		o.OrderDate = now
	}
	o.OrderDate = o.OrderDate.UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if err := st.InsertOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// PlaceOrder resolves the menu item by slug, copies its name onto the order and
// derives the price when none was supplied, then creates the order.
func (r *Repository) PlaceOrder(ctx context.Context, in models.CreateOrderInput) (*models.Order, error) {
	var created *models.Order
	err := r.store.WithTx(ctx, func(tx Store) error {
		item, err := resolveMenuItem(ctx, tx, in.MenuItemID)
		if err != nil {
			return err
		}
		quantity := in.Quantity
		o := &models.Order{
			CustomerName: strings.TrimSpace(in.CustomerName),
			MenuItemID:   item.Slug,
			MenuItemName: item.Name,
			Quantity:     quantity,
			Price:        PriceFor(item, quantity, in.Price),
			Note:         in.Note,
			IsPaid:       in.IsPaid,
		}
		if in.OrderDate != nil {
			o.OrderDate = *in.OrderDate
		}
		created, err = r.createOrder(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// PriceFor keeps a positive supplied price, otherwise charges default price x quantity.
func PriceFor(item *models.MenuItem, quantity int, supplied float64) float64 {
	if supplied > 0 {
		return supplied
	}
	return item.DefaultPrice * float64(quantity)
}

// UpdateOrder applies exactly the present fields of upd.
func (r *Repository) UpdateOrder(ctx context.Context, o *models.Order, upd models.OrderUpdate) (*models.Order, error) {
	return r.updateOrder(ctx, r.store, o, upd)
}

func (r *Repository) updateOrder(ctx context.Context, st Store, o *models.Order, upd models.OrderUpdate) (*models.Order, error) {
	next := *o
	if upd.CustomerName != nil {
		next.CustomerName = strings.TrimSpace(*upd.CustomerName)
	}
	if upd.MenuItemID != nil {
		next.MenuItemID = *upd.MenuItemID
	}
	if upd.MenuItemName != nil {
		next.MenuItemName = *upd.MenuItemName
	}
	if upd.Quantity != nil {
		next.Quantity = *upd.Quantity
	}
	if upd.Price != nil {
		next.Price = *upd.Price
	}
	if upd.Note != nil {
		next.Note = upd.Note
	}
	if upd.OrderDate != nil {
		next.OrderDate = upd.OrderDate.UTC()
	}
	if upd.IsPaid != nil {
		next.IsPaid = *upd.IsPaid
	}
	if err := validateOrder(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.now()
	if err := st.UpdateOrder(ctx, &next); err != nil {
		return nil, fmt.Errorf("update order %d: %w", o.ID, err)
	}
	*o = next
	return o, nil
}

// ReviseOrder is UpdateOrder plus menu re-resolution: switching menu_item_id
// copies the new name and re-derives the price unless a positive one is given.
// An empty update leaves the order untouched.
func (r *Repository) ReviseOrder(ctx context.Context, o *models.Order, upd models.OrderUpdate) (*models.Order, error) {
	if upd.IsEmpty() {
		return o, nil
	}
	var updated *models.Order
	err := r.store.WithTx(ctx, func(tx Store) error {
		if upd.MenuItemID != nil {
			item, err := resolveMenuItem(ctx, tx, *upd.MenuItemID)
			if err != nil {
				return err
			}
			quantity := o.Quantity
			if upd.Quantity != nil {
				quantity = *upd.Quantity
			}
			supplied := 0.0
			if upd.Price != nil {
				supplied = *upd.Price
			}
			price := PriceFor(item, quantity, supplied)
			upd.MenuItemName = &item.Name
			upd.Price = &price
		}
		var err error
		updated, err = r.updateOrder(ctx, tx, o, upd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) DeleteOrder(ctx context.Context, o *models.Order) error {
	if err := r.store.DeleteOrder(ctx, o.ID); err != nil {
		return fmt.Errorf("delete order %d: %w", o.ID, err)
	}
	return nil
}

// MarkPaidByDate sets the paid flag on every order dated from the start of
// startDay to the end of endDay (UTC, inclusive) and returns how many matched.
func (r *Repository) MarkPaidByDate(ctx context.Context, startDay, endDay time.Time, paid bool) (int64, error) {
	start, end := DayRange(startDay, endDay)
	if start.After(end) {
		return 0, invalid("start_date must not be after end_date")
	}
	n, err := r.store.SetPaidBetween(ctx, start, end, paid, r.now())
	if err != nil {
		return 0, fmt.Errorf("mark orders paid=%t: %w", paid, err)
	}
	return n, nil
}

// DayRange widens two dates to [00:00:00, 23:59:59.999999] UTC. The end stops at
// microsecond precision so PostgreSQL does not round it into the next day.
func DayRange(startDay, endDay time.Time) (time.Time, time.Time) {
	s := startDay.UTC()
	e := endDay.UTC()
	start := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1).Add(-time.Microsecond)
	return start, end
}

func resolveMenuItem(ctx context.Context, st Store, slug string) (*models.MenuItem, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, invalid("menu_item_id is required")
	}
	item, err := st.GetMenuItemBySlug(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		return nil, invalid("invalid menu item")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve menu item %q: %w", slug, err)
	}
	return item, nil
}

func validateOrder(o *models.Order) error {
	switch {
	case o.CustomerName == "":
		return invalid("customer_name is required")
	case o.MenuItemID == "":
		return invalid("menu_item_id is required")
	case o.Quantity < 1:
		return invalid("quantity must be >= 1")
	case o.Price < 0:
		return invalid("price must be >= 0")
	}
	return nil
}
