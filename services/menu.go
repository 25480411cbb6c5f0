package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"happy-sandwich/models"
)

func (r *Repository) ListMenuItems(ctx context.Context, activeOnly bool) ([]models.MenuItem, error) {
	items, err := r.store.ListMenuItems(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

func (r *Repository) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	return r.store.GetMenuItem(ctx, id)
}

func (r *Repository) GetMenuItemBySlug(ctx context.Context, slug string) (*models.MenuItem, error) {
	return r.store.GetMenuItemBySlug(ctx, slug)
}

func (r *Repository) CreateMenuItem(ctx context.Context, in models.CreateMenuItemInput) (*models.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if in.DefaultPrice < 0 {
		return nil, invalid("default_price must be >= 0")
	}
	item := &models.MenuItem{
		Name:         name,
		DefaultPrice: in.DefaultPrice,
		Priority:     models.DefaultPriority,
		IsActive:     true,
		Description:  in.Description,
	}
	if in.Priority != nil {
		if *in.Priority < 0 {
			return nil, invalid("priority must be >= 0")
		}
		item.Priority = *in.Priority
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}

	base := in.Slug
	if strings.TrimSpace(base) == "" {
		base = name
	}

	err := r.store.WithTx(ctx, func(tx Store) error {
		slug, err := uniqueSlug(ctx, tx, base, 0)
		if err != nil {
			return err
		}
		now := r.now()
		item.Slug = slug
		item.CreatedAt = now
		item.UpdatedAt = now
		return tx.InsertMenuItem(ctx, item)
	})
	if err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	return item, nil
}

// UpdateMenuItem applies the present fields of upd. A new slug is made unique
// against every other item.
func (r *Repository) UpdateMenuItem(ctx context.Context, item *models.MenuItem, upd models.MenuItemUpdate) (*models.MenuItem, error) {
	next := *item
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, invalid("name must not be empty")
		}
		next.Name = name
	}
	if upd.DefaultPrice != nil {
		if *upd.DefaultPrice < 0 {
			return nil, invalid("default_price must be >= 0")
		}
		next.DefaultPrice = *upd.DefaultPrice
	}
	if upd.Priority != nil {
		if *upd.Priority < 0 {
			return nil, invalid("priority must be >= 0")
		}
		next.Priority = *upd.Priority
	}
	if upd.IsActive != nil {
		next.IsActive = *upd.IsActive
	}
	if upd.Description != nil {
		next.Description = upd.Description
	}

	err := r.store.WithTx(ctx, func(tx Store) error {
		if upd.Slug != nil && strings.TrimSpace(*upd.Slug) != "" {
			slug, err := uniqueSlug(ctx, tx, *upd.Slug, item.ID)
			if err != nil {
				return err
			}
			next.Slug = slug
		}
		next.UpdatedAt = r.now()
		return tx.UpdateMenuItem(ctx, &next)
	})
	if err != nil {
		return nil, fmt.Errorf("update menu item %d: %w", item.ID, err)
	}
	*item = next
	return item, nil
}

// DeleteMenuItem refuses with ErrMenuItemInUse while any order references the slug.
func (r *Repository) DeleteMenuItem(ctx context.Context, item *models.MenuItem) error {
	err := r.store.WithTx(ctx, func(tx Store) error {
		inUse, err := tx.CountOrdersForMenuItem(ctx, item.Slug)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return ErrMenuItemInUse
		}
		return tx.DeleteMenuItem(ctx, item.ID)
	})
	if err != nil {
		return fmt.Errorf("delete menu item %d: %w", item.ID, err)
	}
	return nil
}

// MenuOptions lists active items for selection UIs, ordered by priority then id.
func (r *Repository) MenuOptions(ctx context.Context) ([]models.MenuOption, error) {
	items, err := r.ListMenuItems(ctx, true)
	if err != nil {
		return nil, err
	}
	sortByPriority(items)
	options := make([]models.MenuOption, 0, len(items))
	for _, item := range items {
		options = append(options, models.MenuOption{
			ID:           item.Slug,
			Name:         item.Name,
			DefaultPrice: item.DefaultPrice,
			Priority:     item.Priority,
		})
	}
	return options, nil
}

// sortByPriority keeps the incoming id order among equal priorities.
func sortByPriority(items []models.MenuItem) {
	slices.SortStableFunc(items, func(a, b models.MenuItem) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
}
