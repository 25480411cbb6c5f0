package services

import (
	"context"
	"errors"
	"time"

	"happy-sandwich/models"
)

// ErrNotFound is returned when a menu item or order does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is a domain rule violation the caller can fix (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ErrMenuItemInUse is returned when deleting a menu item that orders still reference.
var ErrMenuItemInUse = &ValidationError{Message: "cannot delete a menu item that already has orders"}

// Store is the relational persistence the repository runs on.
type Store interface {
	// WithTx runs fn in a single transaction. A nested call reuses the open one.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close() error

	ListMenuItems(ctx context.Context, activeOnly bool) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	GetMenuItemBySlug(ctx context.Context, slug string) (*models.MenuItem, error)
	InsertMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
	CountMenuItems(ctx context.Context) (int64, error)
	CountOrdersForMenuItem(ctx context.Context, slug string) (int64, error)

	// ListOrders returns newest first: order_date desc, id desc.
	ListOrders(ctx context.Context) ([]models.Order, error)
	// ListOrdersByMenu sorts by menu_item_name, order_date, id ascending.
	ListOrdersByMenu(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id int64) error
	// SetPaidBetween sets is_paid on every order with start <= order_date <= end.
	SetPaidBetween(ctx context.Context, start, end time.Time, paid bool, now time.Time) (int64, error)
	Summary(ctx context.Context) (*models.Summary, error)
}
