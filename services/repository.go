package services

import (
	"context"
	"time"
)

// Repository owns every lifecycle transition of menu items and orders.
type Repository struct {
	store Store
	now   func() time.Time
}

// NewRepository wraps store with a UTC wall clock.
func NewRepository(store Store) *Repository {
	return &Repository{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source; used by tests that assert on timestamps.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
