package services

import (
	"context"
	"fmt"

	"happy-sandwich/models"
)

type starterItem struct {
	Slug         string
	Name         string
	DefaultPrice float64
	Priority     int
}

var defaultMenuItems = []starterItem{
	{Slug: "ham-cheese", Name: "Ham & Cheese Sandwich", DefaultPrice: 45, Priority: 10},
	{Slug: "tuna-mayo", Name: "Tuna Mayo Sandwich", DefaultPrice: 45, Priority: 20},
	{Slug: "egg-salad", Name: "Egg Salad Sandwich", DefaultPrice: 40, Priority: 30},
	{Slug: "chicken-teriyaki", Name: "Chicken Teriyaki Sandwich", DefaultPrice: 55, Priority: 40},
	{Slug: "pork-bun", Name: "Pork Bun", DefaultPrice: 35, Priority: 50},
	{Slug: "iced-tea", Name: "Thai Iced Tea", DefaultPrice: 25, Priority: 60},
}

// EnsureDefaultMenuItems seeds the starter catalog when menu_items is empty and
// returns how many rows it inserted. Running it again is a no-op.
func (r *Repository) EnsureDefaultMenuItems(ctx context.Context) (int, error) {
	inserted := 0
	err := r.store.WithTx(ctx, func(tx Store) error {
		count, err := tx.CountMenuItems(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		now := r.now()
		for _, s := range defaultMenuItems {
			item := &models.MenuItem{
				Slug:         s.Slug,
				Name:         s.Name,
				DefaultPrice: s.DefaultPrice,
				Priority:     s.Priority,
				IsActive:     true,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.InsertMenuItem(ctx, item); err != nil {
				return fmt.Errorf("seed %s: %w", s.Slug, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ensure default menu items: %w", err)
	}
	return inserted, nil
}
