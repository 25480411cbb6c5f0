package services

import (
	"context"
	"fmt"

	"happy-sandwich/models"
)

// ComputeSummary aggregates order counts and per-menu quantities, breakdown
// sorted by menu item name.
func (r *Repository) ComputeSummary(ctx context.Context) (*models.Summary, error) {
	s, err := r.store.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute summary: %w", err)
	}
	if s.MenuBreakdown == nil {
		s.MenuBreakdown = []models.MenuSummary{}
	}
	return s, nil
}

// GroupOrdersByMenu buckets orders by menu item slug. Groups keep the order of
// their first row, so they come out sorted by menu name.
func (r *Repository) GroupOrdersByMenu(ctx context.Context) ([]models.MenuOrdersGroup, error) {
	orders, err := r.store.ListOrdersByMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("group orders by menu: %w", err)
	}
	groups := []models.MenuOrdersGroup{}
	index := make(map[string]int)
	for _, o := range orders {
		i, ok := index[o.MenuItemID]
		if !ok {
			i = len(groups)
			index[o.MenuItemID] = i
			groups = append(groups, models.MenuOrdersGroup{
				MenuItemID:   o.MenuItemID,
				MenuItemName: o.MenuItemName,
				Orders:       []models.GroupedOrder{},
			})
		}
		groups[i].Orders = append(groups[i].Orders, models.GroupedOrder{
			CustomerName: o.CustomerName,
			Quantity:     o.Quantity,
			Note:         o.Note,
			IsPaid:       o.IsPaid,
		})
	}
	return groups, nil
}
