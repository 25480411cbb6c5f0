package models

import "time"

const DefaultPriority = 100

// MenuItem is a row from menu_items. Orders reference it by Slug.
type MenuItem struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	DefaultPrice float64   `json:"default_price"`
	Priority     int       `json:"priority"`
	IsActive     bool      `json:"is_active"`
	Description  *string   `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateMenuItemInput struct {
	Name         string
	Slug         string // optional; derived from Name when empty
	DefaultPrice float64
	Priority     *int
	IsActive     *bool
	Description  *string
}

// MenuItemUpdate carries only the fields present in an update; nil means untouched.
type MenuItemUpdate struct {
	Name         *string
	Slug         *string
	DefaultPrice *float64
	Priority     *int
	IsActive     *bool
	Description  *string
}

func (u MenuItemUpdate) IsEmpty() bool {
	return u.Name == nil && u.Slug == nil && u.DefaultPrice == nil &&
		u.Priority == nil && u.IsActive == nil && u.Description == nil
}

// MenuOption is the trimmed menu item used by selection UIs. ID is the slug.
type MenuOption struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DefaultPrice float64 `json:"default_price"`
	Priority     int     `json:"priority"`
}
