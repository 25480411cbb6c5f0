package models

import "time"

// Order is a row from orders. MenuItemID holds the menu item slug and MenuItemName
// is copied at order time so later renames leave history alone.
type Order struct {
	ID           int64     `json:"id"`
	CustomerName string    `json:"customer_name"`
	MenuItemID   string    `json:"menu_item_id"`
	MenuItemName string    `json:"menu_item_name"`
	Quantity     int       `json:"quantity"`
	Price        float64   `json:"price"`
	Note         *string   `json:"note"`
	OrderDate    time.Time `json:"order_date"`
	IsPaid       bool      `json:"is_paid"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateOrderInput is a new order before menu resolution. A Price <= 0 means
// "derive from the menu item default price".
type CreateOrderInput struct {
	CustomerName string
	MenuItemID   string
	Quantity     int
	Price        float64
	Note         *string
	OrderDate    *time.Time
	IsPaid       bool
}

// OrderUpdate carries only the fields present in an update; nil means untouched.
type OrderUpdate struct {
	CustomerName *string
	MenuItemID   *string
	MenuItemName *string
	Quantity     *int
	Price        *float64
	Note         *string
	OrderDate    *time.Time
	IsPaid       *bool
}

func (u OrderUpdate) IsEmpty() bool {
	return u.CustomerName == nil && u.MenuItemID == nil && u.MenuItemName == nil &&
		u.Quantity == nil && u.Price == nil && u.Note == nil && u.OrderDate == nil && u.IsPaid == nil
}

// StatusWord is the human payment status used in exports and messages.
func (o *Order) StatusWord() string {
	if o.IsPaid {
		return "paid"
	}
	return "pending"
}
