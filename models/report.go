package models

type MenuSummary struct {
	MenuItemID     string `json:"menu_item_id"`
	MenuItemName   string `json:"menu_item_name"`
	TotalQuantity  int64  `json:"total_quantity"`
	UnpaidQuantity int64  `json:"unpaid_quantity"`
}

type Summary struct {
	TotalOrders   int64         `json:"total_orders"`
	UnpaidOrders  int64         `json:"unpaid_orders"`
	TotalQuantity int64         `json:"total_quantity"`
	MenuBreakdown []MenuSummary `json:"menu_breakdown"`
}

type GroupedOrder struct {
	CustomerName string  `json:"customer_name"`
	Quantity     int     `json:"quantity"`
	Note         *string `json:"note"`
	IsPaid       bool    `json:"is_paid"`
}

type MenuOrdersGroup struct {
	MenuItemID   string         `json:"menu_item_id"`
	MenuItemName string         `json:"menu_item_name"`
	Orders       []GroupedOrder `json:"orders"`
}
