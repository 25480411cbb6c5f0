package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"happy-sandwich/models"
)

// RequestError is a payload that failed shape validation.
type RequestError struct {
	Field   string
	Message string
}

func (e RequestError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// parseDateTime accepts RFC 3339, a date-time without offset (read as UTC) or
// a bare date meaning midnight UTC.
func parseDateTime(s string) (time.Time, error) {
	t, err := parseAsWritten(s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseCalendarDate returns the calendar day as written, at midnight UTC.
// "2024-03-10T00:30:00+07:00" is the 10th even though it is the 9th in UTC.
func parseCalendarDate(s string) (time.Time, error) {
	t, err := parseAsWritten(s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// parseAsWritten keeps the offset the value was written with.
func parseAsWritten(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a date or date-time", s)
}

// dateTime is the order_date field of order payloads.
type dateTime struct {
	time.Time
}

func (d *dateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return RequestError{Field: "order_date", Message: "must be a date or date-time string"}
	}
	t, err := parseDateTime(s)
	if err != nil {
		return RequestError{Field: "order_date", Message: "must be a date or date-time string"}
	}
	d.Time = t
	return nil
}

func (d *dateTime) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

type menuItemRequest struct {
	Name         *string  `json:"name"`
	Slug         *string  `json:"slug"`
	DefaultPrice *float64 `json:"default_price"`
	Priority     *int     `json:"priority"`
	IsActive     *bool    `json:"is_active"`
	Description  *string  `json:"description"`
}

func (req *menuItemRequest) validateCreate() error {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return RequestError{Field: "name", Message: "is required"}
	}
	if req.DefaultPrice == nil {
		return RequestError{Field: "default_price", Message: "is required"}
	}
	return nil
}

func (req *menuItemRequest) createInput() models.CreateMenuItemInput {
	in := models.CreateMenuItemInput{
		Name:         *req.Name,
		DefaultPrice: *req.DefaultPrice,
		Priority:     req.Priority,
		IsActive:     req.IsActive,
		Description:  req.Description,
	}
	if req.Slug != nil {
		in.Slug = *req.Slug
	}
	return in
}

func (req *menuItemRequest) update() models.MenuItemUpdate {
	return models.MenuItemUpdate{
		Name:         req.Name,
		Slug:         req.Slug,
		DefaultPrice: req.DefaultPrice,
		Priority:     req.Priority,
		IsActive:     req.IsActive,
		Description:  req.Description,
	}
}

// createOrderRequest accepts menu_item_name for client compatibility; the
// stored name always comes from the resolved menu item.
type createOrderRequest struct {
	CustomerName string    `json:"customer_name"`
	MenuItemID   string    `json:"menu_item_id"`
	MenuItemName string    `json:"menu_item_name"`
	Quantity     *int      `json:"quantity"`
	Price        *float64  `json:"price"`
	Note         *string   `json:"note"`
	OrderDate    *dateTime `json:"order_date"`
	IsPaid       bool      `json:"is_paid"`
}

func (req *createOrderRequest) validate() error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return RequestError{Field: "customer_name", Message: "is required"}
	}
	if req.Quantity != nil && *req.Quantity < 1 {
		return RequestError{Field: "quantity", Message: "must be >= 1"}
	}
	return nil
}

func (req *createOrderRequest) input() models.CreateOrderInput {
	in := models.CreateOrderInput{
		CustomerName: req.CustomerName,
		MenuItemID:   req.MenuItemID,
		Quantity:     1,
		Note:         req.Note,
		OrderDate:    req.OrderDate.ptr(),
		IsPaid:       req.IsPaid,
	}
	if req.Quantity != nil {
		in.Quantity = *req.Quantity
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	return in
}

// updateOrderRequest treats null the same as an absent field.
type updateOrderRequest struct {
	CustomerName *string   `json:"customer_name"`
	MenuItemID   *string   `json:"menu_item_id"`
	MenuItemName *string   `json:"menu_item_name"`
	Quantity     *int      `json:"quantity"`
	Price        *float64  `json:"price"`
	Note         *string   `json:"note"`
	OrderDate    *dateTime `json:"order_date"`
	IsPaid       *bool     `json:"is_paid"`
}

func (req *updateOrderRequest) update() models.OrderUpdate {
	return models.OrderUpdate{
		CustomerName: req.CustomerName,
		MenuItemID:   req.MenuItemID,
		MenuItemName: req.MenuItemName,
		Quantity:     req.Quantity,
		Price:        req.Price,
		Note:         req.Note,
		OrderDate:    req.OrderDate.ptr(),
		IsPaid:       req.IsPaid,
	}
}

type markPaidRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsPaid    *bool  `json:"is_paid"`
}

// parse returns the day bounds and flag; is_paid defaults to true.
func (req *markPaidRequest) parse() (time.Time, time.Time, bool, error) {
	if req.StartDate == "" {
		return time.Time{}, time.Time{}, false, RequestError{Field: "start_date", Message: "is required"}
	}
	if req.EndDate == "" {
		return time.Time{}, time.Time{}, false, RequestError{Field: "end_date", Message: "is required"}
	}
	start, err := parseCalendarDate(req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, false, RequestError{Field: "start_date", Message: "must be a date (YYYY-MM-DD)"}
	}
	end, err := parseCalendarDate(req.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, false, RequestError{Field: "end_date", Message: "must be a date (YYYY-MM-DD)"}
	}
	paid := true
	if req.IsPaid != nil {
		paid = *req.IsPaid
	}
	return start, end, paid, nil
}
