package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"happy-sandwich/models"
)

var exportHeader = []string{
	"id", "customer_name", "menu_item_name", "quantity", "price", "note", "order_date", "is_paid",
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.repo.ComputeSummary(r.Context())
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) menuOrders(w http.ResponseWriter, r *http.Request) {
	groups, err := s.repo.GroupOrdersByMenu(r.Context())
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) exportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.repo.ListOrders(r.Context())
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	body, err := encodeOrdersCSV(orders)
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=orders.csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// encodeOrdersCSV renders one row per order under exportHeader.
func encodeOrdersCSV(orders []models.Order) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range orders {
		o := &orders[i]
		note := ""
		if o.Note != nil {
			note = *o.Note
		}
		record := []string{
			strconv.FormatInt(o.ID, 10),
			o.CustomerName,
			o.MenuItemName,
			strconv.Itoa(o.Quantity),
			strconv.FormatFloat(o.Price, 'f', 2, 64),
			note,
			o.OrderDate.UTC().Format(time.RFC3339),
			o.StatusWord(),
		}
		if err := cw.Write(record); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type optionsResponse struct {
	MenuItems []models.MenuOption `json:"menu_items"`
}

func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	options, err := s.repo.MenuOptions(r.Context())
	if err != nil {
		s.fail(w, r, err, menuItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, optionsResponse{MenuItems: options})
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		s.log.Warn("health check failed",
			slog.String("request_id", requestID(r.Context())),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
