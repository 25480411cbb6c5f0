package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"happy-sandwich/config"
	"happy-sandwich/models"
	"happy-sandwich/services"
)

// OrderNotifier is told about every order created through the API.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, order models.Order, summary *models.Summary)
}

type Server struct {
	repo           *services.Repository
	notifier       OrderNotifier
	cfg            config.HTTPConfig
	includeSummary bool
	throttle       *keyThrottle
	log            *slog.Logger
}

// New builds the API. includeSummary attaches current per-menu totals to new
// order notifications.
func New(repo *services.Repository, notifier OrderNotifier, cfg config.HTTPConfig, includeSummary bool, log *slog.Logger) *Server {
	return &Server{
		repo:           repo,
		notifier:       notifier,
		cfg:            cfg,
		includeSummary: includeSummary,
		throttle:       newKeyThrottle(time.Now),
		log:            log,
	}
}

// Routes returns the full handler chain: request logging, CORS, then routing.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /meta/options", s.read(s.options))

	mux.Handle("GET /menu-items", s.read(s.listMenuItems))
	mux.Handle("POST /menu-items", s.write(s.createMenuItem))
	mux.Handle("PUT /menu-items/{id}", s.write(s.updateMenuItem))
	mux.Handle("DELETE /menu-items/{id}", s.write(s.deleteMenuItem))

	mux.Handle("GET /orders", s.read(s.listOrders))
	mux.Handle("POST /orders", s.write(s.createOrder))
	mux.Handle("GET /orders/export", s.read(s.exportOrders))
	mux.Handle("POST /orders/mark-paid", s.write(s.markPaid))
	mux.Handle("PUT /orders/{id}", s.write(s.updateOrder))
	mux.Handle("DELETE /orders/{id}", s.write(s.deleteOrder))

	mux.Handle("GET /reports/summary", s.read(s.summary))
	mux.Handle("GET /reports/menu-orders", s.read(s.menuOrders))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
	})
	return s.logRequests(c.Handler(mux))
}

// write guards a mutating endpoint with the access key.
func (s *Server) write(h http.HandlerFunc) http.Handler {
	return s.requireAccessKey(h)
}

// read guards a read endpoint only when PROTECT_READS is on.
func (s *Server) read(h http.HandlerFunc) http.Handler {
	if s.cfg.ProtectReads {
		return s.requireAccessKey(h)
	}
	return h
}
