package handlers

import (
	"log/slog"
	"net/http"

	"happy-sandwich/models"
)

const orderNotFound = "Order not found"

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.repo.ListOrders(r.Context())
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := s.repo.PlaceOrder(r.Context(), req.input())
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}

	s.notifier.OrderCreated(r.Context(), *order, s.notificationSummary(r))
	writeJSON(w, http.StatusCreated, order)
}

// notificationSummary is nil unless summaries are enabled; a failed summary
// only drops it from the message.
func (s *Server) notificationSummary(r *http.Request) *models.Summary {
	if !s.includeSummary {
		return nil
	}
	summary, err := s.repo.ComputeSummary(r.Context())
	if err != nil {
		s.log.Warn("failed to compute summary for notification",
			slog.String("request_id", requestID(r.Context())),
			slog.Any("error", err),
		)
		return nil
	}
	return summary
}

func (s *Server) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req updateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := s.repo.GetOrder(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	order, err = s.repo.ReviseOrder(r.Context(), order, req.update())
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := s.repo.GetOrder(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	if err := s.repo.DeleteOrder(r.Context(), order); err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type markPaidResponse struct {
	Updated int64 `json:"updated"`
	IsPaid  bool  `json:"is_paid"`
}

func (s *Server) markPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, paid, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.repo.MarkPaidByDate(r.Context(), start, end, paid)
	if err != nil {
		s.fail(w, r, err, orderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, markPaidResponse{Updated: n, IsPaid: paid})
}
