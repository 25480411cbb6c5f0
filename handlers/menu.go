package handlers

import (
	"net/http"
	"strconv"
)

const menuItemNotFound = "Menu item not found"

func (s *Server) listMenuItems(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if v := r.URL.Query().Get("active_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "active_only must be a boolean")
			return
		}
		activeOnly = b
	}
	items, err := s.repo.ListMenuItems(r.Context(), activeOnly)
	if err != nil {
		s.fail(w, r, err, menuItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validateCreate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := s.repo.CreateMenuItem(r.Context(), req.createInput())
	if err != nil {
		s.fail(w, r, err, menuItemNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req menuItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := s.repo.GetMenuItem(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, menuItemNotFound)
		return
	}
	item, err = s.repo.UpdateMenuItem(r.Context(), item, req.update())
	if err != nil {
		s.fail(w, r, err, menuItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := s.repo.GetMenuItem(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, menuItemNotFound)
		return
	}
	if err := s.repo.DeleteMenuItem(r.Context(), item); err != nil {
		s.fail(w, r, err, menuItemNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
