package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/thumbstick/internal/store"
)

// BindingHandler serves /api/bindings and /api/bindings/{id}.
type BindingHandler struct {
	store *store.Store
}

// NewBindingHandler creates a BindingHandler over s.
func NewBindingHandler(s *store.Store) *BindingHandler {
	return &BindingHandler{store: s}
}

type createBindingRequest struct {
	Entity        string   `json:"entity"`
	ProfileID     string   `json:"profile_id"`
	MovementSpeed *float64 `json:"movement_speed"`
}

func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := itemID(r.URL.Path, "/api/bindings")

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.list(w, r)
	case id == "" && r.Method == http.MethodPost:
		h.create(w, r)
	case id != "" && r.Method == http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List(r.URL.Query().Get("profile_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bindings")
		return
	}
	if bindings == nil {
		bindings = []store.Binding{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bindings": bindings})
}

func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Entity == "" || req.ProfileID == "" {
		writeError(w, http.StatusBadRequest, "entity and profile_id are required")
		return
	}
	speed := 1.0
	if req.MovementSpeed != nil {
		speed = *req.MovementSpeed
	}
	if speed < 0 {
		writeError(w, http.StatusBadRequest, "movement_speed must not be negative")
		return
	}

	if _, err := h.store.Profiles().GetByID(req.ProfileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown profile_id")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to look up profile")
		return
	}

	b := &store.Binding{Entity: req.Entity, ProfileID: req.ProfileID, MovementSpeed: speed}
	if err := h.store.Bindings().Create(b); err != nil {
		if isConflict(err) {
			writeError(w, http.StatusConflict, "entity is already bound")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create binding")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BindingHandler) delete(w http.ResponseWriter, id string) {
	err := h.store.Bindings().Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "binding not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete binding")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
