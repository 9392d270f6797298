package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/thumbstick/internal/signal"
	"github.com/ayusman/thumbstick/internal/store"
)

// ProfileHandler serves /api/profiles and /api/profiles/{id}.
type ProfileHandler struct {
	store *store.Store
}

// NewProfileHandler creates a ProfileHandler over s.
func NewProfileHandler(s *store.Store) *ProfileHandler {
	return &ProfileHandler{store: s}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := itemID(r.URL.Path, "/api/profiles")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type listProfilesResponse struct {
	Profiles []*store.Profile `json:"profiles"`
}

func (h *ProfileHandler) list(w http.ResponseWriter) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []*store.Profile{}
	}
	writeJSON(w, http.StatusOK, listProfilesResponse{Profiles: profiles})
}

// create accepts any subset of the profile fields; missing thresholds take
// the defaults.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	p := store.NewProfile("", signal.DefaultConfig())
	if err := json.NewDecoder(r.Body).Decode(p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p.ID = ""
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.store.Profiles().Create(p); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProfileHandler) get(w http.ResponseWriter, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// update overlays the request body onto the stored profile.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	p.ID = id
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.store.Profiles().Update(p); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "profile not found")
	case errors.Is(err, signal.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case isConflict(err):
		writeError(w, http.StatusConflict, "profile name already exists")
	default:
		writeError(w, http.StatusInternalServerError, "failed to access profiles")
	}
}
