package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/thumbstick/internal/store"
)

// RecordingHandler serves /api/recordings and /api/recordings/{id}.
type RecordingHandler struct {
	store *store.Store
}

// NewRecordingHandler creates a RecordingHandler over s.
func NewRecordingHandler(s *store.Store) *RecordingHandler {
	return &RecordingHandler{store: s}
}

type recordingResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Frames     int    `json:"frames"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

func toRecordingResponse(rec *store.Recording) recordingResponse {
	return recordingResponse{
		ID:         rec.ID,
		Name:       rec.Name,
		Frames:     rec.Frames,
		DurationMs: rec.Duration.Milliseconds(),
		CreatedAt:  rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *RecordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := itemID(r.URL.Path, "/api/recordings")

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.list(w)
	case id != "" && r.Method == http.MethodGet:
		h.get(w, id)
	case id != "" && r.Method == http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RecordingHandler) list(w http.ResponseWriter) {
	recs, err := h.store.Recordings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list recordings")
		return
	}
	out := make([]recordingResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordingResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"recordings": out})
}

func (h *RecordingHandler) get(w http.ResponseWriter, id string) {
	rec, err := h.store.Recordings().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "recording not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get recording")
		return
	}
	writeJSON(w, http.StatusOK, toRecordingResponse(rec))
}

func (h *RecordingHandler) delete(w http.ResponseWriter, id string) {
	err := h.store.Recordings().Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "recording not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete recording")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
