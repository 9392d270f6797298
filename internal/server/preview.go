package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/HugoSmits86/nativewebp"

	"github.com/ayusman/thumbstick/internal/capture"
)

// PreviewHandler serves the latest camera frame as a WebP image.
type PreviewHandler struct {
	latest *capture.Latest
}

// NewPreviewHandler creates a PreviewHandler over latest, which may be nil
// when no camera is in use.
func NewPreviewHandler(latest *capture.Latest) *PreviewHandler {
	return &PreviewHandler{latest: latest}
}

func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.latest == nil {
		http.Error(w, "no camera", http.StatusServiceUnavailable)
		return
	}
	img, at, ok := h.latest.Image()
	if !ok {
		http.Error(w, "no frame captured yet", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		http.Error(w, "failed to encode frame", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Frame-Timestamp", strconv.FormatInt(at.UnixMilli(), 10))
	w.Write(buf.Bytes())
}
