package upload

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GetOffset reports the current offset so a client can resume.
func (h *Handler) GetOffset(w http.ResponseWriter, r *http.Request) {
	h.setProtocolHeaders(w)

	id, err := uuid.Parse(chi.URLParam(r, "uploadID"))
	if err != nil {
		http.Error(w, "invalid upload id", http.StatusNotFound)
		return
	}

	session, getErr := h.uploadService.GetStatus(r.Context(), id)
	switch {
	case errors.Is(getErr, domain.ErrSessionNotFound):
		http.Error(w, getErr.Error(), http.StatusNotFound)
		return
	case getErr != nil:
		h.logger.Error("error getting upload status", "error", getErr)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Offsets must never be served from a cache.
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Upload-Offset", strconv.FormatInt(session.Offset, 10))
	w.Header().Set("Upload-Length", strconv.FormatInt(session.TotalLength, 10))
	w.WriteHeader(http.StatusOK)
}
