package upload

import (
	"errors"
	"net/http"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Terminate deletes the session and its staged bytes.
func (h *Handler) Terminate(w http.ResponseWriter, r *http.Request) {
	h.setProtocolHeaders(w)

	id, err := uuid.Parse(chi.URLParam(r, "uploadID"))
	if err != nil {
		http.Error(w, "invalid upload id", http.StatusNotFound)
		return
	}

	deleteErr := h.uploadService.DeleteSession(r.Context(), id)
	switch {
	case errors.Is(deleteErr, domain.ErrSessionNotFound):
		http.Error(w, deleteErr.Error(), http.StatusNotFound)
		return
	case errors.Is(deleteErr, domain.ErrSessionCompleted):
		http.Error(w, deleteErr.Error(), http.StatusConflict)
		return
	case deleteErr != nil:
		h.logger.Error("error terminating upload session", "error", deleteErr)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
