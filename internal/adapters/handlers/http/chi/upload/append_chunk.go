package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OffsetConflictResponse tells the client where the upload actually stands.
type OffsetConflictResponse struct {
	Expected int64 `json:"expected"`
	Received int64 `json:"received"`
}

// AppendChunk applies the request body at the claimed Upload-Offset.
func (h *Handler) AppendChunk(w http.ResponseWriter, r *http.Request) {
	h.setProtocolHeaders(w)

	id, err := uuid.Parse(chi.URLParam(r, "uploadID"))
	if err != nil {
		http.Error(w, "invalid upload id", http.StatusNotFound)
		return
	}

	offsetHeader := r.Header.Get("Upload-Offset")
	claimedOffset, err := strconv.ParseInt(offsetHeader, 10, 64)
	if err != nil || claimedOffset < 0 {
		http.Error(w, fmt.Sprintf("invalid Upload-Offset %q", offsetHeader), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	req := port.ChunkRequest{
		ID:            id,
		ClaimedOffset: claimedOffset,
		Body:          body,
		ContentType:   r.Header.Get("Content-Type"),
	}
	req.ChecksumAlgorithm, req.Checksum = parseUploadChecksum(r.Header.Get("Upload-Checksum"))

	session, appendErr := h.uploadService.AppendChunk(r.Context(), req)

	var conflict *domain.OffsetConflictError
	switch {
	case errors.As(appendErr, &conflict):
		w.Header().Set("Upload-Offset", strconv.FormatInt(conflict.Expected, 10))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		if err := json.NewEncoder(w).Encode(OffsetConflictResponse{
			Expected: conflict.Expected,
			Received: conflict.Received,
		}); err != nil {
			h.logger.Error("error encoding conflict response", "error", err)
		}
		return
	case errors.Is(appendErr, domain.ErrSessionNotFound):
		http.Error(w, appendErr.Error(), http.StatusNotFound)
		return
	case errors.Is(appendErr, domain.ErrContentTypeMismatch),
		errors.Is(appendErr, domain.ErrInvalidLength),
		errors.Is(appendErr, domain.ErrOffsetConflict):
		http.Error(w, appendErr.Error(), http.StatusBadRequest)
		return
	case errors.Is(appendErr, domain.ErrMismatchChecksum):
		http.Error(w, appendErr.Error(), StatusChecksumMismatch)
		return
	case appendErr != nil && session != nil:
		// The final chunk landed but its handoff to the storage pipeline failed.
		// The client must know the upload will not be processed.
		h.logger.Error("completed upload could not be queued", "session_id", session.ID, "error", appendErr)
		w.Header().Set("Upload-Offset", strconv.FormatInt(session.Offset, 10))
		http.Error(w, "upload accepted but could not be queued for processing", http.StatusInternalServerError)
		return
	case appendErr != nil:
		h.logger.Error("error appending chunk", "error", appendErr)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Upload-Offset", strconv.FormatInt(session.Offset, 10))
	w.WriteHeader(http.StatusNoContent)
}

// parseUploadChecksum splits "xxh64 <hex>" into algorithm and value.
func parseUploadChecksum(header string) (string, string) {
	if header == "" {
		return "", ""
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return header, ""
	}
	return fields[0], fields[1]
}
