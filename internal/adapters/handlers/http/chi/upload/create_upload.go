package upload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
)

// CreateUpload opens a new upload session from Upload-Length and the optional
// Upload-Metadata header.
func (h *Handler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	h.setProtocolHeaders(w)

	lengthHeader := r.Header.Get("Upload-Length")
	totalLength, err := strconv.ParseInt(lengthHeader, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid Upload-Length %q", lengthHeader), http.StatusBadRequest)
		return
	}

	metadata, err := parseUploadMetadata(r.Header.Get("Upload-Metadata"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, createErr := h.uploadService.CreateSession(r.Context(), clientID(r), totalLength, metadata)
	switch {
	case errors.Is(createErr, domain.ErrRateLimitExceeded):
		http.Error(w, createErr.Error(), http.StatusTooManyRequests)
		return
	case errors.Is(createErr, domain.ErrInvalidLength):
		http.Error(w, createErr.Error(), http.StatusBadRequest)
		return
	case errors.Is(createErr, domain.ErrFileSizeTooBig):
		http.Error(w, createErr.Error(), http.StatusRequestEntityTooLarge)
		return
	case errors.Is(createErr, domain.ErrInvalidFileType), errors.Is(createErr, domain.ErrDangerousExtension):
		http.Error(w, createErr.Error(), http.StatusUnprocessableEntity)
		return
	case createErr != nil:
		h.logger.Error("error creating upload session", "error", createErr)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Location", "/files/"+session.ID.String())
	w.WriteHeader(http.StatusCreated)
}

// parseUploadMetadata decodes the tus Upload-Metadata header: comma-separated
// pairs of "key base64(value)", value optional.
func parseUploadMetadata(header string) (map[string]string, error) {
	if header == "" {
		return nil, nil
	}

	metadata := make(map[string]string)
	for _, pair := range strings.Split(header, ",") {
		fields := strings.Fields(strings.TrimSpace(pair))
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("invalid Upload-Metadata pair %q", pair)
		}

		key := fields[0]
		if len(fields) == 1 {
			metadata[key] = ""
			continue
		}

		value, err := base64.StdEncoding.DecodeString(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid Upload-Metadata value for %q: %v", key, err)
		}
		metadata[key] = string(value)
	}
	return metadata, nil
}
