package upload

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// StatusChecksumMismatch is the non-standard tus status for a chunk whose
// declared checksum does not match its bytes.
const StatusChecksumMismatch = 460

// Handler exposes the resumable upload protocol over HTTP.
type Handler struct {
	uploadService port.UploadService
	logger        *slog.Logger
}

// NewUploadHandler creates Handler
func NewUploadHandler(service port.UploadService, logger *slog.Logger) *Handler {
	return &Handler{
		uploadService: service,
		logger:        logger,
	}
}

// Routes exposes handler routes
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Options("/", h.Capabilities)
	router.Post("/", h.CreateUpload)
	router.Head("/{uploadID}", h.GetOffset)
	router.Patch("/{uploadID}", h.AppendChunk)
	router.Delete("/{uploadID}", h.Terminate)

	return router
}

// Capabilities advertises the protocol surface.
func (h *Handler) Capabilities(w http.ResponseWriter, r *http.Request) {
	caps := h.uploadService.Capabilities()

	w.Header().Set("Tus-Resumable", caps.Version)
	w.Header().Set("Tus-Version", caps.Version)
	w.Header().Set("Tus-Extension", strings.Join(caps.Extensions, ","))
	w.Header().Set("Tus-Max-Size", strconv.FormatInt(caps.MaxSize, 10))
	w.Header().Set("Tus-Checksum-Algorithm", strings.Join(caps.ChecksumAlgorithms, ","))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setProtocolHeaders(w http.ResponseWriter) {
	w.Header().Set("Tus-Resumable", h.uploadService.Capabilities().Version)
}

// clientID identifies the caller for rate limiting. RealIP middleware has
// already resolved proxy headers into RemoteAddr.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
