package upload_test

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	chirouter "github.com/QriusGlobal/formio-server-sub004/internal/adapters/handlers/http/chi"
	uploadhandler "github.com/QriusGlobal/formio-server-sub004/internal/adapters/handlers/http/chi/upload"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/sessionstore/memory"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/staging"
	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/checksum"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/completion"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/security"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router http.Handler
	hook   *completion.MockCompletionHook
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stage, err := staging.NewDisk(t.TempDir())
	require.NoError(t, err)

	validator := security.NewValidator(config.SecurityConfig{
		RateLimitWindow:      time.Minute,
		RateLimitMaxRequests: 1000,
		AllowedMimeTypes:     []string{"image/png", "application/pdf", "text/plain"},
		DeniedExtensions:     []string{".exe", ".php", ".sh"},
		MaxFileNameLength:    255,
	})

	hook := completion.NewMockCompletionHook()

	service := upload.NewUploadService(
		memory.NewStore(stage),
		validator,
		hook,
		checksum.NewService(config.ChecksumConfig{ChunkSize: 64 * 1024}),
		config.UploadConfig{
			MaxUploadSize: 10 * 1024 * 1024,
			SessionTTL:    30 * time.Minute,
		},
		logger,
	)

	handler := uploadhandler.NewUploadHandler(service, logger)
	return &testServer{
		router: chirouter.NewRouter(logger, handler, "test"),
		hook:   hook,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func encodeMetadata(pairs map[string]string) string {
	parts := make([]string, 0, len(pairs))
	for k, v := range pairs {
		parts = append(parts, k+" "+base64.StdEncoding.EncodeToString([]byte(v)))
	}
	return strings.Join(parts, ",")
}

func (s *testServer) createUpload(t *testing.T, length int64, metadata map[string]string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/files", nil)
	req.Header.Set("Upload-Length", strconv.FormatInt(length, 10))
	if metadata != nil {
		req.Header.Set("Upload-Metadata", encodeMetadata(metadata))
	}

	rec := s.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")
	require.NotEmpty(t, location)
	return location
}

func (s *testServer) patchChunk(t *testing.T, location string, offset int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, location, strings.NewReader(body))
	req.Header.Set("Upload-Offset", strconv.FormatInt(offset, 10))
	req.Header.Set("Content-Type", "application/offset+octet-stream")
	return s.do(t, req)
}

func defaultMetadata() map[string]string {
	return map[string]string{
		"filename": "report.pdf",
		"filetype": "application/pdf",
		"formId":   "form-1",
		"fieldKey": "attachment",
	}
}

func TestCapabilities(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, httptest.NewRequest(http.MethodOptions, "/files", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1.0.0", rec.Header().Get("Tus-Resumable"))
	assert.Equal(t, "1.0.0", rec.Header().Get("Tus-Version"))
	assert.Equal(t, "creation,termination,checksum", rec.Header().Get("Tus-Extension"))
	assert.Equal(t, strconv.Itoa(10*1024*1024), rec.Header().Get("Tus-Max-Size"))
	assert.Equal(t, "xxh64", rec.Header().Get("Tus-Checksum-Algorithm"))
}

func TestSingleChunkUpload(t *testing.T) {
	s := newTestServer(t)
	s.hook.On("OnComplete", mock.Anything, mock.Anything).Return(nil)

	content := "exactly twenty-one by" // 21 bytes
	require.Len(t, content, 21)

	location := s.createUpload(t, 21, defaultMetadata())

	rec := s.patchChunk(t, location, 0, content)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, "21", rec.Header().Get("Upload-Offset"))

	s.hook.AssertNumberOfCalls(t, "OnComplete", 1)
}

func TestChunkedUpload(t *testing.T) {
	s := newTestServer(t)
	s.hook.On("OnComplete", mock.Anything, mock.Anything).Return(nil)

	location := s.createUpload(t, 5120, defaultMetadata())

	chunks := []int{1024, 1024, 3072}
	var offset int64
	for _, size := range chunks {
		rec := s.patchChunk(t, location, offset, strings.Repeat("x", size))
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		offset += int64(size)
		assert.Equal(t, strconv.FormatInt(offset, 10), rec.Header().Get("Upload-Offset"))
	}

	// Hook fires exactly once, on the final chunk.
	s.hook.AssertNumberOfCalls(t, "OnComplete", 1)

	rec := s.do(t, httptest.NewRequest(http.MethodHead, location, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5120", rec.Header().Get("Upload-Offset"))
	assert.Equal(t, "5120", rec.Header().Get("Upload-Length"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestOffsetConflict(t *testing.T) {
	s := newTestServer(t)
	s.hook.On("OnComplete", mock.Anything, mock.Anything).Return(nil)

	location := s.createUpload(t, 10, defaultMetadata())

	// Claim offset 5 while the server is at 0.
	rec := s.patchChunk(t, location, 5, "hello")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("Upload-Offset"))

	var conflict uploadhandler.OffsetConflictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflict))
	assert.Equal(t, int64(0), conflict.Expected)
	assert.Equal(t, int64(5), conflict.Received)

	// Client self-corrects with the expected offset.
	rec = s.patchChunk(t, location, 0, "helloworld")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Upload-Offset"))
}

func TestWrongContentType(t *testing.T) {
	s := newTestServer(t)

	location := s.createUpload(t, 10, defaultMetadata())

	req := httptest.NewRequest(http.MethodPatch, location, strings.NewReader("hello"))
	req.Header.Set("Upload-Offset", "0")
	req.Header.Set("Content-Type", "text/plain")

	rec := s.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, httptest.NewRequest(http.MethodHead, "/files/6ba7b810-9dad-11d1-80b4-00c04fd430c8", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.patchChunk(t, "/files/6ba7b810-9dad-11d1-80b4-00c04fd430c8", 0, "data")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodHead, "/files/not-a-uuid", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUpload_Validation(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing length", func(t *testing.T) {
		rec := s.do(t, httptest.NewRequest(http.MethodPost, "/files", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero length", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files", nil)
		req.Header.Set("Upload-Length", "0")
		rec := s.do(t, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("over max size", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files", nil)
		req.Header.Set("Upload-Length", strconv.Itoa(100*1024*1024))
		rec := s.do(t, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("dangerous extension", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files", nil)
		req.Header.Set("Upload-Length", "100")
		req.Header.Set("Upload-Metadata", encodeMetadata(map[string]string{
			"filename": "malware.exe",
			"filetype": "application/pdf",
		}))
		rec := s.do(t, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("mime not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files", nil)
		req.Header.Set("Upload-Length", "100")
		req.Header.Set("Upload-Metadata", encodeMetadata(map[string]string{
			"filename": "movie.mkv",
			"filetype": "video/x-matroska",
		}))
		rec := s.do(t, req)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed metadata", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files", nil)
		req.Header.Set("Upload-Length", "100")
		req.Header.Set("Upload-Metadata", "filename !!notbase64!!")
		rec := s.do(t, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stage, err := staging.NewDisk(t.TempDir())
	require.NoError(t, err)

	validator := security.NewValidator(config.SecurityConfig{
		RateLimitWindow:      time.Minute,
		RateLimitMaxRequests: 2,
		AllowedMimeTypes:     []string{"application/pdf"},
		MaxFileNameLength:    255,
	})
	hook := completion.NewMockCompletionHook()
	service := upload.NewUploadService(memory.NewStore(stage), validator, hook,
		checksum.NewService(config.ChecksumConfig{ChunkSize: 64}),
		config.UploadConfig{MaxUploadSize: 1024, SessionTTL: time.Minute}, logger)
	router := chirouter.NewRouter(logger, uploadhandler.NewUploadHandler(service, logger), "test")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/files", nil)
		req.Header.Set("Upload-Length", "100")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/files", nil)
	req.Header.Set("Upload-Length", "100")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestChunkChecksum(t *testing.T) {
	s := newTestServer(t)
	s.hook.On("OnComplete", mock.Anything, mock.Anything).Return(nil)

	sums := checksum.NewService(config.ChecksumConfig{ChunkSize: 64})
	content := "checksummed content"

	location := s.createUpload(t, int64(len(content)), defaultMetadata())

	t.Run("mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, location, strings.NewReader(content))
		req.Header.Set("Upload-Offset", "0")
		req.Header.Set("Content-Type", "application/offset+octet-stream")
		req.Header.Set("Upload-Checksum", "xxh64 deadbeefdeadbeef")
		rec := s.do(t, req)
		assert.Equal(t, uploadhandler.StatusChecksumMismatch, rec.Code)
	})

	t.Run("match", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, location, strings.NewReader(content))
		req.Header.Set("Upload-Offset", "0")
		req.Header.Set("Content-Type", "application/offset+octet-stream")
		req.Header.Set("Upload-Checksum", "xxh64 "+sums.SumBytes([]byte(content)))
		rec := s.do(t, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	})
}

func TestCompletionHookFailure(t *testing.T) {
	s := newTestServer(t)
	s.hook.On("OnComplete", mock.Anything, mock.Anything).Return(errors.New("queue unavailable"))

	content := "final bytes"
	location := s.createUpload(t, int64(len(content)), defaultMetadata())

	rec := s.patchChunk(t, location, 0, content)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The bytes were accepted even though the handoff failed.
	assert.Equal(t, strconv.Itoa(len(content)), rec.Header().Get("Upload-Offset"))
	assert.Contains(t, rec.Body.String(), "could not be queued")
}

func TestTerminate(t *testing.T) {
	s := newTestServer(t)

	location := s.createUpload(t, 100, defaultMetadata())

	rec := s.do(t, httptest.NewRequest(http.MethodDelete, location, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodHead, location, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.patchChunk(t, location, 0, "late")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodDelete, location, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTerminate_CompletedUploadRefused(t *testing.T) {
	s := newTestServer(t)
	s.hook.On("OnComplete", mock.Anything, mock.Anything).Return(nil).Once()

	location := s.createUpload(t, 4, defaultMetadata())
	rec := s.patchChunk(t, location, 0, "done")
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The completed upload is already queued for storage; its staged bytes
	// are no longer the client's to destroy.
	rec = s.do(t, httptest.NewRequest(http.MethodDelete, location, nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodHead, location, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("Upload-Offset"))
	s.hook.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
