package checksum

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"

	"github.com/cespare/xxhash/v2"
)

// Algorithm is the checksum algorithm name advertised to clients.
const Algorithm = "xxh64"

// Service computes streaming xxhash64 checksums in fixed-size chunks, so memory
// stays bounded regardless of file size. xxhash is a fast non-cryptographic
// hash: it detects accidental corruption, not deliberate tampering. Construct
// once at process start and share.
type Service struct {
	chunkSize int
}

// NewService creates a checksummer.
func NewService(cfg config.ChecksumConfig) port.Checksummer {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}
	return &Service{chunkSize: chunkSize}
}

// Calculate streams path through the hash and returns the hex checksum.
func (s *Service) Calculate(ctx context.Context, path string) domain.ChecksumResult {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return domain.ChecksumResult{ProcessingTime: time.Since(start), Err: fmt.Errorf("open %s: %w", path, err)}
	}
	defer f.Close()

	digest := xxhash.New()
	buf := make([]byte, s.chunkSize)
	var size int64

	for {
		if err := ctx.Err(); err != nil {
			return domain.ChecksumResult{ProcessingTime: time.Since(start), Err: err}
		}

		n, readErr := f.Read(buf)
		if n > 0 {
			size += int64(n)
			// xxhash.Digest.Write never fails.
			_, _ = digest.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return domain.ChecksumResult{ProcessingTime: time.Since(start), Err: fmt.Errorf("read %s: %w", path, readErr)}
		}
	}

	return domain.ChecksumResult{
		Checksum:       fmt.Sprintf("%016x", digest.Sum64()),
		Size:           size,
		ProcessingTime: time.Since(start),
		Valid:          true,
	}
}

// Validate recomputes the checksum of path and compares it, case-insensitively,
// against expected.
func (s *Service) Validate(ctx context.Context, path string, expected string) domain.ChecksumResult {
	result := s.Calculate(ctx, path)
	if result.Err != nil {
		return result
	}

	if !strings.EqualFold(result.Checksum, expected) {
		result.Valid = false
		result.Err = fmt.Errorf("%w: expected %s, got %s", domain.ErrMismatchChecksum, expected, result.Checksum)
	}
	return result
}

// CalculateMany computes checksums independently and in parallel. Results match
// the order of inputs.
func (s *Service) CalculateMany(ctx context.Context, paths []string) []domain.ChecksumResult {
	results := make([]domain.ChecksumResult, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			results[i] = s.Calculate(ctx, path)
		}(i, path)
	}
	wg.Wait()

	return results
}

// SumBytes hashes an in-memory chunk, for per-chunk protocol verification.
func (s *Service) SumBytes(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
