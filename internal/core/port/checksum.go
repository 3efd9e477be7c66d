package port

import (
	"context"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
)

// Checksummer computes streaming fast hashes for corruption detection.
type Checksummer interface {
	Calculate(ctx context.Context, path string) domain.ChecksumResult
	Validate(ctx context.Context, path string, expected string) domain.ChecksumResult
	CalculateMany(ctx context.Context, paths []string) []domain.ChecksumResult
	SumBytes(data []byte) string
}
