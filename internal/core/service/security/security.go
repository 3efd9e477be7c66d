package security

import (
	"strings"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/config"
)

// Validator runs the pre-upload security checks: per-client rate limiting,
// extension/MIME allow-listing and filename sanitization. All lists and budgets
// come from configuration.
type Validator struct {
	cfg         config.SecurityConfig
	limiter     *rateLimiter
	deniedExts  map[string]struct{}
	allowedMime map[string]struct{}
}

// NewValidator creates a Validator from security configuration.
func NewValidator(cfg config.SecurityConfig) *Validator {
	denied := make(map[string]struct{}, len(cfg.DeniedExtensions))
	for _, ext := range cfg.DeniedExtensions {
		denied[strings.ToLower(strings.TrimSpace(ext))] = struct{}{}
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedMimeTypes))
	for _, mt := range cfg.AllowedMimeTypes {
		allowed[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}

	return &Validator{
		cfg:         cfg,
		limiter:     newRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMaxRequests),
		deniedExts:  denied,
		allowedMime: allowed,
	}
}

// Allow consumes one unit of clientID's window budget.
func (v *Validator) Allow(clientID string) error {
	return v.limiter.allow(clientID)
}

// CleanupIdleClients drops rate limit records that are idle and unblocked.
// Meant to be driven by a periodic ticker.
func (v *Validator) CleanupIdleClients(now time.Time) int {
	return v.limiter.cleanup(now, v.cfg.RateLimitCleanup)
}
