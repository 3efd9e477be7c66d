package security

import (
	"sync"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"
)

type clientRecord struct {
	requests     []time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

// rateLimiter is a sliding-window counter per client id. Exceeding the window
// budget blocks the client for one full window; requests during the block are
// rejected without consuming budget. Shared across all requests from a client,
// so every access takes the lock.
type rateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	clients map[string]*clientRecord
	now     func() time.Time
}

func newRateLimiter(window time.Duration, max int) *rateLimiter {
	return &rateLimiter{
		window:  window,
		max:     max,
		clients: make(map[string]*clientRecord),
		now:     time.Now,
	}
}

func (l *rateLimiter) allow(clientID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	rec, ok := l.clients[clientID]
	if !ok {
		rec = &clientRecord{}
		l.clients[clientID] = rec
	}
	rec.lastSeen = now

	if now.Before(rec.blockedUntil) {
		return domain.ErrRateLimitExceeded
	}

	// Slide the window: keep only requests younger than it.
	cutoff := now.Add(-l.window)
	kept := rec.requests[:0]
	for _, t := range rec.requests {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	rec.requests = kept

	if len(rec.requests) >= l.max {
		rec.blockedUntil = now.Add(l.window)
		return domain.ErrRateLimitExceeded
	}

	rec.requests = append(rec.requests, now)
	return nil
}

// cleanup drops records idle for longer than idleAfter and not currently blocked.
func (l *rateLimiter) cleanup(now time.Time, idleAfter time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for id, rec := range l.clients {
		if now.Before(rec.blockedUntil) {
			continue
		}
		if now.Sub(rec.lastSeen) > idleAfter {
			delete(l.clients, id)
			dropped++
		}
	}
	return dropped
}
