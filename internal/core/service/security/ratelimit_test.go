package security

import (
	"sync"
	"testing"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_ExactBudget(t *testing.T) {
	now := time.Now()
	l := newRateLimiter(time.Minute, 5)
	l.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		assert.NoError(t, l.allow("client-a"), "request %d should pass", i+1)
	}
	assert.ErrorIs(t, l.allow("client-a"), domain.ErrRateLimitExceeded)
}

func TestRateLimiter_BlockLastsFullWindow(t *testing.T) {
	now := time.Now()
	l := newRateLimiter(time.Minute, 1)
	l.now = func() time.Time { return now }

	assert.NoError(t, l.allow("client-a"))
	assert.ErrorIs(t, l.allow("client-a"), domain.ErrRateLimitExceeded)

	// Still blocked halfway through the window, even though the original
	// request has slid out of scope by then.
	now = now.Add(30 * time.Second)
	assert.ErrorIs(t, l.allow("client-a"), domain.ErrRateLimitExceeded)

	// Budget resets once the block elapses.
	now = now.Add(31 * time.Second)
	assert.NoError(t, l.allow("client-a"))
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	now := time.Now()
	l := newRateLimiter(time.Minute, 2)
	l.now = func() time.Time { return now }

	assert.NoError(t, l.allow("client-a"))
	now = now.Add(40 * time.Second)
	assert.NoError(t, l.allow("client-a"))

	// First request is out of the window now, so budget frees up.
	now = now.Add(25 * time.Second)
	assert.NoError(t, l.allow("client-a"))
}

func TestRateLimiter_ClientsIndependent(t *testing.T) {
	now := time.Now()
	l := newRateLimiter(time.Minute, 1)
	l.now = func() time.Time { return now }

	assert.NoError(t, l.allow("client-a"))
	assert.ErrorIs(t, l.allow("client-a"), domain.ErrRateLimitExceeded)
	assert.NoError(t, l.allow("client-b"))
}

func TestRateLimiter_CleanupDropsIdleUnblocked(t *testing.T) {
	now := time.Now()
	l := newRateLimiter(time.Minute, 1)
	l.now = func() time.Time { return now }

	assert.NoError(t, l.allow("idle"))
	assert.NoError(t, l.allow("blocked"))
	assert.ErrorIs(t, l.allow("blocked"), domain.ErrRateLimitExceeded)

	dropped := l.cleanup(now.Add(10*time.Minute), 5*time.Minute)

	assert.Equal(t, 1, dropped)
	l.mu.Lock()
	_, idleKept := l.clients["idle"]
	_, blockedKept := l.clients["blocked"]
	l.mu.Unlock()
	assert.False(t, idleKept)
	assert.True(t, blockedKept)
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	l := newRateLimiter(time.Minute, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = l.allow("client-a")
			}
		}()
	}
	wg.Wait()

	l.mu.Lock()
	count := len(l.clients["client-a"].requests)
	l.mu.Unlock()
	assert.Equal(t, 500, count)
}
