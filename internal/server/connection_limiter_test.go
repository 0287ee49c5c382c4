package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalConnectionLimiter_Capacity(t *testing.T) {
	limiter := NewGlobalConnectionLimiter(2)

	assert.True(t, limiter.Acquire())
	assert.True(t, limiter.Acquire())
	assert.False(t, limiter.Acquire())

	limiter.Release()
	assert.True(t, limiter.Acquire())
	assert.Equal(t, int64(2), limiter.Current())
}

func TestGlobalConnectionLimiter_ConcurrentAcquire(t *testing.T) {
	limiter := NewGlobalConnectionLimiter(50)

	var wg sync.WaitGroup
	acquired := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired <- limiter.Acquire()
		}()
	}
	wg.Wait()
	close(acquired)

	successes := 0
	for ok := range acquired {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 50, successes)
	assert.Equal(t, int64(50), limiter.Current())
}

func TestIPConnectionLimiter_PerIPIsolation(t *testing.T) {
	limiter := NewIPConnectionLimiter(2)

	assert.True(t, limiter.Acquire("10.0.0.1"))
	assert.True(t, limiter.Acquire("10.0.0.1"))
	assert.False(t, limiter.Acquire("10.0.0.1"))

	// Other IPs are unaffected
	assert.True(t, limiter.Acquire("10.0.0.2"))

	limiter.Release("10.0.0.1")
	assert.True(t, limiter.Acquire("10.0.0.1"))
	assert.Equal(t, 2, limiter.Count("10.0.0.1"))
}

func TestIPConnectionLimiter_ReleaseUnknownIP(t *testing.T) {
	limiter := NewIPConnectionLimiter(2)

	// Must not underflow
	limiter.Release("10.0.0.9")
	assert.Equal(t, 0, limiter.Count("10.0.0.9"))
	assert.True(t, limiter.Acquire("10.0.0.9"))
}

func TestConnectionRateLimiter_BurstThenThrottle(t *testing.T) {
	limiter := NewConnectionRateLimiter(1, 3)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// Fresh IP gets its own bucket
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestConnectionLimits_RollbackOnPerIPReject(t *testing.T) {
	limits := NewConnectionLimits(10, 1, 1000, 1000)

	ok, reason := limits.Acquire("10.0.0.1")
	assert.True(t, ok)
	assert.Empty(t, string(reason))

	// Second acquire from the same IP hits the per-IP limit and must
	// roll back the global slot it took.
	ok, reason = limits.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonPerIP, reason)
	assert.Equal(t, int64(1), limits.global.Current())
}

func TestConnectionLimits_GlobalReject(t *testing.T) {
	limits := NewConnectionLimits(1, 5, 1000, 1000)

	ok, _ := limits.Acquire("10.0.0.1")
	assert.True(t, ok)

	ok, reason := limits.Acquire("10.0.0.2")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonGlobal, reason)
}

func TestConnectionLimits_RateReject(t *testing.T) {
	limits := NewConnectionLimits(100, 100, 1, 1)

	ok, _ := limits.Acquire("10.0.0.1")
	assert.True(t, ok)

	ok, reason := limits.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonRate, reason)
}
