package ratelimit

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 9, 12, 19, 0, 0, 0, time.UTC)

func TestAllowCapsWithinWindow(t *testing.T) {
	l := NewSlidingWindow(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("a", t0.Add(time.Duration(i)*time.Second)))
	}
	assert.False(t, l.Allow("a", t0.Add(10*time.Second)))
	assert.Equal(t, 0, l.Remaining("a", t0.Add(10*time.Second)))

	// Other keys are independent.
	assert.True(t, l.Allow("b", t0.Add(10*time.Second)))

	// The first call leaves the window at t0+60s.
	assert.True(t, l.Allow("a", t0.Add(time.Minute)))
	assert.False(t, l.Allow("a", t0.Add(time.Minute+500*time.Millisecond)))
}

func TestRejectedCallsAreNotRecorded(t *testing.T) {
	l := NewSlidingWindow(1, time.Minute)

	require.True(t, l.Allow("k", t0))
	for i := 1; i <= 50; i++ {
		assert.False(t, l.Allow("k", t0.Add(time.Duration(i)*time.Second)))
	}
	// Only the admitted call counts, so the key frees up one window after it.
	assert.True(t, l.Allow("k", t0.Add(time.Minute)))
}

func TestNonPositiveLimitRejects(t *testing.T) {
	l := NewSlidingWindow(0, time.Minute)
	assert.False(t, l.Allow("k", t0))
}

func TestAllowOutOfOrderTimestamps(t *testing.T) {
	l := NewSlidingWindow(2, time.Minute)

	require.True(t, l.Allow("k", t0.Add(10*time.Second)))
	require.True(t, l.Allow("k", t0.Add(5*time.Second)))
	assert.False(t, l.Allow("k", t0.Add(20*time.Second)))

	// The earlier call leaves the window first even though it was recorded last.
	assert.True(t, l.Allow("k", t0.Add(66*time.Second)))
	assert.False(t, l.Allow("k", t0.Add(67*time.Second)))
	assert.Equal(t, 1, l.Remaining("k", t0.Add(71*time.Second)))
}

// For random monotonic call sequences, no window of length W ever holds more
// than N admitted calls.
func TestAllowNeverExceedsLimitInAnyWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		limit := 1 + rng.Intn(15)
		window := time.Duration(1+rng.Intn(60)) * time.Second
		l := NewSlidingWindow(limit, window)

		offsets := make([]int, 300)
		for i := range offsets {
			offsets[i] = rng.Intn(int((5 * time.Minute).Milliseconds()))
		}
		sort.Ints(offsets)

		var admitted []time.Time
		for _, ms := range offsets {
			now := t0.Add(time.Duration(ms) * time.Millisecond)
			if l.Allow("caller", now) {
				admitted = append(admitted, now)
			}
		}

		for i, end := range admitted {
			count := 0
			for j := 0; j <= i; j++ {
				if admitted[j].After(end.Add(-window)) {
					count++
				}
			}
			require.LessOrEqual(t, count, limit,
				fmt.Sprintf("trial %d: %d calls in window ending %s", trial, count, end))
		}
	}
}

func TestAllowConcurrentSameKey(t *testing.T) {
	l := NewSlidingWindow(10, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared", t0) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, admitted)
}

func TestSweepDropsIdleKeys(t *testing.T) {
	l := NewSlidingWindow(5, time.Minute)
	l.Allow("old", t0)
	l.Allow("fresh", t0.Add(90*time.Second))

	dropped := l.Sweep(t0.Add(2 * time.Minute))
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 4, l.Remaining("fresh", t0.Add(2*time.Minute)))
	assert.Equal(t, 5, l.Remaining("old", t0.Add(2*time.Minute)))
}
