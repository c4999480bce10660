// Package ratelimit provides a per-key sliding-window request limiter.
//
// Unlike a token bucket, the window log guarantees that no more than Limit
// calls are admitted in any interval of length Window. Rejected calls are
// not queued; callers get false and must fail the request themselves.
package ratelimit

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrRateLimited is returned by callers that surface a rejected Allow.
var ErrRateLimited = errors.New("rate limit exceeded")

// SlidingWindow admits at most limit calls per key within any window.
type SlidingWindow struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	keys map[string]*keyLog
}

type keyLog struct {
	mu    sync.Mutex
	times []time.Time // ascending
	dead  bool // swept; callers must look the key up again
}

// NewSlidingWindow creates a limiter. A non-positive limit rejects everything.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		window: window,
		keys:   make(map[string]*keyLog),
	}
}

// Allow reports whether a call for key at now is admitted, recording it if so.
// The check and the record happen under the key's lock.
func (l *SlidingWindow) Allow(key string, now time.Time) bool {
	log := l.lockedLog(key)
	defer log.mu.Unlock()

	log.times = prune(log.times, now.Add(-l.window))
	if len(log.times) >= l.limit {
		return false
	}
	log.times = insert(log.times, now)
	return true
}

// Remaining returns how many calls key may still make at now.
func (l *SlidingWindow) Remaining(key string, now time.Time) int {
	log := l.lockedLog(key)
	defer log.mu.Unlock()

	log.times = prune(log.times, now.Add(-l.window))
	if n := l.limit - len(log.times); n > 0 {
		return n
	}
	return 0
}

// Sweep drops keys with no calls inside the window ending at now.
func (l *SlidingWindow) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	dropped := 0
	for key, log := range l.keys {
		log.mu.Lock()
		log.times = prune(log.times, cutoff)
		empty := len(log.times) == 0
		if empty {
			log.dead = true
		}
		log.mu.Unlock()
		if empty {
			delete(l.keys, key)
			dropped++
		}
	}
	return dropped
}

// lockedLog returns the live log of key with its mutex held.
func (l *SlidingWindow) lockedLog(key string) *keyLog {
	for {
		l.mu.Lock()
		log, ok := l.keys[key]
		if !ok {
			log = &keyLog{}
			l.keys[key] = log
		}
		l.mu.Unlock()

		log.mu.Lock()
		if !log.dead {
			return log
		}
		log.mu.Unlock()
	}
}

// insert adds t keeping times ascending. Concurrent callers may reach the
// lock with their now values out of order.
func insert(times []time.Time, t time.Time) []time.Time {
	i := sort.Search(len(times), func(i int) bool { return times[i].After(t) })
	times = append(times, time.Time{})
	copy(times[i+1:], times[i:])
	times[i] = t
	return times
}

// prune drops timestamps at or before cutoff from the ascending times.
func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return times
	}
	return append(times[:0], times[i:]...)
}
