// Package gateway serializes every call to the schedule provider through one
// FIFO queue drained by a single worker.
//
// The worker enforces a minimum delay after each execution (success or
// failure) and a rolling daily quota. When the quota is exhausted, every
// item queued at that moment fails with ErrQuotaExceeded and draining stops.
//
// One Gateway is built by the composition root and handed to every consumer.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/sideline/internal/metrics"
)

// ErrQuotaExceeded is returned for items failed by daily quota exhaustion.
var ErrQuotaExceeded = errors.New("schedule provider daily quota exceeded")

const (
	defaultMinDelay    = time.Second
	defaultDailyCap    = 2000
	defaultQuotaWindow = 24 * time.Hour
)

// Config controls gateway pacing.
type Config struct {
	MinDelay    time.Duration // sleep after every execution
	DailyCap    int           // successful calls allowed per window
	QuotaWindow time.Duration // rolling quota window, 24h by default
}

// Gateway is the serial request queue.
type Gateway struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	sleep  func(time.Duration)

	mu          sync.Mutex
	queue       []*item
	running     string // id of the executing item, "" when idle
	draining    bool
	used        int
	windowStart time.Time
}

type item struct {
	id   string
	ctx  context.Context
	fn   func(context.Context) (interface{}, error)
	done chan result
}

type result struct {
	value interface{}
	err   error
}

// New creates a gateway. Zero config fields take defaults.
func New(cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = defaultMinDelay
	}
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = defaultDailyCap
	}
	if cfg.QuotaWindow <= 0 {
		cfg.QuotaWindow = defaultQuotaWindow
	}
	g := &Gateway{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		sleep:  time.Sleep,
	}
	g.windowStart = g.now()
	return g
}

// Do enqueues fn and waits for its result.
//
// If ctx ends first, Do returns ctx.Err() but the item stays queued: it still
// executes (with cancellation detached) and, on success, still counts against
// the daily quota.
func (g *Gateway) Do(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	it := &item{
		id:   uuid.NewString(),
		ctx:  context.WithoutCancel(ctx),
		fn:   fn,
		done: make(chan result, 1),
	}
	g.enqueue(it)

	select {
	case r := <-it.done:
		return r.value, r.err
	case <-ctx.Done():
		g.logger.Debug("Gateway caller abandoned item", "item", it.id)
		return nil, ctx.Err()
	}
}

// Call is a typed wrapper around Gateway.Do.
func Call[T any](ctx context.Context, g *Gateway, fn func(context.Context) (T, error)) (T, error) {
	v, err := g.Do(ctx, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Stats returns a snapshot of queue and quota state. Items are named by the
// ids the gateway logs them under.
func (g *Gateway) Stats() map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return map[string]interface{}{
		"queued":       len(g.queue),
		"queued_items": itemIDs(g.queue),
		"running_item": g.running,
		"draining":     g.draining,
		"daily_used":   g.used,
		"daily_cap":    g.cfg.DailyCap,
		"window_start": g.windowStart.UTC().Format(time.RFC3339),
		"min_delay_ms": g.cfg.MinDelay.Milliseconds(),
	}
}

func (g *Gateway) enqueue(it *item) {
	g.mu.Lock()
	g.queue = append(g.queue, it)
	metrics.GatewayQueueDepth.Set(float64(len(g.queue)))
	start := !g.draining
	g.draining = true
	g.mu.Unlock()

	if start {
		go g.drain()
	}
}

// drain is the lone worker. It exits when the queue is empty or the quota
// is exhausted; the next enqueue starts a fresh worker.
func (g *Gateway) drain() {
	for {
		it, failed := g.next()
		if failed != nil {
			g.logger.Warn("Gateway daily quota exhausted, failing queued items",
				"failed", len(failed), "items", itemIDs(failed), "daily_cap", g.cfg.DailyCap)
			for _, f := range failed {
				metrics.GatewayExecutions.WithLabelValues("quota").Inc()
				f.done <- result{err: ErrQuotaExceeded}
			}
			return
		}
		if it == nil {
			return
		}

		value, err := it.fn(it.ctx)

		g.mu.Lock()
		g.running = ""
		if err == nil {
			g.used++
			metrics.GatewayDailyUsed.Set(float64(g.used))
		}
		g.mu.Unlock()

		if err == nil {
			metrics.GatewayExecutions.WithLabelValues("success").Inc()
		} else {
			metrics.GatewayExecutions.WithLabelValues("failure").Inc()
			g.logger.Debug("Gateway item failed", "item", it.id, "error", err)
		}
		it.done <- result{value: value, err: err}

		g.sleep(g.cfg.MinDelay)
	}
}

// next pops the head item. It returns the whole queue as failed when the
// quota is exhausted, and (nil, nil) when there is nothing left to do.
func (g *Gateway) next() (*item, []*item) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.queue) == 0 {
		g.draining = false
		return nil, nil
	}

	now := g.now()
	if now.Sub(g.windowStart) >= g.cfg.QuotaWindow {
		g.used = 0
		g.windowStart = now
		metrics.GatewayDailyUsed.Set(0)
	}

	if g.used >= g.cfg.DailyCap {
		failed := g.queue
		g.queue = nil
		g.draining = false
		metrics.GatewayQueueDepth.Set(0)
		return nil, failed
	}

	it := g.queue[0]
	g.queue[0] = nil
	g.queue = g.queue[1:]
	g.running = it.id
	metrics.GatewayQueueDepth.Set(float64(len(g.queue)))
	return it, nil
}

func itemIDs(items []*item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids
}
