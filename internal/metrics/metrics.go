// Package metrics declares the Prometheus collectors shared by the gateway,
// the video client, and the reconcilers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sideline"

var (
	// GatewayQueueDepth is the number of items waiting in the serial gateway.
	GatewayQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "queue_depth",
		Help:      "Items waiting in the schedule provider gateway queue.",
	})

	// GatewayExecutions counts gateway items by outcome (success, failure, quota).
	GatewayExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "executions_total",
		Help:      "Gateway items processed, by outcome.",
	}, []string{"outcome"})

	// GatewayDailyUsed is the number of successful calls in the current quota window.
	GatewayDailyUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "daily_used",
		Help:      "Successful schedule provider calls in the current daily window.",
	})

	// RateLimitRejections counts sliding-window rejections by limiter name.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Calls rejected by a sliding-window limiter.",
	}, []string{"limiter"})

	// TokenRefreshes counts credential refresh attempts by outcome.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "video",
		Name:      "token_refreshes_total",
		Help:      "Video platform re-authentications, by outcome.",
	}, []string{"outcome"})

	// ReconcileOutcomes counts reconciled units by reconciler and outcome.
	ReconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "outcomes_total",
		Help:      "Reconciled units, by reconciler and outcome.",
	}, []string{"reconciler", "outcome"})

	// MatchAttempts counts recording matches by result (hit, fallback_hit, miss).
	MatchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matcher",
		Name:      "attempts_total",
		Help:      "Recording-to-game match attempts, by result.",
	}, []string{"result"})
)
