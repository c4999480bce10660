// Package schedule is the client for the schedule provider's GraphQL API and
// the scraper that turns its responses into cached team schedules.
//
// Every request is admitted by the per-caller sliding window, then queued on
// the shared serial gateway, then sent through a circuit breaker. Internal
// jobs pass an empty caller key and skip the per-caller window.
package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/albapepper/sideline/internal/gateway"
	"github.com/albapepper/sideline/internal/metrics"
	"github.com/albapepper/sideline/internal/ratelimit"
)

// APIError is a failed provider response: a non-2xx status or a GraphQL
// error envelope.
type APIError struct {
	StatusCode int
	Messages   []string
	Body       string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("schedule provider graphql error: %s", strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("schedule provider returned %d: %s", e.StatusCode, e.Body)
}

// Client queries the schedule provider.
type Client struct {
	httpClient *http.Client
	endpoint   string
	gateway    *gateway.Gateway
	limiter    *ratelimit.SlidingWindow
	breaker    *gobreaker.CircuitBreaker[json.RawMessage]
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a provider client. gw must be the process's one gateway.
func NewClient(endpoint string, gw *gateway.Gateway, limiter *ratelimit.SlidingWindow, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   endpoint,
		gateway:    gw,
		limiter:    limiter,
		logger:     logger,
		now:        time.Now,
	}
	c.breaker = gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        "schedule-provider",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// query runs one GraphQL operation and decodes its data into out.
func (c *Client) query(ctx context.Context, caller, q string, vars map[string]interface{}, out interface{}) error {
	if caller != "" && c.limiter != nil && !c.limiter.Allow(caller, c.now()) {
		metrics.RateLimitRejections.WithLabelValues("schedule").Inc()
		return fmt.Errorf("caller %s: %w", caller, ratelimit.ErrRateLimited)
	}

	body, err := json.Marshal(graphqlRequest{Query: q, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode query: %w", err)
	}

	data, err := gateway.Call(ctx, c.gateway, func(ctx context.Context) (json.RawMessage, error) {
		return c.breaker.Execute(func() (json.RawMessage, error) {
			return c.post(ctx, body)
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("schedule provider unavailable: %w", err)
		}
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(raw, 200)}
	}

	var env graphqlResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Messages: msgs}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, &APIError{StatusCode: resp.StatusCode, Messages: []string{"empty data"}}
	}
	return env.Data, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
