package api

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/sideline/internal/api/handler"
	"github.com/albapepper/sideline/internal/cache"
	"github.com/albapepper/sideline/internal/config"
	"github.com/albapepper/sideline/internal/gateway"
	"github.com/albapepper/sideline/internal/matcher"
	"github.com/albapepper/sideline/internal/provider/schedule"
	"github.com/albapepper/sideline/internal/ratelimit"
	"github.com/albapepper/sideline/internal/store"
)

// scheduleProvider answers the team and schedule queries and counts them.
type scheduleProvider struct{ calls atomic.Int32 }

func (p *scheduleProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	if strings.Contains(string(body), "schedule(teamId") {
		fmt.Fprint(w, `{"data":{"schedule":{"games":[{"id":"g1","scheduledAt":"2025-12-01T01:00:00Z","homeAway":"H","outcome":0,"opponent":{"name":"Eastside"}}]}}}`)
		return
	}
	fmt.Fprint(w, `{"data":{"team":{"id":"t1","name":"Boys Varsity Basketball","sport":"BASKETBALL","gender":"MENS","level":"VARSITY",
"organization":{"id":"org-1","name":"Central"},"currentSeason":{"id":"s-2025","year":2025}}}}`)
}

// newScrapingServer routes refreshes through a real scraper whose schedule
// client allows perCaller provider calls per minute. Route limiting is off.
func newScrapingServer(t *testing.T, perCaller int) (http.Handler, *scheduleProvider) {
	t.Helper()
	provider := &scheduleProvider{}
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	st := store.New(store.NewMemory())
	gw := gateway.New(gateway.Config{MinDelay: time.Millisecond, DailyCap: 1000}, nil)
	client := schedule.NewClient(srv.URL, gw, ratelimit.NewSlidingWindow(perCaller, time.Minute), nil)
	scraper := schedule.NewScraper(client, st, "Central", nil)

	h := handler.New(handler.Deps{
		Store:     st,
		Cache:     cache.New(true, time.Hour),
		Gateway:   gw,
		Matcher:   matcher.New(st, scraper, 15*time.Minute, nil),
		Refresher: scraper,
		Lives:     &fakeLives{},
		Replays:   fakeReplays{},
		Permanent: &fakePermanent{},
	})
	return NewRouter(h, nil, &config.Config{CORSAllowOrigins: []string{"*"}}), provider
}

func refresh(t *testing.T, router http.Handler, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/teams/t1/refresh", nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAnonymousRefreshesShareCallerWindow(t *testing.T) {
	router, provider := newScrapingServer(t, 4)

	// Each refresh spends two provider calls: team then schedule.
	ok, limited := 0, 0
	for i := 0; i < 10; i++ {
		rec := refresh(t, router)
		switch rec.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			limited++
			assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
		default:
			t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
		}
	}

	assert.Equal(t, 2, ok)
	assert.Equal(t, 8, limited)
	assert.EqualValues(t, 4, provider.calls.Load())
}

func TestSniffersHaveSeparateCallerWindows(t *testing.T) {
	router, provider := newScrapingServer(t, 2)

	require.Equal(t, http.StatusOK, refresh(t, router, handler.SnifferHeader, "s1").Code)
	assert.Equal(t, http.StatusTooManyRequests, refresh(t, router, handler.SnifferHeader, "s1").Code)
	assert.Equal(t, http.StatusOK, refresh(t, router, handler.SnifferHeader, "s2").Code)
	assert.Equal(t, http.StatusOK, refresh(t, router).Code)
	assert.EqualValues(t, 6, provider.calls.Load())
}

func TestCallerKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5150"
	assert.Equal(t, "ip:203.0.113.7", handler.CallerKey(req))

	req.Header.Set(handler.SnifferHeader, "s9")
	assert.Equal(t, "sniffer:s9", handler.CallerKey(req))
}
