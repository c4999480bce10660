// Package jobs runs the periodic background work on cron schedules: the
// schedule refresh for every mapped team, scheduled-live reconciliation,
// replay reconciliation, and limiter housekeeping.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/albapepper/sideline/internal/gateway"
	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/reconcile"
)

// SweepSpec is how often limiter state is swept.
const SweepSpec = "@every 5m"

// Config holds the cron specs. An empty spec disables the job.
type Config struct {
	ScheduleRefresh string
	LiveReconcile   string
	ReplayReconcile string
}

// MappingLister lists the mapped teams.
type MappingLister interface {
	ListMappings(ctx context.Context) ([]*model.TeamMapping, error)
}

// Refresher re-scrapes one team.
type Refresher interface {
	RefreshTeam(ctx context.Context, caller, teamID string) (*model.TeamSchedule, error)
}

// Tasks are the units of work the runner schedules. Nil members are skipped.
type Tasks struct {
	Mappings  MappingLister
	Refresher Refresher
	Lives     interface {
		Run(ctx context.Context) (*reconcile.LivesResult, error)
	}
	Replays interface {
		Run(ctx context.Context) (*reconcile.ReplaysResult, error)
	}
	Sweep func(now time.Time) int
}

// Runner owns the cron scheduler.
type Runner struct {
	cron   *cron.Cron
	tasks  Tasks
	logger *slog.Logger
	ctx    context.Context
}

// New registers every enabled job. A malformed spec is an error.
func New(cfg Config, tasks Tasks, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{tasks: tasks, logger: logger, ctx: context.Background()}
	r.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))

	add := func(name, spec string, fn func(ctx context.Context)) error {
		if spec == "" {
			logger.Info("Job disabled", "job", name)
			return nil
		}
		if _, err := r.cron.AddFunc(spec, func() { fn(r.ctx) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", name, spec, err)
		}
		return nil
	}

	if tasks.Mappings != nil && tasks.Refresher != nil {
		if err := add("schedule_refresh", cfg.ScheduleRefresh, r.refreshSchedules); err != nil {
			return nil, err
		}
	}
	if tasks.Lives != nil {
		if err := add("live_reconcile", cfg.LiveReconcile, r.reconcileLives); err != nil {
			return nil, err
		}
	}
	if tasks.Replays != nil {
		if err := add("replay_reconcile", cfg.ReplayReconcile, r.reconcileReplays); err != nil {
			return nil, err
		}
	}
	if tasks.Sweep != nil {
		if err := add("limiter_sweep", SweepSpec, r.sweep); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Jobs returns the number of scheduled jobs.
func (r *Runner) Jobs() int { return len(r.cron.Entries()) }

// Run starts the scheduler and blocks until ctx is cancelled, then waits
// for running jobs to finish. Intended to be called with `go`.
func (r *Runner) Run(ctx context.Context) {
	r.ctx = ctx
	r.logger.Info("Jobs started", "jobs", r.Jobs())
	r.cron.Start()
	<-ctx.Done()
	<-r.cron.Stop().Done()
	r.logger.Info("Jobs stopped")
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// RefreshResult summarizes a schedule refresh over every mapped team.
type RefreshResult struct {
	Refreshed int
	Failed    int
	Skipped   int // not attempted after quota exhaustion
	Errors    []string
}

// Summary returns a human-readable summary.
func (r *RefreshResult) Summary() string {
	return fmt.Sprintf("refreshed=%d failed=%d skipped=%d errors=%d",
		r.Refreshed, r.Failed, r.Skipped, len(r.Errors))
}

// RefreshAll re-scrapes every mapped team as an internal caller. Once the
// gateway reports quota exhaustion the remaining teams are skipped.
func RefreshAll(ctx context.Context, mappings MappingLister, refresher Refresher, logger *slog.Logger) (*RefreshResult, error) {
	list, err := mappings.ListMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}

	res := &RefreshResult{}
	for i, m := range list {
		if ctx.Err() != nil {
			res.Skipped += len(list) - i
			break
		}
		_, err := refresher.RefreshTeam(ctx, "", m.TeamID)
		if err == nil {
			res.Refreshed++
			continue
		}
		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("team %s: %v", m.TeamID, err))
		if errors.Is(err, gateway.ErrQuotaExceeded) {
			res.Skipped += len(list) - i - 1
			logger.Warn("Schedule refresh stopped: quota exhausted", "remaining", res.Skipped)
			break
		}
	}
	return res, nil
}

func (r *Runner) refreshSchedules(ctx context.Context) {
	start := time.Now()
	res, err := RefreshAll(ctx, r.tasks.Mappings, r.tasks.Refresher, r.logger)
	if err != nil {
		r.logger.Error("Schedule refresh failed", "error", err)
		return
	}
	r.logger.Info("Schedule refresh complete", "summary", res.Summary(), "elapsed", time.Since(start))
}

func (r *Runner) reconcileLives(ctx context.Context) {
	if _, err := r.tasks.Lives.Run(ctx); err != nil {
		r.logger.Error("Live reconcile failed", "error", err)
	}
}

func (r *Runner) reconcileReplays(ctx context.Context) {
	if _, err := r.tasks.Replays.Run(ctx); err != nil {
		r.logger.Error("Replay reconcile failed", "error", err)
	}
}

func (r *Runner) sweep(ctx context.Context) {
	if n := r.tasks.Sweep(time.Now()); n > 0 {
		r.logger.Debug("Limiter swept", "dropped", n)
	}
}

// --------------------------------------------------------------------------
// cron logging
// --------------------------------------------------------------------------

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
