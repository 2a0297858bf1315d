// Package scheduler runs periodic watchlist refreshes on a cron schedule
// evaluated in IST.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"nse-scraper/internal/batch"
	"nse-scraper/internal/export"
	"nse-scraper/internal/markethours"
	"nse-scraper/internal/model"
	"nse-scraper/internal/notification"
)

// Refresh fetches the watchlist for each time frame, then publishes and
// saves the built series.
type Refresh struct {
	Runner     *batch.Runner
	Publisher  model.SeriesPublisher // optional
	OutputDir  string                // optional; empty disables CSV output
	Symbols    []string
	TimeFrames []model.TimeFrame
	Range      string // preset name, default "month"
	Indicators bool

	// TradingDaysOnly skips runs on weekends and NSE holidays.
	TradingDaysOnly bool

	// Notifier, when set, is alerted about runs with failed jobs.
	Notifier notification.Notifier

	Now   func() time.Time
	OnRun func(Report)
}

// Report summarises one refresh.
type Report struct {
	Started   time.Time
	Skipped   bool // not a trading day
	Jobs      int
	Failed    int
	Published int
	Files     int
	Elapsed   time.Duration
}

func (r *Refresh) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunOnce executes a single refresh.
func (r *Refresh) RunOnce(ctx context.Context) (Report, error) {
	now := r.now()
	rep := Report{Started: now}

	if r.TradingDaysOnly && !markethours.IsTradingDay(now.In(markethours.IST)) {
		rep.Skipped = true
		slog.Info("[scheduler] not a trading day, skipping refresh", "date", now.In(markethours.IST).Format("2006-01-02"))
		r.report(rep)
		return rep, nil
	}

	preset := r.Range
	if preset == "" {
		preset = "month"
	}
	from, to, err := markethours.PresetRange(preset, now)
	if err != nil {
		return rep, err
	}

	tfs := r.TimeFrames
	if len(tfs) == 0 {
		tfs = []model.TimeFrame{model.Daily}
	}

	var jobs []batch.Job
	for _, tf := range tfs {
		jobs = append(jobs, batch.SymbolJobs(r.Symbols, tf, from, to, r.Indicators)...)
	}
	rep.Jobs = len(jobs)

	outcomes := r.Runner.Run(ctx, jobs)
	rep.Failed = len(batch.Failed(outcomes))

	if r.Publisher != nil {
		n, err := batch.Publish(ctx, r.Publisher, outcomes)
		rep.Published = n
		if err != nil {
			slog.Warn("[scheduler] publish errors", "error", err)
		}
	}

	if r.OutputDir != "" {
		for _, o := range outcomes {
			if o.Err != nil {
				continue
			}
			paths, err := export.SaveSeries(r.OutputDir, &o.Series)
			if err != nil {
				slog.Warn("[scheduler] save csv failed", "symbol", o.Job.Symbol, "error", err)
			}
			rep.Files += len(paths)
		}
	}

	rep.Elapsed = time.Since(now)
	slog.Info("[scheduler] refresh complete",
		"jobs", rep.Jobs, "failed", rep.Failed, "published", rep.Published,
		"files", rep.Files, "elapsed", rep.Elapsed)
	r.alert(ctx, rep, outcomes)
	r.report(rep)
	return rep, nil
}

// alert notifies about failed jobs. A run where every job failed is critical.
func (r *Refresh) alert(ctx context.Context, rep Report, outcomes []batch.Outcome) {
	if r.Notifier == nil || rep.Failed == 0 {
		return
	}
	level := notification.AlertWarning
	if rep.Failed == rep.Jobs {
		level = notification.AlertCritical
	}

	failed := batch.Failed(outcomes)
	msg := fmt.Sprintf("%d of %d job(s) failed", rep.Failed, rep.Jobs)
	for i, o := range failed {
		if i == 5 {
			msg += fmt.Sprintf("\n... and %d more", len(failed)-i)
			break
		}
		msg += fmt.Sprintf("\n%s: %v", o.Job.String(), o.Err)
	}

	if err := r.Notifier.Send(ctx, notification.Alert{Level: level, Title: "Watchlist refresh", Message: msg}); err != nil {
		slog.Warn("[scheduler] alert delivery failed", "error", err)
	}
}

func (r *Refresh) report(rep Report) {
	if r.OnRun != nil {
		r.OnRun(rep)
	}
}

// Scheduler owns the cron instance.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// New creates a Scheduler whose jobs run with ctx.
func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(markethours.IST)),
		ctx:  ctx,
	}
}

// Register adds r under a standard five-field cron spec, e.g. "0 16 * * 1-5".
func (s *Scheduler) Register(spec string, r *Refresh) error {
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := r.RunOnce(s.ctx); err != nil {
			slog.Error("[scheduler] refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register refresh %q: %w", spec, err)
	}
	return nil
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// Next returns the next scheduled run, zero if nothing is registered.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("[scheduler] started", "jobs", s.Entries())
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("[scheduler] stopped")
}
