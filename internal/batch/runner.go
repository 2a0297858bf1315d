// Package batch fetches and builds series for many symbols on a fixed
// worker pool. Each job is independent; nothing is shared between workers
// except the read-only source and builder.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nse-scraper/internal/model"
	"nse-scraper/internal/series"
)

const defaultWorkers = 4

// Job is one symbol to fetch and build.
type Job struct {
	Symbol     string
	TimeFrame  model.TimeFrame
	From, To   time.Time
	Indicators bool
}

func (j Job) String() string {
	return fmt.Sprintf("%s/%s %s..%s", j.Symbol, j.TimeFrame, model.FormatDate(j.From), model.FormatDate(j.To))
}

// Outcome is the result of a single job. Exactly one of Series or Err is
// meaningful.
type Outcome struct {
	Job     Job
	Series  model.ConsolidatedSeries
	Err     error
	Elapsed time.Duration
}

// Runner executes jobs against Source.
type Runner struct {
	Source  model.BarSource
	Builder *series.Builder
	Workers int

	// OnOutcome, when set, is called from the worker goroutine as each job
	// finishes. It must be safe for concurrent use.
	OnOutcome func(Outcome)
}

// Run executes jobs and returns one Outcome per job in job order.
// Cancellation is checked before each dispatch; jobs never started carry
// ctx.Err().
func (r *Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, len(jobs))
	if len(jobs) == 0 {
		return out
	}

	workers := r.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				out[i] = r.runOne(ctx, jobs[i])
				if r.OnOutcome != nil {
					r.OnOutcome(out[i])
				}
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case idx <- i:
			dispatched++
		}
	}
	close(idx)
	wg.Wait()

	for i := dispatched; i < len(jobs); i++ {
		out[i] = Outcome{Job: jobs[i], Err: ctx.Err()}
	}

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	slog.Info("[batch] run complete", "jobs", len(jobs), "failed", failed, "workers", workers)
	return out
}

func (r *Runner) runOne(ctx context.Context, job Job) Outcome {
	start := time.Now()
	o := Outcome{Job: job}

	h, err := r.Source.DailyBars(ctx, job.Symbol, job.From, job.To)
	if err != nil {
		o.Err = fmt.Errorf("fetch %s: %w", job.Symbol, err)
		o.Elapsed = time.Since(start)
		slog.Warn("[batch] job failed", "job", job.String(), "error", err)
		return o
	}
	if h.Symbol == "" {
		h.Symbol = job.Symbol
	}

	o.Series = r.Builder.Build(h, job.TimeFrame, job.Indicators)
	o.Elapsed = time.Since(start)
	slog.Debug("[batch] job done", "job", job.String(), "buckets", len(o.Series.Data), "elapsed", o.Elapsed)
	return o
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
