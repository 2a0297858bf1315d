package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nse-scraper/internal/model"
)

// ArchivingSource fetches from Source and upserts every fetched history
// into Archive before returning it. Archive failures are logged, not
// returned, so a read-only or full disk does not fail the fetch.
type ArchivingSource struct {
	Source  model.BarSource
	Archive model.BarArchive
}

var _ model.BarSource = (*ArchivingSource)(nil)

// DailyBars implements model.BarSource.
func (a *ArchivingSource) DailyBars(ctx context.Context, symbol string, from, to time.Time) (model.History, error) {
	h, err := a.Source.DailyBars(ctx, symbol, from, to)
	if err != nil {
		return h, err
	}
	if a.Archive == nil || len(h.Data) == 0 {
		return h, nil
	}
	n, err := a.Archive.UpsertBars(ctx, symbol, h.Data)
	if err != nil {
		slog.Warn("[batch] archive upsert failed", "symbol", symbol, "error", err)
		return h, nil
	}
	slog.Debug("[batch] archived bars", "symbol", symbol, "rows", n)
	return h, nil
}

// Publish sends every successful outcome to pub and returns the number
// published. Errors are joined per symbol.
func Publish(ctx context.Context, pub model.SeriesPublisher, outcomes []Outcome) (int, error) {
	var (
		n    int
		errs []error
	)
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		if err := pub.PublishSeries(ctx, o.Series); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Job.Symbol, err))
			continue
		}
		n++
	}
	return n, joinErrors(errs)
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return fmt.Errorf("%d publish errors, first: %w", len(errs), errs[0])
}
