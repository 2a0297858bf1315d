package model

import (
	"context"
	"time"
)

// ── Collaborator Port Interfaces ──
// These decouple the CLI, API and batch runner from concrete sources and
// sinks (NSE HTTP, SQLite, Redis). The resampling core depends on none of them.

// BarSource supplies a daily history for one symbol over an inclusive range.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) (History, error)
}

// BarArchive stores daily bars for later offline runs.
type BarArchive interface {
	BarSource

	// UpsertBars writes bars for symbol, replacing rows with the same date.
	UpsertBars(ctx context.Context, symbol string, bars []DailyBar) (int, error)

	// Close releases underlying resources.
	Close() error
}

// SeriesPublisher pushes finished series to downstream consumers.
type SeriesPublisher interface {
	PublishSeries(ctx context.Context, s ConsolidatedSeries) error

	// Close releases underlying resources.
	Close() error
}
