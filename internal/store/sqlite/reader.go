package sqlite

import (
	"context"
	"fmt"
	"time"

	"nse-scraper/internal/model"
)

// DailyBars reads archived bars for symbol over [from, to], ordered by date.
func (a *Archive) DailyBars(ctx context.Context, symbol string, from, to time.Time) (model.History, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT label, open, high, low, close, last, prev_close, volume, value, high_52w, low_52w
		FROM daily_bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, symbol, from.Format(isoLayout), to.Format(isoLayout))
	if err != nil {
		return model.History{}, fmt.Errorf("sqlite query daily_bars: %w", err)
	}
	defer rows.Close()

	h := model.History{Symbol: symbol}
	for rows.Next() {
		var (
			b                                  model.DailyBar
			vol                                int64
			last, prevClose, yearHigh, yearLow *float64
		)
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close,
			&last, &prevClose, &vol, &b.Value, &yearHigh, &yearLow); err != nil {
			return model.History{}, fmt.Errorf("sqlite scan daily_bars: %w", err)
		}
		b.Volume = uint64(vol)
		b.Last = deref(last)
		b.PrevClose = deref(prevClose)
		b.YearHigh = deref(yearHigh)
		b.YearLow = deref(yearLow)
		h.Data = append(h.Data, b)
	}
	return h, rows.Err()
}

// Symbols lists every archived symbol, sorted.
func (a *Archive) Symbols(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM daily_bars ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
