// Package sqlite archives NSE daily bars so series can be rebuilt offline.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"nse-scraper/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// isoLayout is the sortable date column format.
const isoLayout = "2006-01-02"

// Config configures the archive.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/bars.db"
}

// Archive is a SQLite-backed model.BarArchive.
type Archive struct {
	db *sql.DB
}

var _ model.BarArchive = (*Archive)(nil)

// DB returns the underlying sql.DB for health checks.
func (a *Archive) DB() *sql.DB { return a.db }

// New opens the database with WAL mode and creates the schema.
func New(cfg Config) (*Archive, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer; reads are short range scans.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Info("[sqlite] opened archive", "path", cfg.DBPath)
	return &Archive{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_bars (
			symbol     TEXT    NOT NULL,
			date       TEXT    NOT NULL,
			label      TEXT    NOT NULL,
			open       REAL    NOT NULL,
			high       REAL    NOT NULL,
			low        REAL    NOT NULL,
			close      REAL    NOT NULL,
			last       REAL,
			prev_close REAL,
			volume     INTEGER NOT NULL,
			value      REAL    NOT NULL,
			high_52w   REAL,
			low_52w    REAL,
			PRIMARY KEY (symbol, date)
		);
	`)
	return err
}

// UpsertBars writes bars for symbol in one transaction, replacing rows with
// the same date. Bars whose label does not parse are skipped. Returns the
// number of rows written.
func (a *Archive) UpsertBars(ctx context.Context, symbol string, bars []model.DailyBar) (int, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO daily_bars
			(symbol, date, label, open, high, low, close, last, prev_close, volume, value, high_52w, low_52w)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	written, skipped := 0, 0
	for i := range bars {
		b := &bars[i]
		d, err := b.Time()
		if err != nil {
			skipped++
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			symbol, d.Format(isoLayout), b.Date,
			b.Open, b.High, b.Low, b.Close, b.Last, b.PrevClose,
			int64(b.Volume), b.Value, b.YearHigh, b.YearLow,
		); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite upsert %s %s: %w", symbol, b.Date, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if skipped > 0 {
		slog.Warn("[sqlite] skipped bars with invalid dates", "symbol", symbol, "skipped", skipped)
	}
	return written, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}
