package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nse-scraper/internal/model"
)

func openTemp(t *testing.T) *Archive {
	t.Helper()
	a, err := New(Config{DBPath: filepath.Join(t.TempDir(), "bars.db")})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func bar(label string, close_ float64) model.DailyBar {
	return model.DailyBar{
		Date: label, Open: close_ - 1, High: close_ + 2, Low: close_ - 2, Close: close_,
		Last: close_, PrevClose: close_ - 0.5, Volume: 1200, Value: 1200 * close_,
		YearHigh: 700, YearLow: 500,
	}
}

func TestArchive_UpsertAndRead(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()

	// Labels span a year boundary; DD-MM-YYYY would sort these wrongly as text.
	n, err := a.UpsertBars(ctx, "SBIN", []model.DailyBar{
		bar("02-01-2024", 643), bar("29-12-2023", 640), bar("01-01-2024", 642),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	h, err := a.DailyBars(ctx, "SBIN",
		time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, h.Data, 3)
	assert.Equal(t, "SBIN", h.Symbol)
	assert.Equal(t, []string{"29-12-2023", "01-01-2024", "02-01-2024"},
		[]string{h.Data[0].Date, h.Data[1].Date, h.Data[2].Date})
	assert.Equal(t, bar("02-01-2024", 643), h.Data[2])
}

func TestArchive_RangeIsInclusive(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()
	_, err := a.UpsertBars(ctx, "INFY", []model.DailyBar{
		bar("01-01-2024", 1), bar("02-01-2024", 2), bar("03-01-2024", 3), bar("04-01-2024", 4),
	})
	require.NoError(t, err)

	h, err := a.DailyBars(ctx, "INFY",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, h.Data, 2)
	assert.Equal(t, 2.0, h.Data[0].Close)
	assert.Equal(t, 3.0, h.Data[1].Close)
}

func TestArchive_UpsertReplaces(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := a.UpsertBars(ctx, "TCS", []model.DailyBar{bar("01-01-2024", 10)})
	require.NoError(t, err)
	_, err = a.UpsertBars(ctx, "TCS", []model.DailyBar{bar("1-1-2024", 20)})
	require.NoError(t, err)

	h, err := a.DailyBars(ctx, "TCS", day, day)
	require.NoError(t, err)
	require.Len(t, h.Data, 1)
	assert.Equal(t, 20.0, h.Data[0].Close)
}

func TestArchive_SkipsInvalidDates(t *testing.T) {
	a := openTemp(t)
	n, err := a.UpsertBars(context.Background(), "SBIN", []model.DailyBar{
		bar("01-01-2024", 1), bar("31-02-2024", 2), bar("junk", 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestArchive_Symbols(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()
	for _, s := range []string{"TCS", "INFY", "SBIN", "INFY"} {
		_, err := a.UpsertBars(ctx, s, []model.DailyBar{bar("01-01-2024", 1)})
		require.NoError(t, err)
	}
	syms, err := a.Symbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY", "SBIN", "TCS"}, syms)
}

func TestArchive_EmptyRange(t *testing.T) {
	a := openTemp(t)
	h, err := a.DailyBars(context.Background(), "NONE", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, h.Data)
}
