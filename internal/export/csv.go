// Package export writes built series as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nse-scraper/internal/model"
)

var (
	barHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume", "Value"}

	indicatorHeader = []string{
		"Date", "SMA_20", "SMA_50", "SMA_200", "EMA_12", "EMA_26",
		"MACD", "MACD_Signal", "MACD_Histogram", "RSI_14",
		"Bollinger_Upper", "Bollinger_Middle", "Bollinger_Lower",
	}
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteBars writes the seven-column bar table.
func WriteBars(w io.Writer, bars []model.ResampledBar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(barHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range bars {
		row := []string{
			b.Date,
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			strconv.FormatUint(b.Volume, 10),
			formatFloat(b.Value),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", b.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteIndicators writes one row per bar; absent readings are empty cells.
func WriteIndicators(w io.Writer, rows []model.IndicatorRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(indicatorHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		s := r.IndicatorSet
		row := []string{
			r.Date,
			s.SMA20.String(), s.SMA50.String(), s.SMA200.String(),
			s.EMA12.String(), s.EMA26.String(),
			s.MACD.String(), s.MACDSignal.String(), s.MACDHistogram.String(),
			s.RSI14.String(),
			s.BollingerUpper.String(), s.BollingerMiddle.String(), s.BollingerLower.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", r.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName returns "<SYMBOL>_<tf>_<from>_<to>.csv".
func FileName(s *model.ConsolidatedSeries) string {
	return baseName(s) + ".csv"
}

// IndicatorFileName returns "<SYMBOL>_<tf>_<from>_<to>_indicators.csv".
func IndicatorFileName(s *model.ConsolidatedSeries) string {
	return baseName(s) + "_indicators.csv"
}

func baseName(s *model.ConsolidatedSeries) string {
	parts := []string{sanitize(s.Symbol), s.TimeFrame.String(), sanitize(s.FromDate), sanitize(s.ToDate)}
	return strings.Join(parts, "_")
}

// sanitize keeps symbols like "M&M" or "BAJAJ-AUTO" but strips path separators.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '-'
		}
		return r
	}, s)
}

// SaveSeries writes the bars file, and the indicator file when the series
// carries indicators, into dir. It returns the paths written.
func SaveSeries(dir string, s *model.ConsolidatedSeries) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	barsPath := filepath.Join(dir, FileName(s))
	if err := writeFile(barsPath, func(w io.Writer) error { return WriteBars(w, s.Data) }); err != nil {
		return nil, err
	}
	paths = append(paths, barsPath)

	if s.Indicators != nil {
		indPath := filepath.Join(dir, IndicatorFileName(s))
		if err := writeFile(indPath, func(w io.Writer) error { return WriteIndicators(w, s.Indicators) }); err != nil {
			return paths, err
		}
		paths = append(paths, indPath)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
