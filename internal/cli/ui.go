package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"nse-scraper/internal/batch"
	"nse-scraper/internal/model"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	summaryStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	completedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-11s", label)) + " " + value
}

// RenderSeriesSummary formats a built series for the terminal.
func RenderSeriesSummary(s *model.ConsolidatedSeries, files []string) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s · %s", s.Symbol, s.TimeFrame)),
		row("Range", fmt.Sprintf("%s → %s", orDash(s.FromDate), orDash(s.ToDate))),
		row("Buckets", fmt.Sprintf("%d", len(s.Data))),
	}
	if n := len(s.Data); n > 0 {
		last := s.Data[n-1]
		lines = append(lines, row("Last", fmt.Sprintf("%s  O %s  H %s  L %s  C %s  V %d",
			last.Date, num(last.Open), num(last.High), num(last.Low), num(last.Close), last.Volume)))
	}
	if n := len(s.Indicators); n > 0 {
		ind := s.Indicators[n-1]
		lines = append(lines, row("Indicators", fmt.Sprintf("SMA20 %s  RSI14 %s  MACD %s",
			orDash(ind.SMA20.String()), orDash(ind.RSI14.String()), orDash(ind.MACD.String()))))
	}
	if s.Skipped > 0 {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("%d bar(s) skipped: unparsable date", s.Skipped)))
	}
	for _, f := range files {
		lines = append(lines, row("Saved", completedStyle.Render(f)))
	}
	return summaryStyle.Render(strings.Join(lines, "\n"))
}

// RenderBatchTable formats batch outcomes, one line per job.
func RenderBatchTable(outcomes []batch.Outcome) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%-14s %-8s %8s %10s  %s", "SYMBOL", "TF", "BUCKETS", "ELAPSED", "STATUS")))
	b.WriteByte('\n')
	failed := 0
	for _, o := range outcomes {
		status := completedStyle.Render("ok")
		buckets := fmt.Sprintf("%d", len(o.Series.Data))
		if o.Err != nil {
			failed++
			status = errorStyle.Render(o.Err.Error())
			buckets = "-"
		}
		fmt.Fprintf(&b, "%-14s %-8s %8s %10s  %s\n",
			o.Job.Symbol, o.Job.TimeFrame, buckets, o.Elapsed.Round(time.Millisecond), status)
	}
	summary := fmt.Sprintf("%d job(s), %d failed", len(outcomes), failed)
	if failed > 0 {
		b.WriteString(warnStyle.Render(summary))
	} else {
		b.WriteString(completedStyle.Render(summary))
	}
	return b.String()
}

// printWarning writes a highlighted warning line.
func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render("! "+fmt.Sprintf(format, args...)))
}

func num(v float64) string { return model.Some(v).String() }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
