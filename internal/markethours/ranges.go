package markethours

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"nse-scraper/internal/model"
)

// ErrUnknownPreset is returned by PresetRange for unrecognised presets.
var ErrUnknownPreset = errors.New("unknown range preset")

// Preset is a named look-back window ending today.
type Preset struct {
	Code  string // interactive menu code
	Name  string
	Label string
	Days  int
}

// Presets lists the look-back windows in menu order.
var Presets = []Preset{
	{Code: "1", Name: "week", Label: "Last week", Days: 7},
	{Code: "2", Name: "month", Label: "Last month", Days: 30},
	{Code: "3", Name: "3m", Label: "Last 3 months", Days: 90},
	{Code: "4", Name: "6m", Label: "Last 6 months", Days: 180},
	{Code: "5", Name: "year", Label: "Last year", Days: 365},
}

// LookupPreset finds a preset by name or menu code (case-insensitive).
func LookupPreset(s string) (Preset, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range Presets {
		if s == p.Code || s == p.Name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

// PresetRange returns [today-Days, today] for preset, with today taken in IST.
func PresetRange(preset string, now time.Time) (from, to time.Time, err error) {
	p, err := LookupPreset(preset)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to = Today(now)
	return to.AddDate(0, 0, -p.Days), to, nil
}

// ParseRange parses a custom DD-MM-YYYY range. An empty toLabel means today.
func ParseRange(fromLabel, toLabel string, now time.Time) (from, to time.Time, err error) {
	from, err = model.ParseDate(strings.TrimSpace(fromLabel))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}
	if strings.TrimSpace(toLabel) == "" {
		to = Today(now)
	} else if to, err = model.ParseDate(strings.TrimSpace(toLabel)); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s",
			model.FormatDate(to), model.FormatDate(from))
	}
	return from, to, nil
}
