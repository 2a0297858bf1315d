package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"nse-scraper/internal/markethours"
	"nse-scraper/internal/model"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9&.-]+$`)

// validateSymbol accepts NSE symbols such as SBIN, M&M or BAJAJ-AUTO.
func validateSymbol(val interface{}) error {
	str := strings.TrimSpace(strings.ToUpper(val.(string)))
	if len(str) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(str) > 20 {
		return fmt.Errorf("symbol too long (max 20 characters)")
	}
	if !symbolPattern.MatchString(str) {
		return fmt.Errorf("invalid symbol (use letters, numbers, '&', '.' and '-')")
	}
	return nil
}

// PromptForSymbol asks for an NSE equity symbol.
func PromptForSymbol() (string, error) {
	var symbol string
	prompt := &survey.Input{
		Message: "Enter the NSE symbol (e.g., SBIN, TCS, M&M):",
		Help:    "Equity series symbol as listed on nseindia.com",
	}
	if err := survey.AskOne(prompt, &symbol, survey.WithValidator(validateSymbol)); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(symbol)), nil
}

var timeFrameOptions = []string{"Daily", "Weekly", "Monthly"}

// PromptForTimeFrame asks for the bucket width.
func PromptForTimeFrame() (model.TimeFrame, error) {
	var choice string
	prompt := &survey.Select{
		Message: "Select the time frame:",
		Options: timeFrameOptions,
		Default: timeFrameOptions[0],
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return model.Daily, err
	}
	return model.ParseTimeFrame(choice)
}

const customRangeOption = "Custom start date"

// PromptForRange asks for a preset look-back window or a custom start date.
// A custom range always ends today.
func PromptForRange(now time.Time) (from, to time.Time, err error) {
	options := make([]string, 0, len(markethours.Presets)+1)
	for _, p := range markethours.Presets {
		options = append(options, p.Label)
	}
	options = append(options, customRangeOption)

	var choice string
	prompt := &survey.Select{
		Message: "Select the duration:",
		Options: options,
		Default: markethours.Presets[1].Label,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return time.Time{}, time.Time{}, err
	}

	for _, p := range markethours.Presets {
		if p.Label == choice {
			return markethours.PresetRange(p.Name, now)
		}
	}

	var start string
	input := &survey.Input{
		Message: "Enter the start date (DD-MM-YYYY):",
		Help:    "The range runs from this date to today",
	}
	err = survey.AskOne(input, &start, survey.WithValidator(func(val interface{}) error {
		_, _, err := markethours.ParseRange(val.(string), "", now)
		return err
	}))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return markethours.ParseRange(start, "", now)
}

// PromptForIndicators asks whether to compute indicators.
func PromptForIndicators() (bool, error) {
	yes := false
	prompt := &survey.Confirm{
		Message: "Compute technical indicators (SMA, EMA, MACD, RSI, Bollinger)?",
		Default: false,
	}
	err := survey.AskOne(prompt, &yes)
	return yes, err
}
