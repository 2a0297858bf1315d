package batch

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nse-scraper/internal/markethours"
	"nse-scraper/internal/model"
)

// File is the YAML layout of a jobs file. Top-level fields are defaults
// for entries that leave them empty.
//
//	timeframe: weekly
//	range: 3m
//	indicators: true
//	jobs:
//	  - symbol: SBIN
//	  - symbol: TCS
//	    timeframe: monthly
//	    from: 01-01-2024
//	    to: 31-12-2024
type File struct {
	TimeFrame  string    `yaml:"timeframe"`
	Range      string    `yaml:"range"`
	Indicators bool      `yaml:"indicators"`
	Jobs       []FileJob `yaml:"jobs"`
}

// FileJob is one jobs file entry.
type FileJob struct {
	Symbol     string `yaml:"symbol"`
	TimeFrame  string `yaml:"timeframe"`
	Range      string `yaml:"range"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	Indicators *bool  `yaml:"indicators"`
}

// LoadJobs reads a YAML jobs file; see ParseJobs.
func LoadJobs(path string, now time.Time) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}
	return ParseJobs(data, now)
}

// ParseJobs decodes a jobs file and resolves ranges against now. An entry
// with from set uses a custom range; otherwise its preset (or the file
// default, or "month") applies.
func ParseJobs(data []byte, now time.Time) ([]Job, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse jobs file: %w", err)
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("jobs file has no jobs")
	}

	jobs := make([]Job, 0, len(f.Jobs))
	for i, fj := range f.Jobs {
		job, err := f.resolve(fj, now)
		if err != nil {
			return nil, fmt.Errorf("job %d (%s): %w", i+1, fj.Symbol, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (f *File) resolve(fj FileJob, now time.Time) (Job, error) {
	sym := strings.ToUpper(strings.TrimSpace(fj.Symbol))
	if sym == "" {
		return Job{}, fmt.Errorf("missing symbol")
	}

	tfName := firstNonEmpty(fj.TimeFrame, f.TimeFrame, model.Daily.String())
	tf, err := model.ParseTimeFrame(tfName)
	if err != nil {
		return Job{}, err
	}

	var from, to time.Time
	if fj.From != "" {
		from, to, err = markethours.ParseRange(fj.From, fj.To, now)
	} else {
		from, to, err = markethours.PresetRange(firstNonEmpty(fj.Range, f.Range, "month"), now)
	}
	if err != nil {
		return Job{}, err
	}

	ind := f.Indicators
	if fj.Indicators != nil {
		ind = *fj.Indicators
	}
	return Job{Symbol: sym, TimeFrame: tf, From: from, To: to, Indicators: ind}, nil
}

// SymbolJobs builds one job per symbol sharing the same settings.
func SymbolJobs(symbols []string, tf model.TimeFrame, from, to time.Time, indicators bool) []Job {
	jobs := make([]Job, 0, len(symbols))
	for _, s := range symbols {
		jobs = append(jobs, Job{Symbol: s, TimeFrame: tf, From: from, To: to, Indicators: indicators})
	}
	return jobs
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
