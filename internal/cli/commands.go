// Package cli implements the nsecli command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nse-scraper/config"
	"nse-scraper/internal/batch"
	"nse-scraper/internal/export"
	"nse-scraper/internal/logger"
	"nse-scraper/internal/markethours"
	"nse-scraper/internal/model"
	"nse-scraper/internal/series"
)

// Version is set at build time with -ldflags "-X nse-scraper/internal/cli.Version=...".
var Version = "dev"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp(config.Load()))
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nsecli",
		Short: "nsecli - NSE daily history, resampling and indicators",
		Long: `nsecli fetches daily equity history from NSE India, resamples it into
daily, weekly or monthly bars, optionally computes technical indicators
and writes the result as CSV.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := a.cfg.LogLevel
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				level = "debug"
			}
			logger.InitWriter(os.Stderr, "nsecli", logger.ParseLevel(level))
			a.out = cmd.OutOrStdout()
			a.errOut = cmd.ErrOrStderr()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: interactive fetch
			return a.runFetch(cmd.Context(), fetchOptions{interactive: true, out: a.cfg.OutputDir, source: "nse"})
		},
	}

	rootCmd.AddCommand(newFetchCmd(a))
	rootCmd.AddCommand(newBatchCmd(a))
	rootCmd.AddCommand(newImportCmd(a))
	rootCmd.AddCommand(newSymbolsCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

// Execute runs the root command with SIGINT/SIGTERM cancelling its context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// rangeFlags are the date range flags shared by fetch and batch.
type rangeFlags struct {
	preset   string
	from, to string
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.preset, "range", "month", "Look-back preset: week, month, 3m, 6m, year")
	cmd.Flags().StringVar(&r.from, "from", "", "Custom start date DD-MM-YYYY (overrides --range)")
	cmd.Flags().StringVar(&r.to, "to", "", "Custom end date DD-MM-YYYY (default today)")
}

func (r *rangeFlags) resolve(now time.Time) (time.Time, time.Time, error) {
	if r.from != "" {
		return markethours.ParseRange(r.from, r.to, now)
	}
	if r.to != "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--to requires --from")
	}
	return markethours.PresetRange(r.preset, now)
}

type fetchOptions struct {
	interactive bool
	symbol      string
	timeframe   string
	rng         rangeFlags
	indicators  bool
	source      string
	archive     bool
	publish     bool
	out         string
	jsonOut     bool
}

func newFetchCmd(a *app) *cobra.Command {
	var opts fetchOptions
	cmd := &cobra.Command{
		Use:   "fetch [SYMBOL]",
		Short: "Fetch one symbol and write its series as CSV",
		Long: `Fetch the daily history of one symbol, resample it and save it as
<SYMBOL>_<timeframe>_<from>_<to>.csv. Without a symbol the command prompts
for every setting.
Example: nsecli fetch SBIN --timeframe weekly --range 6m --indicators`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.symbol = args[0]
			}
			opts.interactive = opts.symbol == ""
			return a.runFetch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.timeframe, "timeframe", "t", "daily", "Time frame: daily, weekly, monthly")
	opts.rng.register(cmd)
	cmd.Flags().BoolVarP(&opts.indicators, "indicators", "i", false, "Compute technical indicators")
	cmd.Flags().StringVar(&opts.source, "source", "nse", "History source: nse or archive")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "Upsert fetched bars into the SQLite archive")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish the series to Redis")
	cmd.Flags().StringVarP(&opts.out, "out", "o", a.cfg.OutputDir, "Output directory")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the series as JSON instead of writing CSV")

	return cmd
}

func (a *app) runFetch(ctx context.Context, opts fetchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	now := a.now()

	var (
		job batch.Job
		err error
	)
	if opts.interactive {
		job, err = promptJob(now)
	} else {
		job, err = flagJob(opts, now)
	}
	if err != nil {
		return err
	}

	src, s, err := a.source(opts.source, opts.archive, opts.publish)
	if err != nil {
		return err
	}
	defer s.Close()

	hist, err := src.DailyBars(ctx, job.Symbol, job.From, job.To)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", job.Symbol, err)
	}
	if hist.Symbol == "" {
		hist.Symbol = job.Symbol
	}
	a.warnCoverage(job, len(hist.Data), now)

	result := series.NewBuilder().Build(hist, job.TimeFrame, job.Indicators)

	if s.publisher != nil {
		if err := s.publisher.PublishSeries(ctx, result); err != nil {
			return err
		}
	}

	if opts.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	files, err := export.SaveSeries(opts.out, &result)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, RenderSeriesSummary(&result, files))
	return nil
}

func promptJob(now time.Time) (batch.Job, error) {
	var (
		job batch.Job
		err error
	)
	if job.Symbol, err = PromptForSymbol(); err != nil {
		return job, err
	}
	if job.TimeFrame, err = PromptForTimeFrame(); err != nil {
		return job, err
	}
	if job.From, job.To, err = PromptForRange(now); err != nil {
		return job, err
	}
	job.Indicators, err = PromptForIndicators()
	return job, err
}

func flagJob(opts fetchOptions, now time.Time) (batch.Job, error) {
	job := batch.Job{Indicators: opts.indicators}
	if err := validateSymbol(opts.symbol); err != nil {
		return job, err
	}
	job.Symbol = strings.ToUpper(strings.TrimSpace(opts.symbol))

	var err error
	if job.TimeFrame, err = model.ParseTimeFrame(opts.timeframe); err != nil {
		return job, err
	}
	if job.From, job.To, err = opts.rng.resolve(now); err != nil {
		return job, err
	}
	return job, nil
}

// source picks the history source and opens the requested sinks. With
// archive set, NSE fetches are upserted into the archive as they arrive.
func (a *app) source(name string, archive, publish bool) (model.BarSource, *sinks, error) {
	switch name {
	case "", "nse":
		s, err := a.openSinks(archive, publish)
		if err != nil {
			return nil, nil, err
		}
		live := a.openLive()
		if s.archive != nil {
			return &batch.ArchivingSource{Source: live, Archive: s.archive}, s, nil
		}
		return live, s, nil
	case "archive":
		s, err := a.openSinks(true, publish)
		if err != nil {
			return nil, nil, err
		}
		return s.archive, s, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q (use nse or archive)", name)
}

// warnCoverage flags histories shorter than the trading calendar expects
// and ranges ending in a session that has not closed yet.
func (a *app) warnCoverage(job batch.Job, got int, now time.Time) {
	if markethours.HasCalendar(job.From.Year()) && markethours.HasCalendar(job.To.Year()) {
		if want := markethours.TradingDaysBetween(job.From, job.To); got < want {
			printWarning(a.errOut, "%s: %d bar(s) for %d expected trading day(s)", job.Symbol, got, want)
		}
	}
	if job.To.Equal(markethours.Today(now)) && markethours.SessionIncomplete(now) {
		printWarning(a.errOut, "today's session is still open; the last bar may change")
	}
}

type batchOptions struct {
	symbols    string
	file       string
	timeframe  string
	rng        rangeFlags
	indicators bool
	workers    int
	source     string
	archive    bool
	publish    bool
	out        string
}

func newBatchCmd(a *app) *cobra.Command {
	var opts batchOptions
	cmd := &cobra.Command{
		Use:   "batch [SYMBOL...]",
		Short: "Fetch many symbols in parallel",
		Long: `Fetch and build several symbols on a worker pool, either from arguments,
--symbols or a YAML jobs file.
Example: nsecli batch SBIN TCS INFY --timeframe monthly --range year`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.symbols = strings.Join(append(args, opts.symbols), ",")
			}
			return a.runBatch(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.symbols, "symbols", "s", "", "Comma-separated symbols")
	cmd.Flags().StringVarP(&opts.file, "file", "f", a.cfg.JobsFile, "YAML jobs file")
	cmd.Flags().StringVarP(&opts.timeframe, "timeframe", "t", "daily", "Time frame: daily, weekly, monthly")
	opts.rng.register(cmd)
	cmd.Flags().BoolVarP(&opts.indicators, "indicators", "i", false, "Compute technical indicators")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", a.cfg.Workers, "Parallel fetches")
	cmd.Flags().StringVar(&opts.source, "source", "nse", "History source: nse or archive")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "Upsert fetched bars into the SQLite archive")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish each series to Redis")
	cmd.Flags().StringVarP(&opts.out, "out", "o", a.cfg.OutputDir, "Output directory")

	return cmd
}

func (a *app) runBatch(ctx context.Context, opts batchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	now := a.now()

	var jobs []batch.Job
	if opts.file != "" {
		fileJobs, err := batch.LoadJobs(opts.file, now)
		if err != nil {
			return err
		}
		jobs = append(jobs, fileJobs...)
	}
	if syms := config.ParseSymbols(opts.symbols); len(syms) > 0 {
		tf, err := model.ParseTimeFrame(opts.timeframe)
		if err != nil {
			return err
		}
		from, to, err := opts.rng.resolve(now)
		if err != nil {
			return err
		}
		for _, sym := range syms {
			if err := validateSymbol(sym); err != nil {
				return fmt.Errorf("%s: %w", sym, err)
			}
		}
		jobs = append(jobs, batch.SymbolJobs(syms, tf, from, to, opts.indicators)...)
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no symbols: pass them as arguments, --symbols or --file")
	}

	src, s, err := a.source(opts.source, opts.archive, opts.publish)
	if err != nil {
		return err
	}
	defer s.Close()

	runner := &batch.Runner{Source: src, Builder: series.NewBuilder(), Workers: opts.workers}
	outcomes := runner.Run(ctx, jobs)

	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		if _, err := export.SaveSeries(opts.out, &o.Series); err != nil {
			return err
		}
	}
	if s.publisher != nil {
		if _, err := batch.Publish(ctx, s.publisher, outcomes); err != nil {
			printWarning(a.errOut, "publish: %v", err)
		}
	}

	fmt.Fprintln(a.out, RenderBatchTable(outcomes))
	if failed := batch.Failed(outcomes); len(failed) > 0 {
		return fmt.Errorf("%d of %d job(s) failed", len(failed), len(outcomes))
	}
	return nil
}

func newImportCmd(a *app) *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Load saved NSE history JSON into the archive",
		Long: `Import one or more files holding the NSE historical API response
({"data":[{"CH_TIMESTAMP":...}]}) into the SQLite archive.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd.Context(), args, symbol)
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "Symbol to file the bars under (default: the file's symbol field)")
	return cmd
}

func (a *app) runImport(ctx context.Context, paths []string, symbol string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	arch, err := a.openArchive()
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer arch.Close()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var h model.History
		if err := json.Unmarshal(data, &h); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		sym := strings.ToUpper(strings.TrimSpace(symbol))
		if sym == "" {
			sym = strings.ToUpper(strings.TrimSpace(h.Symbol))
		}
		if sym == "" {
			return fmt.Errorf("%s: no symbol in file, pass --symbol", path)
		}
		n, err := arch.UpsertBars(ctx, sym, h.Data)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		fmt.Fprintln(a.out, row("Imported", fmt.Sprintf("%s: %d bar(s) from %s", sym, n, path)))
	}
	return nil
}

func newSymbolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List symbols held in the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			arch, err := a.openArchive()
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer arch.Close()

			syms, err := arch.Symbols(ctx)
			if err != nil {
				return err
			}
			for _, s := range syms {
				fmt.Fprintln(a.out, s)
			}
			return nil
		},
	}
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nsecli %s\n", Version)
			fmt.Fprintln(cmd.OutOrStdout(), markethours.StatusString(time.Now()))
		},
	}
}
