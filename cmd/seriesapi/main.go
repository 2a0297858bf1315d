package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"nse-scraper/config"
	"nse-scraper/internal/api"
	"nse-scraper/internal/batch"
	"nse-scraper/internal/logger"
	"nse-scraper/internal/metrics"
	"nse-scraper/internal/model"
	"nse-scraper/internal/notification"
	"nse-scraper/internal/scheduler"
	"nse-scraper/internal/series"
	redisstore "nse-scraper/internal/store/redis"
	sqlitestore "nse-scraper/internal/store/sqlite"
	"nse-scraper/pkg/nse"
)

func main() {
	cfg := config.Load()
	logger.Init("seriesapi", logger.ParseLevel(cfg.LogLevel))
	slog.Info("[seriesapi] starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Metrics & health ----
	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, prom, health)
	metricsSrv.Start()

	// ---- NSE client ----
	client := nse.NewClient(nse.Config{
		BaseURL:      cfg.NSEBaseURL,
		Series:       cfg.NSESeries,
		Timeout:      cfg.NSETimeout,
		MaxFailures:  cfg.NSEMaxFailures,
		ResetTimeout: cfg.NSEResetAfter,
	})
	client.Breaker().OnStateChange = func(from, to nse.State) {
		prom.BreakerChanged(from, to)
		health.SetNSEBreaker(to)
		slog.Warn("[seriesapi] nse breaker state change", "from", from.String(), "to", to.String())
	}

	// ---- SQLite archive ----
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		slog.Error("[seriesapi] create archive dir failed", "error", err)
		os.Exit(1)
	}
	archive, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		slog.Error("[seriesapi] sqlite init failed", "error", err)
		os.Exit(1)
	}
	defer archive.Close()
	slog.Info("[seriesapi] sqlite archive ready", "path", cfg.SQLitePath)

	// ---- Redis publisher (optional) ----
	var (
		publisher model.SeriesPublisher
		latest    api.LatestReader
	)
	health.AddProbe(metrics.SQLiteProbe(archive.DB()))
	if cfg.RedisAddr != "" {
		pub, err := redisstore.New(redisstore.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			LatestTTL: cfg.RedisLatestTTL,
		})
		if err != nil {
			slog.Warn("[seriesapi] redis init failed, continuing without publishing", "error", err)
			initErr := err
			health.AddProbe(metrics.Probe{Name: "redis", Ping: func(context.Context) error { return initErr }})
		} else {
			defer pub.Close()
			publisher = prom.InstrumentPublisher(pub)
			latest = pub
			health.AddProbe(metrics.RedisProbe(pub.Client()))
		}
	}

	health.Run(ctx, client.Breaker(), 10*time.Second)

	// ---- Sources ----
	builder := series.NewBuilder()
	builder.OnBuild = prom.ObserveBuild

	liveSrc := prom.InstrumentSource("nse", &batch.ArchivingSource{
		Source:  client,
		Archive: prom.InstrumentArchive(archive),
	}, health)
	archiveSrc := prom.InstrumentSource("archive", archive, nil)

	// ---- Scheduled refresh ----
	var sched *scheduler.Scheduler
	if cfg.RefreshCron != "" {
		sched = startRefresh(ctx, cfg, liveSrc, builder, publisher, prom)
	}

	// ---- HTTP API ----
	mux := api.NewRouter(&api.Handler{
		Live:         liveSrc,
		Archive:      archiveSrc,
		Latest:       latest,
		Builder:      builder,
		DefaultRange: "month",
		OnRequest:    prom.ObserveRequest,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("[seriesapi] API listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("[seriesapi] API server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("[seriesapi] shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		sched.Stop()
	}
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	slog.Info("[seriesapi] stopped")
}

// startRefresh registers the watchlist refresh job. The watchlist comes from
// JOBS_FILE symbols when set, otherwise REFRESH_SYMBOLS.
func startRefresh(ctx context.Context, cfg *config.Config, src model.BarSource, builder *series.Builder,
	publisher model.SeriesPublisher, prom *metrics.Metrics) *scheduler.Scheduler {

	symbols := config.ParseSymbols(cfg.RefreshSymbols)
	if cfg.JobsFile != "" {
		jobs, err := batch.LoadJobs(cfg.JobsFile, time.Now())
		if err != nil {
			slog.Error("[seriesapi] jobs file unreadable, refresh disabled", "path", cfg.JobsFile, "error", err)
			return nil
		}
		fromFile := make([]string, 0, len(jobs))
		for _, j := range jobs {
			fromFile = append(fromFile, j.Symbol)
		}
		symbols = config.ParseSymbols(strings.Join(fromFile, ","))
	}
	if len(symbols) == 0 {
		slog.Warn("[seriesapi] REFRESH_CRON set but watchlist is empty, refresh disabled")
		return nil
	}

	refresh := &scheduler.Refresh{
		Runner: &batch.Runner{
			Source:    src,
			Builder:   builder,
			Workers:   cfg.Workers,
			OnOutcome: prom.ObserveOutcome,
		},
		Publisher:       publisher,
		OutputDir:       cfg.OutputDir,
		Symbols:         symbols,
		TimeFrames:      cfg.ParseTimeFrames(),
		Range:           cfg.RefreshRange,
		TradingDaysOnly: true,
		Notifier: notification.New(notification.Config{
			TelegramBotToken: cfg.TelegramBotToken,
			TelegramChatID:   cfg.TelegramChatID,
			WebhookURL:       cfg.AlertWebhookURL,
		}),
	}

	sched := scheduler.New(ctx)
	if err := sched.Register(cfg.RefreshCron, refresh); err != nil {
		slog.Error("[seriesapi] refresh disabled", "error", err)
		return nil
	}
	sched.Start()
	slog.Info("[seriesapi] refresh scheduled", "cron", cfg.RefreshCron, "symbols", len(symbols), "next", sched.Next())
	return sched
}
