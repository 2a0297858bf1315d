package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nse-scraper/internal/series"
	"nse-scraper/pkg/nse"
)

// Metrics holds all Prometheus metrics for the series service.
type Metrics struct {
	// Series builder
	BuildsTotal *prometheus.CounterVec // labels: tf
	BuildDur    prometheus.Histogram
	BarsIn      prometheus.Counter
	BucketsOut  *prometheus.CounterVec // labels: tf
	SkippedBars prometheus.Counter

	// Fetching
	FetchesTotal *prometheus.CounterVec // labels: source, result
	FetchDur     *prometheus.HistogramVec

	// Sinks
	ArchiveUpserts prometheus.Counter
	PublishTotal   *prometheus.CounterVec // labels: result

	// NSE circuit breaker
	NSEBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	NSEBreakerTrips prometheus.Counter

	// Batch runner
	BatchJobsTotal *prometheus.CounterVec // labels: result

	// HTTP API
	HTTPRequests *prometheus.CounterVec // labels: route, code

	gatherer prometheus.Gatherer
}

// NewMetrics registers all metrics with reg. A nil reg uses a fresh registry,
// which keeps tests and multiple instances from colliding on the default one.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nsescraper_series_builds_total",
			Help: "Series built (by timeframe)",
		}, []string{"tf"}),
		BuildDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nsescraper_series_build_duration_seconds",
			Help:    "Resample + indicator latency per series",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		BarsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nsescraper_daily_bars_in_total",
			Help: "Daily bars fed into the builder",
		}),
		BucketsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nsescraper_buckets_out_total",
			Help: "Resampled buckets emitted (by timeframe)",
		}, []string{"tf"}),
		SkippedBars: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nsescraper_skipped_bars_total",
			Help: "Bars dropped from grouping because their date did not parse",
		}),

		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nsescraper_fetches_total",
			Help: "History fetches (by source and result)",
		}, []string{"source", "result"}),
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nsescraper_fetch_duration_seconds",
			Help:    "History fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),

		ArchiveUpserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nsescraper_archive_upserts_total",
			Help: "Daily bars written to the SQLite archive",
		}),
		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nsescraper_redis_publish_total",
			Help: "Series publishes to Redis (by result)",
		}, []string{"result"}),

		NSEBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nsescraper_nse_circuit_breaker_state",
			Help: "NSE circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		NSEBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nsescraper_nse_circuit_breaker_trips_total",
			Help: "Times the NSE circuit breaker tripped open",
		}),

		BatchJobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nsescraper_batch_jobs_total",
			Help: "Batch jobs finished (by result)",
		}, []string{"result"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nsescraper_http_requests_total",
			Help: "API requests (by route and status code)",
		}, []string{"route", "code"}),

		gatherer: reg,
	}

	reg.MustRegister(
		m.BuildsTotal,
		m.BuildDur,
		m.BarsIn,
		m.BucketsOut,
		m.SkippedBars,
		m.FetchesTotal,
		m.FetchDur,
		m.ArchiveUpserts,
		m.PublishTotal,
		m.NSEBreakerState,
		m.NSEBreakerTrips,
		m.BatchJobsTotal,
		m.HTTPRequests,
	)

	return m
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.gatherer }

// ObserveBuild records one series build. It matches series.Builder.OnBuild.
func (m *Metrics) ObserveBuild(s series.Stats) {
	tf := s.TimeFrame.String()
	m.BuildsTotal.WithLabelValues(tf).Inc()
	m.BuildDur.Observe(s.Duration.Seconds())
	m.BarsIn.Add(float64(s.BarsIn))
	m.BucketsOut.WithLabelValues(tf).Add(float64(s.BucketsOut))
	m.SkippedBars.Add(float64(s.Skipped))
}

// ObserveFetch records one history fetch.
func (m *Metrics) ObserveFetch(source string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FetchesTotal.WithLabelValues(source, result).Inc()
	m.FetchDur.WithLabelValues(source).Observe(d.Seconds())
}

// ObservePublish records one Redis publish.
func (m *Metrics) ObservePublish(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PublishTotal.WithLabelValues(result).Inc()
}

// BreakerChanged tracks NSE breaker transitions. It matches
// nse.Breaker.OnStateChange.
func (m *Metrics) BreakerChanged(from, to nse.State) {
	m.NSEBreakerState.Set(float64(to))
	if to == nse.StateOpen {
		m.NSEBreakerTrips.Inc()
	}
}

// Handler returns the /metrics handler for m's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, m *Metrics, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("[metrics] server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("[metrics] server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
