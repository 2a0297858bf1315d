package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"nse-scraper/pkg/nse"
)

const probeTimeout = 3 * time.Second

// Probe is one dependency check run by the liveness loop.
type Probe struct {
	Name string
	Ping func(ctx context.Context) error
}

// RedisProbe pings the publisher's Redis.
func RedisProbe(rdb *goredis.Client) Probe {
	return Probe{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }}
}

// SQLiteProbe pings the bar archive.
func SQLiteProbe(db *sql.DB) Probe {
	return Probe{Name: "sqlite", Ping: db.PingContext}
}

type probeResult struct {
	OK        bool    `json:"ok"`
	LatencyMs float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// HealthStatus aggregates probe results, the NSE breaker state and the time
// of the last successful fetch into the /healthz report.
type HealthStatus struct {
	mu        sync.RWMutex
	probes    []Probe
	results   map[string]probeResult
	breaker   nse.State
	lastFetch time.Time
	lastCheck time.Time
	started   time.Time
	now       func() time.Time
}

func NewHealthStatus(probes ...Probe) *HealthStatus {
	return &HealthStatus{
		probes:  probes,
		results: make(map[string]probeResult),
		breaker: nse.StateClosed,
		started: time.Now(),
		now:     time.Now,
	}
}

// AddProbe registers p for the next check. A probe that has not run yet
// reports as failing.
func (h *HealthStatus) AddProbe(p Probe) {
	h.mu.Lock()
	h.probes = append(h.probes, p)
	h.mu.Unlock()
}

func (h *HealthStatus) SetNSEBreaker(s nse.State) {
	h.mu.Lock()
	h.breaker = s
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastFetchAt(t time.Time) {
	h.mu.Lock()
	h.lastFetch = t
	h.mu.Unlock()
}

// LastFetchAt reports when a source last returned successfully.
func (h *HealthStatus) LastFetchAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastFetch
}

// CheckAll runs every probe once, each under its own timeout.
func (h *HealthStatus) CheckAll(ctx context.Context) {
	h.mu.RLock()
	probes := append([]Probe(nil), h.probes...)
	h.mu.RUnlock()

	results := make(map[string]probeResult, len(probes))
	for _, p := range probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		start := time.Now()
		err := p.Ping(pctx)
		cancel()

		r := probeResult{OK: err == nil, LatencyMs: float64(time.Since(start).Microseconds()) / 1000}
		if err != nil {
			r.Error = err.Error()
		}
		results[p.Name] = r
	}

	h.mu.Lock()
	h.results = results
	h.lastCheck = h.now()
	h.mu.Unlock()
}

// Run checks immediately and then every interval until ctx ends. breaker,
// when non-nil, is sampled on each pass.
func (h *HealthStatus) Run(ctx context.Context, breaker *nse.Breaker, interval time.Duration) {
	pass := func() {
		h.CheckAll(ctx)
		if breaker != nil {
			h.SetNSEBreaker(breaker.State())
		}
	}
	pass()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pass()
			}
		}
	}()
}

type healthReport struct {
	Status      string                 `json:"status"`
	Uptime      string                 `json:"uptime"`
	NSEBreaker  string                 `json:"nse_breaker"`
	LastFetchAt string                 `json:"last_fetch_at"`
	LastCheckAt string                 `json:"last_check_at"`
	Checks      map[string]probeResult `json:"checks"`
}

// report grades the current state: degraded when NSE is tripped or any probe
// fails, unhealthy when NSE is tripped and the archive is down as well.
func (h *HealthStatus) report() (healthReport, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rep := healthReport{
		Status:     "healthy",
		Uptime:     h.now().Sub(h.started).Round(time.Second).String(),
		NSEBreaker: h.breaker.String(),
		Checks:     make(map[string]probeResult, len(h.probes)),
	}
	if !h.lastFetch.IsZero() {
		rep.LastFetchAt = h.lastFetch.Format(time.RFC3339)
	}
	if !h.lastCheck.IsZero() {
		rep.LastCheckAt = h.lastCheck.Format(time.RFC3339)
	}

	failing := false
	for _, p := range h.probes {
		r := h.results[p.Name]
		rep.Checks[p.Name] = r
		failing = failing || !r.OK
	}

	nseDown := h.breaker == nse.StateOpen
	archiveOK := h.results["sqlite"].OK
	switch {
	case nseDown && !archiveOK:
		return rep.with("unhealthy"), http.StatusServiceUnavailable
	case nseDown || failing:
		return rep.with("degraded"), http.StatusServiceUnavailable
	}
	return rep, http.StatusOK
}

func (r healthReport) with(status string) healthReport {
	r.Status = status
	return r
}

// ServeHTTP serves the /healthz report.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	rep, code := h.report()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(rep)
}
