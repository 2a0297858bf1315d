// Package redis publishes built series for downstream consumers.
//
// Each publish is one pipeline: XADD to the per-series stream (trimmed),
// SET of the latest snapshot with a TTL and PUBLISH on the pubsub channel.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nse-scraper/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// streamMaxLen keeps roughly a year of daily rebuilds per series.
	streamMaxLen     = 400
	defaultLatestTTL = 24 * time.Hour
)

// Config configures the publisher.
type Config struct {
	Addr      string // Redis address, e.g. "localhost:6379"
	Password  string
	DB        int
	LatestTTL time.Duration // default: 24h
}

// Publisher writes ConsolidatedSeries to Redis.
type Publisher struct {
	client    *goredis.Client
	latestTTL time.Duration
}

var _ model.SeriesPublisher = (*Publisher)(nil)

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.LatestTTL
	if ttl <= 0 {
		ttl = defaultLatestTTL
	}

	slog.Info("[redis] connected", "addr", cfg.Addr)
	return &Publisher{client: client, latestTTL: ttl}, nil
}

// LatestKey is the key holding the most recent snapshot of a series.
func LatestKey(tf model.TimeFrame, symbol string) string {
	return "series:" + tf.String() + ":latest:" + symbol
}

// Channel is the pubsub channel announcing new snapshots of a series.
func Channel(tf model.TimeFrame, symbol string) string {
	return "pub:series:" + tf.String() + ":" + symbol
}

// PublishSeries pushes s in a single pipeline round trip.
func (p *Publisher) PublishSeries(ctx context.Context, s model.ConsolidatedSeries) error {
	jsonData := string(s.JSON())

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.StreamKey(),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": jsonData,
			"from": s.FromDate,
			"to":   s.ToDate,
		},
	})
	pipe.Set(ctx, LatestKey(s.TimeFrame, s.Symbol), jsonData, p.latestTTL)
	pipe.Publish(ctx, Channel(s.TimeFrame, s.Symbol), jsonData)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", s.StreamKey(), err)
	}
	slog.Debug("[redis] published series", "key", s.StreamKey(), "buckets", len(s.Data))
	return nil
}

// Close closes the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
