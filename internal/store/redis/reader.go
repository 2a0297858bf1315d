package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"nse-scraper/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// ErrNotCached is returned by Latest when no snapshot exists (or it expired).
var ErrNotCached = errors.New("redis: series not cached")

// Latest reads the most recent published snapshot of symbol at tf.
func (p *Publisher) Latest(ctx context.Context, tf model.TimeFrame, symbol string) (model.ConsolidatedSeries, error) {
	var s model.ConsolidatedSeries

	data, err := p.client.Get(ctx, LatestKey(tf, symbol)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return s, ErrNotCached
		}
		return s, fmt.Errorf("redis GET %s: %w", LatestKey(tf, symbol), err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("redis decode %s: %w", LatestKey(tf, symbol), err)
	}
	return s, nil
}
