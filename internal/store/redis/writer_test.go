package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nse-scraper/internal/model"
)

func TestKeys(t *testing.T) {
	s := model.ConsolidatedSeries{Symbol: "SBIN", TimeFrame: model.Monthly}
	assert.Equal(t, "series:monthly:SBIN", s.StreamKey())
	assert.Equal(t, "series:monthly:latest:SBIN", LatestKey(s.TimeFrame, s.Symbol))
	assert.Equal(t, "pub:series:monthly:SBIN", Channel(s.TimeFrame, s.Symbol))
}

func TestNew_Unreachable(t *testing.T) {
	// Port 1 is reserved; the dial is refused immediately.
	_, err := New(Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}
