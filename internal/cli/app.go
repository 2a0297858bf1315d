package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"nse-scraper/config"
	"nse-scraper/internal/model"
	"nse-scraper/internal/store/redis"
	"nse-scraper/internal/store/sqlite"
	"nse-scraper/pkg/nse"
)

// archiveStore is the archive surface the CLI needs.
type archiveStore interface {
	model.BarArchive
	Symbols(ctx context.Context) ([]string, error)
}

// app carries configuration and collaborator constructors. Tests replace
// the open* functions with in-memory fakes.
type app struct {
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	openLive      func() model.BarSource
	openArchive   func() (archiveStore, error)
	openPublisher func() (model.SeriesPublisher, error)
}

func newApp(cfg *config.Config) *app {
	a := &app{cfg: cfg, out: os.Stdout, errOut: os.Stderr, now: time.Now}

	a.openLive = func() model.BarSource {
		return nse.NewClient(nse.Config{
			BaseURL:      cfg.NSEBaseURL,
			Series:       cfg.NSESeries,
			Timeout:      cfg.NSETimeout,
			MaxFailures:  cfg.NSEMaxFailures,
			ResetTimeout: cfg.NSEResetAfter,
		})
	}
	a.openArchive = func() (archiveStore, error) {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create archive dir: %w", err)
			}
		}
		arch, err := sqlite.New(sqlite.Config{DBPath: cfg.SQLitePath})
		if err != nil {
			return nil, err
		}
		return arch, nil
	}
	a.openPublisher = func() (model.SeriesPublisher, error) {
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is not set")
		}
		pub, err := redis.New(redis.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			LatestTTL: cfg.RedisLatestTTL,
		})
		if err != nil {
			return nil, err
		}
		return pub, nil
	}
	return a
}

// sinks are the optional outputs of a fetch or batch run.
type sinks struct {
	archive   archiveStore
	publisher model.SeriesPublisher
}

func (s *sinks) Close() {
	if s.archive != nil {
		s.archive.Close()
	}
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func (a *app) openSinks(archive, publish bool) (*sinks, error) {
	s := &sinks{}
	if archive {
		arch, err := a.openArchive()
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		s.archive = arch
	}
	if publish {
		pub, err := a.openPublisher()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open publisher: %w", err)
		}
		s.publisher = pub
	}
	return s, nil
}
