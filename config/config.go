package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"nse-scraper/internal/model"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// NSE
	NSEBaseURL     string
	NSESeries      string
	NSETimeout     time.Duration
	NSEMaxFailures int
	NSEResetAfter  time.Duration

	// Infrastructure
	RedisAddr      string // empty disables publishing
	RedisPassword  string
	RedisLatestTTL time.Duration
	SQLitePath     string
	HTTPAddr       string
	MetricsAddr    string
	LogLevel       string

	// Output
	OutputDir string
	Workers   int

	// Scheduled refresh (seriesapi). Empty RefreshCron disables it.
	RefreshCron       string
	RefreshSymbols    string
	RefreshTimeFrames string
	RefreshRange      string
	JobsFile          string

	// Alerts for failed refreshes. Unset backends are skipped.
	TelegramBotToken string
	TelegramChatID   string
	AlertWebhookURL  string
}

// Load reads an optional .env file, then environment variables with defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		NSEBaseURL:     getEnv("NSE_BASE_URL", "https://www.nseindia.com"),
		NSESeries:      getEnv("NSE_SERIES", "EQ"),
		NSETimeout:     time.Duration(getEnvInt("NSE_TIMEOUT_SEC", 15)) * time.Second,
		NSEMaxFailures: getEnvInt("NSE_MAX_FAILURES", 5),
		NSEResetAfter:  time.Duration(getEnvInt("NSE_RESET_SEC", 30)) * time.Second,

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisLatestTTL: time.Duration(getEnvInt("REDIS_LATEST_TTL_SEC", 86400)) * time.Second,
		SQLitePath:     getEnv("SQLITE_PATH", "data/bars.db"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:    getEnv("METRICS_ADDR", ":9090"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		OutputDir: getEnv("OUTPUT_DIR", "."),
		Workers:   getEnvInt("WORKERS", 4),

		RefreshCron:       getEnv("REFRESH_CRON", ""),
		RefreshSymbols:    getEnv("REFRESH_SYMBOLS", ""),
		RefreshTimeFrames: getEnv("REFRESH_TIMEFRAMES", "daily,weekly,monthly"),
		RefreshRange:      getEnv("REFRESH_RANGE", "year"),
		JobsFile:          getEnv("JOBS_FILE", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		AlertWebhookURL:  getEnv("ALERT_WEBHOOK_URL", ""),
	}
}

// ParseSymbols splits a comma-separated symbol list, upper-casing and
// dropping blanks and duplicates.
func ParseSymbols(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// ParseTimeFrames parses RefreshTimeFrames, skipping invalid entries.
func (c *Config) ParseTimeFrames() []model.TimeFrame {
	var tfs []model.TimeFrame
	for _, p := range strings.Split(c.RefreshTimeFrames, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tf, err := model.ParseTimeFrame(p)
		if err != nil {
			log.Printf("[config] skipping invalid time frame: %q", p)
			continue
		}
		tfs = append(tfs, tf)
	}
	return tfs
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
