package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/carelink/clk/internal/api"
	"github.com/carelink/clk/internal/config"
)

// apiTimeout is the default timeout for API calls.
const apiTimeout = 10 * time.Second

// loadConfig loads and validates the .carelink file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no %s file found (run `clk init` first)", config.FileName)
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", config.FileName, err)
	}
	return cfg, nil
}

// newClient builds an authenticated API client from the config file. An
// expired session token is surfaced before the first request fails with
// a harder-to-read 401.
func newClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if api.TokenExpired(cfg.Token) {
		return nil, nil, fmt.Errorf("session token has expired; sign in again and update %s", config.FileName)
	}
	return api.NewWithToken(cfg.BaseURL, cfg.Token), cfg, nil
}

func parseTimeBestEffort(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// formatTimeAgo formats a timestamp string as "X ago" for human-friendly
// display. If parsing fails, it falls back to the raw timestamp.
func formatTimeAgo(timestamp string) string {
	ts, ok := parseTimeBestEffort(timestamp)
	if !ok {
		return timestamp
	}
	d := time.Since(ts)
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds ago", secs)
	}
	mins := secs / 60
	if mins < 60 {
		return fmt.Sprintf("%dm ago", mins)
	}
	hours := mins / 60
	if hours < 48 {
		return fmt.Sprintf("%dh ago", hours)
	}
	days := hours / 24
	return fmt.Sprintf("%dd ago", days)
}

// truncate shortens s to max runes for single-line previews.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
