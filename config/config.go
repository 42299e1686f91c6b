package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	HTTP       HTTPConfig
	Navigation NavigationConfig
	Batch      BatchConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the headless browser session.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// SessionCloseTimeout bounds the browser close during shutdown.
	SessionCloseTimeout time.Duration // default: 10s

	// PageCloseTimeout bounds a page close before a forced close is tried.
	PageCloseTimeout time.Duration // default: 5s
}

// HTTPConfig controls the plain-HTTP fetch strategy.
type HTTPConfig struct {
	// RequestTimeout is the per-request transport deadline.
	RequestTimeout time.Duration // default: 20s

	// WallClockTimeout is the hard deadline raced against the request.
	// Must be strictly larger than RequestTimeout.
	WallClockTimeout time.Duration // default: 25s

	// MaxRedirects caps redirect following.
	MaxRedirects int // default: 3
}

// NavigationConfig controls the browser fetch strategy.
type NavigationConfig struct {
	// AttemptTimeout is the deadline for a single navigation attempt.
	AttemptTimeout time.Duration // default: 20s

	// Retries is the number of navigation attempts before giving up.
	Retries int // default: 3

	// RetryDelay is the pause between navigation attempts.
	RetryDelay time.Duration // default: 2s

	// SettleDelay is the fixed wait after navigation for client-side
	// rendering to complete.
	SettleDelay time.Duration // default: 2s

	// WallClockTimeout is the overall budget for one browser scrape,
	// re-checked after the settle wait.
	WallClockTimeout time.Duration // default: 25s
}

// BatchConfig controls multi-URL batch processing.
type BatchConfig struct {
	// WindowSize is the number of URLs scraped concurrently per window.
	WindowSize int // default: 2

	// WindowPause is the pause between windows, to avoid bursts against
	// the remote sites.
	WindowPause time.Duration // default: 1s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("PRICESCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("PRICESCOUT_PORT", 8080),
			Mode: envOr("PRICESCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:            envBoolOr("PRICESCOUT_HEADLESS", true),
			NoSandbox:           envBoolOr("PRICESCOUT_NO_SANDBOX", false),
			BrowserBin:          os.Getenv("PRICESCOUT_BROWSER_BIN"),
			SessionCloseTimeout: envDurationOr("PRICESCOUT_SESSION_CLOSE_TIMEOUT", 10*time.Second),
			PageCloseTimeout:    envDurationOr("PRICESCOUT_PAGE_CLOSE_TIMEOUT", 5*time.Second),
		},
		HTTP: HTTPConfig{
			RequestTimeout:   envDurationOr("PRICESCOUT_HTTP_TIMEOUT", 20*time.Second),
			WallClockTimeout: envDurationOr("PRICESCOUT_HTTP_WALL_TIMEOUT", 25*time.Second),
			MaxRedirects:     envIntOr("PRICESCOUT_HTTP_MAX_REDIRECTS", 3),
		},
		Navigation: NavigationConfig{
			AttemptTimeout:   envDurationOr("PRICESCOUT_NAV_TIMEOUT", 20*time.Second),
			Retries:          envIntOr("PRICESCOUT_NAV_RETRIES", 3),
			RetryDelay:       envDurationOr("PRICESCOUT_NAV_RETRY_DELAY", 2*time.Second),
			SettleDelay:      envDurationOr("PRICESCOUT_SETTLE_DELAY", 2*time.Second),
			WallClockTimeout: envDurationOr("PRICESCOUT_NAV_WALL_TIMEOUT", 25*time.Second),
		},
		Batch: BatchConfig{
			WindowSize:  envIntOr("PRICESCOUT_BATCH_WINDOW", 2),
			WindowPause: envDurationOr("PRICESCOUT_BATCH_PAUSE", time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("PRICESCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("PRICESCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("PRICESCOUT_RATE_RPS", 5.0),
			Burst:             envIntOr("PRICESCOUT_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("PRICESCOUT_LOG_LEVEL", "info"),
			Format: envOr("PRICESCOUT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
