package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrMissingDatabaseURL is returned when no database DSN is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required (use memory:// for an in-process store)")

// Defaults applied when a value is not configured.
const (
	DefaultServerPort  = "8080"
	DefaultUserAgent   = "XtreamGate/1.0"
	DefaultTimeout     = 30 * time.Second
	DefaultCacheTTL    = 60 * time.Minute
	DefaultGuideTTL    = 24 * time.Hour
	DefaultPlaylistTTL = 12 * time.Hour
	DefaultPageSize    = 100

	// DefaultResponseCacheMB sizes the in-process response cache.
	DefaultResponseCacheMB = 128
)

// Config holds application configuration. It is built once in main and
// passed to every component constructor.
type Config struct {
	DatabaseURL string
	RedisURL    string
	ServerPort  string
	DataDir     string

	UserAgent   string
	Timeout     time.Duration
	UpstreamRPS float64

	CacheTTL          time.Duration
	ResponseCacheMB   int
	GuideTTL          time.Duration
	PlaylistTTL       time.Duration
	ServeStaleOnError bool
	DefaultPageSize   int

	LogLevel  string
	LogFormat string

	// Accounts seeded at boot when absent from the store.
	Accounts []SeedAccount
}

// SeedAccount is an id/host pair from IPTV_ACCOUNTS or the config file.
type SeedAccount struct {
	ID   string
	Host string
}

// Default returns a Config with every optional field at its default.
func Default() *Config {
	return &Config{
		ServerPort:      DefaultServerPort,
		DataDir:         defaultDataDir(),
		UserAgent:       DefaultUserAgent,
		Timeout:         DefaultTimeout,
		CacheTTL:        DefaultCacheTTL,
		ResponseCacheMB: DefaultResponseCacheMB,
		GuideTTL:        DefaultGuideTTL,
		PlaylistTTL:     DefaultPlaylistTTL,
		DefaultPageSize: DefaultPageSize,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load tries to load .env.local and .env from the current directory.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := Default()
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisURL = os.Getenv("REDIS_URL")
	setString(&c.ServerPort, "SERVER_PORT")
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.UserAgent, "FETCHER_USER_AGENT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setDuration(&c.Timeout, os.Getenv("FETCHER_TIMEOUT"), time.Second)
	setDuration(&c.CacheTTL, os.Getenv("CACHE_TIME"), time.Minute)
	setDuration(&c.GuideTTL, os.Getenv("EPG_TIME"), time.Minute)
	setDuration(&c.PlaylistTTL, os.Getenv("M3U_TIME"), time.Minute)
	if s := os.Getenv("UPSTREAM_RPS"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
			c.UpstreamRPS = f
		}
	}
	if s := os.Getenv("PAGE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			c.DefaultPageSize = n
		}
	}
	if s := os.Getenv("RESPONSE_CACHE_MB"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			c.ResponseCacheMB = n
		}
	}
	c.ServeStaleOnError = parseBool(os.Getenv("SERVE_STALE_ON_ERROR"))
	c.Accounts = ParseSeedAccounts(os.Getenv("IPTV_ACCOUNTS"))
	if c.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return c, nil
}

// ParseSeedAccounts parses "id;host|id;host". Malformed entries are skipped.
func ParseSeedAccounts(s string) []SeedAccount {
	var out []SeedAccount
	for _, entry := range strings.Split(s, "|") {
		parts := strings.SplitN(strings.TrimSpace(entry), ";", 2)
		if len(parts) != 2 {
			continue
		}
		id, host := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if id == "" || host == "" {
			continue
		}
		out = append(out, SeedAccount{ID: id, Host: host})
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setDuration accepts a Go duration ("90s") or a bare integer in unit.
// Invalid or non-positive values leave dst unchanged.
func setDuration(dst *time.Duration, s string, unit time.Duration) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n > 0 {
			*dst = time.Duration(n) * unit
		}
		return
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		*dst = d
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// defaultDataDir is /app inside a container, else the user cache dir.
func defaultDataDir() string {
	if parseBool(os.Getenv("RUNNING_IN_CONTAINER")) || parseBool(os.Getenv("DOTNET_RUNNING_IN_CONTAINER")) {
		return "/app"
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "xtreamgate")
	}
	return filepath.Join(os.TempDir(), "xtreamgate")
}
