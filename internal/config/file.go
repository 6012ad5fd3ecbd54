package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL       string        `yaml:"database_url"`
	RedisURL          string        `yaml:"redis_url"`
	ServerPort        string        `yaml:"server_port"`
	DataDir           string        `yaml:"data_dir"`
	UserAgent         string        `yaml:"user_agent"`
	Timeout           string        `yaml:"timeout"`
	UpstreamRPS       float64       `yaml:"upstream_rps"`
	CacheTime         string        `yaml:"cache_time"`
	EpgTime           string        `yaml:"epg_time"`
	M3uTime           string        `yaml:"m3u_time"`
	ServeStaleOnError bool          `yaml:"serve_stale_on_error"`
	PageSize          int           `yaml:"page_size"`
	ResponseCacheMB   int           `yaml:"response_cache_mb"`
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
	Accounts          []SeedAccount `yaml:"accounts"`
}

// LoadFromFile loads config from a YAML file. database_url is required.
// Durations accept Go syntax ("12h") or bare minutes ("720"); timeout bare values are seconds.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseFile(data)
}

func parseFile(data []byte) (*Config, error) {
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	c := Default()
	c.DatabaseURL = f.DatabaseURL
	c.RedisURL = f.RedisURL
	c.ServeStaleOnError = f.ServeStaleOnError
	c.Accounts = f.Accounts
	for dst, v := range map[*string]string{
		&c.ServerPort: f.ServerPort,
		&c.DataDir:    f.DataDir,
		&c.UserAgent:  f.UserAgent,
		&c.LogLevel:   f.LogLevel,
		&c.LogFormat:  f.LogFormat,
	} {
		if v != "" {
			*dst = v
		}
	}
	if f.UpstreamRPS > 0 {
		c.UpstreamRPS = f.UpstreamRPS
	}
	if f.PageSize > 0 {
		c.DefaultPageSize = f.PageSize
	}
	if f.ResponseCacheMB > 0 {
		c.ResponseCacheMB = f.ResponseCacheMB
	}
	setDuration(&c.Timeout, f.Timeout, time.Second)
	setDuration(&c.CacheTTL, f.CacheTime, time.Minute)
	setDuration(&c.GuideTTL, f.EpgTime, time.Minute)
	setDuration(&c.PlaylistTTL, f.M3uTime, time.Minute)
	return c, nil
}
