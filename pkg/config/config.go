package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream   UpstreamConfig
	Cache      CacheConfig
	Preload    PreloadConfig
	Scheduling SchedulingConfig
	CORS       CORSConfig
	Log        LogConfig
}

// UpstreamConfig points at the school's course site and governs request behaviour.
type UpstreamConfig struct {
	BaseURL          string
	UserAgent        string
	Timeout          time.Duration
	RootPage         string
	TeacherIndexPage string
	ClassIndexPage   string
}

// CacheConfig locates the on-disk JSON cache.
type CacheConfig struct {
	Dir string
}

// PreloadConfig bounds the bulk timetable preload.
type PreloadConfig struct {
	MaxConcurrent int
	Delay         time.Duration
	OnlyMissing   bool
}

// SchedulingConfig tunes the search defaults.
type SchedulingConfig struct {
	DefaultMaxDepth int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// defaults is the single source of configuration keys; godotenv merges a
// .env file into the process environment and viper reads everything from
// there, so no separate config-file plumbing exists.
var defaults = map[string]interface{}{
	"ENV":        EnvDevelopment,
	"PORT":       8080,
	"API_PREFIX": "/api/v1",

	"UPSTREAM_BASE_URL":           "http://w3.tnfsh.tn.edu.tw/deanofstudies/course/",
	"UPSTREAM_USER_AGENT":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"UPSTREAM_TIMEOUT":            "10s",
	"UPSTREAM_ROOT_PAGE":          "course.html",
	"UPSTREAM_TEACHER_INDEX_PAGE": "_TeachIndex.html",
	"UPSTREAM_CLASS_INDEX_PAGE":   "_ClassIndex.html",

	"CACHE_DIR": "cache",

	"PRELOAD_MAX_CONCURRENT": 5,
	"PRELOAD_DELAY":          "0s",
	"PRELOAD_ONLY_MISSING":   true,

	"SCHEDULING_DEFAULT_MAX_DEPTH": 3,

	"ALLOWED_ORIGINS": "",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
		Upstream: UpstreamConfig{
			BaseURL:          v.GetString("UPSTREAM_BASE_URL"),
			UserAgent:        v.GetString("UPSTREAM_USER_AGENT"),
			Timeout:          v.GetDuration("UPSTREAM_TIMEOUT"),
			RootPage:         v.GetString("UPSTREAM_ROOT_PAGE"),
			TeacherIndexPage: v.GetString("UPSTREAM_TEACHER_INDEX_PAGE"),
			ClassIndexPage:   v.GetString("UPSTREAM_CLASS_INDEX_PAGE"),
		},
		Cache: CacheConfig{Dir: v.GetString("CACHE_DIR")},
		Preload: PreloadConfig{
			MaxConcurrent: v.GetInt("PRELOAD_MAX_CONCURRENT"),
			Delay:         v.GetDuration("PRELOAD_DELAY"),
			OnlyMissing:   v.GetBool("PRELOAD_ONLY_MISSING"),
		},
		Scheduling: SchedulingConfig{
			DefaultMaxDepth: v.GetInt("SCHEDULING_DEFAULT_MAX_DEPTH"),
		},
		CORS: CORSConfig{AllowedOrigins: csv(v.GetString("ALLOWED_ORIGINS"))},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT %d is out of range", cfg.Port)
	}
	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL must not be empty")
	}
	if cfg.Upstream.Timeout <= 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}

	return cfg, nil
}

// csv splits a comma-separated value, dropping empty entries.
func csv(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' }) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
