package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"safecalc/pkg/calc"
	"safecalc/pkg/coerce"
	"safecalc/pkg/rewrite"
)

// Config is read from the environment, optionally seeded from .env files.
type Config struct {
	Env  string // APP_ENV
	Addr string // SAFECALC_ADDR

	// RateLimitRequests per RateLimitWindow and client IP; 0 disables
	// rate limiting.
	RateLimitRequests int           // RATE_LIMIT_REQUESTS
	RateLimitWindow   time.Duration // RATE_LIMIT_WINDOW, seconds or a duration such as "1m"

	ExprName  string   // SAFECALC_EXPR_NAME
	KeepXor   bool     // SAFECALC_KEEP_XOR
	CacheSize int      // SAFECALC_CACHE_SIZE
	Brotli    bool     // SAFECALC_BROTLI
	Blocked   []string // SAFECALC_BLOCKED_IPS, comma separated
}

// Load reads the given .env files (".env" when none are named) and then
// the environment. Missing files are ignored; variables already set in the
// environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:       getenv("APP_ENV", "development"),
		Addr:      getenv("SAFECALC_ADDR", ":8080"),
		ExprName:  getenv("SAFECALC_EXPR_NAME", rewrite.DefaultExprName),
		CacheSize: calc.DefaultConfig().CacheSize,
		Brotli:    true,
	}

	var err error
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		if cfg.RateLimitRequests, err = coerce.ToInt(v); err != nil {
			return Config{}, fmt.Errorf("config: RATE_LIMIT_REQUESTS: %w", err)
		}
		cfg.RateLimitWindow = time.Minute
		if w := os.Getenv("RATE_LIMIT_WINDOW"); w != "" {
			if cfg.RateLimitWindow, err = window(w); err != nil {
				return Config{}, fmt.Errorf("config: RATE_LIMIT_WINDOW: %w", err)
			}
		}
	}
	if v := os.Getenv("SAFECALC_KEEP_XOR"); v != "" {
		if cfg.KeepXor, err = coerce.ToBool(v); err != nil {
			return Config{}, fmt.Errorf("config: SAFECALC_KEEP_XOR: %w", err)
		}
	}
	if v := os.Getenv("SAFECALC_CACHE_SIZE"); v != "" {
		if cfg.CacheSize, err = coerce.ToInt(v); err != nil {
			return Config{}, fmt.Errorf("config: SAFECALC_CACHE_SIZE: %w", err)
		}
	}
	if v := os.Getenv("SAFECALC_BROTLI"); v != "" {
		if cfg.Brotli, err = coerce.ToBool(v); err != nil {
			return Config{}, fmt.Errorf("config: SAFECALC_BROTLI: %w", err)
		}
	}
	if v := os.Getenv("SAFECALC_BLOCKED_IPS"); v != "" {
		for _, ip := range strings.Split(v, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				cfg.Blocked = append(cfg.Blocked, ip)
			}
		}
	}
	return cfg, nil
}

// Development reports whether verbose diagnostics may be exposed.
func (c Config) Development() bool {
	return c.Env == "development"
}

// Calc returns the evaluator configuration.
func (c Config) Calc() calc.Config {
	rw := rewrite.DefaultConfig()
	rw.ExprName = c.ExprName
	rw.KeepXor = c.KeepXor
	return calc.Config{Rewrite: rw, CacheSize: c.CacheSize}
}

// window reads a bare integer as seconds and anything else as a Go
// duration.
func window(v string) (time.Duration, error) {
	var d time.Duration
	if secs, err := coerce.ToInt(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if d, err = coerce.ToDuration(v); err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("window %q must be positive", v)
	}
	return d, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
