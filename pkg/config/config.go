// Package config loads canvasmith configuration from TOML files.
//
// Every field has a working default; a missing config file is not an
// error. Configuration is read once at startup and treated as read-only
// afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/canvasmith/canvasmith/pkg/errors"
)

// Canvas holds the target artifact dimensions.
type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Solver holds the constraint solver and relaxation bounds.
type Solver struct {
	// BudgetMs is the per-attempt wall-clock budget in milliseconds.
	BudgetMs int64 `toml:"budget_ms"`
	// MaxAttempts caps relaxation attempts before the stack fallback.
	MaxAttempts int `toml:"max_attempts"`
}

// Verify holds the verification pipeline thresholds.
type Verify struct {
	MinFontSize int `toml:"min_font_size"`
	// Palette optionally restricts candidates to approved colors.
	Palette []string `toml:"palette"`
	// MinSpacing enables the pairwise overlap check, in pixels.
	MinSpacing int `toml:"min_spacing"`

	BlankThreshold   float64 `toml:"blank_threshold"`
	VarianceMin      float64 `toml:"variance_min"`
	VarianceMax      float64 `toml:"variance_max"`
	BalanceThreshold float64 `toml:"balance_threshold"`
}

// Refine holds the refinement loop bounds.
type Refine struct {
	MaxIterations int `toml:"max_iterations"`
	// BudgetMs is the overall loop budget in milliseconds, independent of
	// the per-solve budget.
	BudgetMs int64 `toml:"budget_ms"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is "null", "file", or "redis".
	Backend string `toml:"backend"`
	// Dir is the file backend's directory. Empty means the user cache dir.
	Dir string `toml:"dir"`
	// RedisAddr is the redis backend's host:port.
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	// TTLMinutes is the entry lifetime; zero means no expiration.
	TTLMinutes int `toml:"ttl_minutes"`
}

// Server holds the HTTP API settings.
type Server struct {
	Addr string `toml:"addr"`
	// MongoURI enables the persistent job store when set; empty keeps
	// jobs in memory.
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Config is the full configuration surface.
type Config struct {
	Canvas Canvas      `toml:"canvas"`
	Solver Solver      `toml:"solver"`
	Verify Verify      `toml:"verify"`
	Refine Refine      `toml:"refine"`
	Cache  CacheConfig `toml:"cache"`
	Server Server      `toml:"server"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Canvas: Canvas{Width: 1200, Height: 630},
		Solver: Solver{BudgetMs: 500, MaxAttempts: 5},
		Verify: Verify{
			MinFontSize:      14,
			BlankThreshold:   0.98,
			VarianceMin:      0.1,
			VarianceMax:      10000,
			BalanceThreshold: 0.25,
		},
		Refine: Refine{MaxIterations: 5, BudgetMs: 30000},
		Cache:  CacheConfig{Backend: "file", TTLMinutes: 60},
		Server: Server{Addr: ":8080", MongoDatabase: "canvasmith"},
	}
}

// Load reads a TOML file over the defaults. An empty path or a missing
// file returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if err := apperrors.ValidateCanvasSize(c.Canvas.Width, c.Canvas.Height); err != nil {
		return err
	}
	for _, color := range c.Verify.Palette {
		if err := apperrors.ValidateHexColor(color); err != nil {
			return fmt.Errorf("palette: %w", err)
		}
	}
	if c.Solver.BudgetMs < 0 {
		return errors.New("solver budget must not be negative")
	}
	if c.Refine.MaxIterations < 1 {
		return errors.New("refine max_iterations must be at least 1")
	}
	switch c.Cache.Backend {
	case "", "null", "file", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// SolveBudget returns the per-attempt solver budget as a duration.
func (c Config) SolveBudget() time.Duration {
	return time.Duration(c.Solver.BudgetMs) * time.Millisecond
}

// RefineBudget returns the overall loop budget as a duration.
func (c Config) RefineBudget() time.Duration {
	return time.Duration(c.Refine.BudgetMs) * time.Millisecond
}

// CacheTTL returns the cache entry lifetime as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}
