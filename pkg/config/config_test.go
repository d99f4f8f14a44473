package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Canvas.Width != 1200 || cfg.Canvas.Height != 630 {
		t.Errorf("canvas = %dx%d, want 1200x630", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Solver.BudgetMs != 500 || cfg.Solver.MaxAttempts != 5 {
		t.Errorf("solver = %d/%d, want 500/5", cfg.Solver.BudgetMs, cfg.Solver.MaxAttempts)
	}
	if cfg.Verify.MinFontSize != 14 {
		t.Errorf("min font size = %d, want 14", cfg.Verify.MinFontSize)
	}
	if cfg.Verify.BlankThreshold != 0.98 || cfg.Verify.VarianceMin != 0.1 || cfg.Verify.VarianceMax != 10000 {
		t.Errorf("raster thresholds = %v/%v/%v", cfg.Verify.BlankThreshold, cfg.Verify.VarianceMin, cfg.Verify.VarianceMax)
	}
	if cfg.Verify.BalanceThreshold != 0.25 {
		t.Errorf("balance threshold = %v, want 0.25", cfg.Verify.BalanceThreshold)
	}
	if cfg.Refine.MaxIterations != 5 || cfg.Refine.BudgetMs != 30000 {
		t.Errorf("refine = %d/%d, want 5/30000", cfg.Refine.MaxIterations, cfg.Refine.BudgetMs)
	}
	if cfg.Cache.Backend != "file" || cfg.Cache.TTLMinutes != 60 {
		t.Errorf("cache = %s/%d, want file/60", cfg.Cache.Backend, cfg.Cache.TTLMinutes)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.MongoDatabase != "canvasmith" {
		t.Errorf("server = %s/%s", cfg.Server.Addr, cfg.Server.MongoDatabase)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("empty path should return defaults")
	}

	cfg, err = Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Canvas.Width != 1200 {
		t.Error("missing file should return defaults")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvasmith.toml")
	content := `
[canvas]
width = 800
height = 418

[solver]
budget_ms = 250

[verify]
min_font_size = 16
palette = ["#1A1A2E", "#E94560"]

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl_minutes = 15
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != 800 || cfg.Canvas.Height != 418 {
		t.Errorf("canvas = %dx%d, want 800x418", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Solver.BudgetMs != 250 {
		t.Errorf("budget = %d, want 250", cfg.Solver.BudgetMs)
	}
	if len(cfg.Verify.Palette) != 2 || cfg.Verify.Palette[0] != "#1A1A2E" {
		t.Errorf("palette = %v", cfg.Verify.Palette)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}

	// Untouched sections keep their defaults.
	if cfg.Solver.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want default 5", cfg.Solver.MaxAttempts)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %s, want default :8080", cfg.Server.Addr)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("canvas = {{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed TOML should error")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.toml")
	if err := os.WriteFile(path, []byte("[canvas]\nwidth = -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("invalid canvas should fail validation at load time")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero canvas", func(c *Config) { c.Canvas.Width = 0 }, "canvas"},
		{"oversized canvas", func(c *Config) { c.Canvas.Height = 20000 }, "canvas"},
		{"bad palette entry", func(c *Config) { c.Verify.Palette = []string{"#FFF", "blurple"} }, "palette"},
		{"negative budget", func(c *Config) { c.Solver.BudgetMs = -1 }, "budget"},
		{"zero iterations", func(c *Config) { c.Refine.MaxIterations = 0 }, "max_iterations"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, "unknown cache backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	// Hex palette entries of both lengths are fine.
	cfg := Default()
	cfg.Verify.Palette = []string{"#FFF", "#1a1a2e"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid palette rejected: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if cfg.SolveBudget() != 500*time.Millisecond {
		t.Errorf("SolveBudget = %v", cfg.SolveBudget())
	}
	if cfg.RefineBudget() != 30*time.Second {
		t.Errorf("RefineBudget = %v", cfg.RefineBudget())
	}
	if cfg.CacheTTL() != time.Hour {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL())
	}
}
