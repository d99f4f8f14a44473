// Package cli implements the canvasmith command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/canvasmith/canvasmith/pkg/buildinfo"
	"github.com/canvasmith/canvasmith/pkg/cache"
	"github.com/canvasmith/canvasmith/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "canvasmith"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "canvasmith",
		Short:        "Canvasmith solves and verifies constraint-based layouts",
		Long:         `Canvasmith turns structural layout descriptions into pixel-exact geometry using a constraint solver with progressive relaxation, and verifies rendered candidates through a layered validation pipeline.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML config file")

	// Register all subcommands
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the effective configuration for a command. A missing
// file falls back to defaults; an unreadable or invalid one is an error.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache builds the cache backend selected by cfg. Backend failures fall
// back to the null cache so commands still work without one.
func (c *CLI) newCache(cfg config.Config, noCache bool) cache.Cache {
	if noCache || cfg.Cache.Backend == "null" {
		return cache.NewNullCache()
	}
	if cfg.Cache.Backend == "redis" {
		rc, err := cache.NewRedisCache(context.Background(), cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			c.Logger.Warn("cache unavailable", "err", err)
			return cache.NewNullCache()
		}
		return rc
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			c.Logger.Warn("cache unavailable", "err", err)
			return cache.NewNullCache()
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache unavailable", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/canvasmith/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
