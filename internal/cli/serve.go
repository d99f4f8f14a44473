package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canvasmith/canvasmith/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		mongoURI string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the layout HTTP API",
		Long: `Start the layout HTTP API.

The server exposes the solver and the verification pipeline over HTTP and
tracks long-running generation jobs. Jobs are kept in memory unless a
MongoDB URI is configured, in which case they survive restarts.

The server runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, host:port (default from config)")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI for the persistent job store (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, mongoURI string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if mongoURI != "" {
		cfg.Server.MongoURI = mongoURI
	}

	var store server.JobStore
	if cfg.Server.MongoURI != "" {
		ms, merr := server.NewMongoJobStore(ctx, cfg.Server.MongoURI, cfg.Server.MongoDatabase)
		if merr != nil {
			return fmt.Errorf("connect job store: %w", merr)
		}
		store = ms
		c.Logger.Info("using mongodb job store", "database", cfg.Server.MongoDatabase)
	} else {
		store = server.NewMemoryJobStore()
		c.Logger.Info("using in-memory job store")
	}
	defer func() {
		if cerr := store.Close(context.Background()); cerr != nil {
			c.Logger.Warn("job store close failed", "err", cerr)
		}
	}()

	srv := server.New(cfg, store, c.Logger,
		server.WithCache(c.newCache(cfg, noCache)),
	)
	return srv.ListenAndServe(ctx)
}
