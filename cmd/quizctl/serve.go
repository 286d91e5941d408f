package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bizquiz/internal/backend"
	"bizquiz/internal/backend/sqlite"
	"bizquiz/internal/config"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference quiz backend on SQLite",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := sqlite.NewStore(cfg.Server.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.Server.SeedFile != "" {
			seed, err := backend.LoadSeed(cfg.Server.SeedFile)
			if err != nil {
				return err
			}
			if err := backend.Seed(ctx, store, seed); err != nil {
				return err
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           backend.NewRouter(store, newAdvisor(cfg), serverConfig(cfg)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server",
				zap.Int("port", port),
				zap.String("database", cfg.Server.Database),
				zap.Bool("admin_enabled", cfg.Server.AdminToken != ""),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func serverConfig(c *config.Config) backend.Config {
	return backend.Config{
		AdminToken:      c.Server.AdminToken,
		AllowedOrigins:  c.Server.AllowedOrigins,
		AIRatePerMinute: c.Server.AIRatePerMinute,
	}
}

// newAdvisor uses Claude when a key is configured and canned text otherwise.
func newAdvisor(c *config.Config) backend.Advisor {
	if c.Anthropic.Key == "" {
		zap.L().Info("anthropic.key not set, serving canned advice")
		return backend.CannedAdvisor{}
	}
	return backend.NewAnthropicAdvisor(c.Anthropic.Key, c.Anthropic.Model, c.Anthropic.MaxTokens)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
