package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phonginreallife/sentinel/docstore"
	"github.com/phonginreallife/sentinel/internal/config"
	"github.com/phonginreallife/sentinel/router"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, config.App)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg config.Config) error {
	store, err := docstore.Open(ctx, storeOptions(cfg), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close document store", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewGinRouter(store, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func storeOptions(cfg config.Config) docstore.Options {
	return docstore.Options{
		Backend:     cfg.Store.Backend,
		IndexPath:   cfg.Store.IndexPath,
		DatabaseURL: cfg.Store.DatabaseURL,
		RedisURL:    cfg.Store.RedisURL,
		CacheTTL:    cfg.Store.CacheTTL,
	}
}
