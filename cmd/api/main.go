package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/finny/internal/app"
	"github.com/MrJamesThe3rd/finny/internal/config"
	finnyHttp "github.com/MrJamesThe3rd/finny/internal/http"
	"github.com/MrJamesThe3rd/finny/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	go func() {
		if err := a.Listen(ctx); err != nil {
			slog.Error("change listener stopped", "error", err)
		}
	}()

	router := finnyHttp.New(finnyHttp.NewHandlers(a), finnyHttp.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Timeout:     cfg.Server.Timeout,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "port", srv.Addr, "store", cfg.App.Store)
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

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
