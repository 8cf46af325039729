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

	"ekanban/cmd"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	loadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Getenv)
	stop()
	if err != nil {
		log.Fatalf("%v", err)
	}
}

// run serves until ctx is cancelled. Every handle opened by the composition
// root is closed before it returns, including after a failed start.
func run(ctx context.Context, getenv func(string) string) (err error) {
	config, err := cmd.LoadConfig(getenv)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("role", string(config.Role))

	app, err := cmd.NewCompositionRoot(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Error("Failed to release resources", "error", closeErr)
			err = errors.Join(err, closeErr)
		}
	}()

	if err := app.Start(ctx); err != nil {
		app.Stop()
		return fmt.Errorf("failed to start application: %w", err)
	}

	return startWebServer(ctx, app, config.HTTPPort, logger)
}

// loadDotEnv applies .env when present. Variables already set win.
func loadDotEnv() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}
}

// startWebServer blocks until ctx is cancelled or the listener fails, then
// drains connections.
func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port string, logger *slog.Logger) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	app.RegisterRoutes(e)

	serveErr := make(chan error, 1)
	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var err error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err = <-serveErr:
		err = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Board streams only end when their clients leave or the stream stops.
	app.Stop()
	if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("HTTP shutdown failed", "error", shutdownErr)
	}
	return err
}
