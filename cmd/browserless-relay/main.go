package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"browserless-relay/internal/config"
	"browserless-relay/internal/http/server"
	"browserless-relay/internal/infra/browserless"
	"browserless-relay/internal/infra/logging"
)

func main() {
	cfg := config.Load()

	if err := ensureLogDir(cfg.Logger.File); err != nil {
		logging.Error("Failed to create log directory", "file", cfg.Logger.File, "error", err)
		os.Exit(1)
	}
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	logging.SetLogLevel(cfg.Logger.Level)

	client, err := browserless.NewClient(browserless.Config{
		BaseURL:          cfg.Browserless.BaseURL,
		Token:            cfg.Browserless.Token,
		Timeout:          cfg.Browserless.Timeout,
		MaxResponseBytes: cfg.Browserless.MaxResponseBytes,
	})
	if err != nil {
		logging.Error("Failed to create rendering client", "error", err)
		os.Exit(1)
	}

	app := server.New(server.Deps{Config: cfg, Renderer: client})

	idleConnsClosed := make(chan struct{})
	logging.Info("Starting relay", "addr", cfg.Server.Host+cfg.Server.Port, "upstream", cfg.Browserless.BaseURL)
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// ensureLogDir creates the parent directory of the log file, if any.
func ensureLogDir(file string) error {
	if file == "" {
		return nil
	}
	dir := filepath.Dir(file)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigint)
	<-sigint

	logging.Warn("Shutdown signal received, closing server...")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.Default().Server.ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
