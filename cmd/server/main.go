package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/editions-go/api"
	"github.com/yourusername/editions-go/internal/app"
	"github.com/yourusername/editions-go/internal/bootstrap"
	"go.uber.org/zap"
)

var configPath = flag.String("config", "", "Path to config file (default: ./configs/config.yaml, ~/.editions/config.yaml)")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := bootstrap.New(ctx, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	log := rt.Logger

	log.Info("Starting Editions server",
		zap.String("version", "1.0.0"),
		zap.String("bundle_id", config.Editions.BundleID),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port))

	// a failed first load is already shown as a notice
	if err := rt.Session.Load(ctx); err != nil {
		log.Warn("Initial catalog load failed", zap.Error(err))
	}

	router := api.SetupRouter(api.RouterDeps{
		Session:    rt.Session,
		History:    rt.SDK,
		Readiness:  rt.SDK,
		Notices:    rt.Notices,
		LogAdapter: rt.LogAdapter,
		LogsDir:    config.Download.LogsDir(),
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	rt.Close(shutdownCtx)
	log.Info("Server exited")
}
