package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/yourusername/editions-go/internal/app"
	"github.com/yourusername/editions-go/internal/bootstrap"
	"github.com/yourusername/editions-go/internal/tui"
	"go.uber.org/zap"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// the terminal belongs to the UI
	switch config.Logging.OutputPath {
	case "", "stdout", "stderr":
		config.Logging.OutputPath = filepath.Join(config.Download.LogsDir(), "tui.log")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	runErr := tui.Run(ctx, rt.Session, rt.Notices)
	if runErr != nil {
		rt.Logger.Error("TUI exited with error", zap.Error(runErr))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rt.Close(closeCtx)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
