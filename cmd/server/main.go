package main

import (
	"context"
	"log/slog"
	"os"

	"ledger/internal/logging"
	"ledger/internal/server/app"
	"ledger/internal/server/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)
	application, err := app.New(config.Load(), logger, version, buildDate)
	if err != nil {
		logger.Error(context.Background(), "failed to init server", "error", err)
		os.Exit(1)
	}
	if err := application.Run(); err != nil {
		logger.Error(context.Background(), "server stopped with error", "error", err)
		os.Exit(1)
	}
}
