package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"skirmish/server"
	"skirmish/utils"
)

// Runs the relay server on its own, reading config.toml from the working
// directory when there is one. An address argument overrides the config.
func main() {
	cfg, err := utils.ReadTOML("config.toml")
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = utils.Default(), nil
	}
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if len(os.Args) > 1 {
		cfg.Server.Address = os.Args[1]
	}

	logger := utils.NewLogger(cfg.Log.Level, os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := server.Run(ctx, cfg.Server, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
