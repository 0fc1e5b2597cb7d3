package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"moviehub/internal/app"
	"moviehub/internal/logging"
	"moviehub/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "TOML config file (defaults to $"+utils.ConfigEnv+")")
	flag.Parse()

	cfg, err := utils.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
