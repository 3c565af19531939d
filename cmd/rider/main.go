package main

import (
	"context"
	"flag"
	"os"

	"github.com/example/delivery-rider/config"
	"github.com/example/delivery-rider/internal/app"
	"github.com/example/delivery-rider/pkg/logger"
)

var (
	helpFlag   = flag.Bool("help", false, "Show help message")
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
)

func main() {
	flag.Parse()
	if *helpFlag {
		config.PrintHelp()
		return
	}

	ctx := context.Background()
	log := logger.InitLogger("rider", logger.LevelDebug)

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Error(ctx, "failed to configure application", err)
		config.PrintHelp()
		return
	}

	config.PrintConfig(cfg)

	if logger.ValidateLogLevel(cfg.LogLevel) {
		log = logger.InitLogger("rider", cfg.LogLevel)
	}

	rider, err := app.NewRider(ctx, *cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	if err := rider.Start(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
