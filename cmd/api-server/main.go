package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"prompterest/internal/app"
	"prompterest/internal/config"
	"prompterest/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("could not start server: %v", err)
	}

	err = server.Run(ctx)
	server.Close()
	if err != nil {
		os.Exit(1)
	}
}
