package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"hexfront/server/internal/app"
	"hexfront/server/internal/config"
)

func main() {
	configDir := flag.String("config", ".", "directory holding hexfront.json")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
