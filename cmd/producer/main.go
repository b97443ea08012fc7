package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/posture_baseline/internal/app"
	"github.com/relabs-tech/posture_baseline/internal/config"
)

func main() {
	configPath := flag.String("config", "./posture_config.txt", "path to configuration file")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunProducer(ctx); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
