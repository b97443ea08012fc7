// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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
	configPath := flag.String("config", "posture_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting posture web server (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log.Println("Note: calibration requires a landmark producer to be running (./producer)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunWeb(ctx); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
