// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/posture_baseline/internal/app"
	"github.com/relabs-tech/posture_baseline/internal/config"
)

func main() {
	configPath := flag.String("config", "posture_config.txt", "Path to configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load config from %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	cfg := config.Get()

	fmt.Println("=== Posture Calibration ===")
	fmt.Printf("Sit upright facing the camera. Capturing for %d ms, results go to %s\n",
		cfg.CalibrationDurationMS, cfg.CalibrationFile)
	fmt.Println("Requires a landmark producer publishing to", cfg.TopicLandmarks)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := app.RunCalibrator(ctx)
	if err != nil {
		log.Fatalf("calibration failed: %v", err)
	}

	fmt.Println()
	fmt.Println("Calibration complete.")
	fmt.Println(app.FormatBaseline(b))
}
