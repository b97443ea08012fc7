// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/relabs-tech/posture_baseline/internal/app"
	"github.com/relabs-tech/posture_baseline/internal/calibration"
	"github.com/relabs-tech/posture_baseline/internal/config"
)

func main() {
	configPath := flag.String("config", "posture_config.txt", "Path to configuration file")
	file := flag.String("file", "", "baseline file (defaults to CALIBRATION_FILE)")
	strict := flag.Bool("strict", false, "reject unknown keys (overrides CALIBRATION_STRICT_READ)")
	raw := flag.Bool("json", false, "print the record as JSON instead of a summary")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load config from %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	cfg := *config.Get()
	if *file != "" {
		cfg.CalibrationFile = *file
	}
	if *strict {
		cfg.CalibrationStrictRead = true
	}

	b, err := cfg.LoadBaseline()
	switch {
	case errors.Is(err, calibration.ErrNotFound):
		fmt.Fprintf(os.Stderr, "no baseline at %s, run calibrate first\n", cfg.CalibrationFile)
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	if *raw {
		if err := calibration.Encode(os.Stdout, b); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Println(app.FormatBaseline(b))
}
