package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/posture_baseline/internal/app"
	"github.com/relabs-tech/posture_baseline/internal/config"
)

func main() {
	configPath := flag.String("config", "posture_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting posture console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
