package main

import (
	"flag"
	"log"
	"time"

	"github.com/relabs-tech/visual_inertial/internal/app"
	"github.com/relabs-tech/visual_inertial/internal/config"
)

func main() {
	configPath := flag.String("config", "./tracker_config.txt", "path to configuration file")
	duration := flag.Duration("duration", 30*time.Second, "how long to sample while walking")
	flag.Parse()

	log.Println("starting step-threshold calibration (requires IMU producer running)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunCalibration(*duration); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
