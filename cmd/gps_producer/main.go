package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/visual_inertial/internal/app"
	"github.com/relabs-tech/visual_inertial/internal/config"
)

func main() {
	configPath := flag.String("config", "./tracker_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting GPS reference-track producer (NMEA → MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunGPSProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
