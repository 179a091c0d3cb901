package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/visual_inertial/internal/app"
	"github.com/relabs-tech/visual_inertial/internal/config"
)

func main() {
	configPath := flag.String("config", "./tracker_config.txt", "path to configuration file")
	useMock := flag.Bool("mock", false, "synthesize azimuth samples instead of reading hardware")
	flag.Parse()

	log.Println("starting compass producer (azimuth → MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunCompassProducer(*useMock); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
