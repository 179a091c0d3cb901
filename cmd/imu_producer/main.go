// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/visual_inertial/internal/app"
	"github.com/relabs-tech/visual_inertial/internal/config"
)

func main() {
	configPath := flag.String("config", "./tracker_config.txt", "path to configuration file")
	useMock := flag.Bool("mock", false, "synthesize IMU samples instead of reading hardware")
	flag.Parse()

	log.Println("starting IMU producer (MPU9250 → MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunIMUProducer(*useMock); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
