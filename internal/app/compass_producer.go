package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/visual_inertial/internal/config"
	"github.com/relabs-tech/visual_inertial/internal/sensors"
)

// RunCompassProducer publishes absolute azimuth samples on the
// orientation topic for the tracker to snap its fused heading to.
// Only the mock source is available: the published MPU9250 driver
// exposes no magnetometer registers.
func RunCompassProducer(useMock bool) error {
	log.Println("compass: starting compass producer (azimuth → MQTT)")

	cfg := config.Get()

	var src sensors.HeadingSource
	if useMock {
		log.Println("compass: using mock heading source")
		src = sensors.NewMockCompassSource()
	} else {
		return fmt.Errorf("compass: no supported magnetometer, run with -mock")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDCompass)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("compass: connected to MQTT broker at %s", cfg.MQTTBroker)

	interval := cfg.CompassSampleInterval
	if interval <= 0 {
		interval = 100
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		azimuth, err := src.ReadHeading()
		if err != nil {
			log.Printf("compass: read error: %v", err)
			continue
		}

		payload, err := json.Marshal(orientationSample{Azimuth: azimuth})
		if err != nil {
			log.Printf("compass: json marshal error: %v", err)
			continue
		}

		if token := client.Publish(cfg.TopicOrientation, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("compass: MQTT publish error: %v", token.Error())
		}
	}
	return nil
}
