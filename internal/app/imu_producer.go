package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/visual_inertial/internal/config"
	"github.com/relabs-tech/visual_inertial/internal/imu"
	"github.com/relabs-tech/visual_inertial/internal/sensors"
)

// RunIMUProducer reads the MPU9250 on a fixed interval, converts the
// raw registers to SI units, and publishes samples to MQTT for the
// tracker to consume. With useMock it synthesizes a walking pattern
// instead of touching hardware.
func RunIMUProducer(useMock bool) error {
	log.Println("imu: starting IMU producer (IMU → MQTT)")

	cfg := config.Get()

	var src imu.RawSource
	var err error
	if useMock {
		log.Println("imu: using mock IMU source")
		src = sensors.NewMockIMUSource()
	} else {
		src, err = sensors.NewIMUSource()
		if err != nil {
			return err
		}
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDIMU)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("imu: connected to MQTT broker at %s", cfg.MQTTBroker)

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		raw, err := src.ReadRaw()
		if err != nil {
			log.Printf("imu: read error: %v", err)
			continue
		}

		sample := imu.ToSample(raw, cfg.IMUAccelRange, t)
		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("imu: json marshal error: %v", err)
			continue
		}

		if token := client.Publish(cfg.TopicIMU, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("imu: MQTT publish error: %v", token.Error())
		}
	}
	return nil
}
