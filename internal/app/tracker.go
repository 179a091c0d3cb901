// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"io"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/visual_inertial/internal/config"
	"github.com/relabs-tech/visual_inertial/internal/engine"
	"github.com/relabs-tech/visual_inertial/internal/frame"
	"github.com/relabs-tech/visual_inertial/internal/imu"
	"github.com/relabs-tech/visual_inertial/internal/tracklog"
)

// orientationSample is the JSON schema published on the orientation
// topic. Angles are radians.
type orientationSample struct {
	Azimuth float64 `json:"azimuth"`
	Pitch   float64 `json:"pitch"`
	Roll    float64 `json:"roll"`
}

// landmarkSnapshotInterval is how many steps pass between persisted
// landmark snapshots.
const landmarkSnapshotInterval = 10

// RunTracker runs the visual-inertial engine: frames from the
// configured source, inertial samples from MQTT, pose/motion/path out
// to MQTT and (optionally) the track database.
func RunTracker() error {
	log.Println("tracker: starting visual-inertial tracker")

	cfg := config.Get()

	eng := engine.New(cfg.EngineConfig())
	eng.SetFusionEnabled(cfg.FusionEnabled)

	// --- Frame source ---
	var src frame.Source
	var err error
	if cfg.FrameSource == "replay" {
		src, err = frame.NewReplaySource(cfg.FrameDir, cfg.FrameWidth, cfg.FrameHeight)
		if err != nil {
			return err
		}
		log.Printf("tracker: replaying frames from %s", cfg.FrameDir)
	} else {
		src = frame.NewMockSource(cfg.FrameWidth, cfg.FrameHeight)
		log.Println("tracker: using mock frame source")
	}

	// --- Track database (optional) ---
	var db *tracklog.DB
	var sessionID string
	if cfg.TrackDBPath != "" {
		db, err = tracklog.Open(cfg.TrackDBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		sessionID, err = db.BeginSession("tracker", time.Now())
		if err != nil {
			return err
		}
		log.Printf("tracker: logging to %s session %s", cfg.TrackDBPath, sessionID)
	}

	// --- MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDTracker)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("tracker: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Inertial samples arrive on paho's delivery goroutine; the
	// engine's mutex is the synchronization boundary with the frame
	// loop below.
	imuToken := client.Subscribe(cfg.TopicIMU, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s imu.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("tracker: imu sample unmarshal error: %v", err)
			return
		}
		eng.ProcessAccelerometerSample(s.Ax, s.Ay, s.Az, s.Time)
		eng.ProcessGyroscopeSample(s.Gx, s.Gy, s.Gz, s.Time)
	})
	imuToken.Wait()
	if imuToken.Error() != nil {
		return imuToken.Error()
	}
	log.Printf("tracker: subscribed to %s", cfg.TopicIMU)

	orientToken := client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var o orientationSample
		if err := json.Unmarshal(msg.Payload(), &o); err != nil {
			log.Printf("tracker: orientation unmarshal error: %v", err)
			return
		}
		eng.ProcessOrientationSample(o.Azimuth, o.Pitch, o.Roll)
	})
	orientToken.Wait()
	if orientToken.Error() != nil {
		return orientToken.Error()
	}

	// --- Frame loop ---
	// One frame is fully processed before the next is pulled, so the
	// detect/track/estimate/integrate/map pipeline never runs
	// concurrently with itself.
	interval := time.Duration(cfg.FrameInterval) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastPersistedStep := 0
	for range ticker.C {
		f, err := src.Next()
		if err == io.EOF {
			log.Println("tracker: frame source exhausted")
			return nil
		}
		if err != nil {
			log.Printf("tracker: frame source error: %v", err)
			continue
		}

		est := eng.ProcessGrayFrame(f)
		if est == nil {
			// First frame of the session: nothing to compare against.
			continue
		}

		publishJSON(client, cfg.TopicMotion, est)
		publishJSON(client, cfg.TopicPose, eng.Pose())
		publishJSON(client, cfg.TopicPoseFused, eng.FusedPose())

		path := eng.Path()
		if len(path) > 0 && path[len(path)-1].Step > lastPersistedStep {
			// New steps since the last frame: publish and persist them.
			for _, p := range path {
				if p.Step <= lastPersistedStep {
					continue
				}
				publishJSON(client, cfg.TopicSteps, p)
				if db != nil {
					if err := db.InsertPathPoint(sessionID, p); err != nil {
						log.Printf("tracker: %v", err)
					}
				}
			}
			newest := path[len(path)-1].Step
			if db != nil && newest/landmarkSnapshotInterval > lastPersistedStep/landmarkSnapshotInterval {
				if err := db.InsertLandmarkSnapshot(sessionID, eng.Landmarks(), time.Now()); err != nil {
					log.Printf("tracker: %v", err)
				}
			}
			lastPersistedStep = newest

			publishJSON(client, cfg.TopicLandmarks, eng.Landmarks())
		}
	}
	return nil
}

// publishJSON marshals v and publishes it retained at QoS 0. Publish
// failures are logged, never fatal: a missed telemetry message does
// not stop tracking.
func publishJSON(client mqtt.Client, topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("tracker: json marshal error (%s): %v", topic, err)
		return
	}
	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("tracker: MQTT publish error (%s): %v", topic, token.Error())
	}
}
