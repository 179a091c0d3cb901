package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/visual_inertial/internal/config"
	"github.com/relabs-tech/visual_inertial/internal/engine"
	"github.com/relabs-tech/visual_inertial/internal/gps"
	"github.com/relabs-tech/visual_inertial/internal/motion"
	"github.com/relabs-tech/visual_inertial/internal/pose"
)

// RunConsoleMQTT subscribes to the tracker topics and prints a
// formatted line per message until interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	poseToken := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p pose.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: pose unmarshal error: %v", err)
			return
		}
		fmt.Printf("[POSE]  X=%7.3f  Y=%7.3f  HEADING=%6.3f\n", p.X, p.Y, p.Heading)
	})
	poseToken.Wait()
	if poseToken.Error() != nil {
		return poseToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPose)

	fusedToken := client.Subscribe(cfg.TopicPoseFused, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p pose.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: fused pose unmarshal error: %v", err)
			return
		}
		fmt.Printf("[FUSE]  X=%7.3f  Y=%7.3f  HEADING=%6.3f\n", p.X, p.Y, p.Heading)
	})
	fusedToken.Wait()
	if fusedToken.Error() != nil {
		return fusedToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPoseFused)

	motionToken := client.Subscribe(cfg.TopicMotion, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var est motion.Estimate
		if err := json.Unmarshal(msg.Payload(), &est); err != nil {
			log.Printf("console: motion unmarshal error: %v", err)
			return
		}
		fmt.Printf("[MOVE]  dx=%8.5f dy=%8.5f rot=%7.4f conf=%4.2f matches=%d\n",
			est.DeltaX, est.DeltaY, est.Rotation, est.Confidence, est.MatchCount)
	})
	motionToken.Wait()
	if motionToken.Error() != nil {
		return motionToken.Error()
	}

	stepsToken := client.Subscribe(cfg.TopicSteps, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p engine.PathPoint
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: step unmarshal error: %v", err)
			return
		}
		fmt.Printf("[STEP]  #%d  X=%7.3f  Y=%7.3f\n", p.Step, p.X, p.Y)
	})
	stepsToken.Wait()
	if stepsToken.Error() != nil {
		return stepsToken.Error()
	}

	gpsToken := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f gps.Fix
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}
		fmt.Printf("[GPS ]  time=%s lat=%.6f lon=%.6f speed=%.1fkn course=%.1f° validity=%s\n",
			f.Time, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity)
	})
	gpsToken.Wait()
	if gpsToken.Error() != nil {
		return gpsToken.Error()
	}
	log.Println("console: subscribed to all topics")

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
