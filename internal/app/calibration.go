package app

import (
	"encoding/json"
	"log"
	"math"
	"sort"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/visual_inertial/internal/config"
	"github.com/relabs-tech/visual_inertial/internal/imu"
)

// RunCalibration listens to the IMU sample stream for the given
// duration while the user walks normally, then recommends step
// thresholds from the observed magnitude distribution: the peak
// threshold from the upper quartile, the trough from the lower.
func RunCalibration(duration time.Duration) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole + "-calibration")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("calibration: connected to MQTT broker at %s", cfg.MQTTBroker)

	var magnitudes []float64
	samples := make(chan float64, 256)

	token := client.Subscribe(cfg.TopicIMU, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s imu.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			return
		}
		select {
		case samples <- math.Sqrt(s.Ax*s.Ax + s.Ay*s.Ay + s.Az*s.Az):
		default:
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	log.Printf("calibration: walk normally for %s...", duration)
	deadline := time.After(duration)

collect:
	for {
		select {
		case m := <-samples:
			magnitudes = append(magnitudes, m)
		case <-deadline:
			break collect
		}
	}

	if len(magnitudes) < 20 {
		log.Printf("calibration: only %d samples collected, need at least 20", len(magnitudes))
		return nil
	}

	sort.Float64s(magnitudes)
	mean, stdDev := stat.MeanStdDev(magnitudes, nil)
	q25 := stat.Quantile(0.25, stat.Empirical, magnitudes, nil)
	q75 := stat.Quantile(0.75, stat.Empirical, magnitudes, nil)

	log.Printf("calibration: %d samples, |a| mean=%.2f stddev=%.2f", len(magnitudes), mean, stdDev)
	log.Printf("calibration: recommended STEP_PEAK_THRESHOLD=%.1f", q75)
	log.Printf("calibration: recommended STEP_TROUGH_THRESHOLD=%.1f", q25)
	return nil
}
