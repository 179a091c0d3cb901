package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/visual_inertial/internal/config"
	"github.com/relabs-tech/visual_inertial/internal/engine"
	"github.com/relabs-tech/visual_inertial/internal/pose"
)

// displayData holds the latest values shown on the OLED.
type displayData struct {
	mu        sync.RWMutex
	fused     pose.Pose
	haveFused bool
	lastStep  engine.PathPoint
	haveStep  bool
}

// RunDisplay drives a small SSD1306 OLED with the fused pose and the
// step count, fed from MQTT.
func RunDisplay() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("display: periph host init: %w", err)
	}

	// Empty bus name selects the first available bus.
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("display: open I2C bus %q: %w", cfg.DisplayI2CBus, err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("display: init SSD1306 on %s: %w", bus, err)
	}
	log.Printf("display: SSD1306 initialized on %s", bus)

	data := &displayData{}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	fusedToken := client.Subscribe(cfg.TopicPoseFused, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p pose.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("display: fused pose unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.fused = p
		data.haveFused = true
		data.mu.Unlock()
	})
	fusedToken.Wait()
	if fusedToken.Error() != nil {
		return fusedToken.Error()
	}

	stepToken := client.Subscribe(cfg.TopicSteps, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p engine.PathPoint
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("display: step unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.lastStep = p
		data.haveStep = true
		data.mu.Unlock()
	})
	stepToken.Wait()
	if stepToken.Error() != nil {
		return stepToken.Error()
	}
	log.Println("display: subscribed, starting update loop")

	interval := cfg.DisplayUpdateInterval
	if interval <= 0 {
		interval = 500
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		data.mu.RLock()
		fused, haveFused := data.fused, data.haveFused
		step, haveStep := data.lastStep, data.haveStep
		data.mu.RUnlock()

		img := image1bit.NewVerticalLSB(dev.Bounds())
		if !haveFused {
			drawText(img, 0, 12, "waiting for data")
		} else {
			drawText(img, 0, 12, fmt.Sprintf("X %7.2f m", fused.X))
			drawText(img, 0, 26, fmt.Sprintf("Y %7.2f m", fused.Y))
			drawText(img, 0, 40, fmt.Sprintf("HDG %5.1f", fused.Heading*180/3.141592653589793))
			if haveStep {
				drawText(img, 0, 54, fmt.Sprintf("STEPS %d", step.Step))
			}
		}

		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			log.Printf("display: draw error: %v", err)
		}
	}
	return nil
}

func drawText(img *image1bit.VerticalLSB, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
