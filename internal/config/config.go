package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/visual_inertial/internal/engine"
	"github.com/relabs-tech/visual_inertial/internal/motion"
	"github.com/relabs-tech/visual_inertial/internal/steps"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDTracker string
	MQTTClientIDIMU     string
	MQTTClientIDCompass string
	MQTTClientIDGPS     string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string

	// Topics
	TopicPose        string
	TopicPoseFused   string
	TopicMotion      string
	TopicLandmarks   string
	TopicSteps       string
	TopicIMU         string
	TopicOrientation string
	TopicGPS         string

	// Frame source
	FrameSource   string // "mock" or "replay"
	FrameDir      string // replay directory
	FrameWidth    int
	FrameHeight   int
	FrameInterval int // milliseconds

	// Engine tuning
	PixelsToMeters      float64
	LandmarkPixelScale  float64
	StepPeakThreshold   float64
	StepTroughThreshold float64
	StepDebounceMS      int
	FusionEnabled       bool
	VisualStrideScale   float64
	CameraWeightGain    float64
	CameraWeightMax     float64

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange     byte
	IMUSampleInterval int // milliseconds

	// Compass
	CompassSampleInterval int // milliseconds

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Web Server
	WebServerPort int

	// Persistence
	TrackDBPath string

	// Display
	DisplayI2CBus         string // empty selects the first available bus
	DisplayUpdateInterval int    // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot access it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{FusionEnabled: true}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_TRACKER":
		c.MQTTClientIDTracker = value
	case "MQTT_CLIENT_ID_IMU":
		c.MQTTClientIDIMU = value
	case "MQTT_CLIENT_ID_COMPASS":
		c.MQTTClientIDCompass = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_POSE_FUSED":
		c.TopicPoseFused = value
	case "TOPIC_MOTION":
		c.TopicMotion = value
	case "TOPIC_LANDMARKS":
		c.TopicLandmarks = value
	case "TOPIC_STEPS":
		c.TopicSteps = value
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// Frame source
	case "FRAME_SOURCE":
		if value != "mock" && value != "replay" {
			return fmt.Errorf("FRAME_SOURCE must be \"mock\" or \"replay\", got %q", value)
		}
		c.FrameSource = value
	case "FRAME_DIR":
		c.FrameDir = value
	case "FRAME_WIDTH":
		w, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FRAME_WIDTH %q: %w", value, err)
		}
		if w <= 0 {
			return fmt.Errorf("FRAME_WIDTH must be positive, got %d", w)
		}
		c.FrameWidth = w
	case "FRAME_HEIGHT":
		h, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FRAME_HEIGHT %q: %w", value, err)
		}
		if h <= 0 {
			return fmt.Errorf("FRAME_HEIGHT must be positive, got %d", h)
		}
		c.FrameHeight = h
	case "FRAME_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FRAME_INTERVAL %q: %w", value, err)
		}
		c.FrameInterval = interval

	// Engine tuning
	case "PIXELS_TO_METERS":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid PIXELS_TO_METERS %q: %w", value, err)
		}
		c.PixelsToMeters = v
	case "LANDMARK_PIXEL_SCALE":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid LANDMARK_PIXEL_SCALE %q: %w", value, err)
		}
		c.LandmarkPixelScale = v
	case "STEP_PEAK_THRESHOLD":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid STEP_PEAK_THRESHOLD %q: %w", value, err)
		}
		c.StepPeakThreshold = v
	case "STEP_TROUGH_THRESHOLD":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid STEP_TROUGH_THRESHOLD %q: %w", value, err)
		}
		c.StepTroughThreshold = v
	case "STEP_DEBOUNCE_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STEP_DEBOUNCE_MS %q: %w", value, err)
		}
		c.StepDebounceMS = v
	case "FUSION_ENABLED":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid FUSION_ENABLED %q: %w", value, err)
		}
		c.FusionEnabled = v
	case "VISUAL_STRIDE_SCALE":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid VISUAL_STRIDE_SCALE %q: %w", value, err)
		}
		c.VisualStrideScale = v
	case "CAMERA_WEIGHT_GAIN":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid CAMERA_WEIGHT_GAIN %q: %w", value, err)
		}
		c.CameraWeightGain = v
	case "CAMERA_WEIGHT_MAX":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid CAMERA_WEIGHT_MAX %q: %w", value, err)
		}
		c.CameraWeightMax = v

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.IMUSampleInterval = interval

	// Compass
	case "COMPASS_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid COMPASS_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.CompassSampleInterval = interval

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Persistence
	case "TRACK_DB_PATH":
		c.TrackDBPath = value

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.FrameWidth == 0 {
		return fmt.Errorf("FRAME_WIDTH is required")
	}
	if c.FrameHeight == 0 {
		return fmt.Errorf("FRAME_HEIGHT is required")
	}
	if c.FrameSource == "replay" && c.FrameDir == "" {
		return fmt.Errorf("FRAME_DIR is required when FRAME_SOURCE=replay")
	}
	if c.IMUSampleInterval == 0 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL is required")
	}
	return nil
}

// EngineConfig assembles the engine tuning block from the loaded
// values; unset knobs stay zero and fall back to the stage defaults.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Estimator: motion.EstimatorConfig{
			PixelsToMeters: c.PixelsToMeters,
		},
		Steps: steps.DetectorConfig{
			PeakThreshold:   c.StepPeakThreshold,
			TroughThreshold: c.StepTroughThreshold,
			Debounce:        time.Duration(c.StepDebounceMS) * time.Millisecond,
		},
		LandmarkPixelScale: c.LandmarkPixelScale,
		VisualStrideScale:  c.VisualStrideScale,
		CameraWeightGain:   c.CameraWeightGain,
		CameraWeightMax:    c.CameraWeightMax,
	}
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
