package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig drops a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `MQTT_BROKER=tcp://localhost:1883
FRAME_WIDTH=320
FRAME_HEIGHT=240
IMU_SAMPLE_INTERVAL=20
`

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("minimal config loads with defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := Load(writeConfig(t, minimalConfig))
		require.NoError(t, err)

		assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
		assert.Equal(t, 320, cfg.FrameWidth)
		assert.Equal(t, 240, cfg.FrameHeight)
		assert.Equal(t, 20, cfg.IMUSampleInterval)
		assert.True(t, cfg.FusionEnabled, "fusion defaults on")
	})

	t.Run("comments and blank lines are skipped", func(t *testing.T) {
		t.Parallel()
		cfg, err := Load(writeConfig(t, `# leading comment

MQTT_BROKER=tcp://broker:1883

# trailing comment
FRAME_WIDTH=640
FRAME_HEIGHT=480
IMU_SAMPLE_INTERVAL=10
`))
		require.NoError(t, err)
		assert.Equal(t, 640, cfg.FrameWidth)
	})

	t.Run("values parse into typed fields", func(t *testing.T) {
		t.Parallel()
		cfg, err := Load(writeConfig(t, minimalConfig+`FRAME_SOURCE=mock
STEP_PEAK_THRESHOLD=12.5
STEP_DEBOUNCE_MS=300
FUSION_ENABLED=false
IMU_ACCEL_RANGE=2
MQTT_CLIENT_ID_COMPASS=compass-1
COMPASS_SAMPLE_INTERVAL=100
DISPLAY_I2C_BUS=1
`))
		require.NoError(t, err)
		assert.Equal(t, "mock", cfg.FrameSource)
		assert.InDelta(t, 12.5, cfg.StepPeakThreshold, 1e-12)
		assert.Equal(t, 300, cfg.StepDebounceMS)
		assert.False(t, cfg.FusionEnabled)
		assert.Equal(t, byte(2), cfg.IMUAccelRange)
		assert.Equal(t, "compass-1", cfg.MQTTClientIDCompass)
		assert.Equal(t, 100, cfg.CompassSampleInterval)
		assert.Equal(t, "1", cfg.DisplayI2CBus)
	})

	t.Run("missing file fails", func(t *testing.T) {
		t.Parallel()
		_, err := Load("/does/not/exist.txt")
		assert.Error(t, err)
	})

	t.Run("unknown key fails with the key name", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, minimalConfig+"BOGUS_KEY=1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BOGUS_KEY")
	})

	t.Run("malformed line reports its number", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, "MQTT_BROKER tcp://x\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("missing broker fails validation", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, `FRAME_WIDTH=320
FRAME_HEIGHT=240
IMU_SAMPLE_INTERVAL=20
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MQTT_BROKER")
	})

	t.Run("replay source requires a frame dir", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, minimalConfig+"FRAME_SOURCE=replay\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FRAME_DIR")
	})

	t.Run("frame source is restricted", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, minimalConfig+"FRAME_SOURCE=camera\n"))
		assert.Error(t, err)
	})

	t.Run("accel range is bounded", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, minimalConfig+"IMU_ACCEL_RANGE=4\n"))
		assert.Error(t, err)
	})

	t.Run("negative frame width fails", func(t *testing.T) {
		t.Parallel()
		_, err := Load(writeConfig(t, `MQTT_BROKER=tcp://x
FRAME_WIDTH=-1
FRAME_HEIGHT=240
IMU_SAMPLE_INTERVAL=20
`))
		assert.Error(t, err)
	})
}

func TestEngineConfig(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, minimalConfig+`PIXELS_TO_METERS=0.002
STEP_PEAK_THRESHOLD=12
STEP_TROUGH_THRESHOLD=8
STEP_DEBOUNCE_MS=300
LANDMARK_PIXEL_SCALE=0.005
`))
	require.NoError(t, err)

	ec := cfg.EngineConfig()
	assert.InDelta(t, 0.002, ec.Estimator.PixelsToMeters, 1e-12)
	assert.InDelta(t, 12, ec.Steps.PeakThreshold, 1e-12)
	assert.InDelta(t, 8, ec.Steps.TroughThreshold, 1e-12)
	assert.Equal(t, 300*time.Millisecond, ec.Steps.Debounce)
	assert.InDelta(t, 0.005, ec.LandmarkPixelScale, 1e-12)
}
