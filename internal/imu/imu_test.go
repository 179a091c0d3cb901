package imu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToSample(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("2g range converts full-scale gravity", func(t *testing.T) {
		t.Parallel()
		s := ToSample(Raw{Az: 16384}, 0, now)
		assert.InDelta(t, 9.80665, s.Az, 1e-9)
		assert.Zero(t, s.Ax)
		assert.Equal(t, now, s.Time)
	})

	t.Run("range code selects sensitivity", func(t *testing.T) {
		t.Parallel()
		// Same register value reads 8x larger at ±16g.
		lo := ToSample(Raw{Ax: 1024}, 0, now)
		hi := ToSample(Raw{Ax: 1024}, 3, now)
		assert.InDelta(t, lo.Ax*8, hi.Ax, 1e-9)
	})

	t.Run("gyro converts to radians per second", func(t *testing.T) {
		t.Parallel()
		// 131 LSB/(°/s): full positive scale is about 250°/s.
		s := ToSample(Raw{Gz: 131}, 0, now)
		assert.InDelta(t, 3.141592653589793/180, s.Gz, 1e-9)
	})

	t.Run("out-of-range code wraps into the table", func(t *testing.T) {
		t.Parallel()
		a := ToSample(Raw{Ax: 1000}, 1, now)
		b := ToSample(Raw{Ax: 1000}, 5, now)
		assert.Equal(t, a.Ax, b.Ax)
	})

	t.Run("negative registers keep sign", func(t *testing.T) {
		t.Parallel()
		s := ToSample(Raw{Az: -16384, Gz: -262}, 0, now)
		assert.InDelta(t, -9.80665, s.Az, 1e-9)
		assert.Less(t, s.Gz, 0.0)
	})
}
