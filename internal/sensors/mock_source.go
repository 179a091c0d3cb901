// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"

	"github.com/relabs-tech/visual_inertial/internal/imu"
)

type mockIMUSource struct {
	tick int
}

// NewMockIMUSource creates a mock IMU that synthesizes a walking
// pattern: the vertical acceleration oscillates around gravity hard
// enough to trip the step detector at roughly 1.7 Hz when sampled at
// 50 Hz.
func NewMockIMUSource() imu.RawSource {
	return &mockIMUSource{}
}

func (m *mockIMUSource) ReadRaw() (imu.Raw, error) {
	// ±2g range: 16384 LSB/g.
	phase := float64(m.tick) * 2 * math.Pi * 1.7 / 50
	m.tick++

	az := int16((1.0 + 0.35*math.Sin(phase)) * 16384)
	return imu.Raw{Az: az}, nil
}
