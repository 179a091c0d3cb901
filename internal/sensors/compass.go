// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "math"

// HeadingSource is anything that can read an absolute azimuth in
// radians.
type HeadingSource interface {
	ReadHeading() (float64, error)
}

type mockCompassSource struct {
	tick int
}

// NewMockCompassSource creates a mock compass that sweeps the azimuth
// slowly with a gentle sway, like a walker drifting through turns.
// Output is keyed to the sample counter, so replays are reproducible.
func NewMockCompassSource() HeadingSource {
	return &mockCompassSource{}
}

func (m *mockCompassSource) ReadHeading() (float64, error) {
	azimuth := float64(m.tick)*0.01 + 0.2*math.Sin(float64(m.tick)/40)
	m.tick++

	azimuth = math.Mod(azimuth, 2*math.Pi)
	if azimuth < 0 {
		azimuth += 2 * math.Pi
	}
	return azimuth, nil
}
