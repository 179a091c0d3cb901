// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package steps

import (
	"math"
	"time"
)

// Step describes one detected walking step.
type Step struct {
	Count     int           `json:"count"`     // total steps this session
	Frequency float64       `json:"frequency"` // instantaneous cadence, Hz
	Stride    float64       `json:"stride"`    // assumed stride length, m
	Interval  time.Duration `json:"-"`         // time since previous step
}

// Detector turns accelerometer magnitudes into discrete step events
// with a two-state peak/trough machine. Entering the peak requires
// the magnitude to exceed the peak threshold and the debounce
// interval to have elapsed since the last step; falling below the
// trough threshold is the step event itself.
type Detector struct {
	cfg DetectorConfig

	inPeak   bool
	lastStep time.Time
	count    int
}

// DetectorConfig tunes the detector. Zero values take the defaults.
type DetectorConfig struct {
	PeakThreshold   float64       // |a| m/s² to enter peak, default 11.0
	TroughThreshold float64       // |a| m/s² to leave peak, default 9.0
	Debounce        time.Duration // min time between steps, default 250ms
}

// NewDetector builds a step detector, filling in defaults for zero
// fields.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.PeakThreshold == 0 {
		cfg.PeakThreshold = 11.0
	}
	if cfg.TroughThreshold == 0 {
		cfg.TroughThreshold = 9.0
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 250 * time.Millisecond
	}
	return &Detector{cfg: cfg}
}

// SetPeakThreshold adjusts the peak threshold at runtime.
func (d *Detector) SetPeakThreshold(v float64) {
	d.cfg.PeakThreshold = v
}

// Process feeds one accelerometer sample. It returns the step event
// and true exactly when the peak→trough transition fires.
func (d *Detector) Process(ax, ay, az float64, t time.Time) (Step, bool) {
	mag := math.Sqrt(ax*ax + ay*ay + az*az)

	if !d.inPeak {
		if mag > d.cfg.PeakThreshold && (d.lastStep.IsZero() || t.Sub(d.lastStep) >= d.cfg.Debounce) {
			d.inPeak = true
		}
		return Step{}, false
	}

	if mag >= d.cfg.TroughThreshold {
		return Step{}, false
	}

	// Trough crossing: this is the step.
	d.inPeak = false
	d.count++

	var interval time.Duration
	var freq float64
	if !d.lastStep.IsZero() {
		interval = t.Sub(d.lastStep)
		if interval > 0 {
			freq = 1 / interval.Seconds()
		}
	}
	d.lastStep = t

	return Step{
		Count:     d.count,
		Frequency: freq,
		Stride:    StrideForFrequency(freq),
		Interval:  interval,
	}, true
}

// Count returns the number of steps detected this session.
func (d *Detector) Count() int {
	return d.count
}

// Reset returns the detector to its session-start state.
func (d *Detector) Reset() {
	d.inPeak = false
	d.lastStep = time.Time{}
	d.count = 0
}

// StrideForFrequency maps step cadence to an assumed stride length
// via fixed breakpoints: slow shuffles cover less ground per step
// than a brisk walk.
func StrideForFrequency(freq float64) float64 {
	switch {
	case freq < 1.5:
		return 0.60
	case freq < 2.0:
		return 0.75
	default:
		return 1.00
	}
}
