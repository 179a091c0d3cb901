// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package engine hosts the visual-inertial motion engine: the
// per-frame detect/track/estimate/integrate/map pipeline plus the
// step-driven fusion of visual and inertial dead reckoning.
package engine

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/visual_inertial/internal/features"
	"github.com/relabs-tech/visual_inertial/internal/frame"
	"github.com/relabs-tech/visual_inertial/internal/landmarks"
	"github.com/relabs-tech/visual_inertial/internal/motion"
	"github.com/relabs-tech/visual_inertial/internal/pose"
	"github.com/relabs-tech/visual_inertial/internal/steps"
	"github.com/relabs-tech/visual_inertial/internal/track"
)

// PathPoint is one fused dead-reckoning position, appended per step.
type PathPoint struct {
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Step int       `json:"step"`
	Time time.Time `json:"time"`
}

// Config tunes the engine and its stages. Zero values take the
// stage defaults. The fusion constants are empirically chosen, not
// invariants; they are exposed here so deployments can tune them.
type Config struct {
	Detector  features.DetectorConfig
	Tracker   track.TrackerConfig
	Estimator motion.EstimatorConfig
	Landmarks landmarks.MapConfig
	Steps     steps.DetectorConfig

	// LandmarkPixelScale converts a feature's x pixel offset from the
	// frame center into world meters for landmark projection.
	LandmarkPixelScale float64 // default 0.001

	// MinAccumConfidence gates which estimates enter the fusion
	// accumulator.
	MinAccumConfidence float64 // default 0.2

	// VisualStrideScale scales the averaged per-frame visual deltas up
	// to stride magnitude before blending.
	VisualStrideScale float64 // default 10

	CameraWeightGain          float64 // default 0.6
	CameraWeightMax           float64 // default 0.5
	HeadingNudgeGain          float64 // default 0.3
	HeadingNudgeMinConfidence float64 // default 0.5
}

func (c *Config) applyDefaults() {
	if c.LandmarkPixelScale == 0 {
		c.LandmarkPixelScale = 0.001
	}
	if c.MinAccumConfidence == 0 {
		c.MinAccumConfidence = 0.2
	}
	if c.VisualStrideScale == 0 {
		c.VisualStrideScale = 10
	}
	if c.CameraWeightGain == 0 {
		c.CameraWeightGain = 0.6
	}
	if c.CameraWeightMax == 0 {
		c.CameraWeightMax = 0.5
	}
	if c.HeadingNudgeGain == 0 {
		c.HeadingNudgeGain = 0.3
	}
	if c.HeadingNudgeMinConfidence == 0 {
		c.HeadingNudgeMinConfidence = 0.5
	}
	if c.Estimator.TrackingCap == 0 {
		c.Estimator.TrackingCap = c.Tracker.MaxTracked
	}
}

// accumulator collects visual motion between steps.
type accumulator struct {
	dx, dy, rot, conf float64
	n                 int
}

// Engine is one tracking session. All mutable state sits behind a
// single mutex: frames are processed strictly sequentially by
// contract, but inertial samples arrive on their own goroutine and
// touch the fused heading and the accumulator.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	detector  *features.Detector
	tracker   *track.Tracker
	estimator *motion.Estimator

	prevFrame    *frame.Frame
	prevFeatures []features.Point

	visual pose.Pose
	marks  *landmarks.Map

	stepper       *steps.Detector
	fusionEnabled bool
	acc           accumulator

	fused    pose.Pose
	path     []PathPoint
	lastGyro time.Time

	updates chan motion.Estimate
}

// New creates an engine with fusion enabled.
func New(cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{
		cfg:           cfg,
		detector:      features.NewDetector(cfg.Detector),
		tracker:       track.NewTracker(cfg.Tracker),
		estimator:     motion.NewEstimator(cfg.Estimator),
		marks:         landmarks.NewMap(cfg.Landmarks),
		stepper:       steps.NewDetector(cfg.Steps),
		fusionEnabled: true,
		updates:       make(chan motion.Estimate, 8),
	}
}

// ProcessFrame converts a color frame to grayscale and processes it.
func (e *Engine) ProcessFrame(img image.Image) *motion.Estimate {
	return e.ProcessGrayFrame(frame.FromImage(img))
}

// ProcessGrayFrame runs the per-frame pipeline. It returns nil on the
// first frame of a session (nothing to compare against); otherwise it
// always returns an estimate, possibly with zero confidence.
func (e *Engine) ProcessGrayFrame(f *frame.Frame) *motion.Estimate {
	e.mu.Lock()
	defer e.mu.Unlock()

	detected := e.detector.Detect(f)

	if e.prevFrame == nil {
		e.prevFrame = f
		e.prevFeatures = detected
		return nil
	}

	matches := e.tracker.Track(e.prevFrame, f, e.prevFeatures)
	est := e.estimator.Estimate(matches, f.W, f.H)

	e.visual = pose.Integrate(e.visual, est)
	e.updateMap(f.W, detected)

	if est.Confidence > e.cfg.MinAccumConfidence {
		e.acc.dx += est.DeltaX
		e.acc.dy += est.DeltaY
		e.acc.rot += est.Rotation
		e.acc.conf += est.Confidence
		e.acc.n++
	}

	// Swap the single-slot frame cache; the old snapshot is dropped,
	// never mutated.
	e.prevFrame = f
	e.prevFeatures = detected

	select {
	case e.updates <- est:
	default:
	}
	return &est
}

// updateMap projects every currently detected feature into world
// coordinates and merges it into the landmark map. The projection
// uses only the x pixel offset along both rotated axes — a known
// approximation kept for behavioral parity, not a full camera model.
func (e *Engine) updateMap(frameW int, detected []features.Point) {
	sin, cos := math.Sincos(e.visual.Heading)
	halfW := float64(frameW) / 2
	for _, p := range detected {
		offset := (float64(p.X) - halfW) * e.cfg.LandmarkPixelScale
		e.marks.Observe(e.visual.X+offset*cos, e.visual.Y+offset*sin)
	}
}

// ProcessAccelerometerSample feeds one accelerometer vector (m/s²).
// When a step fires, the inertial stride displacement is blended with
// the visual motion accumulated since the previous step.
func (e *Engine) ProcessAccelerometerSample(ax, ay, az float64, t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	step, ok := e.stepper.Process(ax, ay, az, t)
	if !ok {
		return
	}

	heading := e.fused.Heading
	inertialX := step.Stride * math.Sin(heading)
	inertialY := step.Stride * math.Cos(heading)

	dx, dy := inertialX, inertialY
	if e.fusionEnabled && e.acc.n > 0 {
		n := float64(e.acc.n)
		avgDX := e.acc.dx / n
		avgDY := e.acc.dy / n
		avgRot := e.acc.rot / n
		avgConf := e.acc.conf / n

		cameraWeight := avgConf * e.cfg.CameraWeightGain
		if cameraWeight > e.cfg.CameraWeightMax {
			cameraWeight = e.cfg.CameraWeightMax
		}
		if cameraWeight < 0 {
			cameraWeight = 0
		}
		imuWeight := 1 - cameraWeight

		dx = imuWeight*inertialX + cameraWeight*avgDX*e.cfg.VisualStrideScale
		dy = imuWeight*inertialY + cameraWeight*avgDY*e.cfg.VisualStrideScale

		if avgConf > e.cfg.HeadingNudgeMinConfidence {
			e.fused.Heading = pose.NormalizeHeading(heading + avgRot*cameraWeight*e.cfg.HeadingNudgeGain)
		}
	}
	e.acc = accumulator{}

	e.fused.X += dx
	e.fused.Y += dy
	e.path = append(e.path, PathPoint{X: e.fused.X, Y: e.fused.Y, Step: step.Count, Time: t})
}

// ProcessGyroscopeSample integrates the z-axis rate (rad/s) into the
// fused heading between orientation fixes.
func (e *Engine) ProcessGyroscopeSample(gx, gy, gz float64, t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lastGyro.IsZero() {
		dt := t.Sub(e.lastGyro).Seconds()
		if dt > 0 {
			e.fused.Heading = pose.NormalizeHeading(e.fused.Heading + gz*dt)
		}
	}
	e.lastGyro = t
}

// ProcessOrientationSample sets the fused heading directly from a
// rotation-vector azimuth (radians).
func (e *Engine) ProcessOrientationSample(azimuth, pitch, roll float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fused.Heading = pose.NormalizeHeading(azimuth)
}

// Pose returns the visual world-frame pose.
func (e *Engine) Pose() pose.Pose {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visual
}

// FusedPose returns the step-fused dead-reckoning pose.
func (e *Engine) FusedPose() pose.Pose {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fused
}

// Features returns a copy of the most recent frame's feature points.
func (e *Engine) Features() []features.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]features.Point, len(e.prevFeatures))
	copy(out, e.prevFeatures)
	return out
}

// Landmarks returns a snapshot of the landmark map.
func (e *Engine) Landmarks() []landmarks.Landmark {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.marks.Snapshot()
}

// LandmarkCount returns the number of landmarks currently held.
func (e *Engine) LandmarkCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.marks.Count()
}

// Path returns a copy of the fused per-step path.
func (e *Engine) Path() []PathPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]PathPoint, len(e.path))
	copy(out, e.path)
	return out
}

// StepCount returns the number of steps detected this session.
func (e *Engine) StepCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stepper.Count()
}

// Updates exposes a best-effort notification stream of motion
// estimates. Slow consumers miss estimates rather than stalling the
// pipeline; the pull accessors remain the source of truth.
func (e *Engine) Updates() <-chan motion.Estimate {
	return e.updates
}

// SetFusionEnabled toggles visual-inertial blending. Disabled, each
// step advances the fused pose by pure inertial stride displacement.
func (e *Engine) SetFusionEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fusionEnabled = enabled
}

// SetStepThreshold adjusts the step detector's peak threshold.
func (e *Engine) SetStepThreshold(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepper.SetPeakThreshold(v)
}

// Reset clears all mutable state back to session start: pose to the
// origin, features, landmarks, accumulator, path, and step-detector
// state, all under one lock so no partial state survives.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prevFrame = nil
	e.prevFeatures = nil
	e.visual = pose.Pose{}
	e.fused = pose.Pose{}
	e.path = nil
	e.acc = accumulator{}
	e.lastGyro = time.Time{}
	e.marks.Reset()
	e.stepper.Reset()
}
