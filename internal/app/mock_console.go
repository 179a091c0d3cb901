// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/visual_inertial/internal/engine"
	"github.com/relabs-tech/visual_inertial/internal/frame"
	"github.com/relabs-tech/visual_inertial/internal/imu"
	"github.com/relabs-tech/visual_inertial/internal/sensors"
)

// RunMockConsole runs the engine entirely on mock sources and prints
// the estimates. Useful for eyeballing the pipeline without hardware
// or a broker.
func RunMockConsole() error {
	eng := engine.New(engine.Config{})
	frames := frame.NewMockSource(320, 240)
	imuSrc := sensors.NewMockIMUSource()

	frameTicker := time.NewTicker(100 * time.Millisecond)
	defer frameTicker.Stop()
	imuTicker := time.NewTicker(20 * time.Millisecond)
	defer imuTicker.Stop()

	for {
		select {
		case t := <-imuTicker.C:
			raw, err := imuSrc.ReadRaw()
			if err != nil {
				return err
			}
			s := imu.ToSample(raw, 0, t)
			eng.ProcessAccelerometerSample(s.Ax, s.Ay, s.Az, s.Time)

		case <-frameTicker.C:
			f, err := frames.Next()
			if err != nil {
				return err
			}
			est := eng.ProcessGrayFrame(f)
			if est == nil {
				continue
			}
			p := eng.FusedPose()
			fmt.Printf(
				"dx=%8.5f dy=%8.5f rot=%7.4f conf=%4.2f matches=%3d | steps=%3d fused X=%7.3f Y=%7.3f\n",
				est.DeltaX, est.DeltaY, est.Rotation, est.Confidence, est.MatchCount,
				eng.StepCount(), p.X, p.Y,
			)
		}
	}
}
