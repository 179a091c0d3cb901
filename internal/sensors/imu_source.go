// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/visual_inertial/internal/config"
	"github.com/relabs-tech/visual_inertial/internal/imu"
)

type imuSource struct {
	imu *mpu9250.MPU9250
}

// NewIMUSource initializes the MPU9250 over SPI using the configured
// device and CS pin, sets the accelerometer range, and runs self-test
// and calibration at startup.
func NewIMUSource() (imu.RawSource, error) {
	cfg := config.Get()
	return newIMUSource(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange)
}

func newIMUSource(spiDev, csPin string, accelRange byte) (imu.RawSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", spiDev, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := dev.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	log.Printf("IMU: accelerometer range set to %d (±%dg)", accelRange, []int{2, 4, 8, 16}[accelRange])

	if _, err := dev.SelfTest(); err != nil {
		log.Printf("Warning: IMU self-test failed: %v", err)
	}

	if err := dev.Calibrate(); err != nil {
		log.Printf("Warning: IMU calibration failed: %v", err)
	} else {
		log.Println("IMU calibration complete")
	}

	return &imuSource{imu: dev}, nil
}

// ReadRaw reads accelerometer and gyroscope registers.
func (s *imuSource) ReadRaw() (imu.Raw, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	return imu.Raw{Ax: ax, Ay: ay, Az: az, Gx: gx, Gy: gy, Gz: gz}, nil
}
