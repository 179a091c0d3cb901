package imu

import "time"

// Raw is a single raw accelerometer+gyro sample as read from the
// MPU9250 registers.
type Raw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// Sample is a converted inertial sample in SI units: accelerations in
// m/s², rotation rates in rad/s.
type Sample struct {
	Ax float64 `json:"ax"`
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"`
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`

	Time time.Time `json:"time"`
}

// RawSource is anything that can read raw IMU samples.
type RawSource interface {
	ReadRaw() (Raw, error)
}

const (
	gravity        = 9.80665
	degToRad       = 3.141592653589793 / 180
	gyroLSBPerDeg  = 131.0 // ±250°/s full scale
)

// accelLSBPerG by configured range code (0=±2g .. 3=±16g).
var accelLSBPerG = [4]float64{16384, 8192, 4096, 2048}

// ToSample converts a raw register sample into SI units using the
// configured accelerometer range code and stamps it with t.
func ToSample(r Raw, accelRange byte, t time.Time) Sample {
	lsb := accelLSBPerG[accelRange&3]
	return Sample{
		Ax:   float64(r.Ax) / lsb * gravity,
		Ay:   float64(r.Ay) / lsb * gravity,
		Az:   float64(r.Az) / lsb * gravity,
		Gx:   float64(r.Gx) / gyroLSBPerDeg * degToRad,
		Gy:   float64(r.Gy) / gyroLSBPerDeg * degToRad,
		Gz:   float64(r.Gz) / gyroLSBPerDeg * degToRad,
		Time: t,
	}
}
