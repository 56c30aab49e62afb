package inertial

import "fmt"

// Noise holds the per-axis IMU noise model (spec §6, ImuNoise config):
// accelerometer and gyroscope measurement noise and their bias
// random-walk terms, each a variance added per second of integration
// (ImuPreintegration.Integrate adds it times the step dt), plus
// NominalDt, the nominal sample period, which the engine uses as the
// trajectory state spacing passed to Predict.
type Noise struct {
	AccNoise     float64
	GyrNoise     float64
	AccBiasNoise float64
	GyrBiasNoise float64
	NominalDt    float64
}

// DefaultNoise returns a representative MEMS-grade IMU noise model,
// values in the same ballpark as the kalibr-style defaults grounded in
// the original ImuNoise constructor.
func DefaultNoise() Noise {
	return Noise{
		AccNoise:     1e-2,
		GyrNoise:     1e-3,
		AccBiasNoise: 1e-4,
		GyrBiasNoise: 1e-5,
		NominalDt:    0.01,
	}
}

// String summarizes the noise model for log output.
func (n Noise) String() string {
	return fmt.Sprintf("Noise(acc=%.4g gyr=%.4g accBias=%.4g gyrBias=%.4g dt=%.4g)",
		n.AccNoise, n.GyrNoise, n.AccBiasNoise, n.GyrBiasNoise, n.NominalDt)
}
