package models

import (
	"math"
	"time"
)

// SyringeSpec describes a syringe geometry. It serves both as the reference
// geometry a calibration was fit against and as a substitute geometry at
// translation time.
type SyringeSpec struct {
	Brand      string  `json:"brand,omitempty" yaml:"brand,omitempty" maxLength:"100" doc:"Syringe manufacturer"`
	Model      string  `json:"model,omitempty" yaml:"model,omitempty" maxLength:"100" doc:"Syringe model name"`
	VolumeML   float64 `json:"volume_ml" yaml:"volume_ml" exclusiveMinimum:"0" required:"true" doc:"Nominal volume in mL"`
	DiameterMM float64 `json:"diameter_mm" yaml:"diameter_mm" exclusiveMinimum:"0" required:"true" doc:"Inner barrel diameter in mm"`
}

// Area returns the cross-sectional area of the barrel in mm². Only ratios of
// areas ever matter, so the units cancel.
func (s SyringeSpec) Area() float64 {
	r := s.DiameterMM / 2
	return math.Pi * r * r
}

// CalibrationTrial is one measured run: the motor was driven at a fixed
// frequency for a fixed duration and the dispensed volume was measured.
type CalibrationTrial struct {
	FrequencyHz       float64 `json:"frequency_hz" yaml:"frequency_hz" exclusiveMinimum:"0" required:"true" doc:"Drive frequency in Hz"`
	DurationS         float64 `json:"duration_s" yaml:"duration_s" exclusiveMinimum:"0" required:"true" doc:"Run duration in seconds"`
	DispensedVolumeML float64 `json:"dispensed_volume_ml" yaml:"dispensed_volume_ml" exclusiveMinimum:"0" required:"true" doc:"Measured dispensed volume in mL"`
}

// FlowMLMin returns the volumetric flow rate this trial measured, in mL/min.
func (t CalibrationTrial) FlowMLMin() float64 {
	return t.DispensedVolumeML / t.DurationS * 60
}

// Calibration is a fitted frequency-flow model together with the raw trials
// it was derived from, so the fit can always be reproduced. Slope, Intercept,
// MinFreq and MaxFreq are derived values; TrialLow always holds the smaller
// frequency.
type Calibration struct {
	Syringe      SyringeSpec      `json:"syringe" yaml:"syringe" doc:"Reference syringe geometry"`
	TrialLow     CalibrationTrial `json:"trial_low" yaml:"trial_low" doc:"Trial at the lower frequency"`
	TrialHigh    CalibrationTrial `json:"trial_high" yaml:"trial_high" doc:"Trial at the higher frequency"`
	Slope        float64          `json:"slope" yaml:"slope" doc:"Flow gained per Hz, in mL/min"`
	Intercept    float64          `json:"intercept" yaml:"intercept" doc:"Flow at zero frequency, in mL/min"`
	MinFreq      float64          `json:"min_freq" yaml:"min_freq" doc:"Lower calibrated frequency in Hz"`
	MaxFreq      float64          `json:"max_freq" yaml:"max_freq" doc:"Upper calibrated frequency in Hz"`
	CalibratedAt time.Time        `json:"calibrated_at" yaml:"calibrated_at" doc:"When the model was fit"`
}

// FlowAt evaluates the fitted line at the given frequency for the reference
// syringe, in mL/min.
func (c Calibration) FlowAt(frequencyHz float64) float64 {
	return c.Slope*frequencyHz + c.Intercept
}

// InRange reports whether a frequency lies inside the calibrated span. Using
// the model outside it is extrapolation.
func (c Calibration) InRange(frequencyHz float64) bool {
	return frequencyHz >= c.MinFreq && frequencyHz <= c.MaxFreq
}
