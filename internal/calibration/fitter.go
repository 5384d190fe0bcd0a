// Package calibration fits and evaluates frequency-flow models for
// stepper-driven syringe pumps.
//
// A model is an exact line through two measured trials: each trial drives the
// motor at a fixed frequency for a fixed duration and measures the dispensed
// volume, giving one (frequency, flow) point. The fitted line maps drive
// frequency in Hz to volumetric flow in mL/min for the syringe the trials
// were run with. Because linear plunger speed depends on frequency alone, the
// same model transfers to any other syringe by scaling flows with the ratio
// of barrel cross-section areas.
package calibration

import (
	"fmt"
	"time"

	"github.com/pumplab/stepflow/pkg/models"
)

// FitResult carries a fitted model plus any non-fatal concern about it.
type FitResult struct {
	Calibration models.Calibration
	Warning     string
}

// Fit derives the line through two trials run with the given syringe. The
// trials may arrive in either order; the result always keeps the smaller
// frequency in TrialLow and the calibrated span is [MinFreq, MaxFreq], the
// two trial frequencies.
//
// All measured values must be strictly positive and the two frequencies must
// differ. A negative slope is not an error, but it is physically suspect and
// is reported through FitResult.Warning.
func Fit(syringe models.SyringeSpec, trialA, trialB models.CalibrationTrial) (*FitResult, error) {
	if err := validateSyringe("syringe", syringe); err != nil {
		return nil, err
	}
	if err := validateTrial("trial_a", trialA); err != nil {
		return nil, err
	}
	if err := validateTrial("trial_b", trialB); err != nil {
		return nil, err
	}

	low, high := trialA, trialB
	if high.FrequencyHz < low.FrequencyHz {
		low, high = high, low
	}
	if low.FrequencyHz == high.FrequencyHz {
		return nil, &DegenerateCalibrationError{FrequencyHz: low.FrequencyHz}
	}

	flowLow := low.FlowMLMin()
	flowHigh := high.FlowMLMin()
	slope := (flowHigh - flowLow) / (high.FrequencyHz - low.FrequencyHz)
	intercept := flowLow - slope*low.FrequencyHz

	result := &FitResult{
		Calibration: models.Calibration{
			Syringe:      syringe,
			TrialLow:     low,
			TrialHigh:    high,
			Slope:        slope,
			Intercept:    intercept,
			MinFreq:      low.FrequencyHz,
			MaxFreq:      high.FrequencyHz,
			CalibratedAt: time.Now().UTC(),
		},
	}
	if slope < 0 {
		result.Warning = fmt.Sprintf(
			"fitted slope is negative (%g mL/min per Hz): flow falls as frequency rises, check the trial measurements",
			slope)
	}
	return result, nil
}

func validateSyringe(prefix string, s models.SyringeSpec) error {
	if s.VolumeML <= 0 {
		return &InvalidMeasurementError{Field: prefix + ".volume_ml", Value: s.VolumeML}
	}
	if s.DiameterMM <= 0 {
		return &InvalidMeasurementError{Field: prefix + ".diameter_mm", Value: s.DiameterMM}
	}
	return nil
}

func validateTrial(prefix string, t models.CalibrationTrial) error {
	if t.FrequencyHz <= 0 {
		return &InvalidMeasurementError{Field: prefix + ".frequency_hz", Value: t.FrequencyHz}
	}
	if t.DurationS <= 0 {
		return &InvalidMeasurementError{Field: prefix + ".duration_s", Value: t.DurationS}
	}
	if t.DispensedVolumeML <= 0 {
		return &InvalidMeasurementError{Field: prefix + ".dispensed_volume_ml", Value: t.DispensedVolumeML}
	}
	return nil
}
