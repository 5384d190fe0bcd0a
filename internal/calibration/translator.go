package calibration

import (
	"github.com/pumplab/stepflow/pkg/models"
)

// FrequencyResult is the outcome of translating a flow target into a drive
// frequency. Extrapolated is set when the frequency falls outside the
// calibrated span; that is a warning for the caller, never a failure.
type FrequencyResult struct {
	FrequencyHz  float64
	AreaRatio    float64
	Extrapolated bool
}

// FlowResult is the outcome of evaluating the model at a drive frequency.
type FlowResult struct {
	FlowMLMin    float64
	AreaRatio    float64
	Extrapolated bool
}

// AreaRatio returns the cross-section ratio of a target syringe to the
// reference one. Flows measured with the reference scale by exactly this
// factor when the target syringe is substituted.
func AreaRatio(target, reference models.SyringeSpec) float64 {
	return target.Area() / reference.Area()
}

// FrequencyForFlow computes the drive frequency that produces the target
// flow through the given syringe. The target flow is first rescaled to the
// calibration's reference geometry, then the fitted line is inverted.
func FrequencyForFlow(cal models.Calibration, targetFlowMLMin float64, target models.SyringeSpec) (*FrequencyResult, error) {
	if targetFlowMLMin <= 0 {
		return nil, &NonPositiveFlowError{FlowMLMin: targetFlowMLMin}
	}
	if cal.Slope == 0 {
		return nil, &ZeroSlopeError{}
	}
	if err := validateSyringe("syringe", target); err != nil {
		return nil, err
	}

	ratio := AreaRatio(target, cal.Syringe)
	flowAtReference := targetFlowMLMin / ratio
	freq := (flowAtReference - cal.Intercept) / cal.Slope
	return &FrequencyResult{
		FrequencyHz:  freq,
		AreaRatio:    ratio,
		Extrapolated: !cal.InRange(freq),
	}, nil
}

// FlowForFrequency evaluates the model at a drive frequency and rescales the
// resulting flow for the given syringe.
func FlowForFrequency(cal models.Calibration, frequencyHz float64, target models.SyringeSpec) (*FlowResult, error) {
	if err := validateSyringe("syringe", target); err != nil {
		return nil, err
	}

	ratio := AreaRatio(target, cal.Syringe)
	return &FlowResult{
		FlowMLMin:    cal.FlowAt(frequencyHz) * ratio,
		AreaRatio:    ratio,
		Extrapolated: !cal.InRange(frequencyHz),
	}, nil
}
