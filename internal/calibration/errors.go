package calibration

import "fmt"

// InvalidMeasurementError reports a trial or geometry value that cannot be
// used: measured quantities must all be strictly positive.
type InvalidMeasurementError struct {
	Field string
	Value float64
}

func (e *InvalidMeasurementError) Error() string {
	return fmt.Sprintf("invalid measurement: %s must be positive, got %g", e.Field, e.Value)
}

// DegenerateCalibrationError reports two trials at the same frequency. No
// line is defined by two measurements of the same point.
type DegenerateCalibrationError struct {
	FrequencyHz float64
}

func (e *DegenerateCalibrationError) Error() string {
	return fmt.Sprintf("degenerate calibration: both trials ran at %g Hz", e.FrequencyHz)
}

// ZeroSlopeError reports a model whose line is flat, so no frequency can be
// recovered from a flow target.
type ZeroSlopeError struct{}

func (e *ZeroSlopeError) Error() string {
	return "calibration slope is zero: frequency cannot be determined from flow"
}

// NonPositiveFlowError reports a requested flow rate of zero or less.
type NonPositiveFlowError struct {
	FlowMLMin float64
}

func (e *NonPositiveFlowError) Error() string {
	return fmt.Sprintf("target flow must be positive, got %g mL/min", e.FlowMLMin)
}
