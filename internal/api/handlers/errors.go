package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pumplab/stepflow/internal/calibration"
	"github.com/pumplab/stepflow/internal/store"
)

// httpError maps engine errors onto HTTP statuses: missing profiles are 404,
// state conflicts are 409, measurements the engine refuses are 422, and an
// undecodable record is 400. Anything unrecognized is a 500.
func httpError(err error) error {
	var (
		notFound      *store.NotFoundError
		duplicate     *store.DuplicateNameError
		integrity     *store.ReferentialIntegrityError
		notCalibrated *store.NotCalibratedError
		corrupt       *store.CorruptRecordError
		invalid       *calibration.InvalidMeasurementError
		degenerate    *calibration.DegenerateCalibrationError
		zeroSlope     *calibration.ZeroSlopeError
		nonPosFlow    *calibration.NonPositiveFlowError
	)

	switch {
	case errors.As(err, &notFound):
		return huma.Error404NotFound(notFound.Error(), err)
	case errors.As(err, &duplicate):
		return huma.Error409Conflict(duplicate.Error(), err)
	case errors.As(err, &integrity):
		return huma.Error409Conflict(integrity.Error(), err)
	case errors.As(err, &notCalibrated):
		return huma.Error409Conflict(notCalibrated.Error(), err)
	case errors.As(err, &invalid):
		return huma.Error422UnprocessableEntity(invalid.Error(), err)
	case errors.As(err, &degenerate):
		return huma.Error422UnprocessableEntity(degenerate.Error(), err)
	case errors.As(err, &zeroSlope):
		return huma.Error422UnprocessableEntity(zeroSlope.Error(), err)
	case errors.As(err, &nonPosFlow):
		return huma.Error422UnprocessableEntity(nonPosFlow.Error(), err)
	case errors.As(err, &corrupt):
		return huma.Error400BadRequest(corrupt.Error(), err)
	default:
		return huma.Error500InternalServerError("Internal error", err)
	}
}
