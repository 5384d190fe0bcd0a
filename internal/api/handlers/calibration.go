package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pumplab/stepflow/internal/calibration"
	"github.com/pumplab/stepflow/internal/events"
	"github.com/pumplab/stepflow/internal/repository"
	"github.com/pumplab/stepflow/internal/store"
	"github.com/pumplab/stepflow/pkg/models"
)

// CalibrationHandler handles calibration and flow translation HTTP requests
type CalibrationHandler struct {
	repo   repository.ProfileRepository
	broker *events.Broker
}

// NewCalibrationHandler creates a new calibration handler
func NewCalibrationHandler(repo repository.ProfileRepository, broker *events.Broker) *CalibrationHandler {
	return &CalibrationHandler{repo: repo, broker: broker}
}

// CalibrateMotor fits a model from two trials and stores it on the motor
func (h *CalibrationHandler) CalibrateMotor(ctx context.Context, req *models.CalibrateRequest) (*models.CalibrateResponse, error) {
	log.Info().
		Str("motorID", req.ID).
		Float64("trialAFreq", req.Body.TrialA.FrequencyHz).
		Float64("trialBFreq", req.Body.TrialB.FrequencyHz).
		Msg("Calibrating motor")

	fit, err := calibration.Fit(req.Body.Syringe, req.Body.TrialA, req.Body.TrialB)
	if err != nil {
		return nil, httpError(err)
	}

	motor, err := h.repo.SetCalibration(ctx, req.ID, fit.Calibration)
	if err != nil {
		return nil, httpError(err)
	}

	if fit.Warning != "" {
		log.Warn().Str("motorID", req.ID).Msg(fit.Warning)
	}

	h.broker.Publish(events.Event{Type: events.TypeCalibrated, Entity: events.EntityMotor, ID: motor.ID, Name: motor.Name})
	return &models.CalibrateResponse{
		Body: models.CalibrateResultBody{
			Motor:   motor,
			Warning: fit.Warning,
		},
	}, nil
}

// ClearCalibration removes the stored model from a motor
func (h *CalibrationHandler) ClearCalibration(ctx context.Context, req *models.GetMotorRequest) (*models.MotorResponse, error) {
	log.Info().Str("motorID", req.ID).Msg("Clearing motor calibration")

	motor, err := h.repo.ClearCalibration(ctx, req.ID)
	if err != nil {
		return nil, httpError(err)
	}

	h.broker.Publish(events.Event{Type: events.TypeCalibrationCleared, Entity: events.EntityMotor, ID: motor.ID, Name: motor.Name})
	return &models.MotorResponse{Body: motor}, nil
}

// PreviewCalibration fits a model from two trials without storing it
func (h *CalibrationHandler) PreviewCalibration(ctx context.Context, req *models.PreviewCalibrationRequest) (*models.PreviewCalibrationResponse, error) {
	fit, err := calibration.Fit(req.Body.Syringe, req.Body.TrialA, req.Body.TrialB)
	if err != nil {
		return nil, httpError(err)
	}

	return &models.PreviewCalibrationResponse{
		Body: models.PreviewCalibrationBody{
			Calibration: &fit.Calibration,
			Warning:     fit.Warning,
		},
	}, nil
}

// FrequencyForFlow translates a flow target into a drive frequency
func (h *CalibrationHandler) FrequencyForFlow(ctx context.Context, req *models.FrequencyForFlowRequest) (*models.FrequencyForFlowResponse, error) {
	motor, err := h.repo.GetMotor(ctx, req.ID)
	if err != nil {
		return nil, httpError(err)
	}
	if motor.Calibration == nil {
		return nil, httpError(&store.NotCalibratedError{MotorID: req.ID})
	}

	cal := *motor.Calibration
	target := cal.Syringe
	if req.Body.Syringe != nil {
		target = *req.Body.Syringe
	}

	res, err := calibration.FrequencyForFlow(cal, req.Body.TargetFlowMLMin, target)
	if err != nil {
		return nil, httpError(err)
	}

	if res.Extrapolated {
		log.Warn().
			Str("motorID", req.ID).
			Float64("frequencyHz", res.FrequencyHz).
			Float64("minFreq", cal.MinFreq).
			Float64("maxFreq", cal.MaxFreq).
			Msg("Requested flow needs a frequency outside the calibrated span")
	}

	return &models.FrequencyForFlowResponse{
		Body: models.FrequencyResultBody{
			FrequencyHz:  res.FrequencyHz,
			AreaRatio:    res.AreaRatio,
			Extrapolated: res.Extrapolated,
			MinFreq:      cal.MinFreq,
			MaxFreq:      cal.MaxFreq,
		},
	}, nil
}

// FlowForFrequency evaluates the stored model at a drive frequency
func (h *CalibrationHandler) FlowForFrequency(ctx context.Context, req *models.FlowForFrequencyRequest) (*models.FlowForFrequencyResponse, error) {
	motor, err := h.repo.GetMotor(ctx, req.ID)
	if err != nil {
		return nil, httpError(err)
	}
	if motor.Calibration == nil {
		return nil, httpError(&store.NotCalibratedError{MotorID: req.ID})
	}

	cal := *motor.Calibration
	target := cal.Syringe
	if req.Body.Syringe != nil {
		target = *req.Body.Syringe
	}

	res, err := calibration.FlowForFrequency(cal, req.Body.FrequencyHz, target)
	if err != nil {
		return nil, httpError(err)
	}

	if res.Extrapolated {
		log.Warn().
			Str("motorID", req.ID).
			Float64("frequencyHz", req.Body.FrequencyHz).
			Float64("minFreq", cal.MinFreq).
			Float64("maxFreq", cal.MaxFreq).
			Msg("Frequency lies outside the calibrated span")
	}

	return &models.FlowForFrequencyResponse{
		Body: models.FlowResultBody{
			FlowMLMin:    res.FlowMLMin,
			AreaRatio:    res.AreaRatio,
			Extrapolated: res.Extrapolated,
			MinFreq:      cal.MinFreq,
			MaxFreq:      cal.MaxFreq,
		},
	}, nil
}
