package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pumplab/stepflow/internal/events"
	"github.com/pumplab/stepflow/internal/repository"
	"github.com/pumplab/stepflow/pkg/models"
)

// MotorHandler handles motor profile HTTP requests
type MotorHandler struct {
	repo   repository.ProfileRepository
	broker *events.Broker
}

// NewMotorHandler creates a new motor profile handler
func NewMotorHandler(repo repository.ProfileRepository, broker *events.Broker) *MotorHandler {
	return &MotorHandler{repo: repo, broker: broker}
}

// CreateMotor registers a new motor profile
func (h *MotorHandler) CreateMotor(ctx context.Context, req *models.CreateMotorRequest) (*models.MotorResponse, error) {
	log.Info().Str("name", req.Body.Name).Msg("Creating motor profile")

	motor, err := h.repo.CreateMotor(ctx, req.Body.Name)
	if err != nil {
		return nil, httpError(err)
	}

	h.broker.Publish(events.Event{Type: events.TypeCreated, Entity: events.EntityMotor, ID: motor.ID, Name: motor.Name})
	return &models.MotorResponse{Body: motor}, nil
}

// ListMotors returns all motor profiles in creation order
func (h *MotorHandler) ListMotors(ctx context.Context, req *struct{}) (*models.ListMotorsResponse, error) {
	motors, err := h.repo.ListMotors(ctx)
	if err != nil {
		return nil, httpError(err)
	}

	return &models.ListMotorsResponse{
		Body: models.ListMotorsBody{
			Motors: motors,
			Count:  len(motors),
		},
	}, nil
}

// GetMotor returns one motor profile
func (h *MotorHandler) GetMotor(ctx context.Context, req *models.GetMotorRequest) (*models.MotorResponse, error) {
	motor, err := h.repo.GetMotor(ctx, req.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &models.MotorResponse{Body: motor}, nil
}

// UpdateMotor renames a motor profile
func (h *MotorHandler) UpdateMotor(ctx context.Context, req *models.UpdateMotorRequest) (*models.MotorResponse, error) {
	log.Info().Str("motorID", req.ID).Msg("Updating motor profile")

	motor, err := h.repo.UpdateMotor(ctx, req.ID, req.Body.Name)
	if err != nil {
		return nil, httpError(err)
	}

	h.broker.Publish(events.Event{Type: events.TypeUpdated, Entity: events.EntityMotor, ID: motor.ID, Name: motor.Name})
	return &models.MotorResponse{Body: motor}, nil
}

// DeleteMotor removes a motor profile
func (h *MotorHandler) DeleteMotor(ctx context.Context, req *models.DeleteMotorRequest) (*models.DeleteResponse, error) {
	log.Info().Str("motorID", req.ID).Msg("Deleting motor profile")

	if err := h.repo.DeleteMotor(ctx, req.ID); err != nil {
		return nil, httpError(err)
	}

	h.broker.Publish(events.Event{Type: events.TypeDeleted, Entity: events.EntityMotor, ID: req.ID})
	return &models.DeleteResponse{
		Body: models.MessageBody{Message: "Motor profile deleted"},
	}, nil
}

// AssociateMotor binds a motor to an MCU with wiring pins
func (h *MotorHandler) AssociateMotor(ctx context.Context, req *models.AssociateRequest) (*models.MotorResponse, error) {
	log.Info().
		Str("motorID", req.ID).
		Str("mcuID", req.Body.MCUID).
		Int("stepPin", req.Body.StepPin).
		Int("dirPin", req.Body.DirPin).
		Msg("Associating motor with MCU")

	motor, err := h.repo.Associate(ctx, req.ID, req.Body.MCUID, req.Body.StepPin, req.Body.DirPin)
	if err != nil {
		return nil, httpError(err)
	}

	h.broker.Publish(events.Event{Type: events.TypeAssociated, Entity: events.EntityMotor, ID: motor.ID, Name: motor.Name})
	return &models.MotorResponse{Body: motor}, nil
}

// GetPumpConfig returns the deployable pump configuration for a calibrated motor
func (h *MotorHandler) GetPumpConfig(ctx context.Context, req *models.PumpConfigRequest) (*models.PumpConfigResponse, error) {
	cfg, err := h.repo.PumpConfig(ctx, req.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &models.PumpConfigResponse{Body: cfg}, nil
}
