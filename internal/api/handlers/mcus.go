package handlers

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pumplab/stepflow/internal/events"
	"github.com/pumplab/stepflow/internal/repository"
	"github.com/pumplab/stepflow/pkg/models"
)

// MCUHandler handles MCU profile HTTP requests
type MCUHandler struct {
	repo   repository.ProfileRepository
	broker *events.Broker
}

// NewMCUHandler creates a new MCU profile handler
func NewMCUHandler(repo repository.ProfileRepository, broker *events.Broker) *MCUHandler {
	return &MCUHandler{repo: repo, broker: broker}
}

// CreateMCU registers a new board profile
func (h *MCUHandler) CreateMCU(ctx context.Context, req *models.CreateMCURequest) (*models.MCUResponse, error) {
	log.Info().Str("name", req.Body.Name).Str("port", req.Body.Port).Msg("Creating MCU profile")

	var port *string
	if req.Body.Port != "" {
		port = &req.Body.Port
	}

	mcu, err := h.repo.CreateMCU(ctx, req.Body.Name, port)
	if err != nil {
		return nil, httpError(err)
	}

	h.broker.Publish(events.Event{Type: events.TypeCreated, Entity: events.EntityMCU, ID: mcu.ID, Name: mcu.Name})
	return &models.MCUResponse{Body: mcu}, nil
}

// ListMCUs returns all board profiles in creation order
func (h *MCUHandler) ListMCUs(ctx context.Context, req *struct{}) (*models.ListMCUsResponse, error) {
	mcus, err := h.repo.ListMCUs(ctx)
	if err != nil {
		return nil, httpError(err)
	}

	return &models.ListMCUsResponse{
		Body: models.ListMCUsBody{
			MCUs:  mcus,
			Count: len(mcus),
		},
	}, nil
}

// GetMCU returns one board profile
func (h *MCUHandler) GetMCU(ctx context.Context, req *models.GetMCURequest) (*models.MCUResponse, error) {
	mcu, err := h.repo.GetMCU(ctx, req.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &models.MCUResponse{Body: mcu}, nil
}

// UpdateMCU renames a board profile and/or updates its port reference
func (h *MCUHandler) UpdateMCU(ctx context.Context, req *models.UpdateMCURequest) (*models.MCUResponse, error) {
	log.Info().Str("mcuID", req.ID).Msg("Updating MCU profile")

	mcu, err := h.repo.UpdateMCU(ctx, req.ID, req.Body.Name, req.Body.Port)
	if err != nil {
		return nil, httpError(err)
	}

	h.broker.Publish(events.Event{Type: events.TypeUpdated, Entity: events.EntityMCU, ID: mcu.ID, Name: mcu.Name})
	return &models.MCUResponse{Body: mcu}, nil
}

// DeleteMCU removes a board profile, optionally cascading to its motors
func (h *MCUHandler) DeleteMCU(ctx context.Context, req *models.DeleteMCURequest) (*models.DeleteResponse, error) {
	log.Info().Str("mcuID", req.ID).Bool("cascade", req.Cascade).Msg("Deleting MCU profile")

	if err := h.repo.DeleteMCU(ctx, req.ID, req.Cascade); err != nil {
		return nil, httpError(err)
	}

	h.broker.Publish(events.Event{Type: events.TypeDeleted, Entity: events.EntityMCU, ID: req.ID})
	return &models.DeleteResponse{
		Body: models.MessageBody{Message: "MCU profile deleted"},
	}, nil
}
