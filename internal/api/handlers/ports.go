package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pumplab/stepflow/internal/serialport"
	"github.com/pumplab/stepflow/pkg/models"
)

// PortsHandler handles serial port discovery HTTP requests
type PortsHandler struct {
	lister serialport.Lister
}

// NewPortsHandler creates a new ports handler
func NewPortsHandler(lister serialport.Lister) *PortsHandler {
	return &PortsHandler{lister: lister}
}

// ListPorts returns the serial ports visible on this host
func (h *PortsHandler) ListPorts(ctx context.Context, req *struct{}) (*models.ListPortsResponse, error) {
	ports, err := h.lister.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to enumerate serial ports", err)
	}

	return &models.ListPortsResponse{
		Body: models.ListPortsBody{Ports: ports, Count: len(ports)},
	}, nil
}
