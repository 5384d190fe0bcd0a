package repository

import (
	"context"

	"github.com/pumplab/stepflow/pkg/models"
)

// ProfileRepository defines the interface for profile and calibration storage.
// Implementations return the typed errors from internal/store so callers can
// map them uniformly regardless of backend.
type ProfileRepository interface {
	CreateMCU(ctx context.Context, name string, port *string) (*models.MCUProfile, error)
	GetMCU(ctx context.Context, id string) (*models.MCUProfile, error)
	ListMCUs(ctx context.Context) ([]*models.MCUProfile, error)
	UpdateMCU(ctx context.Context, id string, name, port *string) (*models.MCUProfile, error)
	DeleteMCU(ctx context.Context, id string, cascade bool) error

	CreateMotor(ctx context.Context, name string) (*models.MotorProfile, error)
	GetMotor(ctx context.Context, id string) (*models.MotorProfile, error)
	ListMotors(ctx context.Context) ([]*models.MotorProfile, error)
	UpdateMotor(ctx context.Context, id string, name *string) (*models.MotorProfile, error)
	DeleteMotor(ctx context.Context, id string) error

	Associate(ctx context.Context, motorID, mcuID string, stepPin, dirPin int) (*models.MotorProfile, error)
	SetCalibration(ctx context.Context, motorID string, cal models.Calibration) (*models.MotorProfile, error)
	ClearCalibration(ctx context.Context, motorID string) (*models.MotorProfile, error)
	PumpConfig(ctx context.Context, motorID string) (*models.PumpConfig, error)

	// Export renders the whole collection as an encoded record; Import
	// replaces the collection with a validated record and reports how many
	// profiles of each kind it now holds.
	Export(ctx context.Context, format string) ([]byte, error)
	Import(ctx context.Context, data []byte, format string) (mcus, motors int, err error)

	// Flush persists pending state for backends that defer writes. Durable
	// backends may treat it as a no-op.
	Flush(ctx context.Context) error
}
