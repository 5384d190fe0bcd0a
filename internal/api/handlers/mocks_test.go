package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pumplab/stepflow/internal/storage"
	"github.com/pumplab/stepflow/pkg/models"
)

// MockProfileRepository implements repository.ProfileRepository for testing
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) CreateMCU(ctx context.Context, name string, port *string) (*models.MCUProfile, error) {
	args := m.Called(ctx, name, port)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MCUProfile), args.Error(1)
}

func (m *MockProfileRepository) GetMCU(ctx context.Context, id string) (*models.MCUProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MCUProfile), args.Error(1)
}

func (m *MockProfileRepository) ListMCUs(ctx context.Context) ([]*models.MCUProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MCUProfile), args.Error(1)
}

func (m *MockProfileRepository) UpdateMCU(ctx context.Context, id string, name, port *string) (*models.MCUProfile, error) {
	args := m.Called(ctx, id, name, port)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MCUProfile), args.Error(1)
}

func (m *MockProfileRepository) DeleteMCU(ctx context.Context, id string, cascade bool) error {
	args := m.Called(ctx, id, cascade)
	return args.Error(0)
}

func (m *MockProfileRepository) CreateMotor(ctx context.Context, name string) (*models.MotorProfile, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MotorProfile), args.Error(1)
}

func (m *MockProfileRepository) GetMotor(ctx context.Context, id string) (*models.MotorProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MotorProfile), args.Error(1)
}

func (m *MockProfileRepository) ListMotors(ctx context.Context) ([]*models.MotorProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MotorProfile), args.Error(1)
}

func (m *MockProfileRepository) UpdateMotor(ctx context.Context, id string, name *string) (*models.MotorProfile, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MotorProfile), args.Error(1)
}

func (m *MockProfileRepository) DeleteMotor(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProfileRepository) Associate(ctx context.Context, motorID, mcuID string, stepPin, dirPin int) (*models.MotorProfile, error) {
	args := m.Called(ctx, motorID, mcuID, stepPin, dirPin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MotorProfile), args.Error(1)
}

func (m *MockProfileRepository) SetCalibration(ctx context.Context, motorID string, cal models.Calibration) (*models.MotorProfile, error) {
	args := m.Called(ctx, motorID, cal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MotorProfile), args.Error(1)
}

func (m *MockProfileRepository) ClearCalibration(ctx context.Context, motorID string) (*models.MotorProfile, error) {
	args := m.Called(ctx, motorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MotorProfile), args.Error(1)
}

func (m *MockProfileRepository) PumpConfig(ctx context.Context, motorID string) (*models.PumpConfig, error) {
	args := m.Called(ctx, motorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PumpConfig), args.Error(1)
}

func (m *MockProfileRepository) Export(ctx context.Context, format string) ([]byte, error) {
	args := m.Called(ctx, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockProfileRepository) Import(ctx context.Context, data []byte, format string) (int, int, error) {
	args := m.Called(ctx, data, format)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockProfileRepository) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSnapshotStorage implements storage.SnapshotStorage for testing
type MockSnapshotStorage struct {
	mock.Mock
}

func (m *MockSnapshotStorage) UploadSnapshot(ctx context.Context, name string, data []byte) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

func (m *MockSnapshotStorage) DownloadSnapshot(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSnapshotStorage) ListSnapshots(ctx context.Context) ([]storage.SnapshotInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.SnapshotInfo), args.Error(1)
}

func (m *MockSnapshotStorage) GenerateDownloadURL(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

// MockPortLister implements serialport.Lister for testing
type MockPortLister struct {
	mock.Mock
}

func (m *MockPortLister) List() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
