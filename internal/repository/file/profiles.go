// Package file implements ProfileRepository over a single JSON record file.
// It is the canonical backend: one in-memory store, deferred flushes, and an
// atomic replace on every save.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/pumplab/stepflow/internal/store"
	"github.com/pumplab/stepflow/pkg/models"
)

// FileProfileRepository wraps an in-memory store and the record file backing
// it. Mutations only touch memory; Flush writes the record when the store is
// dirty, and Import rewrites it immediately.
type FileProfileRepository struct {
	// mu guards the store pointer itself, which Import swaps wholesale.
	mu   sync.RWMutex
	s    *store.Store
	path string
	opts []store.Option
}

// NewFileProfileRepository loads the record at path, or starts empty when the
// file does not exist yet.
func NewFileProfileRepository(path string, opts ...store.Option) (*FileProfileRepository, error) {
	s, err := store.Load(path, opts...)
	if errors.Is(err, os.ErrNotExist) {
		s = store.New(opts...)
	} else if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return &FileProfileRepository{s: s, path: path, opts: opts}, nil
}

func (r *FileProfileRepository) store() *store.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s
}

func (r *FileProfileRepository) CreateMCU(ctx context.Context, name string, port *string) (*models.MCUProfile, error) {
	return r.store().CreateMCU(name, port)
}

func (r *FileProfileRepository) GetMCU(ctx context.Context, id string) (*models.MCUProfile, error) {
	return r.store().GetMCU(id)
}

func (r *FileProfileRepository) ListMCUs(ctx context.Context) ([]*models.MCUProfile, error) {
	return r.store().ListMCUs(), nil
}

func (r *FileProfileRepository) UpdateMCU(ctx context.Context, id string, name, port *string) (*models.MCUProfile, error) {
	return r.store().UpdateMCU(id, name, port)
}

func (r *FileProfileRepository) DeleteMCU(ctx context.Context, id string, cascade bool) error {
	return r.store().DeleteMCU(id, cascade)
}

func (r *FileProfileRepository) CreateMotor(ctx context.Context, name string) (*models.MotorProfile, error) {
	return r.store().CreateMotor(name)
}

func (r *FileProfileRepository) GetMotor(ctx context.Context, id string) (*models.MotorProfile, error) {
	return r.store().GetMotor(id)
}

func (r *FileProfileRepository) ListMotors(ctx context.Context) ([]*models.MotorProfile, error) {
	return r.store().ListMotors(), nil
}

func (r *FileProfileRepository) UpdateMotor(ctx context.Context, id string, name *string) (*models.MotorProfile, error) {
	return r.store().UpdateMotor(id, name)
}

func (r *FileProfileRepository) DeleteMotor(ctx context.Context, id string) error {
	return r.store().DeleteMotor(id)
}

func (r *FileProfileRepository) Associate(ctx context.Context, motorID, mcuID string, stepPin, dirPin int) (*models.MotorProfile, error) {
	return r.store().Associate(motorID, mcuID, stepPin, dirPin)
}

func (r *FileProfileRepository) SetCalibration(ctx context.Context, motorID string, cal models.Calibration) (*models.MotorProfile, error) {
	return r.store().SetCalibration(motorID, cal)
}

func (r *FileProfileRepository) ClearCalibration(ctx context.Context, motorID string) (*models.MotorProfile, error) {
	return r.store().ClearCalibration(motorID)
}

func (r *FileProfileRepository) PumpConfig(ctx context.Context, motorID string) (*models.PumpConfig, error) {
	return r.store().PumpConfig(motorID)
}

func (r *FileProfileRepository) Export(ctx context.Context, format string) ([]byte, error) {
	rec, _ := r.store().Snapshot()
	return store.EncodeRecord(rec, format)
}

// Import replaces the whole collection with the decoded record and writes it
// to disk before returning, so an import is never lost to a crash between
// flushes.
func (r *FileProfileRepository) Import(ctx context.Context, data []byte, format string) (int, int, error) {
	rec, err := store.DecodeRecord(data, format)
	if err != nil {
		return 0, 0, err
	}
	s, err := store.FromRecord(rec, r.opts...)
	if err != nil {
		return 0, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := store.Save(r.path, s); err != nil {
		return 0, 0, fmt.Errorf("persist imported profiles: %w", err)
	}
	r.s = s
	return len(rec.MCUs), len(rec.Motors), nil
}

// Flush writes the record if any mutation landed since the last save.
func (r *FileProfileRepository) Flush(ctx context.Context) error {
	s := r.store()
	if !s.Dirty() {
		return nil
	}
	if err := store.Save(r.path, s); err != nil {
		return fmt.Errorf("flush profiles: %w", err)
	}
	return nil
}

// Path returns the record file location.
func (r *FileProfileRepository) Path() string {
	return r.path
}
