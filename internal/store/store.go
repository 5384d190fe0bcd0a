// Package store holds the profile hierarchy for syringe-pump hardware:
// microcontroller boards, the stepper motors they drive, and each motor's
// embedded frequency-flow calibration.
//
// A Store is pure in-memory state. It performs no I/O and no logging;
// mutations only mark it dirty, and the record codec in this package turns
// it into (and back out of) a single durable record. All methods are safe
// for concurrent use, serialized by one mutex per store, and reads hand out
// deep copies so callers never share memory with the store.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pumplab/stepflow/pkg/models"
)

// Option configures a Store.
type Option func(*Store)

// WithUniqueNames makes profile names unique per kind, so creates and
// renames that collide fail with DuplicateNameError. By default duplicate
// names are allowed and ids are the only identity.
func WithUniqueNames() Option {
	return func(s *Store) { s.uniqueNames = true }
}

// Store is one profile collection.
type Store struct {
	mu          sync.Mutex
	uniqueNames bool

	mcus       []*models.MCUProfile
	motors     []*models.MotorProfile
	mcusByID   map[string]*models.MCUProfile
	motorsByID map[string]*models.MotorProfile

	// gen counts mutations; cleanGen remembers the generation captured by
	// the last flushed snapshot. The store is dirty while they differ.
	gen      uint64
	cleanGen uint64
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		mcusByID:   make(map[string]*models.MCUProfile),
		motorsByID: make(map[string]*models.MotorProfile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateMCU registers a new board profile with a fresh id and returns a copy
// of it. Port is optional metadata; the store never opens the port.
func (s *Store) CreateMCU(name string, port *string) (*models.MCUProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uniqueNames && s.mcuNameTaken(name, "") {
		return nil, &DuplicateNameError{Kind: "mcu", Name: name}
	}

	now := time.Now().UTC()
	m := &models.MCUProfile{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if port != nil && *port != "" {
		p := *port
		m.Port = &p
	}
	s.mcus = append(s.mcus, m)
	s.mcusByID[m.ID] = m
	s.gen++
	return m.Clone(), nil
}

// CreateMotor registers a new motor profile with a fresh id and returns a
// copy of it. The motor starts unassociated.
func (s *Store) CreateMotor(name string) (*models.MotorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uniqueNames && s.motorNameTaken(name, "") {
		return nil, &DuplicateNameError{Kind: "motor", Name: name}
	}

	now := time.Now().UTC()
	m := &models.MotorProfile{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.motors = append(s.motors, m)
	s.motorsByID[m.ID] = m
	s.gen++
	return m.Clone(), nil
}

// GetMCU returns a copy of one board profile.
func (s *Store) GetMCU(id string) (*models.MCUProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mcusByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "mcu", ID: id}
	}
	return m.Clone(), nil
}

// GetMotor returns a copy of one motor profile.
func (s *Store) GetMotor(id string) (*models.MotorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.motorsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "motor", ID: id}
	}
	return m.Clone(), nil
}

// ListMCUs returns all board profiles in creation order.
func (s *Store) ListMCUs() []*models.MCUProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.MCUProfile, len(s.mcus))
	for i, m := range s.mcus {
		out[i] = m.Clone()
	}
	return out
}

// ListMotors returns all motor profiles in creation order.
func (s *Store) ListMotors() []*models.MotorProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.MotorProfile, len(s.motors))
	for i, m := range s.motors {
		out[i] = m.Clone()
	}
	return out
}

// UpdateMCU renames a board and/or updates its port reference. Nil fields
// are left unchanged; an empty port string clears the stored port.
func (s *Store) UpdateMCU(id string, name, port *string) (*models.MCUProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mcusByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "mcu", ID: id}
	}
	if name == nil && port == nil {
		return m.Clone(), nil
	}
	if name != nil {
		if s.uniqueNames && s.mcuNameTaken(*name, id) {
			return nil, &DuplicateNameError{Kind: "mcu", Name: *name}
		}
		m.Name = *name
	}
	if port != nil {
		if *port == "" {
			m.Port = nil
		} else {
			p := *port
			m.Port = &p
		}
	}
	m.UpdatedAt = time.Now().UTC()
	s.gen++
	return m.Clone(), nil
}

// UpdateMotor renames a motor. A nil name is a no-op.
func (s *Store) UpdateMotor(id string, name *string) (*models.MotorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.motorsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "motor", ID: id}
	}
	if name == nil {
		return m.Clone(), nil
	}
	if s.uniqueNames && s.motorNameTaken(*name, id) {
		return nil, &DuplicateNameError{Kind: "motor", Name: *name}
	}
	m.Name = *name
	m.UpdatedAt = time.Now().UTC()
	s.gen++
	return m.Clone(), nil
}

// Associate binds a motor to an MCU and records its drive pins. Repeating
// the call replaces the previous binding; no history is kept.
func (s *Store) Associate(motorID, mcuID string, stepPin, dirPin int) (*models.MotorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	motor, ok := s.motorsByID[motorID]
	if !ok {
		return nil, &NotFoundError{Kind: "motor", ID: motorID}
	}
	if _, ok := s.mcusByID[mcuID]; !ok {
		return nil, &NotFoundError{Kind: "mcu", ID: mcuID}
	}

	id := mcuID
	motor.MCUID = &id
	motor.StepPin = stepPin
	motor.DirPin = dirPin
	motor.UpdatedAt = time.Now().UTC()
	s.gen++
	return motor.Clone(), nil
}

// DeleteMCU removes a board profile. While motors still reference the board
// the delete fails with ReferentialIntegrityError unless cascade is set, in
// which case the referencing motors are deleted too.
func (s *Store) DeleteMCU(id string, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mcusByID[id]; !ok {
		return &NotFoundError{Kind: "mcu", ID: id}
	}

	var dependents []string
	for _, m := range s.motors {
		if m.MCUID != nil && *m.MCUID == id {
			dependents = append(dependents, m.ID)
		}
	}
	if len(dependents) > 0 && !cascade {
		return &ReferentialIntegrityError{MCUID: id, MotorIDs: dependents}
	}

	for _, motorID := range dependents {
		s.removeMotorLocked(motorID)
	}
	s.removeMCULocked(id)
	s.gen++
	return nil
}

// DeleteMotor removes a motor profile.
func (s *Store) DeleteMotor(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.motorsByID[id]; !ok {
		return &NotFoundError{Kind: "motor", ID: id}
	}
	s.removeMotorLocked(id)
	s.gen++
	return nil
}

// SetCalibration attaches a fitted model to a motor, replacing any previous
// one.
func (s *Store) SetCalibration(motorID string, cal models.Calibration) (*models.MotorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	motor, ok := s.motorsByID[motorID]
	if !ok {
		return nil, &NotFoundError{Kind: "motor", ID: motorID}
	}
	c := cal
	motor.Calibration = &c
	motor.UpdatedAt = time.Now().UTC()
	s.gen++
	return motor.Clone(), nil
}

// ClearCalibration detaches a motor's model. Clearing an uncalibrated motor
// is a no-op.
func (s *Store) ClearCalibration(motorID string) (*models.MotorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	motor, ok := s.motorsByID[motorID]
	if !ok {
		return nil, &NotFoundError{Kind: "motor", ID: motorID}
	}
	if motor.Calibration == nil {
		return motor.Clone(), nil
	}
	motor.Calibration = nil
	motor.UpdatedAt = time.Now().UTC()
	s.gen++
	return motor.Clone(), nil
}

// PumpConfig returns the code-generation view of a calibrated motor.
func (s *Store) PumpConfig(motorID string) (*models.PumpConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	motor, ok := s.motorsByID[motorID]
	if !ok {
		return nil, &NotFoundError{Kind: "motor", ID: motorID}
	}
	cal := motor.Calibration
	if cal == nil {
		return nil, &NotCalibratedError{MotorID: motorID}
	}

	cfg := &models.PumpConfig{
		MotorID:   motor.ID,
		Slope:     cal.Slope,
		Intercept: cal.Intercept,
		MinFreq:   cal.MinFreq,
		MaxFreq:   cal.MaxFreq,
		Syringe:   cal.Syringe,
	}
	if motor.MCUID != nil {
		id := *motor.MCUID
		cfg.MCUID = &id
	}
	return cfg, nil
}

// Dirty reports whether the store carries mutations that no flushed
// snapshot has captured yet.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen != s.cleanGen
}

// MarkClean records that a snapshot taken at the given generation has been
// flushed. Mutations that landed after the snapshot keep the store dirty.
func (s *Store) MarkClean(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen > s.cleanGen {
		s.cleanGen = gen
	}
}

func (s *Store) mcuNameTaken(name, exceptID string) bool {
	for _, m := range s.mcus {
		if m.Name == name && m.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) motorNameTaken(name, exceptID string) bool {
	for _, m := range s.motors {
		if m.Name == name && m.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) removeMCULocked(id string) {
	delete(s.mcusByID, id)
	for i, m := range s.mcus {
		if m.ID == id {
			s.mcus = append(s.mcus[:i], s.mcus[i+1:]...)
			break
		}
	}
}

func (s *Store) removeMotorLocked(id string) {
	delete(s.motorsByID, id)
	for i, m := range s.motors {
		if m.ID == id {
			s.motors = append(s.motors[:i], s.motors[i+1:]...)
			break
		}
	}
}
