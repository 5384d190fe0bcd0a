package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pumplab/stepflow/internal/repository"
	"github.com/pumplab/stepflow/internal/store"
	"github.com/pumplab/stepflow/pkg/models"
)

// PostgresProfileRepository implements ProfileRepository for PostgreSQL.
// Calibrations live in a JSONB column on the motor row; creation order comes
// from a sequence column so listings match the file backend's ordering.
type PostgresProfileRepository struct {
	db *sql.DB
}

// NewPostgresProfileRepository creates a new PostgreSQL profile repository
func NewPostgresProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// CreateMCU inserts a new board profile
func (r *PostgresProfileRepository) CreateMCU(ctx context.Context, name string, port *string) (*models.MCUProfile, error) {
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

	query := `
		INSERT INTO mcu_profiles (id, name, port, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.Port, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMCU retrieves a board profile by ID
func (r *PostgresProfileRepository) GetMCU(ctx context.Context, id string) (*models.MCUProfile, error) {
	query := `
		SELECT id, name, port, created_at, updated_at
		FROM mcu_profiles
		WHERE id = $1`

	var m models.MCUProfile
	var port sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&port,
		&m.CreatedAt,
		&m.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, &store.NotFoundError{Kind: "mcu", ID: id}
	}
	if err != nil {
		return nil, err
	}

	if port.Valid {
		m.Port = &port.String
	}
	return &m, nil
}

// ListMCUs retrieves all board profiles in creation order
func (r *PostgresProfileRepository) ListMCUs(ctx context.Context) ([]*models.MCUProfile, error) {
	query := `
		SELECT id, name, port, created_at, updated_at
		FROM mcu_profiles
		ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mcus := []*models.MCUProfile{}
	for rows.Next() {
		var m models.MCUProfile
		var port sql.NullString

		if err := rows.Scan(&m.ID, &m.Name, &port, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if port.Valid {
			m.Port = &port.String
		}
		mcus = append(mcus, &m)
	}
	return mcus, rows.Err()
}

// UpdateMCU renames a board and/or updates its port reference. Nil fields are
// left unchanged; an empty port string stores NULL.
func (r *PostgresProfileRepository) UpdateMCU(ctx context.Context, id string, name, port *string) (*models.MCUProfile, error) {
	if name == nil && port == nil {
		return r.GetMCU(ctx, id)
	}

	query := `
		UPDATE mcu_profiles
		SET name = COALESCE($2, name),
		    port = CASE WHEN $3::text IS NULL THEN port WHEN $3::text = '' THEN NULL ELSE $3::text END,
		    updated_at = $4
		WHERE id = $1
		RETURNING id, name, port, created_at, updated_at`

	var m models.MCUProfile
	var portCol sql.NullString

	err := r.db.QueryRowContext(ctx, query, id, name, port, time.Now().UTC()).Scan(
		&m.ID,
		&m.Name,
		&portCol,
		&m.CreatedAt,
		&m.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, &store.NotFoundError{Kind: "mcu", ID: id}
	}
	if err != nil {
		return nil, err
	}

	if portCol.Valid {
		m.Port = &portCol.String
	}
	return &m, nil
}

// DeleteMCU removes a board profile, refusing while motors reference it
// unless cascade is set
func (r *PostgresProfileRepository) DeleteMCU(ctx context.Context, id string, cascade bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM mcu_profiles WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return &store.NotFoundError{Kind: "mcu", ID: id}
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM motor_profiles WHERE mcu_id = $1 ORDER BY seq`, id)
	if err != nil {
		return err
	}
	var dependents []string
	for rows.Next() {
		var motorID string
		if err := rows.Scan(&motorID); err != nil {
			rows.Close()
			return err
		}
		dependents = append(dependents, motorID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(dependents) > 0 {
		if !cascade {
			return &store.ReferentialIntegrityError{MCUID: id, MotorIDs: dependents}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM motor_profiles WHERE mcu_id = $1`, id); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM mcu_profiles WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateMotor inserts a new motor profile
func (r *PostgresProfileRepository) CreateMotor(ctx context.Context, name string) (*models.MotorProfile, error) {
	now := time.Now().UTC()
	m := &models.MotorProfile{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO motor_profiles (id, name, step_pin, dir_pin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.StepPin, m.DirPin, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMotor retrieves a motor profile by ID
func (r *PostgresProfileRepository) GetMotor(ctx context.Context, id string) (*models.MotorProfile, error) {
	query := `
		SELECT id, name, mcu_id, step_pin, dir_pin, calibration, created_at, updated_at
		FROM motor_profiles
		WHERE id = $1`

	var m models.MotorProfile
	var mcuID, calJSON sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&mcuID,
		&m.StepPin,
		&m.DirPin,
		&calJSON,
		&m.CreatedAt,
		&m.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, &store.NotFoundError{Kind: "motor", ID: id}
	}
	if err != nil {
		return nil, err
	}

	if mcuID.Valid {
		m.MCUID = &mcuID.String
	}
	if calJSON.Valid {
		var cal models.Calibration
		if err := json.Unmarshal([]byte(calJSON.String), &cal); err != nil {
			return nil, fmt.Errorf("failed to unmarshal calibration: %w", err)
		}
		m.Calibration = &cal
	}
	return &m, nil
}

// ListMotors retrieves all motor profiles in creation order
func (r *PostgresProfileRepository) ListMotors(ctx context.Context) ([]*models.MotorProfile, error) {
	query := `
		SELECT id, name, mcu_id, step_pin, dir_pin, calibration, created_at, updated_at
		FROM motor_profiles
		ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	motors := []*models.MotorProfile{}
	for rows.Next() {
		var m models.MotorProfile
		var mcuID, calJSON sql.NullString

		err := rows.Scan(
			&m.ID,
			&m.Name,
			&mcuID,
			&m.StepPin,
			&m.DirPin,
			&calJSON,
			&m.CreatedAt,
			&m.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if mcuID.Valid {
			m.MCUID = &mcuID.String
		}
		if calJSON.Valid {
			var cal models.Calibration
			if err := json.Unmarshal([]byte(calJSON.String), &cal); err != nil {
				return nil, fmt.Errorf("failed to unmarshal calibration: %w", err)
			}
			m.Calibration = &cal
		}
		motors = append(motors, &m)
	}
	return motors, rows.Err()
}

// UpdateMotor renames a motor. A nil name is a no-op.
func (r *PostgresProfileRepository) UpdateMotor(ctx context.Context, id string, name *string) (*models.MotorProfile, error) {
	if name == nil {
		return r.GetMotor(ctx, id)
	}

	query := `
		UPDATE motor_profiles
		SET name = $2, updated_at = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, *name, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &store.NotFoundError{Kind: "motor", ID: id}
	}
	return r.GetMotor(ctx, id)
}

// DeleteMotor removes a motor profile
func (r *PostgresProfileRepository) DeleteMotor(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM motor_profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &store.NotFoundError{Kind: "motor", ID: id}
	}
	return nil
}

// Associate binds a motor to an MCU and records its drive pins, replacing any
// previous binding
func (r *PostgresProfileRepository) Associate(ctx context.Context, motorID, mcuID string, stepPin, dirPin int) (*models.MotorProfile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM mcu_profiles WHERE id = $1)`, mcuID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &store.NotFoundError{Kind: "mcu", ID: mcuID}
	}

	query := `
		UPDATE motor_profiles
		SET mcu_id = $2, step_pin = $3, dir_pin = $4, updated_at = $5
		WHERE id = $1`

	result, err := tx.ExecContext(ctx, query, motorID, mcuID, stepPin, dirPin, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &store.NotFoundError{Kind: "motor", ID: motorID}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetMotor(ctx, motorID)
}

// SetCalibration attaches a fitted model to a motor, replacing any previous
// one
func (r *PostgresProfileRepository) SetCalibration(ctx context.Context, motorID string, cal models.Calibration) (*models.MotorProfile, error) {
	calJSON, err := json.Marshal(cal)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calibration: %w", err)
	}

	query := `
		UPDATE motor_profiles
		SET calibration = $2, updated_at = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, motorID, string(calJSON), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &store.NotFoundError{Kind: "motor", ID: motorID}
	}
	return r.GetMotor(ctx, motorID)
}

// ClearCalibration detaches a motor's model. Clearing an uncalibrated motor
// leaves the row untouched.
func (r *PostgresProfileRepository) ClearCalibration(ctx context.Context, motorID string) (*models.MotorProfile, error) {
	query := `
		UPDATE motor_profiles
		SET calibration = NULL,
		    updated_at = CASE WHEN calibration IS NULL THEN updated_at ELSE $2 END
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, motorID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &store.NotFoundError{Kind: "motor", ID: motorID}
	}
	return r.GetMotor(ctx, motorID)
}

// PumpConfig returns the code-generation view of a calibrated motor
func (r *PostgresProfileRepository) PumpConfig(ctx context.Context, motorID string) (*models.PumpConfig, error) {
	motor, err := r.GetMotor(ctx, motorID)
	if err != nil {
		return nil, err
	}
	if motor.Calibration == nil {
		return nil, &store.NotCalibratedError{MotorID: motorID}
	}

	cal := motor.Calibration
	cfg := &models.PumpConfig{
		MotorID:   motor.ID,
		MCUID:     motor.MCUID,
		Slope:     cal.Slope,
		Intercept: cal.Intercept,
		MinFreq:   cal.MinFreq,
		MaxFreq:   cal.MaxFreq,
		Syringe:   cal.Syringe,
	}
	return cfg, nil
}

// Export renders the whole collection as an encoded record
func (r *PostgresProfileRepository) Export(ctx context.Context, format string) ([]byte, error) {
	rec, err := r.record(ctx)
	if err != nil {
		return nil, err
	}
	return store.EncodeRecord(rec, format)
}

// Import replaces the whole collection with the decoded record inside one
// transaction
func (r *PostgresProfileRepository) Import(ctx context.Context, data []byte, format string) (int, int, error) {
	rec, err := store.DecodeRecord(data, format)
	if err != nil {
		return 0, 0, err
	}
	// Run the record through the same structural validation the file backend
	// applies before touching any rows.
	if _, err := store.FromRecord(rec); err != nil {
		return 0, 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM motor_profiles`); err != nil {
		return 0, 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM mcu_profiles`); err != nil {
		return 0, 0, err
	}

	for _, m := range rec.MCUs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO mcu_profiles (id, name, port, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.Name, m.Port, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return 0, 0, err
		}
	}
	for _, m := range rec.Motors {
		var calJSON *string
		if m.Calibration != nil {
			b, err := json.Marshal(m.Calibration)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to marshal calibration: %w", err)
			}
			s := string(b)
			calJSON = &s
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO motor_profiles (id, name, mcu_id, step_pin, dir_pin, calibration, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			m.ID, m.Name, m.MCUID, m.StepPin, m.DirPin, calJSON, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return len(rec.MCUs), len(rec.Motors), nil
}

// Flush is a no-op; every mutation is already durable
func (r *PostgresProfileRepository) Flush(ctx context.Context) error {
	return nil
}

func (r *PostgresProfileRepository) record(ctx context.Context) (*store.Record, error) {
	mcus, err := r.ListMCUs(ctx)
	if err != nil {
		return nil, err
	}
	motors, err := r.ListMotors(ctx)
	if err != nil {
		return nil, err
	}
	return &store.Record{
		Version: store.RecordVersion,
		SavedAt: time.Now().UTC(),
		MCUs:    mcus,
		Motors:  motors,
	}, nil
}
