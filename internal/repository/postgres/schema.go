package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the profile tables when they do not exist yet. The seq
// columns order listings by insertion, matching the file backend.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS mcu_profiles (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			port TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS motor_profiles (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			mcu_id TEXT REFERENCES mcu_profiles(id),
			step_pin INTEGER NOT NULL DEFAULT 0,
			dir_pin INTEGER NOT NULL DEFAULT 0,
			calibration JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_motor_profiles_mcu_id ON motor_profiles (mcu_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
