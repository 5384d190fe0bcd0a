package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pumplab/stepflow/internal/repository"
	"github.com/pumplab/stepflow/internal/store"
	"github.com/pumplab/stepflow/pkg/models"
)

// testDB holds test infrastructure
type testDB struct {
	container testcontainers.Container
	db        *sql.DB
	repo      repository.ProfileRepository
}

// setupTestDB starts a PostgreSQL container and prepares the schema
func setupTestDB(t *testing.T) *testDB {
	t.Helper()

	ctx := context.Background()

	container, err := pgContainer.Run(ctx,
		"postgres:15-alpine",
		pgContainer.WithDatabase("stepflow_test"),
		pgContainer.WithUsername("testuser"),
		pgContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db))

	return &testDB{
		container: container,
		db:        db,
		repo:      NewPostgresProfileRepository(db),
	}
}

func (tdb *testDB) cleanup(t *testing.T) {
	t.Helper()
	require.NoError(t, tdb.db.Close())
	require.NoError(t, tdb.container.Terminate(context.Background()))
}

func referenceCalibration() models.Calibration {
	return models.Calibration{
		Syringe: models.SyringeSpec{
			Brand:      "BD",
			Model:      "Plastipak",
			VolumeML:   10,
			DiameterMM: 10,
		},
		TrialLow:     models.CalibrationTrial{FrequencyHz: 100, DurationS: 20, DispensedVolumeML: 2},
		TrialHigh:    models.CalibrationTrial{FrequencyHz: 500, DurationS: 20, DispensedVolumeML: 10},
		Slope:        0.06,
		Intercept:    0.0,
		MinFreq:      100,
		MaxFreq:      500,
		CalibratedAt: time.Now().UTC(),
	}
}

func TestPostgresProfileLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := setupTestDB(t)
	defer tdb.cleanup(t)

	ctx := context.Background()
	repo := tdb.repo

	// Boards and motors come back in creation order.
	board, err := repo.CreateMCU(ctx, "bench-board", nil)
	require.NoError(t, err)
	spare, err := repo.CreateMCU(ctx, "spare-board", nil)
	require.NoError(t, err)

	pump, err := repo.CreateMotor(ctx, "infusion-pump")
	require.NoError(t, err)
	wash, err := repo.CreateMotor(ctx, "wash-pump")
	require.NoError(t, err)

	mcus, err := repo.ListMCUs(ctx)
	require.NoError(t, err)
	require.Len(t, mcus, 2)
	assert.Equal(t, board.ID, mcus[0].ID)
	assert.Equal(t, spare.ID, mcus[1].ID)

	// Rename and port updates behave like the file backend.
	updated, err := repo.UpdateMCU(ctx, board.ID, nil, strPtr("/dev/ttyACM0"))
	require.NoError(t, err)
	require.NotNil(t, updated.Port)
	assert.Equal(t, "/dev/ttyACM0", *updated.Port)

	updated, err = repo.UpdateMCU(ctx, board.ID, strPtr("lab-board"), strPtr(""))
	require.NoError(t, err)
	assert.Equal(t, "lab-board", updated.Name)
	assert.Nil(t, updated.Port)

	// Associate, calibrate, read the pump config back.
	bound, err := repo.Associate(ctx, pump.ID, board.ID, 2, 3)
	require.NoError(t, err)
	require.NotNil(t, bound.MCUID)
	assert.Equal(t, board.ID, *bound.MCUID)

	cal := referenceCalibration()
	calibrated, err := repo.SetCalibration(ctx, pump.ID, cal)
	require.NoError(t, err)
	require.NotNil(t, calibrated.Calibration)
	assert.Equal(t, 0.06, calibrated.Calibration.Slope)
	assert.Equal(t, 2.0, calibrated.Calibration.TrialLow.DispensedVolumeML)

	cfg, err := repo.PumpConfig(ctx, pump.ID)
	require.NoError(t, err)
	assert.Equal(t, pump.ID, cfg.MotorID)
	require.NotNil(t, cfg.MCUID)
	assert.Equal(t, board.ID, *cfg.MCUID)
	assert.Equal(t, 0.06, cfg.Slope)
	assert.Equal(t, 100.0, cfg.MinFreq)
	assert.Equal(t, 500.0, cfg.MaxFreq)

	_, err = repo.PumpConfig(ctx, wash.ID)
	var notCal *store.NotCalibratedError
	require.ErrorAs(t, err, &notCal)

	// Deleting a referenced board needs cascade.
	err = repo.DeleteMCU(ctx, board.ID, false)
	var ref *store.ReferentialIntegrityError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, []string{pump.ID}, ref.MotorIDs)

	require.NoError(t, repo.DeleteMCU(ctx, board.ID, true))

	motors, err := repo.ListMotors(ctx)
	require.NoError(t, err)
	require.Len(t, motors, 1)
	assert.Equal(t, wash.ID, motors[0].ID)

	_, err = repo.GetMotor(ctx, pump.ID)
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "motor", nf.Kind)

	// Clearing twice stays a no-op.
	_, err = repo.SetCalibration(ctx, wash.ID, cal)
	require.NoError(t, err)
	cleared, err := repo.ClearCalibration(ctx, wash.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.Calibration)
	again, err := repo.ClearCalibration(ctx, wash.ID)
	require.NoError(t, err)
	assert.True(t, cleared.UpdatedAt.Equal(again.UpdatedAt))
}

func TestPostgresExportImportRoundTrip_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := setupTestDB(t)
	defer tdb.cleanup(t)

	ctx := context.Background()
	repo := tdb.repo

	board, err := repo.CreateMCU(ctx, "bench-board", strPtr("/dev/ttyACM0"))
	require.NoError(t, err)
	_, err = repo.CreateMCU(ctx, "spare-board", nil)
	require.NoError(t, err)

	pump, err := repo.CreateMotor(ctx, "infusion-pump")
	require.NoError(t, err)
	_, err = repo.CreateMotor(ctx, "wash-pump")
	require.NoError(t, err)
	_, err = repo.CreateMotor(ctx, "spare-motor")
	require.NoError(t, err)

	_, err = repo.Associate(ctx, pump.ID, board.ID, 2, 3)
	require.NoError(t, err)
	_, err = repo.SetCalibration(ctx, pump.ID, referenceCalibration())
	require.NoError(t, err)

	exported, err := repo.Export(ctx, store.FormatJSON)
	require.NoError(t, err)

	mcus, motors, err := repo.Import(ctx, exported, store.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 2, mcus)
	assert.Equal(t, 3, motors)

	reexported, err := repo.Export(ctx, store.FormatJSON)
	require.NoError(t, err)

	before, err := store.DecodeRecord(exported, store.FormatJSON)
	require.NoError(t, err)
	after, err := store.DecodeRecord(reexported, store.FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, before.MCUs, after.MCUs)
	assert.Equal(t, before.Motors, after.Motors)

	// A record that fails validation must leave the rows untouched.
	_, _, err = repo.Import(ctx, []byte(`{"version": 7}`), store.FormatJSON)
	var corrupt *store.CorruptRecordError
	require.ErrorAs(t, err, &corrupt)

	mcuList, err := repo.ListMCUs(ctx)
	require.NoError(t, err)
	assert.Len(t, mcuList, 2)
}

func strPtr(s string) *string { return &s }
