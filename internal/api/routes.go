package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/pumplab/stepflow/internal/api/handlers"
	"github.com/pumplab/stepflow/internal/events"
	"github.com/pumplab/stepflow/internal/repository"
	"github.com/pumplab/stepflow/internal/serialport"
	"github.com/pumplab/stepflow/internal/storage"
)

// RegisterRoutes sets up all API routes. The snapshot storage may be nil
// when no bucket is configured; backup endpoints then reply 409.
func RegisterRoutes(router *chi.Mux, api huma.API, repo repository.ProfileRepository, snapshots storage.SnapshotStorage, lister serialport.Lister, broker *events.Broker) {
	// Initialize handlers
	mcuHandler := handlers.NewMCUHandler(repo, broker)
	motorHandler := handlers.NewMotorHandler(repo, broker)
	calibrationHandler := handlers.NewCalibrationHandler(repo, broker)
	transferHandler := handlers.NewTransferHandler(repo, snapshots, broker)
	portsHandler := handlers.NewPortsHandler(lister)

	// Register MCU profile routes
	huma.Register(api, huma.Operation{
		OperationID: "createMCU",
		Method:      http.MethodPost,
		Path:        "/api/mcus",
		Summary:     "Create an MCU profile",
		Description: "Registers a new microcontroller board profile",
		Tags:        []string{"MCUs"},
	}, mcuHandler.CreateMCU)

	huma.Register(api, huma.Operation{
		OperationID: "listMCUs",
		Method:      http.MethodGet,
		Path:        "/api/mcus",
		Summary:     "List MCU profiles",
		Description: "Returns all MCU profiles in creation order",
		Tags:        []string{"MCUs"},
	}, mcuHandler.ListMCUs)

	huma.Register(api, huma.Operation{
		OperationID: "getMCU",
		Method:      http.MethodGet,
		Path:        "/api/mcus/{id}",
		Summary:     "Get an MCU profile",
		Description: "Returns one MCU profile by ID",
		Tags:        []string{"MCUs"},
	}, mcuHandler.GetMCU)

	huma.Register(api, huma.Operation{
		OperationID: "updateMCU",
		Method:      http.MethodPatch,
		Path:        "/api/mcus/{id}",
		Summary:     "Update an MCU profile",
		Description: "Renames a board and/or updates its serial port reference",
		Tags:        []string{"MCUs"},
	}, mcuHandler.UpdateMCU)

	huma.Register(api, huma.Operation{
		OperationID: "deleteMCU",
		Method:      http.MethodDelete,
		Path:        "/api/mcus/{id}",
		Summary:     "Delete an MCU profile",
		Description: "Removes a board profile; refuses while motors reference it unless cascade is set",
		Tags:        []string{"MCUs"},
	}, mcuHandler.DeleteMCU)

	// Register motor profile routes
	huma.Register(api, huma.Operation{
		OperationID: "createMotor",
		Method:      http.MethodPost,
		Path:        "/api/motors",
		Summary:     "Create a motor profile",
		Description: "Registers a new stepper motor profile",
		Tags:        []string{"Motors"},
	}, motorHandler.CreateMotor)

	huma.Register(api, huma.Operation{
		OperationID: "listMotors",
		Method:      http.MethodGet,
		Path:        "/api/motors",
		Summary:     "List motor profiles",
		Description: "Returns all motor profiles in creation order",
		Tags:        []string{"Motors"},
	}, motorHandler.ListMotors)

	huma.Register(api, huma.Operation{
		OperationID: "getMotor",
		Method:      http.MethodGet,
		Path:        "/api/motors/{id}",
		Summary:     "Get a motor profile",
		Description: "Returns one motor profile by ID",
		Tags:        []string{"Motors"},
	}, motorHandler.GetMotor)

	huma.Register(api, huma.Operation{
		OperationID: "updateMotor",
		Method:      http.MethodPatch,
		Path:        "/api/motors/{id}",
		Summary:     "Update a motor profile",
		Description: "Renames a motor profile",
		Tags:        []string{"Motors"},
	}, motorHandler.UpdateMotor)

	huma.Register(api, huma.Operation{
		OperationID: "deleteMotor",
		Method:      http.MethodDelete,
		Path:        "/api/motors/{id}",
		Summary:     "Delete a motor profile",
		Description: "Removes a motor profile and its calibration",
		Tags:        []string{"Motors"},
	}, motorHandler.DeleteMotor)

	huma.Register(api, huma.Operation{
		OperationID: "associateMotor",
		Method:      http.MethodPut,
		Path:        "/api/motors/{id}/association",
		Summary:     "Associate a motor with an MCU",
		Description: "Binds a motor to a board and records its step and direction pins",
		Tags:        []string{"Motors"},
	}, motorHandler.AssociateMotor)

	huma.Register(api, huma.Operation{
		OperationID: "getPumpConfig",
		Method:      http.MethodGet,
		Path:        "/api/motors/{id}/pump-config",
		Summary:     "Get pump configuration",
		Description: "Returns the deployable pump parameters for a calibrated motor",
		Tags:        []string{"Motors"},
	}, motorHandler.GetPumpConfig)

	// Register calibration routes
	huma.Register(api, huma.Operation{
		OperationID: "calibrateMotor",
		Method:      http.MethodPost,
		Path:        "/api/motors/{id}/calibration",
		Summary:     "Calibrate a motor",
		Description: "Fits a frequency-flow model from two measured trials and stores it",
		Tags:        []string{"Calibration"},
	}, calibrationHandler.CalibrateMotor)

	huma.Register(api, huma.Operation{
		OperationID: "clearCalibration",
		Method:      http.MethodDelete,
		Path:        "/api/motors/{id}/calibration",
		Summary:     "Clear a motor calibration",
		Description: "Removes the stored frequency-flow model from a motor",
		Tags:        []string{"Calibration"},
	}, calibrationHandler.ClearCalibration)

	huma.Register(api, huma.Operation{
		OperationID: "previewCalibration",
		Method:      http.MethodPost,
		Path:        "/api/calibrations/preview",
		Summary:     "Preview a calibration",
		Description: "Fits a frequency-flow model from two trials without storing it",
		Tags:        []string{"Calibration"},
	}, calibrationHandler.PreviewCalibration)

	huma.Register(api, huma.Operation{
		OperationID: "frequencyForFlow",
		Method:      http.MethodPost,
		Path:        "/api/motors/{id}/frequency",
		Summary:     "Translate flow to frequency",
		Description: "Computes the drive frequency that produces a target flow, optionally through a substitute syringe",
		Tags:        []string{"Calibration"},
	}, calibrationHandler.FrequencyForFlow)

	huma.Register(api, huma.Operation{
		OperationID: "flowForFrequency",
		Method:      http.MethodPost,
		Path:        "/api/motors/{id}/flow",
		Summary:     "Translate frequency to flow",
		Description: "Evaluates the stored model at a drive frequency, optionally through a substitute syringe",
		Tags:        []string{"Calibration"},
	}, calibrationHandler.FlowForFrequency)

	// Register profile transfer routes
	huma.Register(api, huma.Operation{
		OperationID: "exportProfiles",
		Method:      http.MethodGet,
		Path:        "/api/profiles/export",
		Summary:     "Export profiles",
		Description: "Downloads the whole profile collection as a JSON or YAML record",
		Tags:        []string{"Profiles"},
	}, transferHandler.ExportProfiles)

	huma.Register(api, huma.Operation{
		OperationID: "importProfiles",
		Method:      http.MethodPut,
		Path:        "/api/profiles/import",
		Summary:     "Import profiles",
		Description: "Replaces the whole profile collection with an uploaded record",
		Tags:        []string{"Profiles"},
	}, transferHandler.ImportProfiles)

	huma.Register(api, huma.Operation{
		OperationID: "createBackup",
		Method:      http.MethodPost,
		Path:        "/api/profiles/backups",
		Summary:     "Create a backup",
		Description: "Archives the current profile collection as a bucket snapshot",
		Tags:        []string{"Profiles"},
	}, transferHandler.CreateBackup)

	huma.Register(api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        "/api/profiles/backups",
		Summary:     "List backups",
		Description: "Returns stored profile snapshots, newest first",
		Tags:        []string{"Profiles"},
	}, transferHandler.ListBackups)

	huma.Register(api, huma.Operation{
		OperationID: "restoreBackup",
		Method:      http.MethodPost,
		Path:        "/api/profiles/restore",
		Summary:     "Restore a backup",
		Description: "Replaces the profile collection with an archived snapshot",
		Tags:        []string{"Profiles"},
	}, transferHandler.RestoreBackup)

	// Register serial port routes
	huma.Register(api, huma.Operation{
		OperationID: "listPorts",
		Method:      http.MethodGet,
		Path:        "/api/ports",
		Summary:     "List serial ports",
		Description: "Returns the serial ports visible on this host",
		Tags:        []string{"Ports"},
	}, portsHandler.ListPorts)

	// Profile change events stream over a plain websocket, outside Huma
	router.Get("/api/events", NewEventStream(broker).ServeHTTP)
}
