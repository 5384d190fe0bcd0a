package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// MessageBody is a plain confirmation payload
type MessageBody struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// DeleteResponse represents a confirmed deletion
type DeleteResponse struct {
	Body MessageBody
}

// CreateMCUBody is the payload for registering a new MCU profile
type CreateMCUBody struct {
	Name string `json:"name" minLength:"1" maxLength:"100" required:"true" doc:"Human-readable board label"`
	Port string `json:"port,omitempty" maxLength:"200" doc:"Serial port the board is reachable on"`
}

// CreateMCURequest represents a request to register a new MCU profile
type CreateMCURequest struct {
	Body CreateMCUBody
}

// MCUResponse wraps a single MCU profile
type MCUResponse struct {
	Body *MCUProfile
}

// ListMCUsBody is the body of the MCU listing response
type ListMCUsBody struct {
	MCUs  []*MCUProfile `json:"mcus" doc:"MCU profiles in creation order"`
	Count int           `json:"count" doc:"Number of profiles"`
}

// ListMCUsResponse represents the MCU listing response
type ListMCUsResponse struct {
	Body ListMCUsBody
}

// GetMCURequest represents a request for one MCU profile
type GetMCURequest struct {
	ID string `path:"id" doc:"MCU profile ID"`
}

// UpdateMCUBody is the payload for updating an MCU profile; absent fields
// are left unchanged
type UpdateMCUBody struct {
	Name *string `json:"name,omitempty" maxLength:"100" doc:"New board label"`
	Port *string `json:"port,omitempty" maxLength:"200" doc:"New serial port reference"`
}

// UpdateMCURequest represents a request to update an MCU profile
type UpdateMCURequest struct {
	ID   string `path:"id" doc:"MCU profile ID"`
	Body UpdateMCUBody
}

// DeleteMCURequest represents a request to delete an MCU profile
type DeleteMCURequest struct {
	ID      string `path:"id" doc:"MCU profile ID"`
	Cascade bool   `query:"cascade" doc:"Also delete motors associated with this MCU"`
}

// CreateMotorBody is the payload for registering a new motor profile
type CreateMotorBody struct {
	Name string `json:"name" minLength:"1" maxLength:"100" required:"true" doc:"Human-readable motor label"`
}

// CreateMotorRequest represents a request to register a new motor profile
type CreateMotorRequest struct {
	Body CreateMotorBody
}

// MotorResponse wraps a single motor profile
type MotorResponse struct {
	Body *MotorProfile
}

// ListMotorsBody is the body of the motor listing response
type ListMotorsBody struct {
	Motors []*MotorProfile `json:"motors" doc:"Motor profiles in creation order"`
	Count  int             `json:"count" doc:"Number of profiles"`
}

// ListMotorsResponse represents the motor listing response
type ListMotorsResponse struct {
	Body ListMotorsBody
}

// GetMotorRequest represents a request for one motor profile
type GetMotorRequest struct {
	ID string `path:"id" doc:"Motor profile ID"`
}

// UpdateMotorBody is the payload for updating a motor profile
type UpdateMotorBody struct {
	Name *string `json:"name,omitempty" maxLength:"100" doc:"New motor label"`
}

// UpdateMotorRequest represents a request to update a motor profile
type UpdateMotorRequest struct {
	ID   string `path:"id" doc:"Motor profile ID"`
	Body UpdateMotorBody
}

// DeleteMotorRequest represents a request to delete a motor profile
type DeleteMotorRequest struct {
	ID string `path:"id" doc:"Motor profile ID"`
}

// AssociateBody is the payload binding a motor to an MCU and its pins
type AssociateBody struct {
	MCUID   string `json:"mcu_id" minLength:"1" required:"true" doc:"Owning MCU profile ID"`
	StepPin int    `json:"step_pin" minimum:"0" maximum:"255" required:"true" doc:"GPIO pin index for step pulses"`
	DirPin  int    `json:"dir_pin" minimum:"0" maximum:"255" required:"true" doc:"GPIO pin index for direction"`
}

// AssociateRequest represents a request to bind a motor to an MCU. Repeating
// the call overwrites the previous binding.
type AssociateRequest struct {
	ID   string `path:"id" doc:"Motor profile ID"`
	Body AssociateBody
}

// CalibrateBody carries the two measured trials and the syringe they were run
// with. Trial order does not matter; the fit normalizes it.
type CalibrateBody struct {
	Syringe SyringeSpec      `json:"syringe" required:"true" doc:"Syringe used for both trials"`
	TrialA  CalibrationTrial `json:"trial_a" required:"true" doc:"First measured trial"`
	TrialB  CalibrationTrial `json:"trial_b" required:"true" doc:"Second measured trial, at a different frequency"`
}

// CalibrateRequest represents a request to calibrate a motor from two trials
type CalibrateRequest struct {
	ID   string `path:"id" doc:"Motor profile ID"`
	Body CalibrateBody
}

// CalibrateResultBody is the body of the calibration response
type CalibrateResultBody struct {
	Motor   *MotorProfile `json:"motor" doc:"Motor profile with the new calibration attached"`
	Warning string        `json:"warning,omitempty" doc:"Non-fatal concern about the fit, if any"`
}

// CalibrateResponse represents the result of calibrating a motor
type CalibrateResponse struct {
	Body CalibrateResultBody
}

// PreviewCalibrationRequest represents a request to fit a model without
// persisting it
type PreviewCalibrationRequest struct {
	Body CalibrateBody
}

// PreviewCalibrationBody is the body of the calibration preview response
type PreviewCalibrationBody struct {
	Calibration *Calibration `json:"calibration" doc:"Fitted model"`
	Warning     string       `json:"warning,omitempty" doc:"Non-fatal concern about the fit, if any"`
}

// PreviewCalibrationResponse represents a fitted model that was not stored
type PreviewCalibrationResponse struct {
	Body PreviewCalibrationBody
}

// FrequencyForFlowBody is the payload for a flow-to-frequency translation
type FrequencyForFlowBody struct {
	TargetFlowMLMin float64      `json:"target_flow_ml_min" exclusiveMinimum:"0" required:"true" doc:"Desired flow rate in mL/min"`
	Syringe         *SyringeSpec `json:"syringe,omitempty" doc:"Substitute syringe geometry; defaults to the calibration syringe"`
}

// FrequencyForFlowRequest represents a request for the drive frequency that
// produces a target flow
type FrequencyForFlowRequest struct {
	ID   string `path:"id" doc:"Motor profile ID"`
	Body FrequencyForFlowBody
}

// FrequencyResultBody is the body of the flow-to-frequency response
type FrequencyResultBody struct {
	FrequencyHz  float64 `json:"frequency_hz" doc:"Required drive frequency in Hz"`
	AreaRatio    float64 `json:"area_ratio" doc:"Target to reference cross-section ratio applied"`
	Extrapolated bool    `json:"extrapolated" doc:"True when the frequency lies outside the calibrated span"`
	MinFreq      float64 `json:"min_freq" doc:"Lower calibrated frequency in Hz"`
	MaxFreq      float64 `json:"max_freq" doc:"Upper calibrated frequency in Hz"`
}

// FrequencyForFlowResponse represents the drive frequency for a target flow
type FrequencyForFlowResponse struct {
	Body FrequencyResultBody
}

// FlowForFrequencyBody is the payload for a frequency-to-flow translation
type FlowForFrequencyBody struct {
	FrequencyHz float64      `json:"frequency_hz" exclusiveMinimum:"0" required:"true" doc:"Drive frequency in Hz"`
	Syringe     *SyringeSpec `json:"syringe,omitempty" doc:"Substitute syringe geometry; defaults to the calibration syringe"`
}

// FlowForFrequencyRequest represents a request for the flow a drive frequency
// would produce
type FlowForFrequencyRequest struct {
	ID   string `path:"id" doc:"Motor profile ID"`
	Body FlowForFrequencyBody
}

// FlowResultBody is the body of the frequency-to-flow response
type FlowResultBody struct {
	FlowMLMin    float64 `json:"flow_ml_min" doc:"Resulting flow rate in mL/min"`
	AreaRatio    float64 `json:"area_ratio" doc:"Target to reference cross-section ratio applied"`
	Extrapolated bool    `json:"extrapolated" doc:"True when the frequency lies outside the calibrated span"`
	MinFreq      float64 `json:"min_freq" doc:"Lower calibrated frequency in Hz"`
	MaxFreq      float64 `json:"max_freq" doc:"Upper calibrated frequency in Hz"`
}

// FlowForFrequencyResponse represents the flow a drive frequency produces
type FlowForFrequencyResponse struct {
	Body FlowResultBody
}

// PumpConfigRequest represents a request for a motor's code-generation view
type PumpConfigRequest struct {
	ID string `path:"id" doc:"Motor profile ID"`
}

// PumpConfigResponse wraps the code-generation view of one calibrated motor
type PumpConfigResponse struct {
	Body *PumpConfig
}

// ExportProfilesRequest represents a request to export the full profile record
type ExportProfilesRequest struct {
	Format string `query:"format" enum:"json,yaml" doc:"Encoding of the exported record (default json)"`
}

// ExportProfilesResponse carries the encoded profile record verbatim
type ExportProfilesResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// ImportProfilesRequest represents a request to replace all profiles with an
// uploaded record
type ImportProfilesRequest struct {
	Format  string `query:"format" enum:"json,yaml" doc:"Encoding of the uploaded record (default json)"`
	RawBody []byte
}

// ImportResultBody is the body of import and restore responses
type ImportResultBody struct {
	MCUs   int `json:"mcus" doc:"Number of MCU profiles loaded"`
	Motors int `json:"motors" doc:"Number of motor profiles loaded"`
}

// ImportProfilesResponse represents the outcome of a profile import
type ImportProfilesResponse struct {
	Body ImportResultBody
}

// BackupInfo describes one stored profile snapshot
type BackupInfo struct {
	Key          string    `json:"key" doc:"Object key of the snapshot"`
	SizeBytes    int64     `json:"size_bytes" doc:"Snapshot size in bytes"`
	LastModified time.Time `json:"last_modified" doc:"When the snapshot was written"`
}

// CreateBackupBody is the body of the backup creation response
type CreateBackupBody struct {
	Key string `json:"key" doc:"Object key the snapshot was written to"`
	URL string `json:"url,omitempty" doc:"Presigned download URL for the snapshot"`
}

// CreateBackupResponse represents a freshly written profile snapshot
type CreateBackupResponse struct {
	Body CreateBackupBody
}

// ListBackupsBody is the body of the backup listing response
type ListBackupsBody struct {
	Backups []BackupInfo `json:"backups" doc:"Stored snapshots, most recent first"`
	Count   int          `json:"count" doc:"Number of snapshots"`
}

// ListBackupsResponse represents the stored profile snapshots
type ListBackupsResponse struct {
	Body ListBackupsBody
}

// RestoreBackupBody is the payload selecting a snapshot to restore
type RestoreBackupBody struct {
	Key string `json:"key" minLength:"1" required:"true" doc:"Object key of the snapshot to restore"`
}

// RestoreBackupRequest represents a request to replace all profiles with a
// stored snapshot
type RestoreBackupRequest struct {
	Body RestoreBackupBody
}

// RestoreBackupResponse represents the outcome of a snapshot restore
type RestoreBackupResponse struct {
	Body ImportResultBody
}

// ListPortsBody is the body of the serial port listing response
type ListPortsBody struct {
	Ports []string `json:"ports" doc:"Serial port names visible on this host"`
	Count int      `json:"count" doc:"Number of ports"`
}

// ListPortsResponse represents the serial ports visible on the host
type ListPortsResponse struct {
	Body ListPortsBody
}
