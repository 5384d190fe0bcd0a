package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pumplab/stepflow/pkg/models"
)

// RecordVersion is the layout version written into every record.
const RecordVersion = 1

// Record encodings.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Record is the durable form of a Store: both profile lists in creation
// order with raw calibration trials included, so a restored store can always
// re-fit its models. SavedAt is envelope metadata and takes no part in the
// round trip.
type Record struct {
	Version int                    `json:"version" yaml:"version"`
	SavedAt time.Time              `json:"saved_at" yaml:"saved_at"`
	MCUs    []*models.MCUProfile   `json:"mcus" yaml:"mcus"`
	Motors  []*models.MotorProfile `json:"motors" yaml:"motors"`
}

// Snapshot captures the store as a record plus the generation it was taken
// at, for handing to MarkClean once the record has been flushed.
func (s *Store) Snapshot() (*Record, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &Record{
		Version: RecordVersion,
		SavedAt: time.Now().UTC(),
		MCUs:    make([]*models.MCUProfile, len(s.mcus)),
		Motors:  make([]*models.MotorProfile, len(s.motors)),
	}
	for i, m := range s.mcus {
		rec.MCUs[i] = m.Clone()
	}
	for i, m := range s.motors {
		rec.Motors[i] = m.Clone()
	}
	return rec, s.gen
}

// EncodeRecord serializes a record in the given format. JSON is the durable
// on-disk form; YAML exists for human-edited import/export bundles.
func EncodeRecord(rec *Record, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return json.MarshalIndent(rec, "", "  ")
	case FormatYAML:
		return yaml.Marshal(rec)
	default:
		return nil, fmt.Errorf("unknown record format %q", format)
	}
}

// DecodeRecord parses an encoded record. Undecodable input fails with
// CorruptRecordError; structural validation happens in FromRecord.
func DecodeRecord(data []byte, format string) (*Record, error) {
	var rec Record
	switch format {
	case FormatJSON, "":
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, &CorruptRecordError{Reason: fmt.Sprintf("decode json: %v", err)}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return nil, &CorruptRecordError{Reason: fmt.Sprintf("decode yaml: %v", err)}
		}
	default:
		return nil, fmt.Errorf("unknown record format %q", format)
	}
	return &rec, nil
}

// FromRecord validates a record and builds a store from it. Every field
// survives unchanged; derived calibration values are restored as stored, not
// recomputed.
func FromRecord(rec *Record, opts ...Option) (*Store, error) {
	if rec == nil {
		return nil, &CorruptRecordError{Reason: "empty record"}
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}

	s := New(opts...)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range rec.MCUs {
		c := m.Clone()
		s.mcus = append(s.mcus, c)
		s.mcusByID[c.ID] = c
	}
	for _, m := range rec.Motors {
		c := m.Clone()
		s.motors = append(s.motors, c)
		s.motorsByID[c.ID] = c
	}
	return s, nil
}

func (r *Record) validate() error {
	if r.Version != RecordVersion {
		return &CorruptRecordError{Reason: fmt.Sprintf("unsupported record version %d", r.Version)}
	}

	mcuIDs := make(map[string]bool, len(r.MCUs))
	for i, m := range r.MCUs {
		if m == nil {
			return &CorruptRecordError{Reason: fmt.Sprintf("mcu entry %d is null", i)}
		}
		if m.ID == "" {
			return &CorruptRecordError{Reason: fmt.Sprintf("mcu entry %d is missing an id", i)}
		}
		if mcuIDs[m.ID] {
			return &CorruptRecordError{Reason: fmt.Sprintf("duplicate mcu id %q", m.ID)}
		}
		mcuIDs[m.ID] = true
	}

	motorIDs := make(map[string]bool, len(r.Motors))
	for i, m := range r.Motors {
		if m == nil {
			return &CorruptRecordError{Reason: fmt.Sprintf("motor entry %d is null", i)}
		}
		if m.ID == "" {
			return &CorruptRecordError{Reason: fmt.Sprintf("motor entry %d is missing an id", i)}
		}
		if motorIDs[m.ID] {
			return &CorruptRecordError{Reason: fmt.Sprintf("duplicate motor id %q", m.ID)}
		}
		motorIDs[m.ID] = true

		if m.MCUID != nil && !mcuIDs[*m.MCUID] {
			return &CorruptRecordError{Reason: fmt.Sprintf("motor %q references unknown mcu %q", m.ID, *m.MCUID)}
		}
		if m.StepPin < 0 || m.DirPin < 0 {
			return &CorruptRecordError{Reason: fmt.Sprintf("motor %q has a negative pin index", m.ID)}
		}
		if err := validateRecordCalibration(m); err != nil {
			return err
		}
	}
	return nil
}

func validateRecordCalibration(m *models.MotorProfile) error {
	cal := m.Calibration
	if cal == nil {
		return nil
	}
	if cal.Syringe.VolumeML <= 0 || cal.Syringe.DiameterMM <= 0 {
		return &CorruptRecordError{Reason: fmt.Sprintf("motor %q calibration has non-positive syringe geometry", m.ID)}
	}
	for _, trial := range []models.CalibrationTrial{cal.TrialLow, cal.TrialHigh} {
		if trial.FrequencyHz <= 0 || trial.DurationS <= 0 || trial.DispensedVolumeML <= 0 {
			return &CorruptRecordError{Reason: fmt.Sprintf("motor %q calibration has a non-positive trial value", m.ID)}
		}
	}
	if cal.TrialLow.FrequencyHz >= cal.TrialHigh.FrequencyHz {
		return &CorruptRecordError{Reason: fmt.Sprintf("motor %q calibration trials are not ordered by frequency", m.ID)}
	}
	return nil
}
