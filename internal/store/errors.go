package store

import "fmt"

// NotFoundError reports a profile id that does not exist in the store.
type NotFoundError struct {
	Kind string // "mcu" or "motor"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s profile %q not found", e.Kind, e.ID)
}

// DuplicateNameError reports a name collision while unique names are
// enforced.
type DuplicateNameError struct {
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("a %s profile named %q already exists", e.Kind, e.Name)
}

// ReferentialIntegrityError reports an MCU delete blocked by motors that
// still reference the board.
type ReferentialIntegrityError struct {
	MCUID    string
	MotorIDs []string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("mcu profile %q is still referenced by %d motor profile(s)", e.MCUID, len(e.MotorIDs))
}

// NotCalibratedError reports a motor without an attached calibration where
// one is required.
type NotCalibratedError struct {
	MotorID string
}

func (e *NotCalibratedError) Error() string {
	return fmt.Sprintf("motor profile %q is not calibrated", e.MotorID)
}

// CorruptRecordError reports a durable record that cannot be restored.
type CorruptRecordError struct {
	Reason string
}

func (e *CorruptRecordError) Error() string {
	return "corrupt profile record: " + e.Reason
}
