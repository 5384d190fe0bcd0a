package models

import (
	"time"
)

// MCUProfile represents one microcontroller board that drives stepper motors.
// The port is plain metadata recorded at connection time; the profile engine
// never opens it.
type MCUProfile struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Port      *string   `json:"port,omitempty" yaml:"port,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Clone returns a deep copy of the profile.
func (m *MCUProfile) Clone() *MCUProfile {
	c := *m
	if m.Port != nil {
		port := *m.Port
		c.Port = &port
	}
	return &c
}

// MotorProfile represents one stepper motor, its driving pins, and its
// calibration. MCUID stays nil until the motor is associated with a board;
// StepPin and DirPin are only meaningful once it is.
type MotorProfile struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	MCUID       *string      `json:"mcu_id,omitempty" yaml:"mcu_id,omitempty"`
	StepPin     int          `json:"step_pin" yaml:"step_pin"`
	DirPin      int          `json:"dir_pin" yaml:"dir_pin"`
	Calibration *Calibration `json:"calibration,omitempty" yaml:"calibration,omitempty"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" yaml:"updated_at"`
}

// Clone returns a deep copy of the profile.
func (m *MotorProfile) Clone() *MotorProfile {
	c := *m
	if m.MCUID != nil {
		id := *m.MCUID
		c.MCUID = &id
	}
	if m.Calibration != nil {
		cal := *m.Calibration
		c.Calibration = &cal
	}
	return &c
}

// Calibrated reports whether the motor carries a frequency-flow model.
func (m *MotorProfile) Calibrated() bool {
	return m.Calibration != nil
}

// PumpConfig is the read view consumed by pump code generators: everything
// needed to emit initialization source for one calibrated motor.
type PumpConfig struct {
	MotorID   string      `json:"motor_id" doc:"Motor profile ID"`
	MCUID     *string     `json:"mcu_id,omitempty" doc:"Owning MCU profile ID, if associated"`
	Slope     float64     `json:"slope" doc:"Flow gained per Hz, in mL/min"`
	Intercept float64     `json:"intercept" doc:"Flow at zero frequency, in mL/min"`
	MinFreq   float64     `json:"min_freq" doc:"Lower calibrated frequency in Hz"`
	MaxFreq   float64     `json:"max_freq" doc:"Upper calibrated frequency in Hz"`
	Syringe   SyringeSpec `json:"syringe" doc:"Reference syringe the model was fit against"`
}
