// Package appointments owns the consultation appointment records the
// messaging layer is scoped to. Rooms live and die in memory; the
// appointment row is the durable anchor they are keyed by.
package appointments

import (
	"errors"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Validation errors
var (
	ErrPatientRequired = errors.New("patient id is required")
	ErrDoctorRequired  = errors.New("doctor id is required")
	ErrTimeRequired    = errors.New("scheduled time is required")
)

// Appointment is the GORM model for one scheduled consultation.
type Appointment struct {
	ID          string    `gorm:"primarykey;size:36" json:"id"`
	PatientID   string    `gorm:"size:64;index;not null" json:"patient_id"`
	DoctorID    string    `gorm:"size:64;index;not null" json:"doctor_id"`
	ScheduledAt time.Time `gorm:"not null" json:"scheduled_at"`
	Status      Status    `gorm:"size:16;not null;default:scheduled" json:"status"`
	Reason      string    `gorm:"size:500" json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for Appointment.
func (Appointment) TableName() string {
	return "appointments"
}

// Validate checks the fields required to book an appointment.
func (a *Appointment) Validate() error {
	if a.PatientID == "" {
		return ErrPatientRequired
	}
	if a.DoctorID == "" {
		return ErrDoctorRequired
	}
	if a.ScheduledAt.IsZero() {
		return ErrTimeRequired
	}
	return nil
}
