package appointments

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when an appointment is not found.
var ErrNotFound = errors.New("appointment not found")

// Repository provides access to appointment storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new appointment repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new appointment.
func (r *Repository) Create(appt *Appointment) error {
	if err := r.db.Create(appt).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// FindByID retrieves an appointment by its ID.
func (r *Repository) FindByID(id string) (*Appointment, error) {
	var appt Appointment
	if err := r.db.First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	return &appt, nil
}

// UpdateStatus moves an appointment to a new lifecycle state.
func (r *Repository) UpdateStatus(id string, status Status) error {
	result := r.db.Model(&Appointment{}).Where("id = ?", id).Update("status", status)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByParticipant lists the appointments a patient or doctor is part
// of, most recent first.
func (r *Repository) FindByParticipant(participantID string) ([]*Appointment, error) {
	var appts []*Appointment
	err := r.db.
		Where("patient_id = ? OR doctor_id = ?", participantID, participantID).
		Order("scheduled_at desc").
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}
