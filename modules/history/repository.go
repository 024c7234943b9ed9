package history

import (
	"fmt"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
	"gorm.io/gorm"
)

// Repository provides access to the transcript store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new transcript repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append stores one message.
func (r *Repository) Append(msg consultation.Message) error {
	if err := r.db.Create(fromDomain(msg)).Error; err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// Transcript returns every stored message of an appointment in send
// order. An appointment with no messages yields an empty transcript,
// not an error.
func (r *Repository) Transcript(appointmentID string) ([]consultation.Message, error) {
	var rows []StoredMessage
	err := r.db.
		Where("appointment_id = ?", appointmentID).
		Order("sent_at asc, created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	messages := make([]consultation.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, rows[i].toDomain())
	}
	return messages, nil
}

// MarkRead flags all messages addressed to the reader (i.e. sent by the
// other role) as read and returns the number of rows updated.
func (r *Repository) MarkRead(appointmentID string, reader consultation.Role) (int64, error) {
	result := r.db.Model(&StoredMessage{}).
		Where("appointment_id = ? AND sender_role = ? AND read = ?",
			appointmentID, string(reader.Peer()), false).
		Update("read", true)
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.RowsAffected, nil
}

// MessageCount returns the number of stored messages for an appointment.
func (r *Repository) MessageCount(appointmentID string) (int64, error) {
	var count int64
	err := r.db.Model(&StoredMessage{}).
		Where("appointment_id = ?", appointmentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
