package history

import (
	"time"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
)

// StoredMessage is the GORM model for one transcript entry. Rows are
// append-only; there is no edit or delete path.
type StoredMessage struct {
	ID            string    `gorm:"primarykey;size:36" json:"id"`
	AppointmentID string    `gorm:"size:64;index;not null" json:"appointment_id"`
	SenderID      string    `gorm:"size:64;not null" json:"sender_id"`
	SenderRole    string    `gorm:"size:16;not null" json:"sender_role"`
	Kind          string    `gorm:"size:16;not null" json:"kind"`
	Content       string    `gorm:"size:5000" json:"content"`
	FileURL       string    `gorm:"size:500" json:"file_url,omitempty"`
	FileName      string    `gorm:"size:255" json:"file_name,omitempty"`
	FileSize      int64     `json:"file_size,omitempty"`
	SentAt        time.Time `gorm:"index" json:"sent_at"`
	Delivered     bool      `gorm:"not null;default:false" json:"delivered"`
	Read          bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the table name for StoredMessage.
func (StoredMessage) TableName() string {
	return "consultation_messages"
}

// fromDomain converts a relay message into its stored form.
func fromDomain(msg consultation.Message) *StoredMessage {
	stored := &StoredMessage{
		ID:            msg.ID,
		AppointmentID: msg.AppointmentID,
		SenderID:      msg.SenderID,
		SenderRole:    string(msg.SenderRole),
		Kind:          string(msg.Kind),
		Content:       msg.Content,
		SentAt:        msg.Timestamp,
		Delivered:     msg.Delivered,
		Read:          msg.Read,
	}
	if msg.File != nil {
		stored.FileURL = msg.File.URL
		stored.FileName = msg.File.Filename
		stored.FileSize = msg.File.Size
	}
	return stored
}

// toDomain converts a stored row back into the wire shape used for
// transcript snapshots.
func (s *StoredMessage) toDomain() consultation.Message {
	msg := consultation.Message{
		ID:            s.ID,
		AppointmentID: s.AppointmentID,
		SenderID:      s.SenderID,
		SenderRole:    consultation.Role(s.SenderRole),
		Kind:          consultation.MessageKind(s.Kind),
		Content:       s.Content,
		Timestamp:     s.SentAt,
		Delivered:     s.Delivered,
		Read:          s.Read,
	}
	if s.FileURL != "" || s.FileName != "" {
		msg.File = &consultation.FileRef{
			URL:      s.FileURL,
			Filename: s.FileName,
			Size:     s.FileSize,
		}
	}
	return msg
}
