// Package consultation holds the core types of the consultation
// messaging domain: participant roles, the message variants exchanged
// between patient and doctor, and the wire protocol spoken over the
// WebSocket connection.
package consultation

import (
	"errors"
	"time"
	"unicode/utf8"
)

// Validation constants
const (
	MaxContentLength  = 5000
	MaxFilenameLength = 255
	MaxFileSize       = 25 * 1024 * 1024 // 25MB
)

// Validation errors
var (
	ErrContentEmpty      = errors.New("message content cannot be empty")
	ErrContentTooLong    = errors.New("message content exceeds maximum length")
	ErrContentInvalid    = errors.New("message content contains invalid characters")
	ErrUnknownKind       = errors.New("unknown message kind")
	ErrUnknownRole       = errors.New("unknown participant role")
	ErrFileRefMissing    = errors.New("file reference is required for this message kind")
	ErrFilenameEmpty     = errors.New("file name cannot be empty")
	ErrFilenameTooLong   = errors.New("file name exceeds maximum length")
	ErrFileTooLarge      = errors.New("file exceeds maximum size")
	ErrAppointmentEmpty  = errors.New("appointment id is required")
	ErrParticipantEmpty  = errors.New("participant id is required")
)

// Role identifies which side of a consultation a participant is on.
// The patient role is serialized as "user" on the wire, matching the
// original client protocol.
type Role string

const (
	RolePatient Role = "user"
	RoleDoctor  Role = "doctor"
)

// ParseRole validates a wire role value.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleDoctor:
		return Role(s), nil
	default:
		return "", ErrUnknownRole
	}
}

// Peer returns the other role in a two-party consultation.
func (r Role) Peer() Role {
	if r == RolePatient {
		return RoleDoctor
	}
	return RolePatient
}

// MessageKind discriminates the message payload variants.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindDocument MessageKind = "document"
)

// FileRef points at an uploaded attachment. The bytes themselves live in
// the media object store; messages only carry the reference.
type FileRef struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Message is one entry in a consultation transcript. Messages are
// immutable once created; there is no edit or delete operation.
type Message struct {
	ID            string      `json:"id"`
	AppointmentID string      `json:"appointmentId"`
	SenderID      string      `json:"senderId"`
	SenderRole    Role        `json:"senderType"`
	Kind          MessageKind `json:"type"`
	Content       string      `json:"content,omitempty"`
	File          *FileRef    `json:"file,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Delivered     bool        `json:"delivered"`
	Read          bool        `json:"read"`
}

// MessageBody is the client-supplied portion of an outbound message,
// before the relay stamps identity, id and timestamp onto it.
type MessageBody struct {
	Type    MessageKind `json:"type"`
	Content string      `json:"content,omitempty"`
	File    *FileRef    `json:"file,omitempty"`
}

// Validate checks a message body, handling every kind exhaustively.
func (b MessageBody) Validate() error {
	switch b.Type {
	case KindText:
		return validateContent(b.Content)
	case KindImage, KindDocument:
		if b.File == nil {
			return ErrFileRefMissing
		}
		return b.File.Validate()
	default:
		return ErrUnknownKind
	}
}

// Validate checks a file reference.
func (f FileRef) Validate() error {
	if f.Filename == "" {
		return ErrFilenameEmpty
	}
	if len(f.Filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if f.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

func validateContent(content string) error {
	if content == "" {
		return ErrContentEmpty
	}
	if len(content) > MaxContentLength {
		return ErrContentTooLong
	}
	if !utf8.ValidString(content) {
		return ErrContentInvalid
	}
	return nil
}
