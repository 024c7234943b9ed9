package history

import "github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"

// Request-reply service names registered by this module. The framework
// prefixes them with "services.history." on the wire.
const (
	ServiceGetTranscript = "get_transcript"
	ServiceMarkRead      = "mark_read"
)

// GetTranscriptRequest asks for the ordered transcript of an
// appointment.
type GetTranscriptRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// GetTranscriptResponse carries the transcript snapshot.
type GetTranscriptResponse struct {
	Messages []consultation.Message `json:"messages"`
}

// MarkReadRequest flags the peer's messages as read.
type MarkReadRequest struct {
	AppointmentID string            `json:"appointment_id"`
	Reader        consultation.Role `json:"reader"`
}

// MarkReadResponse reports how many messages were updated.
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}
