package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
)

// MessageSentEvent is emitted when the relay accepts a message. The
// history module consumes it to persist the transcript; delivery to
// live peers does not wait for that write.
type MessageSentEvent struct {
	Message consultation.Message `json:"message"`
}

// ParticipantJoinedEvent is emitted when a participant joins a
// consultation room.
type ParticipantJoinedEvent struct {
	AppointmentID string            `json:"appointment_id"`
	ParticipantID string            `json:"participant_id"`
	Role          consultation.Role `json:"role"`
	Timestamp     time.Time         `json:"timestamp"`
}

// ParticipantLeftEvent is emitted when a participant leaves, whether
// explicitly or through a transport disconnect.
type ParticipantLeftEvent struct {
	AppointmentID string            `json:"appointment_id"`
	ParticipantID string            `json:"participant_id"`
	Role          consultation.Role `json:"role"`
	Timestamp     time.Time         `json:"timestamp"`
}

// ConsultationEndedEvent is emitted when either party ends the
// consultation.
type ConsultationEndedEvent struct {
	AppointmentID string            `json:"appointment_id"`
	EndedBy       consultation.Role `json:"ended_by"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Event definitions for the consultation domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"consult",
		"MessageSent",
		"v1",
	)

	ParticipantJoinedV1 = helper.EventDefinition[ParticipantJoinedEvent](
		"consult",
		"ParticipantJoined",
		"v1",
	)

	ParticipantLeftV1 = helper.EventDefinition[ParticipantLeftEvent](
		"consult",
		"ParticipantLeft",
		"v1",
	)

	ConsultationEndedV1 = helper.EventDefinition[ConsultationEndedEvent](
		"consult",
		"ConsultationEnded",
		"v1",
	)
)
