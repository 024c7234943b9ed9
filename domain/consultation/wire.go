package consultation

import "encoding/json"

// Client -> server events.
const (
	EventJoin        = "join-consultation"
	EventLeave       = "leave-consultation"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
	EventStopTyping  = "stop-typing"
)

// Server -> client events.
const (
	EventJoined          = "consultation-joined"
	EventMessageReceived = "message-received"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
	EventUserTyping      = "user-typing"
	EventEnded           = "consultation-ended"
	EventError           = "error"
)

// Envelope frames every message on the WebSocket connection in both
// directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// JoinPayload is carried by join-consultation and leave-consultation.
type JoinPayload struct {
	AppointmentID string `json:"appointmentId"`
	UserID        string `json:"userId"`
	UserType      Role   `json:"userType"`
}

// Validate checks the identifying fields shared by join/leave/typing.
func (p JoinPayload) Validate() error {
	if p.AppointmentID == "" {
		return ErrAppointmentEmpty
	}
	if p.UserID == "" {
		return ErrParticipantEmpty
	}
	_, err := ParseRole(string(p.UserType))
	return err
}

// SendMessagePayload is carried by send-message.
type SendMessagePayload struct {
	AppointmentID string      `json:"appointmentId"`
	SenderID      string      `json:"senderId"`
	SenderType    Role        `json:"senderType"`
	Message       MessageBody `json:"message"`
}

// Validate checks identity fields and the message body.
func (p SendMessagePayload) Validate() error {
	if p.AppointmentID == "" {
		return ErrAppointmentEmpty
	}
	if p.SenderID == "" {
		return ErrParticipantEmpty
	}
	if _, err := ParseRole(string(p.SenderType)); err != nil {
		return err
	}
	return p.Message.Validate()
}

// JoinedPayload carries the transcript snapshot returned on a
// successful join, in stored order.
type JoinedPayload struct {
	Messages []Message `json:"messages"`
}

// PresencePayload is carried by user-joined and user-left.
type PresencePayload struct {
	UserType Role `json:"userType"`
}

// TypingPayload is carried by user-typing.
type TypingPayload struct {
	UserType Role `json:"userType"`
	IsTyping bool `json:"isTyping"`
}
