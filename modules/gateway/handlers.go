package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/appointments"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/consult"
)

const transcriptTimeout = 5 * time.Second

// wsPeer wraps a WebSocket connection behind the registry's Peer
// interface. Writes are serialized: the relay loop and the session's
// own confirmations share the connection.
type wsPeer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// SendEvent frames and writes one server->client event.
func (p *wsPeer) SendEvent(event string, payload any) error {
	env := consultation.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Payload = data
	}

	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// SendError sends an error event.
func (p *wsPeer) SendError(message string) {
	env := consultation.Envelope{Event: consultation.EventError, Error: message}
	data, err := json.Marshal(env)
	if err != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send error event", "error", err)
	}
}

// session is the per-connection state. A connection handle belongs to
// at most one room at a time.
type session struct {
	peer          *wsPeer
	appointmentID string
	binding       *consult.Binding
}

// handleWebSocket runs the read loop for one client connection.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	sess := &session{peer: &wsPeer{conn: c}}

	// A transport-level disconnect is an implicit leave: without this,
	// an abrupt tab close would leak a phantom binding in the room.
	defer func() {
		if sess.binding != nil {
			m.consult.Relay().Leave(sess.appointmentID, sess.binding)
		}
		c.Close()
	}()

	slog.Info("WebSocket connected")

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		var env consultation.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			sess.peer.SendError("invalid message format")
			continue
		}

		m.dispatch(sess, env)
	}

	slog.Info("WebSocket disconnected")
}

// dispatch routes one client event.
func (m *Module) dispatch(sess *session, env consultation.Envelope) {
	switch env.Event {
	case consultation.EventJoin:
		m.handleJoin(sess, env.Payload)
	case consultation.EventLeave:
		m.handleLeave(sess, env.Payload)
	case consultation.EventSendMessage:
		m.handleSendMessage(sess, env.Payload)
	case consultation.EventTyping:
		m.handleTyping(sess, env.Payload, true)
	case consultation.EventStopTyping:
		m.handleTyping(sess, env.Payload, false)
	default:
		sess.peer.SendError("unknown event: " + env.Event)
	}
}

// handleJoin validates the appointment, registers the binding and
// returns the transcript snapshot.
func (m *Module) handleJoin(sess *session, payload json.RawMessage) {
	var req consultation.JoinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.peer.SendError("invalid join payload")
		return
	}
	if err := req.Validate(); err != nil {
		sess.peer.SendError(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), transcriptTimeout)
	defer cancel()

	appt, err := m.appts.Get(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			sess.peer.SendError("appointment not found")
		} else {
			slog.Error("Appointment lookup failed", "appointmentID", req.AppointmentID, "error", err)
			sess.peer.SendError("appointment lookup failed")
		}
		return
	}
	if !authorized(appt, req.UserID, req.UserType) {
		sess.peer.SendError("not a participant of this consultation")
		return
	}
	if appt.Status == appointments.StatusCompleted || appt.Status == appointments.StatusCancelled {
		sess.peer.SendError("consultation is no longer active")
		return
	}

	// One room per connection: joining a second consultation leaves the
	// first.
	if sess.binding != nil && sess.appointmentID != req.AppointmentID {
		m.consult.Relay().Leave(sess.appointmentID, sess.binding)
		sess.binding = nil
	}

	binding := &consult.Binding{
		ParticipantID: req.UserID,
		Role:          req.UserType,
		Peer:          sess.peer,
	}
	m.consult.Relay().Join(req.AppointmentID, binding)
	sess.appointmentID = req.AppointmentID
	sess.binding = binding

	// The binding is registered before the snapshot fetch so a message
	// the peer sends meanwhile is fanned out live instead of falling
	// between snapshot and stream. It may then appear in both; the
	// client drops fan-out duplicates by message id.
	messages, err := m.transcripts.GetTranscript(ctx, req.AppointmentID)
	if err != nil {
		slog.Error("Transcript fetch failed", "appointmentID", req.AppointmentID, "error", err)
		m.consult.Relay().Leave(req.AppointmentID, binding)
		sess.binding = nil
		sess.appointmentID = ""
		sess.peer.SendError("failed to load transcript")
		return
	}

	if err := sess.peer.SendEvent(consultation.EventJoined, consultation.JoinedPayload{Messages: messages}); err != nil {
		slog.Error("Failed to send join confirmation", "error", err)
		return
	}

	// The joining party has now seen the thread.
	if _, err := m.transcripts.MarkRead(ctx, req.AppointmentID, req.UserType); err != nil {
		log.Printf("[gateway] mark read failed for %s: %v", req.AppointmentID, err)
	}
}

// handleLeave removes the binding. Leaving twice is a no-op.
func (m *Module) handleLeave(sess *session, payload json.RawMessage) {
	var req consultation.JoinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.peer.SendError("invalid leave payload")
		return
	}

	if sess.binding == nil {
		return
	}
	m.consult.Relay().Leave(sess.appointmentID, sess.binding)
	sess.binding = nil
	sess.appointmentID = ""
}

// handleSendMessage relays a message to the room.
func (m *Module) handleSendMessage(sess *session, payload json.RawMessage) {
	var req consultation.SendMessagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.peer.SendError("invalid message payload")
		return
	}

	if sess.binding == nil || sess.appointmentID != req.AppointmentID {
		sess.peer.SendError("not joined to this consultation")
		return
	}

	if _, err := m.consult.Relay().Send(req.AppointmentID, sess.binding, req.Message); err != nil {
		sess.peer.SendError(err.Error())
	}
}

// handleTyping broadcasts the typing flag to the peer.
func (m *Module) handleTyping(sess *session, payload json.RawMessage, isTyping bool) {
	var req consultation.JoinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		sess.peer.SendError("invalid typing payload")
		return
	}

	if sess.binding == nil || sess.appointmentID != req.AppointmentID {
		return
	}
	m.consult.Relay().Typing(req.AppointmentID, sess.binding, isTyping)
}

// authorized checks that the joining user is the appointment's patient
// or doctor for the claimed role.
func authorized(appt *appointments.Appointment, userID string, role consultation.Role) bool {
	switch role {
	case consultation.RolePatient:
		return appt.PatientID == userID
	case consultation.RoleDoctor:
		return appt.DoctorID == userID
	default:
		return false
	}
}
