// Package client is a Go counterpart of the browser consultation
// client: it owns one WebSocket connection, tracks the session state a
// chat screen renders from, and debounces typing notifications so the
// wire sees state changes rather than keystrokes.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
)

// TypingDebounce is how long after the last keystroke the controller
// reports that typing has stopped.
const TypingDebounce = time.Second

// State is the lifecycle phase of a consultation session.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateJoining
	StateJoined
	StateEnded
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Session errors
var (
	ErrNotJoined = errors.New("not joined to a consultation")
	ErrEnded     = errors.New("consultation has ended")
)

// Conn is the subset of the WebSocket connection the controller uses.
// *websocket.Conn satisfies it; tests substitute a scripted fake.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Handlers are the UI-facing callbacks. All of them are optional and
// all are invoked from the controller's read goroutine.
type Handlers struct {
	OnJoined  func(snapshot []consultation.Message)
	OnMessage func(msg consultation.Message)
	OnJoin    func(role consultation.Role)
	OnLeave   func(role consultation.Role)
	OnTyping  func(role consultation.Role, isTyping bool)
	OnEnded   func()
	OnError   func(message string)
}

// Controller drives one consultation session over a WebSocket
// connection.
type Controller struct {
	conn     Conn
	handlers Handlers

	mu            sync.Mutex
	state         State
	appointmentID string
	userID        string
	role          consultation.Role
	messages      []consultation.Message
	peerTyping    bool

	typingMu    sync.Mutex
	typingTimer *time.Timer
	typingLive  bool

	done chan struct{}
}

// Dial connects to the consultation endpoint and starts the read loop.
func Dial(url string, handlers Handlers) (*Controller, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return NewController(conn, handlers), nil
}

// NewController wraps an established connection and starts the read
// loop.
func NewController(conn Conn, handlers Handlers) *Controller {
	c := &Controller{
		conn:     conn,
		handlers: handlers,
		state:    StateConnected,
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the transcript seen so far: the join
// snapshot plus every message received since.
func (c *Controller) Messages() []consultation.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]consultation.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// PeerTyping reports whether the other participant is currently typing.
func (c *Controller) PeerTyping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerTyping
}

// Join requests entry into a consultation room. The transition to
// StateJoined happens when the server confirms with the transcript
// snapshot; rejoining after a reconnect repeats the same handshake and
// refetches the snapshot.
func (c *Controller) Join(appointmentID, userID string, role consultation.Role) error {
	c.mu.Lock()
	if c.state == StateEnded {
		c.mu.Unlock()
		return ErrEnded
	}
	c.appointmentID = appointmentID
	c.userID = userID
	c.role = role
	c.state = StateJoining
	c.mu.Unlock()

	return c.send(consultation.EventJoin, consultation.JoinPayload{
		AppointmentID: appointmentID,
		UserID:        userID,
		UserType:      role,
	})
}

// Leave exits the current room. The connection stays open; the session
// can join another consultation afterwards.
func (c *Controller) Leave() error {
	c.mu.Lock()
	if c.state != StateJoined && c.state != StateJoining {
		c.mu.Unlock()
		return ErrNotJoined
	}
	payload := consultation.JoinPayload{
		AppointmentID: c.appointmentID,
		UserID:        c.userID,
		UserType:      c.role,
	}
	c.state = StateConnected
	c.messages = nil
	c.peerTyping = false
	c.mu.Unlock()

	c.cancelTyping()
	return c.send(consultation.EventLeave, payload)
}

// SendText sends a text message. Sending is refused once the
// consultation has ended.
func (c *Controller) SendText(content string) error {
	return c.sendMessage(consultation.MessageBody{
		Type:    consultation.KindText,
		Content: content,
	})
}

// SendFile sends an image or document message referencing an uploaded
// attachment.
func (c *Controller) SendFile(kind consultation.MessageKind, ref consultation.FileRef) error {
	return c.sendMessage(consultation.MessageBody{
		Type: kind,
		File: &ref,
	})
}

func (c *Controller) sendMessage(body consultation.MessageBody) error {
	c.mu.Lock()
	if c.state == StateEnded {
		c.mu.Unlock()
		return ErrEnded
	}
	if c.state != StateJoined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	payload := consultation.SendMessagePayload{
		AppointmentID: c.appointmentID,
		SenderID:      c.userID,
		SenderType:    c.role,
		Message:       body,
	}
	c.mu.Unlock()

	if err := body.Validate(); err != nil {
		return err
	}

	// A sent message ends the local typing state immediately.
	c.cancelTyping()
	return c.send(consultation.EventSendMessage, payload)
}

// Typing records a keystroke. The first keystroke sends a typing event;
// silence for the debounce window sends stop-typing. Keystrokes inside
// the window only push the deadline out, producing no traffic.
func (c *Controller) Typing() error {
	c.mu.Lock()
	if c.state != StateJoined {
		c.mu.Unlock()
		return ErrNotJoined
	}
	payload := consultation.JoinPayload{
		AppointmentID: c.appointmentID,
		UserID:        c.userID,
		UserType:      c.role,
	}
	c.mu.Unlock()

	c.typingMu.Lock()
	defer c.typingMu.Unlock()

	if c.typingTimer != nil {
		c.typingTimer.Reset(TypingDebounce)
		return nil
	}

	c.typingLive = true
	c.typingTimer = time.AfterFunc(TypingDebounce, func() {
		c.typingMu.Lock()
		c.typingTimer = nil
		live := c.typingLive
		c.typingLive = false
		c.typingMu.Unlock()

		if !live {
			return
		}
		if err := c.send(consultation.EventStopTyping, payload); err != nil {
			slog.Warn("Failed to send stop-typing", "error", err)
		}
	})

	return c.send(consultation.EventTyping, payload)
}

// cancelTyping drops any pending stop-typing timer without sending.
func (c *Controller) cancelTyping() {
	c.typingMu.Lock()
	defer c.typingMu.Unlock()
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	c.typingLive = false
}

// Close leaves the room if joined and closes the connection.
func (c *Controller) Close() error {
	if err := c.Leave(); err != nil && !errors.Is(err, ErrNotJoined) {
		slog.Warn("Leave on close failed", "error", err)
	}
	c.cancelTyping()
	return c.conn.Close()
}

// Done is closed when the read loop exits.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) send(event string, payload any) error {
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
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// hasMessageLocked reports whether a message id is already in the
// transcript. Caller holds c.mu.
func (c *Controller) hasMessageLocked(id string) bool {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) readLoop() {
	defer close(c.done)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.state != StateEnded {
				c.state = StateDisconnected
			}
			c.mu.Unlock()
			return
		}

		var env consultation.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			slog.Warn("Dropping unparseable server event", "error", err)
			continue
		}

		c.handle(env)
	}
}

func (c *Controller) handle(env consultation.Envelope) {
	switch env.Event {
	case consultation.EventJoined:
		var p consultation.JoinedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			slog.Warn("Bad consultation-joined payload", "error", err)
			return
		}
		c.mu.Lock()
		c.state = StateJoined
		c.messages = p.Messages
		c.mu.Unlock()
		if c.handlers.OnJoined != nil {
			c.handlers.OnJoined(p.Messages)
		}

	case consultation.EventMessageReceived:
		var msg consultation.Message
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			slog.Warn("Bad message-received payload", "error", err)
			return
		}
		c.mu.Lock()
		// A message relayed while the join snapshot was being built can
		// arrive both in the snapshot and over the stream; keep one.
		if c.hasMessageLocked(msg.ID) {
			c.mu.Unlock()
			return
		}
		c.messages = append(c.messages, msg)
		// An incoming message implies the peer stopped typing.
		c.peerTyping = false
		c.mu.Unlock()
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(msg)
		}

	case consultation.EventUserJoined:
		var p consultation.PresencePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		if c.handlers.OnJoin != nil {
			c.handlers.OnJoin(p.UserType)
		}

	case consultation.EventUserLeft:
		var p consultation.PresencePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		c.mu.Lock()
		c.peerTyping = false
		c.mu.Unlock()
		if c.handlers.OnLeave != nil {
			c.handlers.OnLeave(p.UserType)
		}

	case consultation.EventUserTyping:
		var p consultation.TypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		c.mu.Lock()
		c.peerTyping = p.IsTyping
		c.mu.Unlock()
		if c.handlers.OnTyping != nil {
			c.handlers.OnTyping(p.UserType, p.IsTyping)
		}

	case consultation.EventEnded:
		c.mu.Lock()
		c.state = StateEnded
		c.peerTyping = false
		c.mu.Unlock()
		c.cancelTyping()
		if c.handlers.OnEnded != nil {
			c.handlers.OnEnded()
		}

	case consultation.EventError:
		c.mu.Lock()
		if c.state == StateJoining {
			c.state = StateConnected
		}
		c.mu.Unlock()
		if c.handlers.OnError != nil {
			c.handlers.OnError(env.Error)
		}

	default:
		slog.Warn("Unknown server event", "event", env.Event)
	}
}
