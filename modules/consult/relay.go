package consult

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/go-monolith/mono"
	"github.com/google/uuid"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
	"github.com/prusotamkrydv78/SathiCare-sub000/events"
)

// broadcast is one fan-out unit processed by the relay loop.
type broadcast struct {
	appointmentID string
	exclude       Peer
	event         string
	payload       any
	clearRoom     bool
}

// Relay accepts outbound events from one participant and delivers them
// to the other members of the room. All fan-out runs on a single
// dispatch goroutine draining a FIFO channel, so events enqueued by one
// sender reach peers in the order they were accepted. Persistence is
// not part of this path: the relay publishes a MessageSent event on the
// bus and moves on, so a slow or failing store write never delays
// delivery.
type Relay struct {
	registry *Registry
	bus      mono.EventBus
	dispatch chan *broadcast
	done     chan struct{}
}

// NewRelay creates a relay over the given registry.
func NewRelay(registry *Registry) *Relay {
	return &Relay{
		registry: registry,
		dispatch: make(chan *broadcast, 256),
		done:     make(chan struct{}),
	}
}

// SetEventBus wires the bus used for fire-and-forget persistence and
// lifecycle events. A nil bus disables publishing.
func (r *Relay) SetEventBus(bus mono.EventBus) {
	r.bus = bus
}

// Run drains the dispatch channel until the context is cancelled.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[consult] relay loop stopped")
			close(r.done)
			return
		case b := <-r.dispatch:
			r.deliver(b)
		}
	}
}

// Wait blocks until the relay loop has stopped.
func (r *Relay) Wait() {
	<-r.done
}

func (r *Relay) deliver(b *broadcast) {
	members := r.registry.MembersOf(b.appointmentID, b.exclude)
	for _, m := range members {
		if err := m.Peer.SendEvent(b.event, b.payload); err != nil {
			log.Printf("[consult] failed to deliver %s to %s/%s: %v",
				b.event, b.appointmentID, m.Role, err)
		}
	}
	if b.clearRoom {
		r.registry.Clear(b.appointmentID)
	}
}

func (r *Relay) enqueue(b *broadcast) {
	r.dispatch <- b
}

// Join registers a binding (creating the room on demand), announces the
// arrival to the other member and publishes a ParticipantJoined event.
// A prior connection for the same role is superseded silently.
func (r *Relay) Join(appointmentID string, b *Binding) {
	prev := r.registry.Join(appointmentID, b)
	if prev != nil {
		log.Printf("[consult] superseded %s connection in room %s", b.Role, appointmentID)
	}

	r.enqueue(&broadcast{
		appointmentID: appointmentID,
		exclude:       b.Peer,
		event:         consultation.EventUserJoined,
		payload:       consultation.PresencePayload{UserType: b.Role},
	})

	r.publishJoined(appointmentID, b)
}

// Leave removes the binding if it is still current and announces the
// departure. Leaving twice, or after being superseded, is a no-op.
func (r *Relay) Leave(appointmentID string, b *Binding) {
	if !r.registry.Leave(appointmentID, b) {
		return
	}

	r.enqueue(&broadcast{
		appointmentID: appointmentID,
		exclude:       b.Peer,
		event:         consultation.EventUserLeft,
		payload:       consultation.PresencePayload{UserType: b.Role},
	})

	r.publishLeft(appointmentID, b)
}

// Send builds a Message from the body, queues delivery to every other
// room member and publishes MessageSent for the history store. The
// sender never receives its own message back; when the room has no
// other live member the message is simply not delivered in real time.
func (r *Relay) Send(appointmentID string, sender *Binding, body consultation.MessageBody) (consultation.Message, error) {
	if err := body.Validate(); err != nil {
		return consultation.Message{}, err
	}

	msg := consultation.Message{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		SenderID:      sender.ParticipantID,
		SenderRole:    sender.Role,
		Kind:          body.Type,
		Content:       body.Content,
		File:          body.File,
		Timestamp:     time.Now(),
	}

	r.enqueue(&broadcast{
		appointmentID: appointmentID,
		exclude:       sender.Peer,
		event:         consultation.EventMessageReceived,
		payload:       msg,
	})

	r.publishMessageSent(msg)
	return msg, nil
}

// Typing broadcasts the typing flag to the other room members. Typing
// state is ephemeral; the client owns the debounce.
func (r *Relay) Typing(appointmentID string, sender *Binding, isTyping bool) {
	r.enqueue(&broadcast{
		appointmentID: appointmentID,
		exclude:       sender.Peer,
		event:         consultation.EventUserTyping,
		payload: consultation.TypingPayload{
			UserType: sender.Role,
			IsTyping: isTyping,
		},
	})
}

// End broadcasts the terminal consultation-ended event to every member,
// then discards the room. Clients receiving it must stop sending.
func (r *Relay) End(appointmentID string, endedBy consultation.Role) {
	r.enqueue(&broadcast{
		appointmentID: appointmentID,
		event:         consultation.EventEnded,
		clearRoom:     true,
	})

	if r.bus == nil {
		return
	}
	event := events.ConsultationEndedEvent{
		AppointmentID: appointmentID,
		EndedBy:       endedBy,
		Timestamp:     time.Now(),
	}
	if err := events.ConsultationEndedV1.Publish(r.bus, event, nil); err != nil {
		slog.Warn("Failed to publish ConsultationEnded event", "error", err)
	}
}

func (r *Relay) publishMessageSent(msg consultation.Message) {
	if r.bus == nil {
		return
	}
	if err := events.MessageSentV1.Publish(r.bus, events.MessageSentEvent{Message: msg}, nil); err != nil {
		// The transcript write is fire-and-forget; delivery already
		// happened or is queued, so only log the gap.
		slog.Warn("Failed to publish MessageSent event", "error", err, "messageID", msg.ID)
	}
}

func (r *Relay) publishJoined(appointmentID string, b *Binding) {
	if r.bus == nil {
		return
	}
	event := events.ParticipantJoinedEvent{
		AppointmentID: appointmentID,
		ParticipantID: b.ParticipantID,
		Role:          b.Role,
		Timestamp:     time.Now(),
	}
	if err := events.ParticipantJoinedV1.Publish(r.bus, event, nil); err != nil {
		slog.Warn("Failed to publish ParticipantJoined event", "error", err)
	}
}

func (r *Relay) publishLeft(appointmentID string, b *Binding) {
	if r.bus == nil {
		return
	}
	event := events.ParticipantLeftEvent{
		AppointmentID: appointmentID,
		ParticipantID: b.ParticipantID,
		Role:          b.Role,
		Timestamp:     time.Now(),
	}
	if err := events.ParticipantLeftV1.Publish(r.bus, event, nil); err != nil {
		slog.Warn("Failed to publish ParticipantLeft event", "error", err)
	}
}
