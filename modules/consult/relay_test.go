package consult

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
)

type capturedEvent struct {
	Event   string
	Payload any
}

type recordingPeer struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *recordingPeer) SendEvent(event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{Event: event, Payload: payload})
	return nil
}

func (p *recordingPeer) captured() []capturedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]capturedEvent, len(p.events))
	copy(out, p.events)
	return out
}

// waitForEvents polls until the peer has received at least n events.
func waitForEvents(t *testing.T, p *recordingPeer, n int) []capturedEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := p.captured(); len(events) >= n {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, got %d", n, len(p.captured()))
	return nil
}

func startRelay(t *testing.T) (*Relay, *Registry) {
	t.Helper()
	registry := NewRegistry()
	relay := NewRelay(registry)

	ctx, cancel := context.WithCancel(context.Background())
	go relay.Run(ctx)
	t.Cleanup(func() {
		cancel()
		relay.Wait()
	})
	return relay, registry
}

func TestRelay_TwoPartyChat(t *testing.T) {
	relay, _ := startRelay(t)

	patientPeer := &recordingPeer{}
	doctorPeer := &recordingPeer{}
	patient := &Binding{ParticipantID: "p-1", Role: consultation.RolePatient, Peer: patientPeer}
	doctor := &Binding{ParticipantID: "d-1", Role: consultation.RoleDoctor, Peer: doctorPeer}

	relay.Join("A1", patient)
	relay.Join("A1", doctor)

	// Patient sees the doctor arrive.
	joined := waitForEvents(t, patientPeer, 1)
	if joined[0].Event != consultation.EventUserJoined {
		t.Fatalf("patient event = %q, want %q", joined[0].Event, consultation.EventUserJoined)
	}

	msg, err := relay.Send("A1", patient, consultation.MessageBody{
		Type:    consultation.KindText,
		Content: "Hello",
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if msg.SenderRole != consultation.RolePatient {
		t.Errorf("Send() sender role = %q, want %q", msg.SenderRole, consultation.RolePatient)
	}

	received := waitForEvents(t, doctorPeer, 1)
	if received[0].Event != consultation.EventMessageReceived {
		t.Fatalf("doctor event = %q, want %q", received[0].Event, consultation.EventMessageReceived)
	}
	delivered, ok := received[0].Payload.(consultation.Message)
	if !ok {
		t.Fatalf("doctor payload type = %T, want consultation.Message", received[0].Payload)
	}
	if delivered.Content != "Hello" {
		t.Errorf("delivered content = %q, want %q", delivered.Content, "Hello")
	}
	if delivered.SenderRole != consultation.RolePatient {
		t.Errorf("delivered sender role = %q, want %q", delivered.SenderRole, consultation.RolePatient)
	}

	// The sender must not receive an echo of its own message.
	for _, e := range patientPeer.captured() {
		if e.Event == consultation.EventMessageReceived {
			t.Errorf("sender received its own message back: %+v", e)
		}
	}
}

func TestRelay_OrderPreservedPerSender(t *testing.T) {
	relay, _ := startRelay(t)

	patientPeer := &recordingPeer{}
	doctorPeer := &recordingPeer{}
	patient := &Binding{ParticipantID: "p-1", Role: consultation.RolePatient, Peer: patientPeer}
	doctor := &Binding{ParticipantID: "d-1", Role: consultation.RoleDoctor, Peer: doctorPeer}

	relay.Join("A1", patient)
	relay.Join("A1", doctor)

	contents := []string{"first", "second", "third", "fourth"}
	for _, c := range contents {
		if _, err := relay.Send("A1", patient, consultation.MessageBody{
			Type:    consultation.KindText,
			Content: c,
		}); err != nil {
			t.Fatalf("Send(%q) unexpected error: %v", c, err)
		}
	}

	// user-joined for the doctor's arrival never reaches the doctor, so
	// the doctor's stream should be exactly the four messages in order.
	received := waitForEvents(t, doctorPeer, len(contents))
	var got []string
	for _, e := range received {
		if e.Event != consultation.EventMessageReceived {
			continue
		}
		msg := e.Payload.(consultation.Message)
		got = append(got, msg.Content)
	}
	if len(got) != len(contents) {
		t.Fatalf("doctor received %d messages, want %d", len(got), len(contents))
	}
	for i := range contents {
		if got[i] != contents[i] {
			t.Errorf("message %d = %q, want %q (reordered)", i, got[i], contents[i])
		}
	}
}

func TestRelay_SendToEmptyRoomIsNotAnError(t *testing.T) {
	relay, _ := startRelay(t)

	lonely := &Binding{ParticipantID: "p-1", Role: consultation.RolePatient, Peer: &recordingPeer{}}
	relay.Join("A1", lonely)

	// No other live member: the message is dropped from real-time
	// delivery, which the relay treats as normal.
	if _, err := relay.Send("A1", lonely, consultation.MessageBody{
		Type:    consultation.KindText,
		Content: "anyone there?",
	}); err != nil {
		t.Fatalf("Send() to empty room returned error: %v", err)
	}
}

func TestRelay_SendRejectsInvalidBody(t *testing.T) {
	relay, _ := startRelay(t)

	patient := &Binding{ParticipantID: "p-1", Role: consultation.RolePatient, Peer: &recordingPeer{}}
	relay.Join("A1", patient)

	if _, err := relay.Send("A1", patient, consultation.MessageBody{Type: "video"}); err == nil {
		t.Error("Send() with unknown kind expected error, got nil")
	}
	if _, err := relay.Send("A1", patient, consultation.MessageBody{Type: consultation.KindText}); err == nil {
		t.Error("Send() with empty text expected error, got nil")
	}
}

func TestRelay_TypingReachesPeerOnly(t *testing.T) {
	relay, _ := startRelay(t)

	patientPeer := &recordingPeer{}
	doctorPeer := &recordingPeer{}
	patient := &Binding{ParticipantID: "p-1", Role: consultation.RolePatient, Peer: patientPeer}
	doctor := &Binding{ParticipantID: "d-1", Role: consultation.RoleDoctor, Peer: doctorPeer}

	relay.Join("A1", patient)
	relay.Join("A1", doctor)

	relay.Typing("A1", patient, true)
	relay.Typing("A1", patient, false)

	received := waitForEvents(t, doctorPeer, 2)
	var flags []bool
	for _, e := range received {
		if e.Event != consultation.EventUserTyping {
			continue
		}
		p := e.Payload.(consultation.TypingPayload)
		if p.UserType != consultation.RolePatient {
			t.Errorf("typing userType = %q, want %q", p.UserType, consultation.RolePatient)
		}
		flags = append(flags, p.IsTyping)
	}
	if len(flags) != 2 || !flags[0] || flags[1] {
		t.Errorf("typing flags = %v, want [true false]", flags)
	}

	for _, e := range patientPeer.captured() {
		if e.Event == consultation.EventUserTyping {
			t.Errorf("sender received its own typing signal: %+v", e)
		}
	}
}

func TestRelay_EndReachesAllMembersAndClearsRoom(t *testing.T) {
	relay, registry := startRelay(t)

	patientPeer := &recordingPeer{}
	doctorPeer := &recordingPeer{}
	relay.Join("A1", &Binding{ParticipantID: "p-1", Role: consultation.RolePatient, Peer: patientPeer})
	relay.Join("A1", &Binding{ParticipantID: "d-1", Role: consultation.RoleDoctor, Peer: doctorPeer})

	relay.End("A1", consultation.RoleDoctor)

	for _, peer := range []*recordingPeer{patientPeer, doctorPeer} {
		events := waitForEvents(t, peer, 1)
		found := false
		for _, e := range events {
			if e.Event == consultation.EventEnded {
				found = true
			}
		}
		if !found {
			t.Errorf("peer did not receive %s: %+v", consultation.EventEnded, events)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for registry.RoomCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := registry.RoomCount(); got != 0 {
		t.Errorf("RoomCount() after End = %d, want 0", got)
	}
}

func TestRelay_LeaveAnnouncesDeparture(t *testing.T) {
	relay, _ := startRelay(t)

	patientPeer := &recordingPeer{}
	doctorPeer := &recordingPeer{}
	patient := &Binding{ParticipantID: "p-1", Role: consultation.RolePatient, Peer: patientPeer}
	doctor := &Binding{ParticipantID: "d-1", Role: consultation.RoleDoctor, Peer: doctorPeer}

	relay.Join("A1", patient)
	relay.Join("A1", doctor)
	relay.Leave("A1", patient)

	received := waitForEvents(t, doctorPeer, 1)
	found := false
	for _, e := range received {
		if e.Event == consultation.EventUserLeft {
			p := e.Payload.(consultation.PresencePayload)
			if p.UserType != consultation.RolePatient {
				t.Errorf("user-left userType = %q, want %q", p.UserType, consultation.RolePatient)
			}
			found = true
		}
	}
	if !found {
		t.Errorf("doctor did not receive %s: %+v", consultation.EventUserLeft, received)
	}
}
