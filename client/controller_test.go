package client

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
)

// fakeConn scripts the server side of the connection: tests push
// inbound frames and inspect what the controller wrote.
type fakeConn struct {
	inbound chan []byte

	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-f.inbound
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return 1, data, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("write on closed connection")
	}
	f.writes = append(f.writes, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbound)
	}
	return nil
}

// serverSend frames an event the way the gateway does and feeds it to
// the controller.
func (f *fakeConn) serverSend(t *testing.T, event string, payload any) {
	t.Helper()
	env := consultation.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		env.Payload = data
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	f.inbound <- data
}

func (f *fakeConn) sentEvents(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]string, 0, len(f.writes))
	for _, w := range f.writes {
		var env consultation.Envelope
		if err := json.Unmarshal(w, &env); err != nil {
			t.Fatalf("unmarshal written frame: %v", err)
		}
		events = append(events, env.Event)
	}
	return events
}

// waitForState polls until the controller reaches the wanted state.
func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", c.State(), want)
}

// waitForEvents polls until the controller has written n frames.
func waitForEvents(t *testing.T, conn *fakeConn, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := conn.sentEvents(t)
		if len(events) >= n {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d written frames, have %v", n, conn.sentEvents(t))
	return nil
}

func join(t *testing.T, c *Controller, conn *fakeConn, snapshot []consultation.Message) {
	t.Helper()
	if err := c.Join("A1", "patient-1", consultation.RolePatient); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	conn.serverSend(t, consultation.EventJoined, consultation.JoinedPayload{Messages: snapshot})
	waitForState(t, c, StateJoined)
}

func TestController_JoinHandshake(t *testing.T) {
	conn := newFakeConn()
	var gotSnapshot []consultation.Message
	c := NewController(conn, Handlers{
		OnJoined: func(snapshot []consultation.Message) { gotSnapshot = snapshot },
	})
	defer c.Close()

	if got := c.State(); got != StateConnected {
		t.Fatalf("initial state = %v, want %v", got, StateConnected)
	}

	snapshot := []consultation.Message{
		{ID: "m1", AppointmentID: "A1", SenderRole: consultation.RoleDoctor, Kind: consultation.KindText, Content: "Hello"},
	}
	join(t, c, conn, snapshot)

	events := conn.sentEvents(t)
	if len(events) != 1 || events[0] != consultation.EventJoin {
		t.Fatalf("sent events = %v, want [%s]", events, consultation.EventJoin)
	}
	if len(gotSnapshot) != 1 || gotSnapshot[0].ID != "m1" {
		t.Fatalf("OnJoined snapshot = %v", gotSnapshot)
	}
	if msgs := c.Messages(); len(msgs) != 1 {
		t.Fatalf("Messages() = %v, want the snapshot", msgs)
	}
}

func TestController_JoinRejected(t *testing.T) {
	conn := newFakeConn()
	var gotErr string
	c := NewController(conn, Handlers{
		OnError: func(message string) { gotErr = message },
	})
	defer c.Close()

	if err := c.Join("A1", "stranger", consultation.RolePatient); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	conn.inbound <- []byte(`{"event":"error","error":"not a participant of this consultation"}`)

	waitForState(t, c, StateConnected)
	if gotErr == "" {
		t.Fatal("expected OnError to fire")
	}
}

func TestController_MessageReceivedAppends(t *testing.T) {
	conn := newFakeConn()
	c := NewController(conn, Handlers{})
	defer c.Close()

	join(t, c, conn, nil)

	conn.serverSend(t, consultation.EventMessageReceived, consultation.Message{
		ID: "m2", AppointmentID: "A1", SenderRole: consultation.RoleDoctor,
		Kind: consultation.KindText, Content: "How are you feeling?",
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(c.Messages()) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	msgs := c.Messages()
	if len(msgs) != 1 || msgs[0].Content != "How are you feeling?" {
		t.Fatalf("Messages() = %v", msgs)
	}
}

func TestController_DuplicateDeliveryKeepsOneCopy(t *testing.T) {
	conn := newFakeConn()
	delivered := 0
	c := NewController(conn, Handlers{
		OnMessage: func(consultation.Message) { delivered++ },
	})
	defer c.Close()

	// A message relayed during the join handshake can land in the
	// snapshot and again over the stream.
	msg := consultation.Message{
		ID: "m1", AppointmentID: "A1", SenderRole: consultation.RoleDoctor,
		Kind: consultation.KindText, Content: "while you were joining",
	}
	join(t, c, conn, []consultation.Message{msg})
	conn.serverSend(t, consultation.EventMessageReceived, msg)

	// A genuinely new message still comes through after the duplicate.
	conn.serverSend(t, consultation.EventMessageReceived, consultation.Message{
		ID: "m2", AppointmentID: "A1", SenderRole: consultation.RoleDoctor,
		Kind: consultation.KindText, Content: "and another",
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(c.Messages()) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Messages() has %d entries, want 2 (snapshot copy plus m2)", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Fatalf("Messages() ids = [%s, %s], want [m1, m2]", msgs[0].ID, msgs[1].ID)
	}
	if delivered != 1 {
		t.Errorf("OnMessage fired %d times, want 1 (duplicate suppressed)", delivered)
	}
}

func TestController_SendRequiresJoin(t *testing.T) {
	conn := newFakeConn()
	c := NewController(conn, Handlers{})
	defer c.Close()

	if err := c.SendText("hello"); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("SendText() before join error = %v, want ErrNotJoined", err)
	}
}

func TestController_EndedDisablesInput(t *testing.T) {
	conn := newFakeConn()
	ended := false
	c := NewController(conn, Handlers{
		OnEnded: func() { ended = true },
	})
	defer c.Close()

	join(t, c, conn, nil)
	conn.serverSend(t, consultation.EventEnded, nil)
	waitForState(t, c, StateEnded)

	if !ended {
		t.Fatal("expected OnEnded to fire")
	}
	if err := c.SendText("too late"); !errors.Is(err, ErrEnded) {
		t.Fatalf("SendText() after end error = %v, want ErrEnded", err)
	}
	if err := c.Join("A1", "patient-1", consultation.RolePatient); !errors.Is(err, ErrEnded) {
		t.Fatalf("Join() after end error = %v, want ErrEnded", err)
	}
}

func TestController_LeaveReturnsToConnected(t *testing.T) {
	conn := newFakeConn()
	c := NewController(conn, Handlers{})
	defer c.Close()

	join(t, c, conn, []consultation.Message{{ID: "m1"}})

	if err := c.Leave(); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if got := c.State(); got != StateConnected {
		t.Fatalf("state after leave = %v, want %v", got, StateConnected)
	}
	if msgs := c.Messages(); len(msgs) != 0 {
		t.Fatalf("Messages() after leave = %v, want empty", msgs)
	}
	if err := c.Leave(); !errors.Is(err, ErrNotJoined) {
		t.Fatalf("second Leave() error = %v, want ErrNotJoined", err)
	}

	events := conn.sentEvents(t)
	want := []string{consultation.EventJoin, consultation.EventLeave}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("sent events = %v, want %v", events, want)
	}
}

func TestController_TypingDebounce(t *testing.T) {
	conn := newFakeConn()
	c := NewController(conn, Handlers{})
	defer c.Close()

	join(t, c, conn, nil)

	// A burst of keystrokes inside the window produces exactly one
	// typing frame, then one stop-typing once the window lapses.
	for i := 0; i < 5; i++ {
		if err := c.Typing(); err != nil {
			t.Fatalf("Typing() error = %v", err)
		}
	}

	events := waitForEvents(t, conn, 3)
	want := []string{consultation.EventJoin, consultation.EventTyping, consultation.EventStopTyping}
	if len(events) != len(want) {
		t.Fatalf("sent events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("sent events = %v, want %v", events, want)
		}
	}
}

func TestController_SendCancelsTyping(t *testing.T) {
	conn := newFakeConn()
	c := NewController(conn, Handlers{})
	defer c.Close()

	join(t, c, conn, nil)

	if err := c.Typing(); err != nil {
		t.Fatalf("Typing() error = %v", err)
	}
	if err := c.SendText("done typing"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	// Past the debounce window no stop-typing frame should appear; the
	// message itself already ended the typing state.
	time.Sleep(TypingDebounce + 200*time.Millisecond)

	events := conn.sentEvents(t)
	want := []string{consultation.EventJoin, consultation.EventTyping, consultation.EventSendMessage}
	if len(events) != len(want) {
		t.Fatalf("sent events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("sent events = %v, want %v", events, want)
		}
	}
}

func TestController_PeerTypingTracksFlag(t *testing.T) {
	conn := newFakeConn()
	c := NewController(conn, Handlers{})
	defer c.Close()

	join(t, c, conn, nil)

	conn.serverSend(t, consultation.EventUserTyping, consultation.TypingPayload{
		UserType: consultation.RoleDoctor, IsTyping: true,
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.PeerTyping() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !c.PeerTyping() {
		t.Fatal("PeerTyping() = false, want true")
	}

	// An incoming message clears the indicator even without an explicit
	// stop-typing.
	conn.serverSend(t, consultation.EventMessageReceived, consultation.Message{
		ID: "m1", Kind: consultation.KindText, Content: "here",
	})
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !c.PeerTyping() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("PeerTyping() still true after message-received")
}
