package consult

import (
	"sync"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
)

// Peer is the connection handle held for a joined participant. The
// gateway wraps the underlying WebSocket connection behind it so the
// registry never touches transport types.
type Peer interface {
	SendEvent(event string, payload any) error
}

// Binding is one joined party: participant identity, role and the live
// connection handle.
type Binding struct {
	ParticipantID string
	Role          consultation.Role
	Peer          Peer
}

// Registry maps appointment ids to the currently connected bindings.
// A room holds at most one binding per role; a second join by the same
// role supersedes the prior connection (last-join-wins reconnect
// semantics). Rooms are created on first join and discarded when the
// last member leaves. Membership is pure in-memory session state.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[consultation.Role]*Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[consultation.Role]*Binding),
	}
}

// Join registers a binding, creating the room on demand. It returns the
// superseded binding when the same role was already connected, nil
// otherwise.
func (r *Registry) Join(appointmentID string, b *Binding) *Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[appointmentID]
	if room == nil {
		room = make(map[consultation.Role]*Binding)
		r.rooms[appointmentID] = room
	}

	prev := room[b.Role]
	room[b.Role] = b
	return prev
}

// Leave removes the binding if it is still the registered one for its
// role. A superseded connection's deferred leave is a no-op, as is
// leaving twice or leaving a room that does not exist.
func (r *Registry) Leave(appointmentID string, b *Binding) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[appointmentID]
	if room == nil {
		return false
	}

	current, ok := room[b.Role]
	if !ok || current != b {
		return false
	}

	delete(room, b.Role)
	if len(room) == 0 {
		delete(r.rooms, appointmentID)
	}
	return true
}

// Clear removes every binding of a room and returns them. Used when a
// consultation is explicitly ended.
func (r *Registry) Clear(appointmentID string) []*Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[appointmentID]
	if room == nil {
		return nil
	}

	members := make([]*Binding, 0, len(room))
	for _, b := range room {
		members = append(members, b)
	}
	delete(r.rooms, appointmentID)
	return members
}

// MembersOf returns the room's bindings excluding the given peer. The
// relay uses it for fan-out targeting so a sender never receives its
// own message back.
func (r *Registry) MembersOf(appointmentID string, exclude Peer) []*Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[appointmentID]
	if room == nil {
		return nil
	}

	members := make([]*Binding, 0, len(room))
	for _, b := range room {
		if exclude != nil && b.Peer == exclude {
			continue
		}
		members = append(members, b)
	}
	return members
}

// Binding returns the current binding for a role, if connected.
func (r *Registry) Binding(appointmentID string, role consultation.Role) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[appointmentID]
	if room == nil {
		return nil, false
	}
	b, ok := room[role]
	return b, ok
}

// RoomCount returns the number of active rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// MemberCount returns the number of bindings in a room.
func (r *Registry) MemberCount(appointmentID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[appointmentID])
}
