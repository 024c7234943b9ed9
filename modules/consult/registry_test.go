package consult

import (
	"testing"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
)

// nopPeer must not be zero-sized: distinct &nopPeer{} allocations would
// share one address, making every peer compare equal to the excluded one.
type nopPeer struct{ _ byte }

func (nopPeer) SendEvent(event string, payload any) error { return nil }

func binding(id string, role consultation.Role) *Binding {
	return &Binding{ParticipantID: id, Role: role, Peer: &nopPeer{}}
}

func TestRegistry_JoinCreatesRoomOnDemand(t *testing.T) {
	r := NewRegistry()

	prev := r.Join("A1", binding("p-1", consultation.RolePatient))
	if prev != nil {
		t.Errorf("Join() on fresh room returned superseded binding %v, want nil", prev)
	}
	if got := r.RoomCount(); got != 1 {
		t.Errorf("RoomCount() = %d, want 1", got)
	}
	if got := r.MemberCount("A1"); got != 1 {
		t.Errorf("MemberCount() = %d, want 1", got)
	}
}

func TestRegistry_RejoinSameRoleSupersedes(t *testing.T) {
	r := NewRegistry()

	first := binding("d-1", consultation.RoleDoctor)
	second := binding("d-1", consultation.RoleDoctor)

	r.Join("A1", first)
	prev := r.Join("A1", second)

	if prev != first {
		t.Errorf("Join() superseded = %v, want first binding", prev)
	}
	if got := r.MemberCount("A1"); got != 1 {
		t.Errorf("MemberCount() after rejoin = %d, want 1", got)
	}

	current, ok := r.Binding("A1", consultation.RoleDoctor)
	if !ok || current != second {
		t.Errorf("Binding() = %v, want the second (last-join-wins) binding", current)
	}
}

func TestRegistry_MembersOfExcludesCaller(t *testing.T) {
	r := NewRegistry()

	patient := binding("p-1", consultation.RolePatient)
	doctor := binding("d-1", consultation.RoleDoctor)
	r.Join("A1", patient)
	r.Join("A1", doctor)

	members := r.MembersOf("A1", patient.Peer)
	if len(members) != 1 {
		t.Fatalf("MembersOf() returned %d bindings, want 1", len(members))
	}
	if members[0] != doctor {
		t.Errorf("MembersOf() = %v, want the doctor binding", members[0])
	}

	all := r.MembersOf("A1", nil)
	if len(all) != 2 {
		t.Errorf("MembersOf(nil) returned %d bindings, want 2", len(all))
	}
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()

	patient := binding("p-1", consultation.RolePatient)
	r.Join("A1", patient)

	if !r.Leave("A1", patient) {
		t.Error("Leave() first call = false, want true")
	}
	if r.Leave("A1", patient) {
		t.Error("Leave() second call = true, want no-op false")
	}
	if got := r.RoomCount(); got != 0 {
		t.Errorf("RoomCount() after last leave = %d, want 0 (room discarded)", got)
	}
}

func TestRegistry_LeaveUnknownRoomIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Join("A1", binding("p-1", consultation.RolePatient))

	if r.Leave("A2", binding("p-9", consultation.RolePatient)) {
		t.Error("Leave() on unknown room = true, want false")
	}
	if got := r.MemberCount("A1"); got != 1 {
		t.Errorf("Leave() on unknown room affected other rooms: MemberCount = %d, want 1", got)
	}
}

func TestRegistry_SupersededLeaveKeepsNewBinding(t *testing.T) {
	r := NewRegistry()

	stale := binding("d-1", consultation.RoleDoctor)
	fresh := binding("d-1", consultation.RoleDoctor)
	r.Join("A1", stale)
	r.Join("A1", fresh)

	// The stale connection's disconnect cleanup must not evict the
	// reconnected binding.
	if r.Leave("A1", stale) {
		t.Error("Leave() by superseded binding = true, want false")
	}
	if _, ok := r.Binding("A1", consultation.RoleDoctor); !ok {
		t.Error("Binding() missing after superseded leave, want fresh binding kept")
	}
}

func TestRegistry_ClearEmptiesRoom(t *testing.T) {
	r := NewRegistry()

	r.Join("A1", binding("p-1", consultation.RolePatient))
	r.Join("A1", binding("d-1", consultation.RoleDoctor))

	members := r.Clear("A1")
	if len(members) != 2 {
		t.Errorf("Clear() returned %d bindings, want 2", len(members))
	}
	if got := r.RoomCount(); got != 0 {
		t.Errorf("RoomCount() after Clear = %d, want 0", got)
	}
	if r.Clear("A1") != nil {
		t.Error("Clear() on cleared room should return nil")
	}
}
