package consult

import (
	"context"
	"log"

	"github.com/go-monolith/mono"

	"github.com/prusotamkrydv78/SathiCare-sub000/events"
)

// Module owns the in-memory session registry and the message relay.
type Module struct {
	registry  *Registry
	relay     *Relay
	eventBus  mono.EventBus
	cancelRun context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventBusAwareModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the consult module.
func NewModule() *Module {
	registry := NewRegistry()
	return &Module{
		registry: registry,
		relay:    NewRelay(registry),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "consult"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
	m.relay.SetEventBus(bus)
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.ParticipantJoinedV1.ToBase(),
		events.ParticipantLeftV1.ToBase(),
		events.ConsultationEndedV1.ToBase(),
	}
}

// Start launches the relay dispatch loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelRun = cancel
	go m.relay.Run(ctx)
	log.Println("[consult] Module started - relay loop running")
	return nil
}

// Stop shuts down the relay loop.
func (m *Module) Stop(_ context.Context) error {
	rooms := m.registry.RoomCount()
	if m.cancelRun != nil {
		m.cancelRun()
		m.relay.Wait()
	}
	log.Printf("[consult] Module stopped - %d rooms were active", rooms)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_rooms": m.registry.RoomCount(),
		},
	}
}

// Registry exposes the session registry to the gateway.
func (m *Module) Registry() *Registry {
	return m.registry
}

// Relay exposes the message relay to the gateway.
func (m *Module) Relay() *Relay {
	return m.relay
}
