package media

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
)

// Module provides attachment storage on the NATS JetStream Object
// Store.
type Module struct {
	store   *JetStreamObjectStore
	service *Service
	natsURL string
	bucket  string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the media module.
func NewModule() *Module {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	bucket := os.Getenv("MEDIA_BUCKET")
	if bucket == "" {
		bucket = "consult-media"
	}
	return &Module{
		natsURL: natsURL,
		bucket:  bucket,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "media"
}

// Start connects to NATS and opens the attachment bucket.
func (m *Module) Start(ctx context.Context) error {
	store, err := NewJetStreamObjectStore(m.natsURL, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		store.Close()
		return fmt.Errorf("failed to init bucket %s: %w", m.bucket, err)
	}

	m.store = store
	m.service = NewService(store)

	log.Printf("[media] Module started - bucket %s at %s", m.bucket, m.natsURL)
	return nil
}

// Stop closes the NATS connection.
func (m *Module) Stop(_ context.Context) error {
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			return fmt.Errorf("failed to close object store: %w", err)
		}
	}
	log.Println("[media] Module stopped")
	return nil
}

// Health reports the object store connection state.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.store == nil || !m.store.IsConnected() {
		return mono.HealthStatus{
			Healthy: false,
			Message: "object store not connected",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"bucket": m.bucket,
		},
	}
}

// Service exposes the media service to the gateway.
func (m *Module) Service() *Service {
	return m.service
}
