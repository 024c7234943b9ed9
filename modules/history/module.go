// Package history is the system of record for consultation transcripts.
// The relay hands messages over through the event bus and never waits
// for the write; reads happen at join time to build the transcript
// snapshot.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/prusotamkrydv78/SathiCare-sub000/events"
)

// Module provides transcript storage backed by GORM + SQLite.
type Module struct {
	db     *gorm.DB
	repo   *Repository
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the history module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "consultations.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "history"
}

// Start opens the database and runs migrations.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[history] Connecting to SQLite database: %s", m.dbPath)

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m.db = db

	if err := m.db.AutoMigrate(&StoredMessage{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewRepository(m.db)

	log.Println("[history] Module started")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[history] Database connection closed")
	return nil
}

// Health performs a database ping.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// RegisterServices registers the transcript request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetTranscript, json.Unmarshal, json.Marshal, m.getTranscript,
	); err != nil {
		return fmt.Errorf("failed to register get_transcript service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceMarkRead, json.Unmarshal, json.Marshal, m.markRead,
	); err != nil {
		return fmt.Errorf("failed to register mark_read service: %w", err)
	}

	log.Printf("[history] Registered services: services.history.{get_transcript,mark_read}")
	return nil
}

// RegisterEventConsumers subscribes to MessageSent for the
// fire-and-forget transcript write.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	log.Println("[history] Registered event consumers: MessageSent")
	return nil
}

// handleMessageSent appends the message to the transcript. A failed
// write is logged and dropped: real-time delivery already happened and
// the sender is never told about a persistence gap.
func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	if err := m.repo.Append(event.Message); err != nil {
		log.Printf("[history] failed to store message %s: %v", event.Message.ID, err)
		return nil // don't retry; the relay path is at-most-once
	}
	return nil
}

// getTranscript handles the get_transcript service request.
func (m *Module) getTranscript(_ context.Context, req GetTranscriptRequest, _ *mono.Msg) (GetTranscriptResponse, error) {
	if req.AppointmentID == "" {
		return GetTranscriptResponse{}, fmt.Errorf("appointment_id is required")
	}
	messages, err := m.repo.Transcript(req.AppointmentID)
	if err != nil {
		return GetTranscriptResponse{}, err
	}
	return GetTranscriptResponse{Messages: messages}, nil
}

// markRead handles the mark_read service request.
func (m *Module) markRead(_ context.Context, req MarkReadRequest, _ *mono.Msg) (MarkReadResponse, error) {
	if req.AppointmentID == "" {
		return MarkReadResponse{}, fmt.Errorf("appointment_id is required")
	}
	updated, err := m.repo.MarkRead(req.AppointmentID, req.Reader)
	if err != nil {
		return MarkReadResponse{}, err
	}
	return MarkReadResponse{Updated: updated}, nil
}

// Repo exposes the repository for in-process callers and tests.
func (m *Module) Repo() *Repository {
	return m.repo
}
