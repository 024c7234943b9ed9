package appointments

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/prusotamkrydv78/SathiCare-sub000/events"
)

const cacheTTL = 5 * time.Minute

// Module provides appointment storage with a Redis lookup cache.
type Module struct {
	db        *gorm.DB
	repo      *Repository
	cache     *Cache
	redisAddr string
	dbPath    string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the appointments module.
func NewModule() *Module {
	dbPath := os.Getenv("APPOINTMENTS_DB_PATH")
	if dbPath == "" {
		dbPath = "appointments.db"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	return &Module{
		dbPath:    dbPath,
		redisAddr: redisAddr,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "appointments"
}

// Start opens the database, runs migrations and connects the cache.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[appointments] Connecting to SQLite database: %s", m.dbPath)

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

	if err := m.db.AutoMigrate(&Appointment{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.repo = NewRepository(m.db)

	client := redis.NewClient(&redis.Options{Addr: m.redisAddr})
	m.cache = NewCache(client, "appt:", cacheTTL)

	log.Printf("[appointments] Module started (cache at %s)", m.redisAddr)
	return nil
}

// Stop closes the database and cache connections.
func (m *Module) Stop(_ context.Context) error {
	if m.cache != nil {
		if err := m.cache.client.Close(); err != nil {
			log.Printf("[appointments] failed to close redis client: %v", err)
		}
	}
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

	log.Println("[appointments] Database connection closed")
	return nil
}

// Health performs a database ping and reports cache counters.
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

	details := map[string]any{
		"driver": "sqlite",
		"path":   m.dbPath,
	}
	if m.cache != nil {
		details["cache"] = m.cache.Stats()
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

// RegisterEventConsumers ties appointment status to the consultation
// lifecycle: the first join moves a scheduled appointment to
// in_progress, and ending the consultation completes it.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.ParticipantJoinedV1, m.handleParticipantJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register ParticipantJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.ConsultationEndedV1, m.handleConsultationEnded, m,
	); err != nil {
		return fmt.Errorf("failed to register ConsultationEnded consumer: %w", err)
	}

	log.Println("[appointments] Registered event consumers: ParticipantJoined, ConsultationEnded")
	return nil
}

func (m *Module) handleParticipantJoined(ctx context.Context, event events.ParticipantJoinedEvent, _ *mono.Msg) error {
	appt, err := m.repo.FindByID(event.AppointmentID)
	if err != nil {
		log.Printf("[appointments] join event for unknown appointment %s: %v", event.AppointmentID, err)
		return nil
	}
	if appt.Status != StatusScheduled {
		return nil
	}

	if err := m.repo.UpdateStatus(event.AppointmentID, StatusInProgress); err != nil {
		log.Printf("[appointments] failed to mark %s in progress: %v", event.AppointmentID, err)
		return nil
	}
	m.invalidate(ctx, event.AppointmentID)
	return nil
}

func (m *Module) handleConsultationEnded(ctx context.Context, event events.ConsultationEndedEvent, _ *mono.Msg) error {
	if err := m.repo.UpdateStatus(event.AppointmentID, StatusCompleted); err != nil {
		log.Printf("[appointments] failed to complete %s: %v", event.AppointmentID, err)
		return nil
	}
	m.invalidate(ctx, event.AppointmentID)
	return nil
}

func (m *Module) invalidate(ctx context.Context, id string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, id); err != nil {
		log.Printf("[appointments] cache invalidation failed for %s: %v", id, err)
	}
}

// Get looks up an appointment, serving from the cache when possible. A
// cache error degrades to a direct database read.
func (m *Module) Get(ctx context.Context, id string) (*Appointment, error) {
	if m.cache != nil {
		appt, hit, err := m.cache.Get(ctx, id)
		if err != nil {
			log.Printf("[appointments] cache read failed for %s: %v", id, err)
		} else if hit {
			return appt, nil
		}
	}

	appt, err := m.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, appt); err != nil {
			log.Printf("[appointments] cache write failed for %s: %v", id, err)
		}
	}
	return appt, nil
}

// Book creates a new scheduled appointment.
func (m *Module) Book(appt *Appointment) (*Appointment, error) {
	if err := appt.Validate(); err != nil {
		return nil, err
	}
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	appt.Status = StatusScheduled

	if err := m.repo.Create(appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Cancel marks an appointment cancelled and drops it from the cache.
func (m *Module) Cancel(ctx context.Context, id string) error {
	if err := m.repo.UpdateStatus(id, StatusCancelled); err != nil {
		return err
	}
	m.invalidate(ctx, id)
	return nil
}

// ListFor returns a participant's appointments, most recent first.
func (m *Module) ListFor(participantID string) ([]*Appointment, error) {
	return m.repo.FindByParticipant(participantID)
}
