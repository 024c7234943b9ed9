// Package gateway is the transport edge of the service: the Fiber HTTP
// server, the WebSocket endpoint speaking the consultation protocol,
// and the REST routes for appointments, transcripts and media.
package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/prusotamkrydv78/SathiCare-sub000/modules/appointments"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/consult"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/history"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/media"
)

// Module is the HTTP/WebSocket gateway.
type Module struct {
	app         *fiber.App
	port        string
	consult     *consult.Module
	appts       *appointments.Module
	media       *media.Module
	transcripts history.TranscriptPort
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the gateway. The consult, appointments and media
// modules are injected directly from main; the transcript port arrives
// through the framework's dependency wiring.
func NewModule(consultModule *consult.Module, apptsModule *appointments.Module, mediaModule *media.Module) *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &Module{
		port:    port,
		consult: consultModule,
		appts:   apptsModule,
		media:   mediaModule,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "gateway"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"history", "consult", "appointments", "media"}
}

// SetDependencyServiceContainer receives service containers from
// dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "history":
		m.transcripts = history.NewAdapter(container)
	}
}

// Start initializes the Fiber server.
func (m *Module) Start(_ context.Context) error {
	if m.transcripts == nil {
		return fmt.Errorf("history transcript dependency not set")
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "SaathiCare Consultation Service",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             32 * 1024 * 1024,
	})

	m.app.Use(recover.New())
	m.app.Use(loggerMiddleware())

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.setupRoutes()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[gateway] HTTP server started on :%s", m.port)
	return nil
}

// Stop gracefully shuts down the server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[gateway] Shutting down HTTP server...")
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":         m.port,
			"active_rooms": m.consult.Registry().RoomCount(),
		},
	}
}

// setupRoutes configures all HTTP and WebSocket routes.
func (m *Module) setupRoutes() {
	m.app.Get("/health", m.healthHandler)

	// WebSocket upgrade middleware
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	api := m.app.Group("/api/v1")

	api.Get("/appointments", m.listAppointments)
	api.Post("/appointments", m.bookAppointment)
	api.Get("/appointments/:id", m.getAppointment)
	api.Post("/appointments/:id/end", m.endConsultation)
	api.Post("/appointments/:id/cancel", m.cancelAppointment)

	api.Get("/consultations/:id/transcript", m.getTranscript)
	api.Post("/consultations/:id/media", m.uploadMedia)
	api.Get("/media/*", m.downloadMedia)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module":       "gateway",
			"active_rooms": m.consult.Registry().RoomCount(),
		},
	})
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// loggerMiddleware returns a Fiber middleware for request logging.
func loggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for WebSocket upgrade requests
		if c.Get("Upgrade") == "websocket" {
			return c.Next()
		}
		err := c.Next()
		log.Printf("[gateway] %s %s %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	}
}
