package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/prusotamkrydv78/SathiCare-sub000/modules/appointments"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/consult"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/gateway"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/history"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/media"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== SaathiCare Consultation Service ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	historyModule := history.NewModule()
	appointmentsModule := appointments.NewModule()
	mediaModule := media.NewModule()
	consultModule := consult.NewModule()
	gatewayModule := gateway.NewModule(consultModule, appointmentsModule, mediaModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - history: transcript store (ServiceProviderModule + EventConsumerModule)
	// - appointments: appointment records + Redis cache (EventConsumerModule)
	// - media: attachment object store
	// - consult: room registry + relay (EventEmitterModule)
	// - gateway: Fiber HTTP/WebSocket edge (DependentModule on history)
	app.Register(historyModule)
	app.Register(appointmentsModule)
	app.Register(mediaModule)
	app.Register(consultModule)
	app.Register(gatewayModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Transcript Store: SQLite via GORM")
	log.Println("  - Appointment Cache: Redis")
	log.Println("  - Attachment Store: NATS JetStream Object Store")
	log.Printf("  - NATS URL: %s", natsURL)
	log.Printf("  - Redis: %s", redisAddr)
	log.Println("")
	log.Println("Event-Driven Flow:")
	log.Println("  - MessageSent events -> history module -> transcript store")
	log.Println("  - ParticipantJoined events -> appointments module -> status in_progress")
	log.Println("  - ConsultationEnded events -> appointments module -> status completed")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                                - Health check")
	log.Println("  GET    /api/v1/appointments?participant=<id>  - List appointments")
	log.Println("  POST   /api/v1/appointments                   - Book an appointment")
	log.Println("  GET    /api/v1/appointments/:id               - Get appointment details")
	log.Println("  POST   /api/v1/appointments/:id/end           - End the consultation")
	log.Println("  POST   /api/v1/appointments/:id/cancel        - Cancel the appointment")
	log.Println("  GET    /api/v1/consultations/:id/transcript   - Get the transcript")
	log.Println("  POST   /api/v1/consultations/:id/media        - Upload an attachment")
	log.Println("  GET    /api/v1/media/*                        - Download an attachment")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Events: join-consultation, leave-consultation, send-message, typing, stop-typing")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
