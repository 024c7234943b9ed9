package gateway

import (
	"time"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/appointments"
)

// BookAppointmentRequest is the API request to book a consultation.
type BookAppointmentRequest struct {
	PatientID   string    `json:"patient_id"`
	DoctorID    string    `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason,omitempty"`
}

// EndConsultationRequest is the API request to end a consultation.
type EndConsultationRequest struct {
	EndedBy consultation.Role `json:"ended_by"`
}

// UploadResponse is the API response for a stored attachment. The file
// reference is what the client embeds in an image/document message.
type UploadResponse struct {
	URL      string                   `json:"url"`
	Filename string                   `json:"filename"`
	Size     int64                    `json:"size"`
	Kind     consultation.MessageKind `json:"kind"`
}

// TranscriptResponse is the API response for a transcript reload.
type TranscriptResponse struct {
	AppointmentID string                 `json:"appointment_id"`
	Messages      []consultation.Message `json:"messages"`
	Total         int                    `json:"total"`
}

// AppointmentListResponse is the API response for listing a
// participant's appointments.
type AppointmentListResponse struct {
	Appointments []*appointments.Appointment `json:"appointments"`
	Total        int                         `json:"total"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
