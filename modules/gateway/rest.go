package gateway

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/appointments"
	"github.com/prusotamkrydv78/SathiCare-sub000/modules/media"
)

// listAppointments handles GET /api/v1/appointments?participant=<id>.
func (m *Module) listAppointments(c *fiber.Ctx) error {
	participant := c.Query("participant")
	if participant == "" {
		return badRequest(c, "participant query parameter is required")
	}

	appts, err := m.appts.ListFor(participant)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(AppointmentListResponse{
		Appointments: appts,
		Total:        len(appts),
	})
}

// bookAppointment handles POST /api/v1/appointments.
func (m *Module) bookAppointment(c *fiber.Ctx) error {
	var req BookAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	appt, err := m.appts.Book(&appointments.Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		Reason:      req.Reason,
	})
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(appt)
}

// getAppointment handles GET /api/v1/appointments/:id.
func (m *Module) getAppointment(c *fiber.Ctx) error {
	appt, err := m.appts.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return notFound(c, "appointment not found")
		}
		return internalError(c, err)
	}
	return c.JSON(appt)
}

// endConsultation handles POST /api/v1/appointments/:id/end. The ended
// event fans out to every connected member and the room is discarded;
// the appointment completes through the ConsultationEnded consumer.
func (m *Module) endConsultation(c *fiber.Ctx) error {
	id := c.Params("id")

	var req EndConsultationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if _, err := consultation.ParseRole(string(req.EndedBy)); err != nil {
		return badRequest(c, err.Error())
	}

	appt, err := m.appts.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return notFound(c, "appointment not found")
		}
		return internalError(c, err)
	}
	if appt.Status == appointments.StatusCompleted || appt.Status == appointments.StatusCancelled {
		return badRequest(c, "consultation is not active")
	}

	m.consult.Relay().End(id, req.EndedBy)
	return c.JSON(fiber.Map{"status": "ended"})
}

// cancelAppointment handles POST /api/v1/appointments/:id/cancel.
func (m *Module) cancelAppointment(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := m.appts.Cancel(c.Context(), id); err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return notFound(c, "appointment not found")
		}
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{"status": "cancelled"})
}

// getTranscript handles GET /api/v1/consultations/:id/transcript. It
// serves the same snapshot a joining client receives, for history
// screens outside a live session.
func (m *Module) getTranscript(c *fiber.Ctx) error {
	id := c.Params("id")

	if _, err := m.appts.Get(c.Context(), id); err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return notFound(c, "appointment not found")
		}
		return internalError(c, err)
	}

	messages, err := m.transcripts.GetTranscript(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(TranscriptResponse{
		AppointmentID: id,
		Messages:      messages,
		Total:         len(messages),
	})
}

// uploadMedia handles POST /api/v1/consultations/:id/media with a
// multipart "file" field. The response carries the file reference the
// client embeds in its next send-message.
func (m *Module) uploadMedia(c *fiber.Ctx) error {
	id := c.Params("id")

	if _, err := m.appts.Get(c.Context(), id); err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return notFound(c, "appointment not found")
		}
		return internalError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "multipart file field is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return internalError(c, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return internalError(c, err)
	}

	upload, err := m.media.Service().Upload(
		c.Context(), id, fileHeader.Filename, data, fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		if errors.Is(err, media.ErrFileTooLarge) {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{
				Error:   "file_too_large",
				Message: err.Error(),
			})
		}
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		URL:      upload.Ref.URL,
		Filename: upload.Ref.Filename,
		Size:     upload.Ref.Size,
		Kind:     upload.Kind,
	})
}

// downloadMedia handles GET /api/v1/media/* where the wildcard is the
// object name produced at upload time.
func (m *Module) downloadMedia(c *fiber.Ctx) error {
	objectName := c.Params("*")
	if objectName == "" {
		return badRequest(c, "object name is required")
	}

	data, contentType, err := m.media.Service().Fetch(c.Context(), objectName)
	if err != nil {
		if errors.Is(err, media.ErrObjectNotFound) {
			return notFound(c, "attachment not found")
		}
		return internalError(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}
