package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
)

// Validation errors
var (
	ErrNameRequired    = errors.New("file name is required")
	ErrEmptyFile       = errors.New("file data is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrTypeNotAllowed  = errors.New("content type not allowed")
	ErrApptRequired    = errors.New("appointment id is required")
	ErrObjectNotFound  = errors.New("attachment not found")
)

// allowedTypes maps accepted content types to the message kind they
// produce.
var allowedTypes = map[string]consultation.MessageKind{
	"image/jpeg":         consultation.KindImage,
	"image/png":          consultation.KindImage,
	"image/webp":         consultation.KindImage,
	"application/pdf":    consultation.KindDocument,
	"application/msword": consultation.KindDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": consultation.KindDocument,
}

// Upload is the result of storing an attachment: the file reference the
// client embeds in an image/document message, plus the kind that
// content type maps to.
type Upload struct {
	Ref  consultation.FileRef
	Kind consultation.MessageKind
}

// Service stores and serves consultation attachments.
type Service struct {
	store ObjectStore
}

// NewService creates a new media service.
func NewService(store ObjectStore) *Service {
	return &Service{store: store}
}

// Upload validates and stores an attachment scoped to an appointment.
// A failed upload surfaces only through this call's error; no message
// event is ever emitted for it.
func (s *Service) Upload(ctx context.Context, appointmentID, filename string, data []byte, contentType string) (*Upload, error) {
	if appointmentID == "" {
		return nil, ErrApptRequired
	}
	if filename == "" {
		return nil, ErrNameRequired
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > consultation.MaxFileSize {
		return nil, ErrFileTooLarge
	}

	kind, ok := allowedTypes[normalizeContentType(contentType)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotAllowed, contentType)
	}

	objectName := fmt.Sprintf("%s/%s/%s", appointmentID, uuid.New().String(), filename)
	info, err := s.store.Put(ctx, objectName, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	return &Upload{
		Ref: consultation.FileRef{
			URL:      "/api/v1/media/" + objectName,
			Filename: filename,
			Size:     int64(info.Size),
		},
		Kind: kind,
	}, nil
}

// Fetch retrieves an attachment by its object name.
func (s *Service) Fetch(ctx context.Context, objectName string) ([]byte, string, error) {
	data, info, err := s.store.Get(ctx, objectName)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
	}
	return data, info.ContentType, nil
}

func normalizeContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
