package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/prusotamkrydv78/SathiCare-sub000/domain/consultation"
)

// TranscriptPort is what the gateway uses to read transcripts at join
// time and to flag messages read.
type TranscriptPort interface {
	GetTranscript(ctx context.Context, appointmentID string) ([]consultation.Message, error)
	MarkRead(ctx context.Context, appointmentID string, reader consultation.Role) (int64, error)
}

// Adapter implements TranscriptPort over the module's service
// container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a new transcript adapter.
func NewAdapter(container mono.ServiceContainer) TranscriptPort {
	if container == nil {
		panic("history: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// GetTranscript fetches the ordered transcript snapshot.
func (a *Adapter) GetTranscript(ctx context.Context, appointmentID string) ([]consultation.Message, error) {
	req := GetTranscriptRequest{AppointmentID: appointmentID}
	var resp GetTranscriptResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceGetTranscript,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return resp.Messages, nil
}

// MarkRead flags the peer's messages as read.
func (a *Adapter) MarkRead(ctx context.Context, appointmentID string, reader consultation.Role) (int64, error) {
	req := MarkReadRequest{AppointmentID: appointmentID, Reader: reader}
	var resp MarkReadResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceMarkRead,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return 0, fmt.Errorf("failed to mark read: %w", err)
	}
	return resp.Updated, nil
}
