package response

import (
	"time"

	"pixmuse/internal/domain/generation"

	"github.com/google/uuid"
)

type ProcessingResponse struct {
	RequestID uuid.UUID  `json:"requestId"`
	Kind      string     `json:"kind"`
	Status    string     `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message,omitempty"`
	SetID     *uuid.UUID `json:"setId,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func FromSnapshot(snap *generation.Snapshot) *ProcessingResponse {
	return &ProcessingResponse{
		RequestID: snap.RequestID,
		Kind:      string(snap.Kind),
		Status:    string(snap.Status),
		Progress:  snap.Progress,
		Message:   snap.Message,
		SetID:     snap.SetID,
		Error:     snap.Error,
		CreatedAt: snap.CreatedAt,
		UpdatedAt: snap.UpdatedAt,
	}
}

func FromSnapshots(snaps []generation.Snapshot) []*ProcessingResponse {
	out := make([]*ProcessingResponse, len(snaps))
	for i := range snaps {
		out[i] = FromSnapshot(&snaps[i])
	}
	return out
}
