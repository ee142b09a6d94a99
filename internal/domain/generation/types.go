package generation

import (
	"time"

	"pixmuse/internal/pkg/errs"

	"github.com/google/uuid"
)

type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

func NewKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindImage, KindVideo:
		return Kind(s), nil
	default:
		return "", errs.New("unknown generation kind: " + s)
	}
}

// Status is the lifecycle state of a generation request. Transitions follow
// queued -> processing -> {complete, failed}; terminal states are absorbing.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a status change is allowed. Self-transition
// is allowed only for processing (progress/message updates).
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	switch from {
	case StatusQueued:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusProcessing || to == StatusComplete || to == StatusFailed
	}
	return false
}

// Params are the user-supplied generation parameters carried through the
// queue. DurationSec is only meaningful for video.
type Params struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	Count       int    `json:"count"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	DurationSec int    `json:"durationSec,omitempty"`
}

// Job is the queue message body.
type Job struct {
	RequestID uuid.UUID `json:"requestId"`
	UserID    uuid.UUID `json:"userId"`
	Kind      Kind      `json:"kind"`
	Params    Params    `json:"params"`
}

// Snapshot is the live status record kept in the status store, one per
// request id. SetID is populated only on complete, Error only on failed.
type Snapshot struct {
	RequestID uuid.UUID  `json:"requestId"`
	UserID    uuid.UUID  `json:"userId"`
	Kind      Kind       `json:"kind"`
	Status    Status     `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message,omitempty"`
	SetID     *uuid.UUID `json:"setId,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Patch is a partial status update. Nil fields are left unchanged.
type Patch struct {
	Status   *Status
	Progress *int
	Message  *string
	SetID    *uuid.UUID
	Error    *string
}

func (p Patch) WithStatus(s Status) Patch   { p.Status = &s; return p }
func (p Patch) WithProgress(n int) Patch    { p.Progress = &n; return p }
func (p Patch) WithMessage(m string) Patch  { p.Message = &m; return p }
func (p Patch) WithSetID(id uuid.UUID) Patch { p.SetID = &id; return p }
func (p Patch) WithError(e string) Patch    { p.Error = &e; return p }

// Set is the durable domain record group produced by a successful
// generation; it is the audit trail once the status snapshot expires.
type Set struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	UserID    uuid.UUID
	Kind      Kind
	Model     string
	Prompt    string
	CreatedAt time.Time
}

type Artifact struct {
	ID       uuid.UUID
	SetID    uuid.UUID
	URL      string
	Mime     string
	Position int
}
