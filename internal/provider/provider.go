package provider

import (
	"context"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/pkg/errs"
)

// Typed provider failures. Handlers and workers map these to user-facing
// errors; the raw provider response never leaves this package.
var (
	// ErrUnavailable: the provider could not be reached at all.
	ErrUnavailable = errs.New("generation provider unavailable")
	// ErrRejected: the provider accepted the call but failed the generation.
	ErrRejected = errs.New("generation rejected by provider")
	// ErrTimeout: no terminal answer within the caller's deadline.
	ErrTimeout = errs.New("generation provider timed out")
)

// Artifact is one produced image or video. Either URL (provider-hosted) or
// Data (inline bytes to be persisted by the caller) is set.
type Artifact struct {
	URL  string
	Data []byte
	Mime string
}

type Result struct {
	Artifacts []Artifact
}

// ProgressFunc receives coarse progress (0-100) and a short human-readable
// note while a submission is in flight. Implementations must be cheap; the
// provider calls it inline.
type ProgressFunc func(percent int, note string)

// Provider is the external generation capability: submit parameters, get
// artifacts or a typed error. Slow and flaky by assumption; callers bound
// it with a context deadline. If the underlying service is itself
// asynchronous, the polling loop is encapsulated behind Submit.
type Provider interface {
	Submit(ctx context.Context, kind generation.Kind, params generation.Params, progress ProgressFunc) (*Result, error)
}
