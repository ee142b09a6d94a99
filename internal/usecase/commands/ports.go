package commands

import (
	"context"

	"pixmuse/internal/domain/generation"

	"github.com/google/uuid"
)

// Write-side ports. Interfaces live on the consumer side so the producer
// can be exercised against fakes.

// JobQueue is the durable queue as the producer sees it: enqueue plus a
// bounded-time liveness probe.
type JobQueue interface {
	Enqueue(ctx context.Context, job generation.Job) error
	Ping(ctx context.Context) error
}

// CreditsRepository mutates user balances. Debit must be atomic and
// conditional on sufficient balance.
type CreditsRepository interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	Debit(ctx context.Context, userID uuid.UUID, amount int) error
	Refund(ctx context.Context, userID uuid.UUID, amount int) error
}

// ChargeRepository records the one-per-request billing fact. TryInsert is
// first-writer-wins (unique-constraint insert, KindDuplicateKey on loss) and
// Revoke is its mirror image: it atomically removes the fact and returns the
// charged amount, so exactly one caller ever refunds a given request.
type ChargeRepository interface {
	TryInsert(ctx context.Context, requestID, userID uuid.UUID, amount int) error
	Revoke(ctx context.Context, requestID uuid.UUID) (int, error)
}

// SetsRepository persists completed generations in the domain store.
type SetsRepository interface {
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*generation.Set, error)
	CreateSet(ctx context.Context, set generation.Set, artifacts []generation.Artifact) error
}

// ArtifactUploader persists inline artifact bytes and returns a public URL.
type ArtifactUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}
