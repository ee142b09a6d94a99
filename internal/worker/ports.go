package worker

import (
	"context"
	"time"

	"pixmuse/internal/infra/queue"
)

// DeliverySource is the queue as consumed by the pool: blocking fetch plus
// acknowledgment. Fetch may return (nil, nil) when nothing is ready.
type DeliverySource interface {
	Fetch(ctx context.Context, consumer string, block time.Duration) (*queue.Delivery, error)
	Ack(ctx context.Context, entryID string) error
	EnsureGroup(ctx context.Context) error
}
