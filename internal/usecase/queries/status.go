package queries

import (
	"context"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"
	"pixmuse/internal/infra/statusstore"
	"pixmuse/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrStatusNotFound = errs.New("generation request not found")

// StatusQueries is the polling read surface over the status store. It
// serves the same snapshots the push feed publishes, so a client that
// mixes polling and push never sees the two disagree.
type StatusQueries interface {
	GetStatus(ctx context.Context, requesterID, requestID uuid.UUID) (*generation.Snapshot, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]generation.Snapshot, error)
}

type statusQueriesImpl struct {
	store statusstore.Store
}

func NewStatusQueries(store statusstore.Store) StatusQueries {
	return &statusQueriesImpl{store: store}
}

// GetStatus returns the snapshot for one request. Records owned by another
// user and expired records are both reported as not found.
func (q *statusQueriesImpl) GetStatus(ctx context.Context, requesterID, requestID uuid.UUID) (*generation.Snapshot, error) {
	snap, err := q.store.Get(ctx, requestID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrStatusNotFound)
		}
		return nil, errs.Wrap(err, "failed to get generation status")
	}
	if snap.UserID != requesterID {
		return nil, ErrStatusNotFound
	}
	return snap, nil
}

func (q *statusQueriesImpl) ListMine(ctx context.Context, userID uuid.UUID) ([]generation.Snapshot, error) {
	snaps, err := q.store.ListActive(ctx, &userID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list active generations")
	}
	return snaps, nil
}
