package repository

import (
	"context"
	"errors"

	"pixmuse/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// ChargeRepository records the "credits for request X have been deducted"
// fact. The unique constraint on request_id makes TryInsert a first-writer-
// wins operation; callers must never implement this as read-then-write.
type ChargeRepository struct {
	db *pgxpool.Pool
}

func NewChargeRepository(db *pgxpool.Pool) *ChargeRepository {
	return &ChargeRepository{db: db}
}

func (r *ChargeRepository) TryInsert(ctx context.Context, requestID, userID uuid.UUID, amount int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO credit_charges (request_id, user_id, amount, created_at)
		 VALUES ($1, $2, $3, now())`,
		requestID, userID, amount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr(infra.KindDuplicateKey, "charge already recorded", err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to insert charge", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Revoke removes the charge fact and returns the amount it recorded. The
// single-row DELETE is the refund counterpart of TryInsert: concurrent
// revokers (enqueue compensation, a failed worker, the reaper) see exactly
// one row deleted, so the refund it drives cannot be applied twice.
func (r *ChargeRepository) Revoke(ctx context.Context, requestID uuid.UUID) (int, error) {
	var amount int
	err := r.db.QueryRow(ctx,
		`DELETE FROM credit_charges WHERE request_id = $1 RETURNING amount`, requestID,
	).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, infra.WrapRepoErr(infra.KindNotFound, "charge not found", err)
		}
		return 0, infra.WrapRepoErr(infra.KindDBFailure, "failed to revoke charge", err)
	}
	return amount, nil
}
