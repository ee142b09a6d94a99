package repository

import (
	"context"
	"errors"
	"log/slog"

	"pixmuse/internal/domain/generation"
	"pixmuse/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SetsRepository persists the durable record group produced by a successful
// generation. request_id is unique, which doubles as the redelivery
// idempotency guard: a second worker inserting the same request loses.
type SetsRepository struct {
	db *pgxpool.Pool
}

func NewSetsRepository(db *pgxpool.Pool) *SetsRepository {
	return &SetsRepository{db: db}
}

func (r *SetsRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*generation.Set, error) {
	var set generation.Set
	err := r.db.QueryRow(ctx,
		`SELECT id, request_id, user_id, kind, model, prompt, created_at
		 FROM generation_sets WHERE request_id = $1`,
		requestID,
	).Scan(&set.ID, &set.RequestID, &set.UserID, &set.Kind, &set.Model, &set.Prompt, &set.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "generation set not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to find generation set", err)
	}
	return &set, nil
}

func (r *SetsRepository) CreateSet(ctx context.Context, set generation.Set, artifacts []generation.Artifact) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to begin transaction", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", "error", rollbackErr)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO generation_sets (id, request_id, user_id, kind, model, prompt, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		set.ID, set.RequestID, set.UserID, set.Kind, set.Model, set.Prompt, set.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr(infra.KindDuplicateKey, "set already exists for request", err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to insert generation set", err)
	}

	for _, a := range artifacts {
		_, err = tx.Exec(ctx,
			`INSERT INTO generation_artifacts (id, set_id, url, mime, position)
			 VALUES ($1, $2, $3, $4, $5)`,
			a.ID, a.SetID, a.URL, a.Mime, a.Position,
		)
		if err != nil {
			return infra.WrapRepoErr(infra.KindDBFailure, "failed to insert artifact", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to commit generation set", err)
	}
	return nil
}
