package repository

import (
	"context"
	"errors"

	"pixmuse/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CreditsRepository mutates user credit balances. Debit is a single
// conditional UPDATE so a concurrent debit can never take the balance
// negative.
type CreditsRepository struct {
	db *pgxpool.Pool
}

func NewCreditsRepository(db *pgxpool.Pool) *CreditsRepository {
	return &CreditsRepository{db: db}
}

func (r *CreditsRepository) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var balance int
	err := r.db.QueryRow(ctx,
		`SELECT credit_balance FROM users WHERE id = $1`, userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, infra.WrapRepoErr(infra.KindNotFound, "user not found", err)
		}
		return 0, infra.WrapRepoErr(infra.KindDBFailure, "failed to read balance", err)
	}
	return balance, nil
}

func (r *CreditsRepository) Debit(ctx context.Context, userID uuid.UUID, amount int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET credit_balance = credit_balance - $2, updated_at = now()
		 WHERE id = $1 AND credit_balance >= $2`,
		userID, amount,
	)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to debit credits", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(infra.KindConflict, "insufficient balance", nil)
	}
	return nil
}

func (r *CreditsRepository) Refund(ctx context.Context, userID uuid.UUID, amount int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET credit_balance = credit_balance + $2, updated_at = now()
		 WHERE id = $1`,
		userID, amount,
	)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to refund credits", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(infra.KindNotFound, "user not found", nil)
	}
	return nil
}
