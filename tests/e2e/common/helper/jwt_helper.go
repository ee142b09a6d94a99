//go:build e2e

package helper

import (
	"context"
	"testing"
	"time"

	"pixmuse/internal/pkg/config"
	"pixmuse/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

type JWTTestHelper struct {
	pool *pgxpool.Pool
	cfg  config.JWTConfig
}

func NewJWTTestHelper(pool *pgxpool.Pool, cfg config.JWTConfig) *JWTTestHelper {
	return &JWTTestHelper{pool: pool, cfg: cfg}
}

// DBLike is the minimal interface required for test DB operations.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CreateTestUser inserts a user with the given starting credit balance.
func (h *JWTTestHelper) CreateTestUser(t *testing.T, email string, creditBalance int) uuid.UUID {
	return h.CreateTestUserWithDB(t, h.pool, email, creditBalance)
}

func (h *JWTTestHelper) CreateTestUserWithDB(t *testing.T, db DBLike, email string, creditBalance int) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx,
		"INSERT INTO users (id, email, credit_balance) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING",
		userID, email, creditBalance)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		// Already exists; fetch existing id to keep deterministic behavior
		_ = db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	}

	return userID
}

// CreditBalance reads the user's current balance straight from the store.
func (h *JWTTestHelper) CreditBalance(t *testing.T, userID uuid.UUID) int {
	t.Helper()

	var balance int
	err := h.pool.QueryRow(context.Background(),
		"SELECT credit_balance FROM users WHERE id = $1", userID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

func (h *JWTTestHelper) GenerateToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	duration, _ := time.ParseDuration(h.cfg.Duration)
	service := jwt.NewService(h.cfg.Secret, duration)
	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func (h *JWTTestHelper) CreateExpiredToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	service := jwt.NewService(h.cfg.Secret, 1*time.Millisecond)
	token, err := service.GenerateToken(userID)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	return token
}
