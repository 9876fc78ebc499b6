package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hireloop/engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tokenColumns = `id, introduction_id, token_hash, expires_at, consumed_at, response, message, created_at`

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Create stores the token, superseding any earlier one for the same
// introduction. Only the newest emailed link works; the candidate's
// response survives a supersede because it is recorded on the
// introduction row, not here.
func (r *TokenRepository) Create(ctx context.Context, t *domain.ResponseToken) (*domain.ResponseToken, error) {
	query := fmt.Sprintf(`
		INSERT INTO response_tokens (introduction_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (introduction_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash,
		    expires_at = EXCLUDED.expires_at,
		    consumed_at = NULL, response = NULL, message = NULL,
		    created_at = NOW()
		RETURNING %s`, tokenColumns)

	row := r.pool.QueryRow(ctx, query, t.IntroductionID, t.TokenHash, t.ExpiresAt)
	return scanToken(row)
}

func (r *TokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.ResponseToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM response_tokens WHERE token_hash = $1`, tokenColumns)
	return scanToken(r.pool.QueryRow(ctx, query, tokenHash))
}

// Consume claims the token iff it is still pending and unexpired. The
// conditional UPDATE is the whole race: two concurrent submissions hit the
// same row and exactly one sees it with consumed_at still NULL.
func (r *TokenRepository) Consume(ctx context.Context, tokenHash string, response domain.CandidateResponse, message *string, now time.Time) (*domain.ResponseToken, error) {
	query := fmt.Sprintf(`
		UPDATE response_tokens
		SET    consumed_at = $4, response = $2, message = $3
		WHERE  token_hash = $1
		  AND  consumed_at IS NULL
		  AND  expires_at > $4
		RETURNING %s`, tokenColumns)

	row := r.pool.QueryRow(ctx, query, tokenHash, response, message, now)
	return scanToken(row)
}

func scanToken(row rowScanner) (*domain.ResponseToken, error) {
	var t domain.ResponseToken
	err := row.Scan(
		&t.ID, &t.IntroductionID, &t.TokenHash, &t.ExpiresAt,
		&t.ConsumedAt, &t.Response, &t.Message, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("scan response token: %w", err)
	}
	return &t, nil
}
