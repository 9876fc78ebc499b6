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

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) FindOrCreate(ctx context.Context, email string) (*domain.Account, error) {
	// New sign-ins default to the employer role; admins are promoted out of band.
	query := `
		INSERT INTO accounts (email, role)
		VALUES ($1, 'employer')
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id, email, company_name, role, created_at, updated_at`

	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT id, email, company_name, role, created_at, updated_at FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) CreateMagicToken(ctx context.Context, accountID, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO magic_tokens (account_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		accountID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("create magic token: %w", err)
	}
	return nil
}

func (r *AccountRepository) ClaimMagicToken(ctx context.Context, tokenHash string) (*domain.MagicToken, error) {
	var mt domain.MagicToken
	err := r.pool.QueryRow(ctx,
		`UPDATE magic_tokens
		 SET used_at = NOW()
		 WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
		 RETURNING id, account_id, token_hash, expires_at, used_at, created_at`,
		tokenHash,
	).Scan(&mt.ID, &mt.AccountID, &mt.TokenHash, &mt.ExpiresAt, &mt.UsedAt, &mt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMagicTokenInvalid
		}
		return nil, fmt.Errorf("claim magic token: %w", err)
	}
	return &mt, nil
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Email, &a.CompanyName, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
