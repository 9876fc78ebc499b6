package repository

import (
	"context"
	"time"

	"github.com/hireloop/engine/internal/domain"
)

type AccountRepository interface {
	FindOrCreate(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	CreateMagicToken(ctx context.Context, accountID, tokenHash string, expiresAt time.Time) error
	// ClaimMagicToken atomically marks an unexpired, unused token as used.
	ClaimMagicToken(ctx context.Context, tokenHash string) (*domain.MagicToken, error)
}

type CandidateRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
}
