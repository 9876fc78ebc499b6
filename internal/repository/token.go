package repository

import (
	"context"
	"time"

	"github.com/hireloop/engine/internal/domain"
)

type TokenRepository interface {
	Create(ctx context.Context, t *domain.ResponseToken) (*domain.ResponseToken, error)
	GetByHash(ctx context.Context, tokenHash string) (*domain.ResponseToken, error)
	// Consume atomically claims a pending, unexpired token. Returns
	// domain.ErrTokenInvalid when no such row was claimable; the caller
	// re-reads to classify the failure (not found / expired / consumed).
	Consume(ctx context.Context, tokenHash string, response domain.CandidateResponse, message *string, now time.Time) (*domain.ResponseToken, error)
}
