package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hireloop/engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CandidateRepository struct {
	pool *pgxpool.Pool
}

func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	var c domain.Candidate
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, headline, skill_tier, created_at, updated_at
		 FROM candidates WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Headline, &c.SkillTier, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCandidateNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	return &c, nil
}
