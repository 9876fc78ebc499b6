package repository

import (
	"context"
	"time"

	"github.com/hireloop/engine/internal/domain"
)

type SearchUnclaimedInput struct {
	Query      string
	CursorTime *time.Time // cursor on (created_at DESC, id DESC)
	CursorID   string
	Limit      int
}

type ClaimJobInput struct {
	JobID            string
	EmployerID       string
	ContactPhone     string
	RoleLevel        string
	SalaryMin        *int
	SalaryMax        *int
	StartDateNeeded  *time.Time
	CandidatesNeeded int
	ClaimedAt        time.Time
}

type JobRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	SearchUnclaimed(ctx context.Context, input SearchUnclaimedInput) ([]*domain.Job, error)
	// Claim is a compare-and-set on claimed_at IS NULL; the loser of a race
	// gets domain.ErrAlreadyClaimed.
	Claim(ctx context.Context, input ClaimJobInput) (*domain.Job, error)
	ListClaimed(ctx context.Context, employerID string) ([]*domain.ClaimedJobView, error)
}
