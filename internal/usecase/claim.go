package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/metrics"
	"github.com/hireloop/engine/internal/repository"
)

const defaultCandidatesNeeded = 10

type ClaimUsecase struct {
	repo   repository.JobRepository
	logger *slog.Logger
}

func NewClaimUsecase(repo repository.JobRepository, logger *slog.Logger) *ClaimUsecase {
	return &ClaimUsecase{repo: repo, logger: logger.With("component", "claim_usecase")}
}

type SearchUnclaimedInput struct {
	Query  string
	Cursor string
	Limit  int
}

type SearchUnclaimedResult struct {
	Jobs       []*domain.Job
	NextCursor *string
}

func (u *ClaimUsecase) SearchUnclaimed(ctx context.Context, input SearchUnclaimedInput) (SearchUnclaimedResult, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	repoInput := repository.SearchUnclaimedInput{
		Query: input.Query,
		Limit: limit + 1,
	}
	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeListCursor(input.Cursor)
		if err != nil {
			return SearchUnclaimedResult{}, domain.ErrInvalidStatus
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	jobs, err := u.repo.SearchUnclaimed(ctx, repoInput)
	if err != nil {
		return SearchUnclaimedResult{}, fmt.Errorf("search unclaimed: %w", err)
	}

	var nextCursor *string
	if len(jobs) == limit+1 {
		// The repo filters strictly below the cursor, so it must point at
		// the last row of this page, not the probe row.
		jobs = jobs[:limit]
		last := jobs[limit-1]
		s := encodeListCursor(last.CreatedAt, last.ID)
		nextCursor = &s
	}

	return SearchUnclaimedResult{Jobs: jobs, NextCursor: nextCursor}, nil
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
}

// Claim takes one-way ownership of an unclaimed job. Concurrent claims on
// the same job resolve to exactly one winner; every loser sees AlreadyClaimed.
func (u *ClaimUsecase) Claim(ctx context.Context, input ClaimJobInput) (*domain.Job, error) {
	if input.CandidatesNeeded <= 0 {
		input.CandidatesNeeded = defaultCandidatesNeeded
	}

	job, err := u.repo.Claim(ctx, repository.ClaimJobInput{
		JobID:            input.JobID,
		EmployerID:       input.EmployerID,
		ContactPhone:     input.ContactPhone,
		RoleLevel:        input.RoleLevel,
		SalaryMin:        input.SalaryMin,
		SalaryMax:        input.SalaryMax,
		StartDateNeeded:  input.StartDateNeeded,
		CandidatesNeeded: input.CandidatesNeeded,
		ClaimedAt:        time.Now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyClaimed):
			metrics.ClaimAttemptsTotal.WithLabelValues("already_claimed").Inc()
		case errors.Is(err, domain.ErrJobNotFound):
			metrics.ClaimAttemptsTotal.WithLabelValues("not_found").Inc()
		default:
			metrics.ClaimAttemptsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.ClaimAttemptsTotal.WithLabelValues("claimed").Inc()
	u.logger.InfoContext(ctx, "job claimed", "job_id", job.ID, "employer_id", input.EmployerID)
	return job, nil
}

func (u *ClaimUsecase) ListClaimed(ctx context.Context, employerID string) ([]*domain.ClaimedJobView, error) {
	views, err := u.repo.ListClaimed(ctx, employerID)
	if err != nil {
		return nil, fmt.Errorf("list claimed: %w", err)
	}
	return views, nil
}
