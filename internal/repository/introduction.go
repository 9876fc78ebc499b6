package repository

import (
	"context"
	"time"

	"github.com/hireloop/engine/internal/domain"
)

type ListIntroductionsInput struct {
	EmployerID string // empty means all employers (admin listing)
	Status     domain.IntroStatus
	CursorTime *time.Time // cursor on (created_at DESC, id DESC)
	CursorID   string
	Limit      int
}

type RecordResponseInput struct {
	IntroductionID string
	Response       domain.CandidateResponse
	Message        *string
	NewStatus      domain.IntroStatus
	RespondedAt    time.Time
	// Set only for ACCEPTED responses.
	IntroducedAt       *time.Time
	ProtectionStartsAt *time.Time
	ProtectionEndsAt   *time.Time
}

type IntroductionRepository interface {
	// UpsertProfileView creates the record at PROFILE_VIEWED or, if one
	// already exists for this (employer, candidate, job), bumps profile_views.
	UpsertProfileView(ctx context.Context, employerID, candidateID string, jobID *string) (*domain.Introduction, error)
	IncrementResumeDownloads(ctx context.Context, id, employerID string) error

	GetByID(ctx context.Context, id string) (*domain.Introduction, error)
	GetForEmployer(ctx context.Context, id, employerID string) (*domain.Introduction, error)
	GetSnapshot(ctx context.Context, id string) (*domain.IntroductionSnapshot, error)
	List(ctx context.Context, input ListIntroductionsInput) ([]*domain.Introduction, error)
	CountByStatus(ctx context.Context) (map[domain.IntroStatus]int, error)

	// MarkRequested is a compare-and-set: PROFILE_VIEWED → INTRO_REQUESTED.
	MarkRequested(ctx context.Context, id string, requestedAt time.Time) error
	// RecordResponse is a compare-and-set keyed on INTRO_REQUESTED.
	RecordResponse(ctx context.Context, input RecordResponseInput) error
	// TransitionStatus is a compare-and-set keyed on the expected from status.
	TransitionStatus(ctx context.Context, id string, from, to domain.IntroStatus) error
	// OverrideStatus updates the status unconditionally (terminal states
	// excluded) and writes the audit row in the same transaction.
	OverrideStatus(ctx context.Context, id, adminID string, to domain.IntroStatus) (*domain.StatusOverride, error)

	// Reaper transitions: guarded bulk updates, capped at limit rows.
	ExpireStaleRequests(ctx context.Context, now time.Time, limit int) (int, error)
	ExpireLapsedProtection(ctx context.Context, now time.Time, limit int) (int, error)
}
