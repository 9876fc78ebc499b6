package repository

import (
	"context"
	"time"

	"github.com/hireloop/engine/internal/domain"
)

type ListProposalsInput struct {
	EmployerID string
	Status     domain.ProposalStatus
	Limit      int
}

type InterviewRepository interface {
	Create(ctx context.Context, p *domain.SlotProposal) (*domain.SlotProposal, error)
	GetByID(ctx context.Context, id string) (*domain.SlotProposal, error)
	List(ctx context.Context, input ListProposalsInput) ([]*domain.SlotProposal, error)

	// UpdateSelection overwrites selected_slots and moves the proposal to
	// AWAITING_CONFIRMATION; compare-and-set keyed on the two awaiting states.
	UpdateSelection(ctx context.Context, id string, selected []domain.TimeRange) (*domain.SlotProposal, error)
	// Confirm pins the slot and moves AWAITING_CONFIRMATION → SCHEDULED.
	Confirm(ctx context.Context, id string, slot domain.TimeRange) (*domain.SlotProposal, error)
	// TransitionStatus is a compare-and-set keyed on any of the from statuses.
	TransitionStatus(ctx context.Context, id string, from []domain.ProposalStatus, to domain.ProposalStatus) error

	// CancelStale cancels awaiting proposals whose last proposed slot has passed.
	CancelStale(ctx context.Context, now time.Time, limit int) (int, error)
}
