package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/repository"
)

type InterviewUsecase struct {
	repo   repository.InterviewRepository
	intros repository.IntroductionRepository
	logger *slog.Logger
}

func NewInterviewUsecase(repo repository.InterviewRepository, intros repository.IntroductionRepository, logger *slog.Logger) *InterviewUsecase {
	return &InterviewUsecase{
		repo:   repo,
		intros: intros,
		logger: logger.With("component", "interview_usecase"),
	}
}

// ProposeSlots opens the scheduling sub-workflow with the employer's
// candidate windows. All slots must be well-formed and strictly in the future.
func (u *InterviewUsecase) ProposeSlots(ctx context.Context, employerID, introductionID string, slots []domain.TimeRange) (*domain.SlotProposal, error) {
	if len(slots) == 0 {
		return nil, domain.ErrInvalidSlots
	}
	now := time.Now()
	for _, s := range slots {
		if !s.StartsAt.After(now) || !s.EndsAt.After(s.StartsAt) {
			return nil, domain.ErrInvalidSlots
		}
	}

	intro, err := u.intros.GetForEmployer(ctx, introductionID, employerID)
	if err != nil {
		return nil, fmt.Errorf("get introduction: %w", err)
	}
	if intro.Status.Terminal() {
		return nil, domain.ErrInvalidTransition
	}

	proposal, err := u.repo.Create(ctx, &domain.SlotProposal{
		IntroductionID: introductionID,
		EmployerID:     employerID,
		Status:         domain.ProposalAwaitingCandidate,
		ProposedSlots:  slots,
	})
	if err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}
	return proposal, nil
}

// SelectSlots records the candidate's chosen subset. A repeat call before
// confirmation replaces the prior selection outright.
func (u *InterviewUsecase) SelectSlots(ctx context.Context, proposalID string, chosen []domain.TimeRange) (*domain.SlotProposal, error) {
	proposal, err := u.repo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if len(chosen) == 0 || !domain.ContainsAllSlots(proposal.ProposedSlots, chosen) {
		return nil, domain.ErrInvalidSlots
	}

	updated, err := u.repo.UpdateSelection(ctx, proposalID, chosen)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ConfirmSlot pins one of the candidate's selected windows as the interview.
func (u *InterviewUsecase) ConfirmSlot(ctx context.Context, employerID, proposalID string, slot domain.TimeRange) (*domain.SlotProposal, error) {
	proposal, err := u.getOwned(ctx, employerID, proposalID)
	if err != nil {
		return nil, err
	}
	if !domain.ContainsSlot(proposal.SelectedSlots, slot) {
		return nil, domain.ErrInvalidSlots
	}

	confirmed, err := u.repo.Confirm(ctx, proposalID, slot)
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

func (u *InterviewUsecase) MarkCompleted(ctx context.Context, employerID, proposalID string) error {
	if _, err := u.getOwned(ctx, employerID, proposalID); err != nil {
		return err
	}
	return u.repo.TransitionStatus(ctx, proposalID,
		[]domain.ProposalStatus{domain.ProposalScheduled}, domain.ProposalCompleted)
}

// Cancel is reachable from any non-terminal proposal state.
func (u *InterviewUsecase) Cancel(ctx context.Context, employerID, proposalID string) error {
	if _, err := u.getOwned(ctx, employerID, proposalID); err != nil {
		return err
	}
	return u.repo.TransitionStatus(ctx, proposalID,
		[]domain.ProposalStatus{
			domain.ProposalAwaitingCandidate,
			domain.ProposalAwaitingConfirmation,
			domain.ProposalScheduled,
		}, domain.ProposalCancelled)
}

type ListProposalsInput struct {
	EmployerID string
	Status     domain.ProposalStatus
	Limit      int
}

func (u *InterviewUsecase) List(ctx context.Context, input ListProposalsInput) ([]*domain.SlotProposal, error) {
	if input.Status != "" && !input.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	proposals, err := u.repo.List(ctx, repository.ListProposalsInput{
		EmployerID: input.EmployerID,
		Status:     input.Status,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

func (u *InterviewUsecase) getOwned(ctx context.Context, employerID, proposalID string) (*domain.SlotProposal, error) {
	proposal, err := u.repo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.EmployerID != employerID {
		return nil, domain.ErrProposalNotFound
	}
	return proposal, nil
}
