package domain

import (
	"errors"
	"time"
)

var (
	ErrProposalNotFound = errors.New("slot proposal not found")
	ErrInvalidSlots     = errors.New("invalid interview slots")
)

type ProposalStatus string

const (
	ProposalAwaitingCandidate    ProposalStatus = "AWAITING_CANDIDATE"
	ProposalAwaitingConfirmation ProposalStatus = "AWAITING_CONFIRMATION"
	ProposalScheduled            ProposalStatus = "SCHEDULED"
	ProposalCompleted            ProposalStatus = "COMPLETED"
	ProposalCancelled            ProposalStatus = "CANCELLED"
)

func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalAwaitingCandidate, ProposalAwaitingConfirmation,
		ProposalScheduled, ProposalCompleted, ProposalCancelled:
		return true
	}
	return false
}

func (s ProposalStatus) Terminal() bool {
	return s == ProposalCompleted || s == ProposalCancelled
}

// TimeRange is one interview window. Ranges are compared by exact instant
// equality; the candidate selects from the employer's proposed set verbatim.
type TimeRange struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func (t TimeRange) Equal(o TimeRange) bool {
	return t.StartsAt.Equal(o.StartsAt) && t.EndsAt.Equal(o.EndsAt)
}

// SlotProposal is the scheduling sub-workflow nested in an introduction:
// the employer proposes windows, the candidate selects a subset, the
// employer confirms exactly one.
type SlotProposal struct {
	ID             string
	IntroductionID string
	EmployerID     string
	Status         ProposalStatus

	ProposedSlots []TimeRange
	SelectedSlots []TimeRange
	ConfirmedSlot *TimeRange

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContainsSlot reports whether slot is present in set.
func ContainsSlot(set []TimeRange, slot TimeRange) bool {
	for _, s := range set {
		if s.Equal(slot) {
			return true
		}
	}
	return false
}

// ContainsAllSlots reports whether every element of subset is present in set.
func ContainsAllSlots(set, subset []TimeRange) bool {
	for _, s := range subset {
		if !ContainsSlot(set, s) {
			return false
		}
	}
	return true
}
