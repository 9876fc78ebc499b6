package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrIntroductionNotFound = errors.New("introduction not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidStatus        = errors.New("invalid status")
)

type IntroStatus string

const (
	IntroProfileViewed     IntroStatus = "PROFILE_VIEWED"
	IntroRequested         IntroStatus = "INTRO_REQUESTED"
	IntroIntroduced        IntroStatus = "INTRODUCED"
	IntroInterviewing      IntroStatus = "INTERVIEWING"
	IntroOfferExtended     IntroStatus = "OFFER_EXTENDED"
	IntroHired             IntroStatus = "HIRED"
	IntroCandidateDeclined IntroStatus = "CANDIDATE_DECLINED"
	IntroClosedNoHire      IntroStatus = "CLOSED_NO_HIRE"
	IntroExpired           IntroStatus = "EXPIRED"
)

// forwardTransitions holds the normal progression edges. The side branches
// (CLOSED_NO_HIRE, EXPIRED) are reachable from any non-terminal state and
// are handled in CanTransition directly.
var forwardTransitions = map[IntroStatus][]IntroStatus{
	IntroProfileViewed: {IntroRequested},
	IntroRequested:     {IntroIntroduced, IntroCandidateDeclined},
	IntroIntroduced:    {IntroInterviewing},
	IntroInterviewing:  {IntroOfferExtended},
	IntroOfferExtended: {IntroHired},
}

func (s IntroStatus) Valid() bool {
	switch s {
	case IntroProfileViewed, IntroRequested, IntroIntroduced, IntroInterviewing,
		IntroOfferExtended, IntroHired, IntroCandidateDeclined, IntroClosedNoHire, IntroExpired:
		return true
	}
	return false
}

func (s IntroStatus) Terminal() bool {
	switch s {
	case IntroHired, IntroCandidateDeclined, IntroClosedNoHire, IntroExpired:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle table allows from → to.
// Terminal states allow nothing; every non-terminal state may close or expire.
func CanTransition(from, to IntroStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == IntroClosedNoHire || to == IntroExpired {
		return true
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type CandidateResponse string

const (
	ResponseAccepted  CandidateResponse = "ACCEPTED"
	ResponseDeclined  CandidateResponse = "DECLINED"
	ResponseQuestions CandidateResponse = "QUESTIONS"
)

func (r CandidateResponse) Valid() bool {
	switch r {
	case ResponseAccepted, ResponseDeclined, ResponseQuestions:
		return true
	}
	return false
}

// Introduction tracks one employer's interest in one candidate, optionally
// tied to a job, from first profile view through hire or closure.
type Introduction struct {
	ID          string
	CandidateID string
	EmployerID  string
	JobID       *string

	Status            IntroStatus
	CandidateResponse *CandidateResponse
	CandidateMessage  *string

	ProfileViews    int
	ResumeDownloads int

	ProfileViewedAt      time.Time
	IntroRequestedAt     *time.Time
	CandidateRespondedAt *time.Time
	IntroducedAt         *time.Time

	ProtectionStartsAt *time.Time
	ProtectionEndsAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IntroductionSnapshot is the denormalized view rendered on the candidate
// respond page. The candidate is unauthenticated, so everything needed to
// display the request travels with the token resolution.
type IntroductionSnapshot struct {
	Introduction  *Introduction
	CandidateName string
	EmployerName  string
	CompanyName   string
	JobTitle      *string
}

// StatusOverride is the audit record written for every admin status change.
type StatusOverride struct {
	ID             string
	IntroductionID string
	AdminID        string
	FromStatus     IntroStatus
	ToStatus       IntroStatus
	CreatedAt      time.Time
}

// AlreadyRespondedError carries the previously recorded response so the
// respond page can render an idempotent "you already answered X" view.
type AlreadyRespondedError struct {
	Response CandidateResponse
}

func (e *AlreadyRespondedError) Error() string {
	return fmt.Sprintf("introduction already responded: %s", e.Response)
}
