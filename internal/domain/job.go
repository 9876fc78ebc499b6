package domain

import (
	"errors"
	"time"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrAlreadyClaimed = errors.New("job already claimed")
)

type JobStatus string

const (
	JobActive JobStatus = "ACTIVE"
	JobPaused JobStatus = "PAUSED"
	JobClosed JobStatus = "CLOSED"
)

// Job is a listing sourced into the marketplace. A job starts unowned
// (EmployerID nil); claiming is one-way, there is no un-claim.
type Job struct {
	ID       string
	Title    string
	Company  string
	Location *string
	Source   string
	Status   JobStatus

	EmployerID *string
	ClaimedAt  *time.Time

	ContactPhone     *string
	RoleLevel        *string
	SalaryMin        *int
	SalaryMax        *int
	StartDateNeeded  *time.Time
	CandidatesNeeded int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (j *Job) Claimed() bool {
	return j.ClaimedAt != nil
}

// ClaimedJobView is the employer-dashboard projection: a claimed job plus
// aggregates recomputed from application records, never mutated directly.
type ClaimedJobView struct {
	Job                 *Job
	ApplicantsCount     int
	SkillsVerifiedCount int
	TierBreakdown       map[string]int
}
