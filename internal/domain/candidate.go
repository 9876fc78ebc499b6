package domain

import (
	"errors"
	"time"
)

var ErrCandidateNotFound = errors.New("candidate not found")

type SkillTier string

const (
	TierVerified SkillTier = "VERIFIED"
	TierAssessed SkillTier = "ASSESSED"
	TierBasic    SkillTier = "BASIC"
)

type Candidate struct {
	ID        string
	Name      string
	Email     string
	Headline  *string
	SkillTier SkillTier
	CreatedAt time.Time
	UpdatedAt time.Time
}
