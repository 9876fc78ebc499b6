package domain

import (
	"errors"
	"time"
)

var (
	ErrTokenInvalid = errors.New("response token not found")
	ErrTokenExpired = errors.New("response token expired")
)

// ResponseToken is a single-use capability bound 1:1 to an introduction.
// Only the SHA-256 hash of the raw token is stored; possession of the raw
// token is the sole authorization for responding.
type ResponseToken struct {
	ID             string
	IntroductionID string
	TokenHash      string
	ExpiresAt      time.Time
	ConsumedAt     *time.Time
	Response       *CandidateResponse
	Message        *string
	CreatedAt      time.Time
}

// Expired reports whether the token lapsed unconsumed at the given instant.
// The boundary is exclusive: a token is valid for [issuedAt, expiresAt).
func (t *ResponseToken) Expired(now time.Time) bool {
	return t.ConsumedAt == nil && !now.Before(t.ExpiresAt)
}
