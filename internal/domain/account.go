package domain

import (
	"errors"
	"time"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrMagicTokenInvalid = errors.New("magic token is invalid or expired")
	ErrUnauthorized      = errors.New("unauthorized")
)

type Role string

const (
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// Account is an authenticated marketplace user, either an employer or an admin.
// Candidates never hold accounts; they act through response tokens.
type Account struct {
	ID          string
	Email       string
	CompanyName *string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type MagicToken struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
