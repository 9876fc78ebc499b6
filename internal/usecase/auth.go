package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/email"
	"github.com/hireloop/engine/internal/repository"
)

const (
	defaultMagicTokenTTL = 15 * time.Minute
	defaultJWTTTL        = 24 * time.Hour
)

type AuthUsecase struct {
	accounts      repository.AccountRepository
	email         email.Sender
	jwtKey        []byte
	tokenTTL      time.Duration
	jwtTTL        time.Duration
	magicLinkBase string
}

func NewAuthUsecase(accounts repository.AccountRepository, emailSender email.Sender, jwtKey []byte, magicLinkBase string) *AuthUsecase {
	return &AuthUsecase{
		accounts:      accounts,
		email:         emailSender,
		jwtKey:        jwtKey,
		tokenTTL:      defaultMagicTokenTTL,
		jwtTTL:        defaultJWTTTL,
		magicLinkBase: magicLinkBase,
	}
}

// RequestMagicLink finds or creates the account, generates a secure token,
// stores its hash, and emails the verify link.
func (u *AuthUsecase) RequestMagicLink(ctx context.Context, emailAddr string) error {
	account, err := u.accounts.FindOrCreate(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("find or create account: %w", err)
	}

	raw := make([]byte, 32)
	if _, err = io.ReadFull(rand.Reader, raw); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	rawToken := hex.EncodeToString(raw)
	tokenHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))

	expiresAt := time.Now().Add(u.tokenTTL)
	if err = u.accounts.CreateMagicToken(ctx, account.ID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("store magic token: %w", err)
	}

	link := u.magicLinkBase + "/auth/verify?token=" + rawToken
	subject := "Your sign-in link"
	body := fmt.Sprintf(
		`<p>Click the link below to sign in (expires in 15 minutes):</p><p><a href="%s">%s</a></p>`,
		link, link,
	)
	if err = u.email.Send(ctx, emailAddr, subject, body); err != nil {
		return fmt.Errorf("send magic link: %w", err)
	}
	return nil
}

// VerifyMagicLink hashes the raw token, atomically claims it, and returns a
// signed JWT carrying the account's role.
func (u *AuthUsecase) VerifyMagicLink(ctx context.Context, rawToken string) (string, error) {
	tokenHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))

	mt, err := u.accounts.ClaimMagicToken(ctx, tokenHash)
	if err != nil {
		return "", domain.ErrMagicTokenInvalid
	}

	account, err := u.accounts.FindByID(ctx, mt.AccountID)
	if err != nil {
		return "", fmt.Errorf("find account: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   account.ID,
		"email": account.Email,
		"role":  string(account.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(u.jwtTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}
