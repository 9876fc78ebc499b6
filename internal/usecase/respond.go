package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/email"
	"github.com/hireloop/engine/internal/metrics"
	"github.com/hireloop/engine/internal/repository"
)

const (
	defaultTokenTTL         = 7 * 24 * time.Hour
	defaultProtectionWindow = 30 * 24 * time.Hour
)

// RespondUsecase mints and resolves the single-use response tokens that let
// an unauthenticated candidate answer an introduction request from email.
type RespondUsecase struct {
	tokens     repository.TokenRepository
	intros     repository.IntroductionRepository
	candidates repository.CandidateRepository
	email      email.Sender
	logger     *slog.Logger

	tokenTTL         time.Duration
	protectionWindow time.Duration
	respondBase      string
	adminEmail       string
}

func NewRespondUsecase(
	tokens repository.TokenRepository,
	intros repository.IntroductionRepository,
	candidates repository.CandidateRepository,
	emailSender email.Sender,
	logger *slog.Logger,
	tokenTTL, protectionWindow time.Duration,
	respondBase, adminEmail string,
) *RespondUsecase {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	if protectionWindow <= 0 {
		protectionWindow = defaultProtectionWindow
	}
	return &RespondUsecase{
		tokens:           tokens,
		intros:           intros,
		candidates:       candidates,
		email:            emailSender,
		logger:           logger.With("component", "respond_usecase"),
		tokenTTL:         tokenTTL,
		protectionWindow: protectionWindow,
		respondBase:      respondBase,
		adminEmail:       adminEmail,
	}
}

// Issue generates a secure token bound to the introduction, stores its hash,
// and emails the respond link to the candidate.
func (u *RespondUsecase) Issue(ctx context.Context, intro *domain.Introduction) (string, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	rawToken := hex.EncodeToString(raw)
	tokenHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))

	if _, err := u.tokens.Create(ctx, &domain.ResponseToken{
		IntroductionID: intro.ID,
		TokenHash:      tokenHash,
		ExpiresAt:      time.Now().Add(u.tokenTTL),
	}); err != nil {
		return "", fmt.Errorf("store response token: %w", err)
	}

	candidate, err := u.candidates.GetByID(ctx, intro.CandidateID)
	if err != nil {
		return "", fmt.Errorf("find candidate: %w", err)
	}
	snap, err := u.intros.GetSnapshot(ctx, intro.ID)
	if err != nil {
		return "", fmt.Errorf("load snapshot: %w", err)
	}

	link := u.respondBase + "/respond/" + rawToken
	subject := fmt.Sprintf("%s would like an introduction", snap.CompanyName)
	body := responseRequestBody(candidate.Name, snap.CompanyName, snap.JobTitle, link)
	if err := u.email.Send(ctx, candidate.Email, subject, body); err != nil {
		return "", fmt.Errorf("send intro request email: %w", err)
	}
	return rawToken, nil
}

// Resolve classifies a raw token in fixed priority order:
// not-found, expired, already-consumed, pending.
func (u *RespondUsecase) Resolve(ctx context.Context, rawToken string) (*domain.IntroductionSnapshot, error) {
	tokenHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))

	tok, err := u.tokens.GetByHash(ctx, tokenHash)
	if err != nil {
		metrics.TokenResolutionsTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}
	if tok.Expired(time.Now()) {
		metrics.TokenResolutionsTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrTokenExpired
	}
	if tok.ConsumedAt != nil {
		metrics.TokenResolutionsTotal.WithLabelValues("already_responded").Inc()
		return nil, &domain.AlreadyRespondedError{Response: *tok.Response}
	}

	snap, err := u.intros.GetSnapshot(ctx, tok.IntroductionID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	metrics.TokenResolutionsTotal.WithLabelValues("pending").Inc()
	return snap, nil
}

// Consume atomically records the candidate's response and advances the
// introduction. Under concurrent double-submission exactly one caller wins;
// the loser gets AlreadyRespondedError carrying the recorded response.
func (u *RespondUsecase) Consume(ctx context.Context, rawToken string, response domain.CandidateResponse, message *string) (*domain.Introduction, error) {
	if !response.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	tokenHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))
	now := time.Now()

	tok, err := u.tokens.Consume(ctx, tokenHash, response, message, now)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			return nil, u.classifyFailedConsume(ctx, tokenHash, now)
		}
		return nil, fmt.Errorf("consume token: %w", err)
	}

	input := repository.RecordResponseInput{
		IntroductionID: tok.IntroductionID,
		Response:       response,
		Message:        message,
		RespondedAt:    now,
	}
	switch response {
	case domain.ResponseAccepted:
		protectionEnds := now.Add(u.protectionWindow)
		input.NewStatus = domain.IntroIntroduced
		input.IntroducedAt = &now
		input.ProtectionStartsAt = &now
		input.ProtectionEndsAt = &protectionEnds
	case domain.ResponseDeclined:
		input.NewStatus = domain.IntroCandidateDeclined
	case domain.ResponseQuestions:
		// Status stays put; the message is recorded and an admin follows up.
		input.NewStatus = domain.IntroRequested
	}

	if err := u.intros.RecordResponse(ctx, input); err != nil {
		return nil, fmt.Errorf("record response: %w", err)
	}
	metrics.IntroTransitionsTotal.WithLabelValues(string(input.NewStatus)).Inc()

	if response == domain.ResponseQuestions {
		u.notifyAdmin(ctx, tok.IntroductionID, message)
	}

	intro, err := u.intros.GetByID(ctx, tok.IntroductionID)
	if err != nil {
		return nil, fmt.Errorf("reload introduction: %w", err)
	}
	return intro, nil
}

// classifyFailedConsume re-reads the token after a zero-row consume to
// report the precise failure, in the same order Resolve uses.
func (u *RespondUsecase) classifyFailedConsume(ctx context.Context, tokenHash string, now time.Time) error {
	tok, err := u.tokens.GetByHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	if tok.Expired(now) {
		return domain.ErrTokenExpired
	}
	if tok.ConsumedAt != nil {
		return &domain.AlreadyRespondedError{Response: *tok.Response}
	}
	// Unreachable under read-committed: a losing consume observes either
	// the winner's consumed_at or an expired row.
	return domain.ErrTokenInvalid
}

func (u *RespondUsecase) notifyAdmin(ctx context.Context, introductionID string, message *string) {
	if u.adminEmail == "" {
		return
	}
	body := fmt.Sprintf("<p>Candidate has questions about introduction %s.</p>", introductionID)
	if message != nil {
		body += fmt.Sprintf("<blockquote>%s</blockquote>", *message)
	}
	if err := u.email.Send(ctx, u.adminEmail, "Candidate has questions", body); err != nil {
		// The candidate's response is already recorded; a lost admin
		// notification must not fail the request.
		u.logger.WarnContext(ctx, "admin notification failed", "introduction_id", introductionID, "error", err)
	}
}

func responseRequestBody(candidateName, companyName string, jobTitle *string, link string) string {
	role := "an open role"
	if jobTitle != nil {
		role = *jobTitle
	}
	return fmt.Sprintf(
		`<p>Hi %s,</p>
<p>%s would like to be introduced to you for %s.</p>
<p><a href="%s">Respond to this request</a> (the link expires in 7 days).</p>`,
		candidateName, companyName, role, link,
	)
}
