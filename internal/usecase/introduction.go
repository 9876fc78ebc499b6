package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/metrics"
	"github.com/hireloop/engine/internal/repository"
)

// tokenIssuer is what the lifecycle engine needs from the token side:
// minting a response token when an intro is requested.
type tokenIssuer interface {
	Issue(ctx context.Context, intro *domain.Introduction) (string, error)
}

type IntroductionUsecase struct {
	repo   repository.IntroductionRepository
	issuer tokenIssuer
	logger *slog.Logger
}

func NewIntroductionUsecase(repo repository.IntroductionRepository, issuer tokenIssuer, logger *slog.Logger) *IntroductionUsecase {
	return &IntroductionUsecase{
		repo:   repo,
		issuer: issuer,
		logger: logger.With("component", "introduction_usecase"),
	}
}

// RecordProfileView creates the introduction at PROFILE_VIEWED on first view
// and bumps the view counter on every subsequent one.
func (u *IntroductionUsecase) RecordProfileView(ctx context.Context, employerID, candidateID string, jobID *string) (*domain.Introduction, error) {
	intro, err := u.repo.UpsertProfileView(ctx, employerID, candidateID, jobID)
	if err != nil {
		return nil, fmt.Errorf("record profile view: %w", err)
	}
	return intro, nil
}

func (u *IntroductionUsecase) RecordResumeDownload(ctx context.Context, id, employerID string) error {
	if err := u.repo.IncrementResumeDownloads(ctx, id, employerID); err != nil {
		return fmt.Errorf("record resume download: %w", err)
	}
	return nil
}

// RequestIntro moves PROFILE_VIEWED → INTRO_REQUESTED and issues the
// candidate's response token.
func (u *IntroductionUsecase) RequestIntro(ctx context.Context, id, employerID string) (*domain.Introduction, error) {
	intro, err := u.repo.GetForEmployer(ctx, id, employerID)
	if err != nil {
		return nil, fmt.Errorf("get introduction: %w", err)
	}

	if err := u.repo.MarkRequested(ctx, id, time.Now()); err != nil {
		return nil, err
	}
	metrics.IntroTransitionsTotal.WithLabelValues(string(domain.IntroRequested)).Inc()

	if _, err := u.issuer.Issue(ctx, intro); err != nil {
		// Without a pending token the intro would sit at INTRO_REQUESTED
		// forever: the reaper only expires rows joined to a token. Roll the
		// status back so the employer can retry.
		if rbErr := u.repo.TransitionStatus(ctx, id, domain.IntroRequested, domain.IntroProfileViewed); rbErr != nil {
			u.logger.ErrorContext(ctx, "status rollback after failed token issue",
				"introduction_id", id, "error", rbErr)
		}
		return nil, fmt.Errorf("issue response token: %w", err)
	}

	updated, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload introduction: %w", err)
	}
	return updated, nil
}

// Reinvite mints a fresh response token for an introduction still awaiting
// the candidate, superseding any earlier link. Lets an admin follow up
// after a QUESTIONS response or a lost email.
func (u *IntroductionUsecase) Reinvite(ctx context.Context, id string) error {
	intro, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get introduction: %w", err)
	}
	if intro.Status != domain.IntroRequested {
		return domain.ErrInvalidTransition
	}

	if _, err := u.issuer.Issue(ctx, intro); err != nil {
		return fmt.Errorf("issue response token: %w", err)
	}
	u.logger.InfoContext(ctx, "response token reissued", "introduction_id", id)
	return nil
}

// MarkInterviewing, MarkOfferExtended and MarkHired are the employer-driven
// forward moves. Each is a compare-and-set keyed on its table row.
func (u *IntroductionUsecase) MarkInterviewing(ctx context.Context, id, employerID string) error {
	return u.advance(ctx, id, employerID, domain.IntroIntroduced, domain.IntroInterviewing)
}

func (u *IntroductionUsecase) MarkOfferExtended(ctx context.Context, id, employerID string) error {
	return u.advance(ctx, id, employerID, domain.IntroInterviewing, domain.IntroOfferExtended)
}

func (u *IntroductionUsecase) MarkHired(ctx context.Context, id, employerID string) error {
	return u.advance(ctx, id, employerID, domain.IntroOfferExtended, domain.IntroHired)
}

func (u *IntroductionUsecase) advance(ctx context.Context, id, employerID string, from, to domain.IntroStatus) error {
	if _, err := u.repo.GetForEmployer(ctx, id, employerID); err != nil {
		return fmt.Errorf("get introduction: %w", err)
	}
	if err := u.repo.TransitionStatus(ctx, id, from, to); err != nil {
		return err
	}
	metrics.IntroTransitionsTotal.WithLabelValues(string(to)).Inc()
	return nil
}

// SetStatus is the admin escape hatch: any transition between non-terminal
// states, or into a terminal one. Leaving a terminal state is rejected even
// for admins. Every override is audited.
func (u *IntroductionUsecase) SetStatus(ctx context.Context, id, adminID string, to domain.IntroStatus) (*domain.Introduction, error) {
	if !to.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	override, err := u.repo.OverrideStatus(ctx, id, adminID, to)
	if err != nil {
		return nil, err
	}
	u.logger.InfoContext(ctx, "admin status override",
		"introduction_id", id,
		"admin_id", adminID,
		"from", override.FromStatus,
		"to", override.ToStatus,
	)
	metrics.IntroTransitionsTotal.WithLabelValues(string(to)).Inc()

	intro, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload introduction: %w", err)
	}
	return intro, nil
}

func (u *IntroductionUsecase) Get(ctx context.Context, id string) (*domain.Introduction, error) {
	intro, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get introduction: %w", err)
	}
	return intro, nil
}

func (u *IntroductionUsecase) Stats(ctx context.Context) (map[domain.IntroStatus]int, error) {
	counts, err := u.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("introduction stats: %w", err)
	}
	return counts, nil
}

type ListIntroductionsInput struct {
	EmployerID string
	Status     domain.IntroStatus
	Cursor     string
	Limit      int
}

type ListIntroductionsResult struct {
	Introductions []*domain.Introduction
	NextCursor    *string
}

type listCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

func decodeListCursor(s string) (*time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}
	var c listCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", fmt.Errorf("unmarshal cursor: %w", err)
	}
	return &c.CreatedAt, c.ID, nil
}

func encodeListCursor(createdAt time.Time, id string) string {
	b, _ := json.Marshal(listCursor{CreatedAt: createdAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}

func (u *IntroductionUsecase) List(ctx context.Context, input ListIntroductionsInput) (ListIntroductionsResult, error) {
	if input.Status != "" && !input.Status.Valid() {
		return ListIntroductionsResult{}, domain.ErrInvalidStatus
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	repoInput := repository.ListIntroductionsInput{
		EmployerID: input.EmployerID,
		Status:     input.Status,
		Limit:      limit + 1,
	}
	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeListCursor(input.Cursor)
		if err != nil {
			return ListIntroductionsResult{}, domain.ErrInvalidStatus
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	intros, err := u.repo.List(ctx, repoInput)
	if err != nil {
		return ListIntroductionsResult{}, fmt.Errorf("list introductions: %w", err)
	}

	var nextCursor *string
	if len(intros) == limit+1 {
		// The repo filters strictly below the cursor, so it must point at
		// the last row of this page, not the probe row.
		intros = intros[:limit]
		last := intros[limit-1]
		s := encodeListCursor(last.CreatedAt, last.ID)
		nextCursor = &s
	}

	return ListIntroductionsResult{Introductions: intros, NextCursor: nextCursor}, nil
}
