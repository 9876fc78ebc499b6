package usecase_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/repository"
	"github.com/hireloop/engine/internal/usecase"
)

// ---- fakes ----

type fakeTokenRepo struct {
	create    func(ctx context.Context, t *domain.ResponseToken) (*domain.ResponseToken, error)
	getByHash func(ctx context.Context, tokenHash string) (*domain.ResponseToken, error)
	consume   func(ctx context.Context, tokenHash string, response domain.CandidateResponse, message *string, now time.Time) (*domain.ResponseToken, error)
}

func (r *fakeTokenRepo) Create(ctx context.Context, t *domain.ResponseToken) (*domain.ResponseToken, error) {
	return r.create(ctx, t)
}

func (r *fakeTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.ResponseToken, error) {
	return r.getByHash(ctx, tokenHash)
}

func (r *fakeTokenRepo) Consume(ctx context.Context, tokenHash string, response domain.CandidateResponse, message *string, now time.Time) (*domain.ResponseToken, error) {
	return r.consume(ctx, tokenHash, response, message, now)
}

type fakeIntroRepo struct {
	upsertProfileView        func(ctx context.Context, employerID, candidateID string, jobID *string) (*domain.Introduction, error)
	incrementResumeDownloads func(ctx context.Context, id, employerID string) error
	getByID                  func(ctx context.Context, id string) (*domain.Introduction, error)
	getForEmployer           func(ctx context.Context, id, employerID string) (*domain.Introduction, error)
	getSnapshot              func(ctx context.Context, id string) (*domain.IntroductionSnapshot, error)
	list                     func(ctx context.Context, input repository.ListIntroductionsInput) ([]*domain.Introduction, error)
	countByStatus            func(ctx context.Context) (map[domain.IntroStatus]int, error)
	markRequested            func(ctx context.Context, id string, requestedAt time.Time) error
	recordResponse           func(ctx context.Context, input repository.RecordResponseInput) error
	transitionStatus         func(ctx context.Context, id string, from, to domain.IntroStatus) error
	overrideStatus           func(ctx context.Context, id, adminID string, to domain.IntroStatus) (*domain.StatusOverride, error)
	expireStaleRequests      func(ctx context.Context, now time.Time, limit int) (int, error)
	expireLapsedProtection   func(ctx context.Context, now time.Time, limit int) (int, error)
}

func (r *fakeIntroRepo) UpsertProfileView(ctx context.Context, employerID, candidateID string, jobID *string) (*domain.Introduction, error) {
	return r.upsertProfileView(ctx, employerID, candidateID, jobID)
}

func (r *fakeIntroRepo) IncrementResumeDownloads(ctx context.Context, id, employerID string) error {
	return r.incrementResumeDownloads(ctx, id, employerID)
}

func (r *fakeIntroRepo) GetByID(ctx context.Context, id string) (*domain.Introduction, error) {
	return r.getByID(ctx, id)
}

func (r *fakeIntroRepo) GetForEmployer(ctx context.Context, id, employerID string) (*domain.Introduction, error) {
	return r.getForEmployer(ctx, id, employerID)
}

func (r *fakeIntroRepo) GetSnapshot(ctx context.Context, id string) (*domain.IntroductionSnapshot, error) {
	return r.getSnapshot(ctx, id)
}

func (r *fakeIntroRepo) List(ctx context.Context, input repository.ListIntroductionsInput) ([]*domain.Introduction, error) {
	return r.list(ctx, input)
}

func (r *fakeIntroRepo) CountByStatus(ctx context.Context) (map[domain.IntroStatus]int, error) {
	return r.countByStatus(ctx)
}

func (r *fakeIntroRepo) MarkRequested(ctx context.Context, id string, requestedAt time.Time) error {
	return r.markRequested(ctx, id, requestedAt)
}

func (r *fakeIntroRepo) RecordResponse(ctx context.Context, input repository.RecordResponseInput) error {
	return r.recordResponse(ctx, input)
}

func (r *fakeIntroRepo) TransitionStatus(ctx context.Context, id string, from, to domain.IntroStatus) error {
	return r.transitionStatus(ctx, id, from, to)
}

func (r *fakeIntroRepo) OverrideStatus(ctx context.Context, id, adminID string, to domain.IntroStatus) (*domain.StatusOverride, error) {
	return r.overrideStatus(ctx, id, adminID, to)
}

func (r *fakeIntroRepo) ExpireStaleRequests(ctx context.Context, now time.Time, limit int) (int, error) {
	return r.expireStaleRequests(ctx, now, limit)
}

func (r *fakeIntroRepo) ExpireLapsedProtection(ctx context.Context, now time.Time, limit int) (int, error) {
	return r.expireLapsedProtection(ctx, now, limit)
}

type fakeCandidateRepo struct {
	getByID func(ctx context.Context, id string) (*domain.Candidate, error)
}

func (r *fakeCandidateRepo) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	return r.getByID(ctx, id)
}

type fakeEmailSender struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (s *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

// ---- helpers ----

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func hashOf(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

var testIntro = &domain.Introduction{
	ID:          "intro-1",
	CandidateID: "cand-1",
	EmployerID:  "emp-1",
	Status:      domain.IntroRequested,
}

var testCandidate = &domain.Candidate{ID: "cand-1", Name: "Ada Verne", Email: "ada@test.local"}

var testSnapshot = &domain.IntroductionSnapshot{
	Introduction:  testIntro,
	CandidateName: "Ada Verne",
	EmployerName:  "Sam",
	CompanyName:   "Acme Robotics",
}

func newRespondUsecase(tokens *fakeTokenRepo, intros *fakeIntroRepo, sender *fakeEmailSender) *usecase.RespondUsecase {
	candidates := &fakeCandidateRepo{
		getByID: func(_ context.Context, _ string) (*domain.Candidate, error) {
			return testCandidate, nil
		},
	}
	return usecase.NewRespondUsecase(
		tokens, intros, candidates, sender, testLogger(),
		0, 0, "http://localhost:8080", "admin@test.local",
	)
}

// ---- Issue ----

func TestIssue_StoresHashOfEmailedToken(t *testing.T) {
	var storedHash string
	var emailedBody string

	tokens := &fakeTokenRepo{
		create: func(_ context.Context, tok *domain.ResponseToken) (*domain.ResponseToken, error) {
			storedHash = tok.TokenHash
			return tok, nil
		},
	}
	intros := &fakeIntroRepo{
		getSnapshot: func(_ context.Context, _ string) (*domain.IntroductionSnapshot, error) {
			return testSnapshot, nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, body string) error {
			emailedBody = body
			return nil
		},
	}

	raw, err := newRespondUsecase(tokens, intros, sender).Issue(context.Background(), testIntro)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if storedHash != hashOf(raw) {
		t.Errorf("stored hash %q != SHA-256 of returned token", storedHash)
	}
	if strings.Contains(emailedBody, storedHash) {
		t.Error("email body contains the token hash; only the raw token should be emailed")
	}
	if !strings.Contains(emailedBody, "/respond/"+raw) {
		t.Error("email body does not contain the respond link")
	}
}

func TestIssue_TokenExpiresInFuture(t *testing.T) {
	var storedExpiry time.Time

	tokens := &fakeTokenRepo{
		create: func(_ context.Context, tok *domain.ResponseToken) (*domain.ResponseToken, error) {
			storedExpiry = tok.ExpiresAt
			return tok, nil
		},
	}
	intros := &fakeIntroRepo{
		getSnapshot: func(_ context.Context, _ string) (*domain.IntroductionSnapshot, error) {
			return testSnapshot, nil
		},
	}
	sender := &fakeEmailSender{send: func(_ context.Context, _, _, _ string) error { return nil }}

	before := time.Now()
	if _, err := newRespondUsecase(tokens, intros, sender).Issue(context.Background(), testIntro); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !storedExpiry.After(before.Add(6 * 24 * time.Hour)) {
		t.Errorf("expiry %v is sooner than the default week-long TTL", storedExpiry)
	}
}

func TestIssue_DistinctTokensPerCall(t *testing.T) {
	tokens := &fakeTokenRepo{
		create: func(_ context.Context, tok *domain.ResponseToken) (*domain.ResponseToken, error) {
			return tok, nil
		},
	}
	intros := &fakeIntroRepo{
		getSnapshot: func(_ context.Context, _ string) (*domain.IntroductionSnapshot, error) {
			return testSnapshot, nil
		},
	}
	sender := &fakeEmailSender{send: func(_ context.Context, _, _, _ string) error { return nil }}
	uc := newRespondUsecase(tokens, intros, sender)

	first, err := uc.Issue(context.Background(), testIntro)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := uc.Issue(context.Background(), testIntro)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Error("two issued tokens are identical")
	}
}

// ---- Resolve ----

func TestResolve_UnknownToken_ReturnsInvalid(t *testing.T) {
	tokens := &fakeTokenRepo{
		getByHash: func(_ context.Context, _ string) (*domain.ResponseToken, error) {
			return nil, domain.ErrTokenInvalid
		},
	}
	uc := newRespondUsecase(tokens, &fakeIntroRepo{}, &fakeEmailSender{})

	_, err := uc.Resolve(context.Background(), "no-such-token")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestResolve_ExpiredToken_ReturnsExpired(t *testing.T) {
	tokens := &fakeTokenRepo{
		getByHash: func(_ context.Context, _ string) (*domain.ResponseToken, error) {
			return &domain.ResponseToken{
				IntroductionID: testIntro.ID,
				ExpiresAt:      time.Now().Add(-time.Minute),
			}, nil
		},
	}
	uc := newRespondUsecase(tokens, &fakeIntroRepo{}, &fakeEmailSender{})

	_, err := uc.Resolve(context.Background(), "stale-token")
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
}

func TestResolve_ConsumedToken_ReturnsAlreadyResponded(t *testing.T) {
	consumedAt := time.Now().Add(-time.Hour)
	response := domain.ResponseDeclined
	tokens := &fakeTokenRepo{
		getByHash: func(_ context.Context, _ string) (*domain.ResponseToken, error) {
			return &domain.ResponseToken{
				IntroductionID: testIntro.ID,
				ExpiresAt:      time.Now().Add(time.Hour),
				ConsumedAt:     &consumedAt,
				Response:       &response,
			}, nil
		},
	}
	uc := newRespondUsecase(tokens, &fakeIntroRepo{}, &fakeEmailSender{})

	_, err := uc.Resolve(context.Background(), "used-token")
	var already *domain.AlreadyRespondedError
	if !errors.As(err, &already) {
		t.Fatalf("want AlreadyRespondedError, got %v", err)
	}
	if already.Response != domain.ResponseDeclined {
		t.Errorf("recorded response = %s, want DECLINED", already.Response)
	}
}

func TestResolve_PendingToken_ReturnsSnapshot(t *testing.T) {
	tokens := &fakeTokenRepo{
		getByHash: func(_ context.Context, _ string) (*domain.ResponseToken, error) {
			return &domain.ResponseToken{
				IntroductionID: testIntro.ID,
				ExpiresAt:      time.Now().Add(time.Hour),
			}, nil
		},
	}
	intros := &fakeIntroRepo{
		getSnapshot: func(_ context.Context, id string) (*domain.IntroductionSnapshot, error) {
			if id != testIntro.ID {
				t.Errorf("snapshot requested for %q, want %q", id, testIntro.ID)
			}
			return testSnapshot, nil
		},
	}
	uc := newRespondUsecase(tokens, intros, &fakeEmailSender{})

	snap, err := uc.Resolve(context.Background(), "pending-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.CompanyName != testSnapshot.CompanyName {
		t.Errorf("company = %q, want %q", snap.CompanyName, testSnapshot.CompanyName)
	}
}

// ---- Consume ----

func consumedToken(response domain.CandidateResponse, now time.Time) *domain.ResponseToken {
	return &domain.ResponseToken{
		IntroductionID: testIntro.ID,
		ExpiresAt:      now.Add(time.Hour),
		ConsumedAt:     &now,
		Response:       &response,
	}
}

func TestConsume_Accepted_SetsProtectionWindow(t *testing.T) {
	var recorded repository.RecordResponseInput

	tokens := &fakeTokenRepo{
		consume: func(_ context.Context, _ string, response domain.CandidateResponse, _ *string, now time.Time) (*domain.ResponseToken, error) {
			return consumedToken(response, now), nil
		},
	}
	intros := &fakeIntroRepo{
		recordResponse: func(_ context.Context, input repository.RecordResponseInput) error {
			recorded = input
			return nil
		},
		getByID: func(_ context.Context, _ string) (*domain.Introduction, error) {
			return testIntro, nil
		},
	}
	uc := newRespondUsecase(tokens, intros, &fakeEmailSender{})

	if _, err := uc.Consume(context.Background(), "tok", domain.ResponseAccepted, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if recorded.NewStatus != domain.IntroIntroduced {
		t.Errorf("new status = %s, want INTRODUCED", recorded.NewStatus)
	}
	if recorded.ProtectionStartsAt == nil || recorded.ProtectionEndsAt == nil {
		t.Fatal("protection window not set for ACCEPTED")
	}
	window := recorded.ProtectionEndsAt.Sub(*recorded.ProtectionStartsAt)
	if window != 30*24*time.Hour {
		t.Errorf("protection window = %v, want 720h", window)
	}
}

func TestConsume_Declined_MovesToCandidateDeclined(t *testing.T) {
	var recorded repository.RecordResponseInput

	tokens := &fakeTokenRepo{
		consume: func(_ context.Context, _ string, response domain.CandidateResponse, _ *string, now time.Time) (*domain.ResponseToken, error) {
			return consumedToken(response, now), nil
		},
	}
	intros := &fakeIntroRepo{
		recordResponse: func(_ context.Context, input repository.RecordResponseInput) error {
			recorded = input
			return nil
		},
		getByID: func(_ context.Context, _ string) (*domain.Introduction, error) {
			return testIntro, nil
		},
	}
	uc := newRespondUsecase(tokens, intros, &fakeEmailSender{})

	if _, err := uc.Consume(context.Background(), "tok", domain.ResponseDeclined, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if recorded.NewStatus != domain.IntroCandidateDeclined {
		t.Errorf("new status = %s, want CANDIDATE_DECLINED", recorded.NewStatus)
	}
	if recorded.ProtectionStartsAt != nil {
		t.Error("protection window set for DECLINED")
	}
}

func TestConsume_Questions_KeepsStatusAndNotifiesAdmin(t *testing.T) {
	var recorded repository.RecordResponseInput
	var adminNotified bool
	msg := "What is the salary range?"

	tokens := &fakeTokenRepo{
		consume: func(_ context.Context, _ string, response domain.CandidateResponse, _ *string, now time.Time) (*domain.ResponseToken, error) {
			return consumedToken(response, now), nil
		},
	}
	intros := &fakeIntroRepo{
		recordResponse: func(_ context.Context, input repository.RecordResponseInput) error {
			recorded = input
			return nil
		},
		getByID: func(_ context.Context, _ string) (*domain.Introduction, error) {
			return testIntro, nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, to, _, body string) error {
			if to == "admin@test.local" && strings.Contains(body, msg) {
				adminNotified = true
			}
			return nil
		},
	}
	uc := newRespondUsecase(tokens, intros, sender)

	if _, err := uc.Consume(context.Background(), "tok", domain.ResponseQuestions, &msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if recorded.NewStatus != domain.IntroRequested {
		t.Errorf("new status = %s, want INTRO_REQUESTED (QUESTIONS keeps the intro open)", recorded.NewStatus)
	}
	if !adminNotified {
		t.Error("admin was not notified of the question")
	}
}

func TestConsume_AdminNotificationFailure_DoesNotFailRequest(t *testing.T) {
	tokens := &fakeTokenRepo{
		consume: func(_ context.Context, _ string, response domain.CandidateResponse, _ *string, now time.Time) (*domain.ResponseToken, error) {
			return consumedToken(response, now), nil
		},
	}
	intros := &fakeIntroRepo{
		recordResponse: func(_ context.Context, _ repository.RecordResponseInput) error { return nil },
		getByID: func(_ context.Context, _ string) (*domain.Introduction, error) {
			return testIntro, nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error {
			return errors.New("smtp unavailable")
		},
	}
	uc := newRespondUsecase(tokens, intros, sender)

	if _, err := uc.Consume(context.Background(), "tok", domain.ResponseQuestions, nil); err != nil {
		t.Errorf("consume failed on admin notification error: %v", err)
	}
}

func TestConsume_LoserOfRace_GetsWinnersResponse(t *testing.T) {
	winnerAt := time.Now()
	winnerResponse := domain.ResponseAccepted

	tokens := &fakeTokenRepo{
		consume: func(_ context.Context, _ string, _ domain.CandidateResponse, _ *string, _ time.Time) (*domain.ResponseToken, error) {
			// The conditional UPDATE matched zero rows.
			return nil, domain.ErrTokenInvalid
		},
		getByHash: func(_ context.Context, _ string) (*domain.ResponseToken, error) {
			return &domain.ResponseToken{
				IntroductionID: testIntro.ID,
				ExpiresAt:      time.Now().Add(time.Hour),
				ConsumedAt:     &winnerAt,
				Response:       &winnerResponse,
			}, nil
		},
	}
	uc := newRespondUsecase(tokens, &fakeIntroRepo{}, &fakeEmailSender{})

	_, err := uc.Consume(context.Background(), "tok", domain.ResponseDeclined, nil)
	var already *domain.AlreadyRespondedError
	if !errors.As(err, &already) {
		t.Fatalf("want AlreadyRespondedError, got %v", err)
	}
	if already.Response != domain.ResponseAccepted {
		t.Errorf("loser saw %s, want the winner's ACCEPTED", already.Response)
	}
}

func TestConsume_ExpiredToken_ReturnsExpired(t *testing.T) {
	tokens := &fakeTokenRepo{
		consume: func(_ context.Context, _ string, _ domain.CandidateResponse, _ *string, _ time.Time) (*domain.ResponseToken, error) {
			return nil, domain.ErrTokenInvalid
		},
		getByHash: func(_ context.Context, _ string) (*domain.ResponseToken, error) {
			return &domain.ResponseToken{
				IntroductionID: testIntro.ID,
				ExpiresAt:      time.Now().Add(-time.Second),
			}, nil
		},
	}
	uc := newRespondUsecase(tokens, &fakeIntroRepo{}, &fakeEmailSender{})

	_, err := uc.Consume(context.Background(), "tok", domain.ResponseAccepted, nil)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
}

func TestConsume_UnknownResponse_Rejected(t *testing.T) {
	uc := newRespondUsecase(&fakeTokenRepo{}, &fakeIntroRepo{}, &fakeEmailSender{})

	_, err := uc.Consume(context.Background(), "tok", domain.CandidateResponse("MAYBE"), nil)
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("want ErrInvalidStatus, got %v", err)
	}
}
