package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/repository"
	"github.com/hireloop/engine/internal/usecase"
)

type fakeIssuer struct {
	issue func(ctx context.Context, intro *domain.Introduction) (string, error)
}

func (f *fakeIssuer) Issue(ctx context.Context, intro *domain.Introduction) (string, error) {
	return f.issue(ctx, intro)
}

func newIntroUsecase(repo *fakeIntroRepo, issuer *fakeIssuer) *usecase.IntroductionUsecase {
	if issuer == nil {
		issuer = &fakeIssuer{issue: func(_ context.Context, _ *domain.Introduction) (string, error) {
			return "raw-token", nil
		}}
	}
	return usecase.NewIntroductionUsecase(repo, issuer, testLogger())
}

// ---- RequestIntro ----

func TestRequestIntro_IssuesTokenAfterTransition(t *testing.T) {
	var requestedAt time.Time
	var issued bool

	repo := &fakeIntroRepo{
		getForEmployer: func(_ context.Context, _, _ string) (*domain.Introduction, error) {
			return &domain.Introduction{ID: "intro-1", CandidateID: "cand-1", EmployerID: "emp-1", Status: domain.IntroProfileViewed}, nil
		},
		markRequested: func(_ context.Context, _ string, at time.Time) error {
			requestedAt = at
			return nil
		},
		getByID: func(_ context.Context, _ string) (*domain.Introduction, error) {
			return &domain.Introduction{ID: "intro-1", Status: domain.IntroRequested}, nil
		},
	}
	issuer := &fakeIssuer{issue: func(_ context.Context, intro *domain.Introduction) (string, error) {
		if requestedAt.IsZero() {
			t.Error("token issued before the status transition")
		}
		if intro.CandidateID != "cand-1" {
			t.Errorf("issuer saw candidate %q, want cand-1", intro.CandidateID)
		}
		issued = true
		return "raw-token", nil
	}}

	intro, err := newIntroUsecase(repo, issuer).RequestIntro(context.Background(), "intro-1", "emp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !issued {
		t.Fatal("no response token issued")
	}
	if intro.Status != domain.IntroRequested {
		t.Errorf("status = %s, want INTRO_REQUESTED", intro.Status)
	}
}

func TestRequestIntro_IssueFails_RollsBackStatus(t *testing.T) {
	var rolledFrom, rolledTo domain.IntroStatus
	repo := &fakeIntroRepo{
		getForEmployer: func(_ context.Context, _, _ string) (*domain.Introduction, error) {
			return &domain.Introduction{ID: "intro-1", Status: domain.IntroProfileViewed}, nil
		},
		markRequested: func(_ context.Context, _ string, _ time.Time) error {
			return nil
		},
		transitionStatus: func(_ context.Context, _ string, from, to domain.IntroStatus) error {
			rolledFrom, rolledTo = from, to
			return nil
		},
	}
	issuer := &fakeIssuer{issue: func(_ context.Context, _ *domain.Introduction) (string, error) {
		return "", errors.New("email provider down")
	}}

	_, err := newIntroUsecase(repo, issuer).RequestIntro(context.Background(), "intro-1", "emp-1")
	if err == nil {
		t.Fatal("expected error when token issue fails")
	}
	if rolledFrom != domain.IntroRequested || rolledTo != domain.IntroProfileViewed {
		t.Errorf("rollback %s → %s, want INTRO_REQUESTED → PROFILE_VIEWED", rolledFrom, rolledTo)
	}
}

func TestRequestIntro_AlreadyRequested_ReturnsInvalidTransition(t *testing.T) {
	repo := &fakeIntroRepo{
		getForEmployer: func(_ context.Context, _, _ string) (*domain.Introduction, error) {
			return &domain.Introduction{ID: "intro-1", Status: domain.IntroRequested}, nil
		},
		markRequested: func(_ context.Context, _ string, _ time.Time) error {
			return domain.ErrInvalidTransition
		},
	}

	_, err := newIntroUsecase(repo, nil).RequestIntro(context.Background(), "intro-1", "emp-1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("want ErrInvalidTransition, got %v", err)
	}
}

func TestRequestIntro_OtherEmployersIntro_NotFound(t *testing.T) {
	repo := &fakeIntroRepo{
		getForEmployer: func(_ context.Context, _, _ string) (*domain.Introduction, error) {
			return nil, domain.ErrIntroductionNotFound
		},
	}

	_, err := newIntroUsecase(repo, nil).RequestIntro(context.Background(), "intro-1", "emp-2")
	if !errors.Is(err, domain.ErrIntroductionNotFound) {
		t.Errorf("want ErrIntroductionNotFound, got %v", err)
	}
}

// ---- Reinvite ----

func TestReinvite_AwaitingCandidate_IssuesFreshToken(t *testing.T) {
	var issued bool
	repo := &fakeIntroRepo{
		getByID: func(_ context.Context, id string) (*domain.Introduction, error) {
			return &domain.Introduction{ID: id, CandidateID: "cand-1", Status: domain.IntroRequested}, nil
		},
	}
	issuer := &fakeIssuer{issue: func(_ context.Context, intro *domain.Introduction) (string, error) {
		if intro.CandidateID != "cand-1" {
			t.Errorf("issuer saw candidate %q, want cand-1", intro.CandidateID)
		}
		issued = true
		return "fresh-token", nil
	}}

	if err := newIntroUsecase(repo, issuer).Reinvite(context.Background(), "intro-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !issued {
		t.Fatal("no replacement token issued")
	}
}

func TestReinvite_NotAwaitingCandidate_Rejected(t *testing.T) {
	repo := &fakeIntroRepo{
		getByID: func(_ context.Context, id string) (*domain.Introduction, error) {
			return &domain.Introduction{ID: id, Status: domain.IntroIntroduced}, nil
		},
	}
	issuer := &fakeIssuer{issue: func(_ context.Context, _ *domain.Introduction) (string, error) {
		t.Fatal("token issued for an introduction past INTRO_REQUESTED")
		return "", nil
	}}

	err := newIntroUsecase(repo, issuer).Reinvite(context.Background(), "intro-1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("want ErrInvalidTransition, got %v", err)
	}
}

// ---- forward moves ----

func TestMarkInterviewing_UsesCompareAndSet(t *testing.T) {
	var gotFrom, gotTo domain.IntroStatus
	repo := &fakeIntroRepo{
		getForEmployer: func(_ context.Context, _, _ string) (*domain.Introduction, error) {
			return &domain.Introduction{ID: "intro-1", Status: domain.IntroIntroduced}, nil
		},
		transitionStatus: func(_ context.Context, _ string, from, to domain.IntroStatus) error {
			gotFrom, gotTo = from, to
			return nil
		},
	}

	if err := newIntroUsecase(repo, nil).MarkInterviewing(context.Background(), "intro-1", "emp-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFrom != domain.IntroIntroduced || gotTo != domain.IntroInterviewing {
		t.Errorf("transition %s → %s, want INTRODUCED → INTERVIEWING", gotFrom, gotTo)
	}
}

func TestMarkHired_WrongState_ReturnsInvalidTransition(t *testing.T) {
	repo := &fakeIntroRepo{
		getForEmployer: func(_ context.Context, _, _ string) (*domain.Introduction, error) {
			return &domain.Introduction{ID: "intro-1", Status: domain.IntroIntroduced}, nil
		},
		transitionStatus: func(_ context.Context, _ string, _, _ domain.IntroStatus) error {
			return domain.ErrInvalidTransition
		},
	}

	err := newIntroUsecase(repo, nil).MarkHired(context.Background(), "intro-1", "emp-1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("want ErrInvalidTransition, got %v", err)
	}
}

// ---- SetStatus (admin override) ----

func TestSetStatus_RecordsAudit(t *testing.T) {
	var auditedAdmin string
	repo := &fakeIntroRepo{
		overrideStatus: func(_ context.Context, _, adminID string, to domain.IntroStatus) (*domain.StatusOverride, error) {
			auditedAdmin = adminID
			return &domain.StatusOverride{FromStatus: domain.IntroRequested, ToStatus: to}, nil
		},
		getByID: func(_ context.Context, _ string) (*domain.Introduction, error) {
			return &domain.Introduction{ID: "intro-1", Status: domain.IntroClosedNoHire}, nil
		},
	}

	intro, err := newIntroUsecase(repo, nil).SetStatus(context.Background(), "intro-1", "admin-1", domain.IntroClosedNoHire)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auditedAdmin != "admin-1" {
		t.Errorf("audited admin = %q, want admin-1", auditedAdmin)
	}
	if intro.Status != domain.IntroClosedNoHire {
		t.Errorf("status = %s, want CLOSED_NO_HIRE", intro.Status)
	}
}

func TestSetStatus_TerminalState_Rejected(t *testing.T) {
	repo := &fakeIntroRepo{
		overrideStatus: func(_ context.Context, _, _ string, _ domain.IntroStatus) (*domain.StatusOverride, error) {
			return nil, domain.ErrInvalidTransition
		},
	}

	_, err := newIntroUsecase(repo, nil).SetStatus(context.Background(), "intro-1", "admin-1", domain.IntroRequested)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("want ErrInvalidTransition, got %v", err)
	}
}

func TestSetStatus_UnknownStatus_Rejected(t *testing.T) {
	_, err := newIntroUsecase(&fakeIntroRepo{}, nil).SetStatus(context.Background(), "intro-1", "admin-1", domain.IntroStatus("GHOSTED"))
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("want ErrInvalidStatus, got %v", err)
	}
}

// ---- List ----

func makeIntros(n int) []*domain.Introduction {
	out := make([]*domain.Introduction, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = &domain.Introduction{
			ID:        string(rune('a' + i)),
			Status:    domain.IntroProfileViewed,
			CreatedAt: base.Add(time.Duration(-i) * time.Hour),
		}
	}
	return out
}

func TestList_FullPage_ReturnsNextCursor(t *testing.T) {
	repo := &fakeIntroRepo{
		list: func(_ context.Context, input repository.ListIntroductionsInput) ([]*domain.Introduction, error) {
			// The usecase over-fetches by one to detect another page.
			return makeIntros(input.Limit), nil
		},
	}

	result, err := newIntroUsecase(repo, nil).List(context.Background(), usecase.ListIntroductionsInput{
		EmployerID: "emp-1",
		Limit:      5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Introductions) != 5 {
		t.Errorf("page size = %d, want 5", len(result.Introductions))
	}
	if result.NextCursor == nil {
		t.Error("next cursor missing on a full page")
	}
}

func TestList_PartialPage_NoNextCursor(t *testing.T) {
	repo := &fakeIntroRepo{
		list: func(_ context.Context, _ repository.ListIntroductionsInput) ([]*domain.Introduction, error) {
			return makeIntros(3), nil
		},
	}

	result, err := newIntroUsecase(repo, nil).List(context.Background(), usecase.ListIntroductionsInput{
		EmployerID: "emp-1",
		Limit:      5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Introductions) != 3 {
		t.Errorf("page size = %d, want 3", len(result.Introductions))
	}
	if result.NextCursor != nil {
		t.Error("next cursor present on the last page")
	}
}

func TestList_CursorWalk_ReturnsEveryIntroductionExactlyOnce(t *testing.T) {
	all := makeIntros(5)
	// The fake applies the same strict (created_at, id) < cursor predicate
	// the SQL repo uses, over rows already in (created_at, id) DESC order.
	repo := &fakeIntroRepo{
		list: func(_ context.Context, input repository.ListIntroductionsInput) ([]*domain.Introduction, error) {
			var out []*domain.Introduction
			for _, in := range all {
				if input.CursorTime != nil {
					beforeCursor := in.CreatedAt.Before(*input.CursorTime) ||
						(in.CreatedAt.Equal(*input.CursorTime) && in.ID < input.CursorID)
					if !beforeCursor {
						continue
					}
				}
				out = append(out, in)
				if len(out) == input.Limit {
					break
				}
			}
			return out, nil
		},
	}

	uc := newIntroUsecase(repo, nil)
	seen := map[string]int{}
	cursor := ""
	for range all {
		result, err := uc.List(context.Background(), usecase.ListIntroductionsInput{
			EmployerID: "emp-1",
			Cursor:     cursor,
			Limit:      2,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, in := range result.Introductions {
			seen[in.ID]++
		}
		if result.NextCursor == nil {
			break
		}
		cursor = *result.NextCursor
	}

	for _, in := range all {
		if seen[in.ID] != 1 {
			t.Errorf("introduction %q returned %d times across pages, want exactly once", in.ID, seen[in.ID])
		}
	}
}

func TestList_InvalidStatusFilter_Rejected(t *testing.T) {
	_, err := newIntroUsecase(&fakeIntroRepo{}, nil).List(context.Background(), usecase.ListIntroductionsInput{
		Status: domain.IntroStatus("GHOSTED"),
	})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("want ErrInvalidStatus, got %v", err)
	}
}

func TestList_BadCursor_Rejected(t *testing.T) {
	_, err := newIntroUsecase(&fakeIntroRepo{}, nil).List(context.Background(), usecase.ListIntroductionsInput{
		Cursor: "not base64 json!!",
	})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("want error on malformed cursor, got %v", err)
	}
}
