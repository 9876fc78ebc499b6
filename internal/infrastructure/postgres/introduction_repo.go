package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const introColumns = `id, candidate_id, employer_id, job_id, status,
	       candidate_response, candidate_message, profile_views, resume_downloads,
	       profile_viewed_at, intro_requested_at, candidate_responded_at, introduced_at,
	       protection_starts_at, protection_ends_at, created_at, updated_at`

type IntroductionRepository struct {
	pool *pgxpool.Pool
}

func NewIntroductionRepository(pool *pgxpool.Pool) *IntroductionRepository {
	return &IntroductionRepository{pool: pool}
}

func (r *IntroductionRepository) UpsertProfileView(ctx context.Context, employerID, candidateID string, jobID *string) (*domain.Introduction, error) {
	// The partial unique index on (employer_id, candidate_id, coalesce(job_id, ''))
	// makes repeat views land on the conflict arm.
	query := fmt.Sprintf(`
		INSERT INTO introductions (employer_id, candidate_id, job_id, status, profile_views, profile_viewed_at)
		VALUES ($1, $2, $3, 'PROFILE_VIEWED', 1, NOW())
		ON CONFLICT (employer_id, candidate_id, COALESCE(job_id, ''))
		DO UPDATE SET profile_views = introductions.profile_views + 1, updated_at = NOW()
		RETURNING %s`, introColumns)

	row := r.pool.QueryRow(ctx, query, employerID, candidateID, jobID)
	return scanIntroduction(row)
}

func (r *IntroductionRepository) IncrementResumeDownloads(ctx context.Context, id, employerID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE introductions SET resume_downloads = resume_downloads + 1, updated_at = NOW()
		 WHERE id = $1 AND employer_id = $2`,
		id, employerID)
	if err != nil {
		return fmt.Errorf("increment resume downloads: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIntroductionNotFound
	}
	return nil
}

func (r *IntroductionRepository) GetByID(ctx context.Context, id string) (*domain.Introduction, error) {
	query := fmt.Sprintf(`SELECT %s FROM introductions WHERE id = $1`, introColumns)
	return scanIntroduction(r.pool.QueryRow(ctx, query, id))
}

func (r *IntroductionRepository) GetForEmployer(ctx context.Context, id, employerID string) (*domain.Introduction, error) {
	query := fmt.Sprintf(`SELECT %s FROM introductions WHERE id = $1 AND employer_id = $2`, introColumns)
	return scanIntroduction(r.pool.QueryRow(ctx, query, id, employerID))
}

func (r *IntroductionRepository) GetSnapshot(ctx context.Context, id string) (*domain.IntroductionSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s, c.name, a.email, COALESCE(a.company_name, ''), j.title
		FROM introductions i
		JOIN candidates c ON c.id = i.candidate_id
		JOIN accounts a ON a.id = i.employer_id
		LEFT JOIN jobs j ON j.id = i.job_id
		WHERE i.id = $1`,
		prefixColumns("i", introColumns))

	var snap domain.IntroductionSnapshot
	var intro domain.Introduction
	err := r.pool.QueryRow(ctx, query, id).Scan(
		introDests(&intro,
			&snap.CandidateName, &snap.EmployerName, &snap.CompanyName, &snap.JobTitle)...,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntroductionNotFound
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.Introduction = &intro
	return &snap, nil
}

func (r *IntroductionRepository) List(ctx context.Context, input repository.ListIntroductionsInput) ([]*domain.Introduction, error) {
	args := []any{}
	where := []string{"TRUE"}

	if input.EmployerID != "" {
		args = append(args, input.EmployerID)
		where = append(where, fmt.Sprintf("employer_id = $%d", len(args)))
	}
	if input.Status != "" {
		args = append(args, input.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT %s FROM introductions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		introColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list introductions: %w", err)
	}
	defer rows.Close()

	var intros []*domain.Introduction
	for rows.Next() {
		i, err := scanIntroduction(rows)
		if err != nil {
			return nil, err
		}
		intros = append(intros, i)
	}
	return intros, nil
}

func (r *IntroductionRepository) CountByStatus(ctx context.Context) (map[domain.IntroStatus]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM introductions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.IntroStatus]int)
	for rows.Next() {
		var status domain.IntroStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, nil
}

func (r *IntroductionRepository) MarkRequested(ctx context.Context, id string, requestedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE introductions
		 SET status = 'INTRO_REQUESTED', intro_requested_at = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'PROFILE_VIEWED'`,
		id, requestedAt)
	if err != nil {
		return fmt.Errorf("mark requested: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish not-found vs wrong current state.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *IntroductionRepository) RecordResponse(ctx context.Context, input repository.RecordResponseInput) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE introductions
		 SET status = $2,
		     candidate_response = $3,
		     candidate_message = $4,
		     candidate_responded_at = $5,
		     introduced_at = COALESCE($6, introduced_at),
		     protection_starts_at = COALESCE($7, protection_starts_at),
		     protection_ends_at = COALESCE($8, protection_ends_at),
		     updated_at = NOW()
		 WHERE id = $1 AND status = 'INTRO_REQUESTED'`,
		input.IntroductionID, input.NewStatus, input.Response, input.Message,
		input.RespondedAt, input.IntroducedAt, input.ProtectionStartsAt, input.ProtectionEndsAt)
	if err != nil {
		return fmt.Errorf("record response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, input.IntroductionID); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *IntroductionRepository) TransitionStatus(ctx context.Context, id string, from, to domain.IntroStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE introductions SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return fmt.Errorf("transition status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

// OverrideStatus applies an admin status change and writes the audit row in
// one transaction. Rows already in a terminal state are left untouched.
func (r *IntroductionRepository) OverrideStatus(ctx context.Context, id, adminID string, to domain.IntroStatus) (*domain.StatusOverride, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var from domain.IntroStatus
	err = tx.QueryRow(ctx,
		`UPDATE introductions i SET status = $2, updated_at = NOW()
		 FROM (SELECT id, status AS prior FROM introductions WHERE id = $1 FOR UPDATE) old
		 WHERE i.id = old.id
		   AND old.prior NOT IN ('HIRED', 'CANDIDATE_DECLINED', 'CLOSED_NO_HIRE', 'EXPIRED')
		 RETURNING old.prior`,
		id, to,
	).Scan(&from)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row missing or terminal; re-read outside the update to tell which.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				err = getErr
			} else {
				err = domain.ErrInvalidTransition
			}
		} else {
			err = fmt.Errorf("override status: %w", err)
		}
		return nil, err
	}

	var override domain.StatusOverride
	err = tx.QueryRow(ctx,
		`INSERT INTO introduction_audit (introduction_id, admin_id, from_status, to_status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, introduction_id, admin_id, from_status, to_status, created_at`,
		id, adminID, from, to,
	).Scan(&override.ID, &override.IntroductionID, &override.AdminID,
		&override.FromStatus, &override.ToStatus, &override.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("write audit row: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &override, nil
}

func (r *IntroductionRepository) ExpireStaleRequests(ctx context.Context, now time.Time, limit int) (int, error) {
	// SKIP LOCKED keeps concurrent reaper replicas from fighting over rows.
	tag, err := r.pool.Exec(ctx, `
		UPDATE introductions
		SET    status = 'EXPIRED', updated_at = NOW()
		WHERE id IN (
			SELECT i.id FROM introductions i
			JOIN response_tokens t ON t.introduction_id = i.id
			WHERE  i.status = 'INTRO_REQUESTED'
			  AND  t.consumed_at IS NULL
			  AND  t.expires_at <= $1
			ORDER BY t.expires_at ASC
			LIMIT $2
			FOR UPDATE OF i SKIP LOCKED
		)`, now, limit)
	return int(tag.RowsAffected()), err
}

func (r *IntroductionRepository) ExpireLapsedProtection(ctx context.Context, now time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE introductions
		SET    status = 'EXPIRED', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM introductions
			WHERE  status IN ('INTRODUCED', 'INTERVIEWING', 'OFFER_EXTENDED')
			  AND  protection_ends_at IS NOT NULL
			  AND  protection_ends_at <= $1
			ORDER BY protection_ends_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, now, limit)
	return int(tag.RowsAffected()), err
}

// prefixColumns rewrites "a, b" into "t.a, t.b" for joined queries.
func prefixColumns(table, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = table + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func introDests(i *domain.Introduction, extra ...any) []any {
	dests := []any{
		&i.ID, &i.CandidateID, &i.EmployerID, &i.JobID, &i.Status,
		&i.CandidateResponse, &i.CandidateMessage, &i.ProfileViews, &i.ResumeDownloads,
		&i.ProfileViewedAt, &i.IntroRequestedAt, &i.CandidateRespondedAt, &i.IntroducedAt,
		&i.ProtectionStartsAt, &i.ProtectionEndsAt, &i.CreatedAt, &i.UpdatedAt,
	}
	return append(dests, extra...)
}

func scanIntroduction(row rowScanner) (*domain.Introduction, error) {
	var i domain.Introduction
	if err := row.Scan(introDests(&i)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntroductionNotFound
		}
		return nil, fmt.Errorf("scan introduction: %w", err)
	}
	return &i, nil
}
