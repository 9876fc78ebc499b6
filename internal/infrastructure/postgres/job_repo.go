package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hireloop/engine/internal/domain"
	"github.com/hireloop/engine/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `id, title, company, location, source, status,
	       employer_id, claimed_at, contact_phone, role_level,
	       salary_min, salary_max, start_date_needed, candidates_needed,
	       created_at, updated_at`

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1`, jobColumns)
	return scanJob(r.pool.QueryRow(ctx, query, id))
}

func (r *JobRepository) SearchUnclaimed(ctx context.Context, input repository.SearchUnclaimedInput) ([]*domain.Job, error) {
	args := []any{}
	where := []string{"claimed_at IS NULL", "status = 'ACTIVE'"}

	if input.Query != "" {
		args = append(args, "%"+input.Query+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR company ILIKE $%d)", len(args), len(args)))
	}
	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT %s FROM jobs
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		jobColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search unclaimed jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// Claim takes ownership iff the job is still unclaimed. Concurrent claims
// race on claimed_at IS NULL: one UPDATE matches, the other affects zero
// rows and is classified as AlreadyClaimed or NotFound below.
func (r *JobRepository) Claim(ctx context.Context, input repository.ClaimJobInput) (*domain.Job, error) {
	query := fmt.Sprintf(`
		UPDATE jobs
		SET    employer_id = $2,
		       claimed_at = $3,
		       contact_phone = $4,
		       role_level = $5,
		       salary_min = $6,
		       salary_max = $7,
		       start_date_needed = $8,
		       candidates_needed = $9,
		       updated_at = NOW()
		WHERE  id = $1 AND claimed_at IS NULL
		RETURNING %s`, jobColumns)

	row := r.pool.QueryRow(ctx, query,
		input.JobID, input.EmployerID, input.ClaimedAt,
		input.ContactPhone, input.RoleLevel, input.SalaryMin, input.SalaryMax,
		input.StartDateNeeded, input.CandidatesNeeded,
	)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// Zero rows: either the job does not exist or someone else won.
			if _, getErr := r.GetByID(ctx, input.JobID); getErr != nil {
				return nil, getErr
			}
			return nil, domain.ErrAlreadyClaimed
		}
		return nil, err
	}
	return job, nil
}

// ListClaimed joins the claimed jobs with aggregates over applications.
// Counts are a read projection and may trail writes slightly.
func (r *JobRepository) ListClaimed(ctx context.Context, employerID string) ([]*domain.ClaimedJobView, error) {
	query := fmt.Sprintf(`
		SELECT %s,
		       (SELECT COUNT(*) FROM applications a WHERE a.job_id = j.id),
		       (SELECT COUNT(*) FROM applications a
		        JOIN candidates c ON c.id = a.candidate_id
		        WHERE a.job_id = j.id AND c.skill_tier = 'VERIFIED'),
		       COALESCE((SELECT jsonb_object_agg(t.tier, t.n) FROM (
		            SELECT c.skill_tier AS tier, COUNT(*) AS n
		            FROM applications a
		            JOIN candidates c ON c.id = a.candidate_id
		            WHERE a.job_id = j.id
		            GROUP BY c.skill_tier) t), '{}')
		FROM jobs j
		WHERE j.employer_id = $1 AND j.claimed_at IS NOT NULL
		ORDER BY j.claimed_at DESC`,
		prefixColumns("j", jobColumns))

	rows, err := r.pool.Query(ctx, query, employerID)
	if err != nil {
		return nil, fmt.Errorf("list claimed jobs: %w", err)
	}
	defer rows.Close()

	var views []*domain.ClaimedJobView
	for rows.Next() {
		var v domain.ClaimedJobView
		var j domain.Job
		dests := jobDests(&j)
		dests = append(dests, &v.ApplicantsCount, &v.SkillsVerifiedCount, &v.TierBreakdown)
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan claimed job view: %w", err)
		}
		v.Job = &j
		views = append(views, &v)
	}
	return views, nil
}

func jobDests(j *domain.Job) []any {
	return []any{
		&j.ID, &j.Title, &j.Company, &j.Location, &j.Source, &j.Status,
		&j.EmployerID, &j.ClaimedAt, &j.ContactPhone, &j.RoleLevel,
		&j.SalaryMin, &j.SalaryMax, &j.StartDateNeeded, &j.CandidatesNeeded,
		&j.CreatedAt, &j.UpdatedAt,
	}
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	if err := row.Scan(jobDests(&j)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}
