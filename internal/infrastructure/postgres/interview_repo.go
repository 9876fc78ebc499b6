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

const proposalColumns = `id, introduction_id, employer_id, status,
	       proposed_slots, selected_slots, confirmed_slot, created_at, updated_at`

type InterviewRepository struct {
	pool *pgxpool.Pool
}

func NewInterviewRepository(pool *pgxpool.Pool) *InterviewRepository {
	return &InterviewRepository{pool: pool}
}

func (r *InterviewRepository) Create(ctx context.Context, p *domain.SlotProposal) (*domain.SlotProposal, error) {
	query := fmt.Sprintf(`
		INSERT INTO slot_proposals (introduction_id, employer_id, status, proposed_slots, selected_slots)
		VALUES ($1, $2, $3, $4, '[]')
		RETURNING %s`, proposalColumns)

	row := r.pool.QueryRow(ctx, query, p.IntroductionID, p.EmployerID, p.Status, p.ProposedSlots)
	return scanProposal(row)
}

func (r *InterviewRepository) GetByID(ctx context.Context, id string) (*domain.SlotProposal, error) {
	query := fmt.Sprintf(`SELECT %s FROM slot_proposals WHERE id = $1`, proposalColumns)
	return scanProposal(r.pool.QueryRow(ctx, query, id))
}

func (r *InterviewRepository) List(ctx context.Context, input repository.ListProposalsInput) ([]*domain.SlotProposal, error) {
	args := []any{input.EmployerID}
	where := []string{"employer_id = $1"}

	if input.Status != "" {
		args = append(args, input.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT %s FROM slot_proposals
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d`,
		proposalColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*domain.SlotProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, nil
}

// UpdateSelection overwrites the candidate's selection. Reselection before
// confirmation is allowed, so both awaiting states are accepted.
func (r *InterviewRepository) UpdateSelection(ctx context.Context, id string, selected []domain.TimeRange) (*domain.SlotProposal, error) {
	query := fmt.Sprintf(`
		UPDATE slot_proposals
		SET    selected_slots = $2, status = 'AWAITING_CONFIRMATION', updated_at = NOW()
		WHERE  id = $1 AND status IN ('AWAITING_CANDIDATE', 'AWAITING_CONFIRMATION')
		RETURNING %s`, proposalColumns)

	p, err := scanProposal(r.pool.QueryRow(ctx, query, id, selected))
	if err != nil {
		return nil, r.classifyConflict(ctx, id, err)
	}
	return p, nil
}

// Confirm pins the slot and moves AWAITING_CONFIRMATION to SCHEDULED. The
// containment check rides inside the UPDATE, so a reselection racing this
// write cannot schedule a slot that fell out of the current selection.
func (r *InterviewRepository) Confirm(ctx context.Context, id string, slot domain.TimeRange) (*domain.SlotProposal, error) {
	query := fmt.Sprintf(`
		UPDATE slot_proposals
		SET    confirmed_slot = $2, status = 'SCHEDULED', updated_at = NOW()
		WHERE  id = $1 AND status = 'AWAITING_CONFIRMATION'
		  AND  selected_slots @> $3
		RETURNING %s`, proposalColumns)

	p, err := scanProposal(r.pool.QueryRow(ctx, query, id, slot, []domain.TimeRange{slot}))
	if err != nil {
		if errors.Is(err, domain.ErrProposalNotFound) {
			return nil, r.classifyConfirmFailure(ctx, id)
		}
		return nil, err
	}
	return p, nil
}

func (r *InterviewRepository) classifyConfirmFailure(ctx context.Context, id string) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != domain.ProposalAwaitingConfirmation {
		return domain.ErrInvalidTransition
	}
	// Row is confirmable but the slot is no longer in selected_slots: a
	// reselection landed between the caller's read and this write.
	return domain.ErrInvalidSlots
}

func (r *InterviewRepository) TransitionStatus(ctx context.Context, id string, from []domain.ProposalStatus, to domain.ProposalStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE slot_proposals SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = ANY($2)`,
		id, from, to)
	if err != nil {
		return fmt.Errorf("transition proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.classifyConflict(ctx, id, domain.ErrProposalNotFound)
	}
	return nil
}

// CancelStale cancels awaiting proposals whose every proposed slot is in the
// past, since nothing is left that could be scheduled.
func (r *InterviewRepository) CancelStale(ctx context.Context, now time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE slot_proposals
		SET    status = 'CANCELLED', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM slot_proposals
			WHERE  status IN ('AWAITING_CANDIDATE', 'AWAITING_CONFIRMATION')
			  AND  NOT EXISTS (
				SELECT 1 FROM jsonb_array_elements(proposed_slots) s
				WHERE (s->>'starts_at')::timestamptz > $1
			  )
			ORDER BY updated_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, now, limit)
	return int(tag.RowsAffected()), err
}

// classifyConflict turns a zero-row CAS result into not-found or
// invalid-transition depending on whether the row exists.
func (r *InterviewRepository) classifyConflict(ctx context.Context, id string, err error) error {
	if !errors.Is(err, domain.ErrProposalNotFound) {
		return err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return getErr
	}
	return domain.ErrInvalidTransition
}

func scanProposal(row rowScanner) (*domain.SlotProposal, error) {
	var p domain.SlotProposal
	err := row.Scan(
		&p.ID, &p.IntroductionID, &p.EmployerID, &p.Status,
		&p.ProposedSlots, &p.SelectedSlots, &p.ConfirmedSlot,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, fmt.Errorf("scan slot proposal: %w", err)
	}
	return &p, nil
}
