package repository

import (
	"context"
	"errors"
	"time"

	"followup_backend/internal/followups/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrLeadNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Name            string
	Company         *string
	Phone           *string
	Email           *string
	Status          domain.LeadStatus
	LastContactedAt *time.Time
	NextFollowUpAt  *time.Time
	EstimatedValue  int64
	ActualValue     int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateLeadParams struct {
	UserID         uuid.UUID
	Name           string
	Company        *string
	Phone          *string
	Email          *string
	Status         domain.LeadStatus
	EstimatedValue int64
}

const leadColumns = `id, user_id, name, company, phone, email, status,
		last_contacted_at, next_follow_up_at, estimated_value, actual_value, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID,
		&lead.UserID,
		&lead.Name,
		&lead.Company,
		&lead.Phone,
		&lead.Email,
		&lead.Status,
		&lead.LastContactedAt,
		&lead.NextFollowUpAt,
		&lead.EstimatedValue,
		&lead.ActualValue,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	return lead, err
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	status := params.Status
	if status == "" {
		status = domain.LeadStatusNew
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (user_id, name, company, phone, email, status, estimated_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+leadColumns,
		params.UserID, params.Name, params.Company, params.Phone, params.Email, status, params.EstimatedValue,
	)
	return scanLead(row)
}

// GetLead returns the lead only when it belongs to userID; ownership is a
// visibility rule, so a foreign lead surfaces as not found.
func (r *Repository) GetLead(ctx context.Context, id, userID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrLeadNotFound
	}
	return lead, err
}

func (r *Repository) ListLeads(ctx context.Context, userID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ListActiveLeads returns the user's leads outside the terminal won/lost
// statuses, the population the recovery scorer operates on.
func (r *Repository) ListActiveLeads(ctx context.Context, userID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE user_id = $1 AND status NOT IN ('won', 'lost')
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// TouchLeadContacted stamps last_contacted_at, set whenever a contact-type
// interaction completes.
func (r *Repository) TouchLeadContacted(ctx context.Context, leadID uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET last_contacted_at = $2, updated_at = now()
		WHERE id = $1
	`, leadID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// RecomputeNextFollowUp derives next_follow_up_at from the earliest pending
// task in a single statement, so the read-compute-write window is one store
// round trip. Concurrent task mutations on the same lead still race
// last-write-wins; the derived field is display-oriented, not a scheduling
// source of truth.
func (r *Repository) RecomputeNextFollowUp(ctx context.Context, leadID uuid.UUID) (*time.Time, error) {
	var next *time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE leads SET next_follow_up_at = (
			SELECT due_date FROM tasks
			WHERE lead_id = $1 AND status = 'pending'
			ORDER BY due_date ASC, created_at ASC, id ASC
			LIMIT 1
		), updated_at = now()
		WHERE id = $1
		RETURNING next_follow_up_at
	`, leadID).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	return next, err
}

// LeadTaskStats summarizes a lead's pending workload for the recovery scorer.
type LeadTaskStats struct {
	LeadID       uuid.UUID
	PendingCount int
	TopPriority  domain.TaskPriority
}

// ListPendingTaskStats returns per-lead pending counts and the highest
// pending priority for all of the user's leads that have pending tasks.
func (r *Repository) ListPendingTaskStats(ctx context.Context, userID uuid.UUID) ([]LeadTaskStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, count(*),
			(array_agg(priority ORDER BY
				CASE priority
					WHEN 'urgent' THEN 3
					WHEN 'high' THEN 2
					WHEN 'medium' THEN 1
					ELSE 0
				END DESC))[1]
		FROM tasks
		WHERE user_id = $1 AND status = 'pending'
		GROUP BY lead_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]LeadTaskStats, 0)
	for rows.Next() {
		var s LeadTaskStats
		if err := rows.Scan(&s.LeadID, &s.PendingCount, &s.TopPriority); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
