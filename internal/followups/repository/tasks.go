package repository

import (
	"context"
	"errors"
	"time"

	"followup_backend/internal/followups/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrTaskNotFound = errors.New("task not found")

type Task struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	UserID          uuid.UUID
	Title           string
	Type            domain.TaskType
	Priority        domain.TaskPriority
	Status          domain.TaskStatus
	DueDate         time.Time
	ReminderAt      *time.Time
	ReminderJobID   *string
	OverdueNotified bool
	CompletedAt     *time.Time
	Outcome         *string
	OutcomeNotes    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateTaskParams struct {
	LeadID   uuid.UUID
	UserID   uuid.UUID
	Title    string
	Type     domain.TaskType
	Priority domain.TaskPriority
	DueDate  time.Time
}

// UpdateTaskParams carries partial edits; nil fields are left untouched.
type UpdateTaskParams struct {
	Title    *string
	Type     *domain.TaskType
	Priority *domain.TaskPriority
	DueDate  *time.Time
}

const taskColumns = `id, lead_id, user_id, title, type, priority, status, due_date,
		reminder_at, reminder_job_id, overdue_notified, completed_at, outcome, outcome_notes,
		created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID,
		&t.LeadID,
		&t.UserID,
		&t.Title,
		&t.Type,
		&t.Priority,
		&t.Status,
		&t.DueDate,
		&t.ReminderAt,
		&t.ReminderJobID,
		&t.OverdueNotified,
		&t.CompletedAt,
		&t.Outcome,
		&t.OutcomeNotes,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *Repository) CreateTask(ctx context.Context, params CreateTaskParams) (Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (lead_id, user_id, title, type, priority, status, due_date)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		RETURNING `+taskColumns,
		params.LeadID, params.UserID, params.Title, params.Type, params.Priority, params.DueDate,
	)
	return scanTask(row)
}

// GetTask returns the task only when it belongs to userID.
func (r *Repository) GetTask(ctx context.Context, id, userID uuid.UUID) (Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return task, err
}

func (r *Repository) UpdateTaskFields(ctx context.Context, id uuid.UUID, params UpdateTaskParams) (Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			title = COALESCE($2, title),
			type = COALESCE($3, type),
			priority = COALESCE($4, priority),
			due_date = COALESCE($5, due_date),
			updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+taskColumns,
		id, params.Title, params.Type, params.Priority, params.DueDate,
	)

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return task, err
}

// SetTaskReminder stores or clears the reminder time and its job handle
// together. Both nil clears the reminder.
func (r *Repository) SetTaskReminder(ctx context.Context, id uuid.UUID, reminderAt *time.Time, jobID *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET reminder_at = $2, reminder_job_id = $3, updated_at = now()
		WHERE id = $1
	`, id, reminderAt, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// RescheduleTask moves the due date, replaces the reminder state, and resets
// the overdue-notified flag in one statement.
func (r *Repository) RescheduleTask(ctx context.Context, id uuid.UUID, dueDate time.Time, reminderAt *time.Time, jobID *string) (Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			due_date = $2,
			reminder_at = $3,
			reminder_job_id = $4,
			overdue_notified = false,
			updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+taskColumns,
		id, dueDate, reminderAt, jobID,
	)

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return task, err
}

func (r *Repository) CompleteTask(ctx context.Context, id uuid.UUID, completedAt time.Time, outcome, outcomeNotes *string) (Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			status = 'completed',
			completed_at = $2,
			outcome = $3,
			outcome_notes = $4,
			reminder_at = NULL,
			reminder_job_id = NULL,
			updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+taskColumns,
		id, completedAt, outcome, outcomeNotes,
	)

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return task, err
}

func (r *Repository) CancelTask(ctx context.Context, id uuid.UUID) (Task, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			status = 'cancelled',
			reminder_at = NULL,
			reminder_job_id = NULL,
			updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+taskColumns,
		id,
	)

	task, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return task, err
}

func (r *Repository) ListTasksByLead(ctx context.Context, leadID uuid.UUID, status *domain.TaskStatus) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE lead_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY due_date ASC, created_at ASC, id ASC
	`, leadID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ClearDispatchedReminder releases the reminder state after the scheduler
// fired, but only if the stored handle still matches the firing job. A
// mismatch means the reminder was replaced (snooze/update) after this job
// was enqueued, and the stale job must not touch the task.
func (r *Repository) ClearDispatchedReminder(ctx context.Context, taskID uuid.UUID, jobID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET reminder_at = NULL, reminder_job_id = NULL, updated_at = now()
		WHERE id = $1 AND reminder_job_id = $2 AND status = 'pending'
	`, taskID, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListOverduePending returns pending tasks past due that have not yet been
// flagged by the overdue sweep.
func (r *Repository) ListOverduePending(ctx context.Context, asOf time.Time, limit int) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status = 'pending' AND due_date < $1 AND overdue_notified = false
		ORDER BY due_date ASC
		LIMIT $2
	`, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *Repository) MarkOverdueNotified(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE tasks SET overdue_notified = true, updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}
