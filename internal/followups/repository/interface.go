package repository

import (
	"context"
	"time"

	"followup_backend/internal/followups/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetLead(ctx context.Context, id, userID uuid.UUID) (Lead, error)
	ListLeads(ctx context.Context, userID uuid.UUID) ([]Lead, error)
}

// LeadWriter provides the derived-field writes the lifecycle core performs.
// Leads are created and deleted outside this core.
type LeadWriter interface {
	TouchLeadContacted(ctx context.Context, leadID uuid.UUID, at time.Time) error
	RecomputeNextFollowUp(ctx context.Context, leadID uuid.UUID) (*time.Time, error)
}

// TaskReader provides read access to follow-up tasks.
type TaskReader interface {
	GetTask(ctx context.Context, id, userID uuid.UUID) (Task, error)
	ListTasksByLead(ctx context.Context, leadID uuid.UUID, status *domain.TaskStatus) ([]Task, error)
}

// TaskWriter provides lifecycle mutations on follow-up tasks.
type TaskWriter interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (Task, error)
	UpdateTaskFields(ctx context.Context, id uuid.UUID, params UpdateTaskParams) (Task, error)
	SetTaskReminder(ctx context.Context, id uuid.UUID, reminderAt *time.Time, jobID *string) error
	RescheduleTask(ctx context.Context, id uuid.UUID, dueDate time.Time, reminderAt *time.Time, jobID *string) (Task, error)
	CompleteTask(ctx context.Context, id uuid.UUID, completedAt time.Time, outcome, outcomeNotes *string) (Task, error)
	CancelTask(ctx context.Context, id uuid.UUID) (Task, error)
}

// ReminderStateWriter is consumed by the reminder worker, never by the
// request path.
type ReminderStateWriter interface {
	ClearDispatchedReminder(ctx context.Context, taskID uuid.UUID, jobID string) (bool, error)
	ListOverduePending(ctx context.Context, asOf time.Time, limit int) ([]Task, error)
	MarkOverdueNotified(ctx context.Context, ids []uuid.UUID) error
}

// ActivityLogger records the append-only audit trail on leads.
type ActivityLogger interface {
	AddActivity(ctx context.Context, params AddActivityParams) (Activity, error)
}

// RecoverySnapshotReader provides the batch reads the recovery scorer needs.
type RecoverySnapshotReader interface {
	ListActiveLeads(ctx context.Context, userID uuid.UUID) ([]Lead, error)
	ListPendingTaskStats(ctx context.Context, userID uuid.UUID) ([]LeadTaskStats, error)
	LatestActivityByLead(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]Activity, error)
}

// =====================================
// Composite Interface
// =====================================

// FollowUpsRepository defines the complete interface for follow-up data
// operations, composed of the focused interfaces above.
type FollowUpsRepository interface {
	LeadReader
	LeadWriter
	TaskReader
	TaskWriter
	ReminderStateWriter
	ActivityLogger
	RecoverySnapshotReader
}

// Ensure Repository implements FollowUpsRepository
var _ FollowUpsRepository = (*Repository)(nil)
