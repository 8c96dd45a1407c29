// Package service implements the follow-up task lifecycle: create, update,
// complete, reschedule, snooze, cancel. Every mutation keeps three things
// consistent: the task's reminder job in the external scheduler, the owning
// lead's derived next-follow-up timestamp, and the activity audit trail.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"followup_backend/internal/events"
	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/suggestion"
	"followup_backend/platform/apperr"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the data access interface needed by the lifecycle
// service. This is a consumer-driven interface - only what the lifecycle needs.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
	repository.TaskReader
	repository.TaskWriter
	repository.ActivityLogger
}

// ReminderJob describes a reminder to fire at a point in time for a task.
type ReminderJob struct {
	TaskID uuid.UUID
	LeadID uuid.UUID
	UserID uuid.UUID
	FireAt time.Time
}

// ReminderScheduler is the narrow capability the lifecycle needs from the
// external job runner. Cancel must tolerate already-fired and already-
// cancelled handles: double-cancellation is a no-op, not an error.
type ReminderScheduler interface {
	Schedule(ctx context.Context, job ReminderJob) (string, error)
	Cancel(ctx context.Context, jobID string) error
}

// Service orchestrates the follow-up task state machine.
type Service struct {
	repo  Repository
	sched ReminderScheduler
	bus   events.Bus
	cfg   config.FollowUpConfig
	log   *logger.Logger
	now   func() time.Time
}

// New creates a new lifecycle service.
func New(repo Repository, sched ReminderScheduler, bus events.Bus, cfg config.FollowUpConfig, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		sched: sched,
		bus:   bus,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

// WithClock overrides the service's time source. Tests use this for
// deterministic scheduling math.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// OptionalTime is a tri-state field for partial updates: absent, cleared,
// or set to a value.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// CreateTaskParams are the caller-supplied fields for a new follow-up task.
type CreateTaskParams struct {
	LeadID     uuid.UUID
	Title      string
	Type       domain.TaskType
	Priority   domain.TaskPriority
	DueDate    time.Time
	ReminderAt *time.Time
}

// Create adds a pending task to a lead, schedules its reminder when one is
// requested, and recomputes the lead's next follow-up.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, p CreateTaskParams) (repository.Task, error) {
	if err := validateCreate(p); err != nil {
		return repository.Task{}, err
	}

	lead, err := s.repo.GetLead(ctx, p.LeadID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return repository.Task{}, apperr.NotFound("lead not found")
		}
		return repository.Task{}, err
	}

	task, err := s.repo.CreateTask(ctx, repository.CreateTaskParams{
		LeadID:   lead.ID,
		UserID:   userID,
		Title:    p.Title,
		Type:     p.Type,
		Priority: p.Priority,
		DueDate:  p.DueDate,
	})
	if err != nil {
		return repository.Task{}, err
	}

	if p.ReminderAt != nil && p.ReminderAt.After(s.now()) {
		jobID := s.scheduleReminder(ctx, task, *p.ReminderAt)
		if err := s.repo.SetTaskReminder(ctx, task.ID, p.ReminderAt, jobID); err != nil {
			return repository.Task{}, err
		}
		task.ReminderAt = p.ReminderAt
		task.ReminderJobID = jobID
	}

	if _, err := s.repo.RecomputeNextFollowUp(ctx, lead.ID); err != nil {
		return repository.Task{}, err
	}

	s.audit(ctx, repository.AddActivityParams{
		UserID: userID,
		LeadID: lead.ID,
		TaskID: &task.ID,
		Type:   "task_created",
		Title:  fmt.Sprintf("Task created: %s", task.Title),
		Metadata: map[string]any{
			"taskType": task.Type,
			"dueDate":  task.DueDate,
		},
	})

	s.publish(ctx, events.TaskCreated{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    task.ID,
		LeadID:    lead.ID,
		UserID:    userID,
		Title:     task.Title,
		DueDate:   task.DueDate,
		Reminder:  task.ReminderAt,
	})

	return task, nil
}

// UpdateTaskParams carries partial edits to a pending task. Title, type,
// priority and due date edits do not touch the reminder; ReminderAt does.
type UpdateTaskParams struct {
	Title      *string
	Type       *domain.TaskType
	Priority   *domain.TaskPriority
	DueDate    *time.Time
	ReminderAt OptionalTime
}

// Update edits a pending task. Changing the reminder replaces its job;
// changing the due date recomputes the lead's next follow-up.
func (s *Service) Update(ctx context.Context, userID, taskID uuid.UUID, p UpdateTaskParams) (repository.Task, error) {
	task, err := s.getPendingTask(ctx, taskID, userID, "update")
	if err != nil {
		return repository.Task{}, err
	}

	if p.Type != nil && !domain.IsKnownTaskType(*p.Type) {
		return repository.Task{}, apperr.Validation("unknown task type")
	}
	if p.Priority != nil && !domain.IsKnownTaskPriority(*p.Priority) {
		return repository.Task{}, apperr.Validation("unknown task priority")
	}

	updated, err := s.repo.UpdateTaskFields(ctx, task.ID, repository.UpdateTaskParams{
		Title:    p.Title,
		Type:     p.Type,
		Priority: p.Priority,
		DueDate:  p.DueDate,
	})
	if err != nil {
		return repository.Task{}, s.mutationErr(err, "update")
	}

	if p.ReminderAt.Set {
		s.releaseReminder(ctx, task)

		var jobID *string
		reminderAt := p.ReminderAt.Value
		if reminderAt != nil && !reminderAt.After(s.now()) {
			// Past reminders are dropped, same as on create.
			reminderAt = nil
		}
		if reminderAt != nil {
			jobID = s.scheduleReminder(ctx, updated, *reminderAt)
		}
		if err := s.repo.SetTaskReminder(ctx, updated.ID, reminderAt, jobID); err != nil {
			return repository.Task{}, err
		}
		updated.ReminderAt = reminderAt
		updated.ReminderJobID = jobID
	}

	dueChanged := p.DueDate != nil && !p.DueDate.Equal(task.DueDate)
	if dueChanged {
		if _, err := s.repo.RecomputeNextFollowUp(ctx, task.LeadID); err != nil {
			return repository.Task{}, err
		}
	}

	return updated, nil
}

// CompleteParams close out a pending task.
type CompleteParams struct {
	Outcome        domain.TaskOutcome
	OutcomeNotes   string
	CreateFollowUp bool
}

// CompleteResult is the full outcome of completing a task: the terminal
// task, the optional auto-created follow-up, and the suggested next action.
type CompleteResult struct {
	Task       repository.Task
	FollowUp   *repository.Task
	Suggestion *suggestion.Suggestion
}

// Complete transitions a pending task to completed, releases its reminder,
// stamps the lead as contacted, recomputes the next follow-up from the
// remaining pending tasks, and optionally creates a follow-up task.
func (s *Service) Complete(ctx context.Context, userID, taskID uuid.UUID, p CompleteParams) (CompleteResult, error) {
	task, err := s.getPendingTask(ctx, taskID, userID, "complete")
	if err != nil {
		return CompleteResult{}, err
	}

	lead, err := s.repo.GetLead(ctx, task.LeadID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return CompleteResult{}, apperr.NotFound("lead not found")
		}
		return CompleteResult{}, err
	}

	s.releaseReminder(ctx, task)

	now := s.now()
	var outcome, notes *string
	if p.Outcome != "" {
		value := string(p.Outcome)
		outcome = &value
	}
	if p.OutcomeNotes != "" {
		notes = &p.OutcomeNotes
	}

	completed, err := s.repo.CompleteTask(ctx, task.ID, now, outcome, notes)
	if err != nil {
		return CompleteResult{}, s.mutationErr(err, "complete")
	}

	if err := s.repo.TouchLeadContacted(ctx, lead.ID, now); err != nil {
		return CompleteResult{}, err
	}

	if _, err := s.repo.RecomputeNextFollowUp(ctx, lead.ID); err != nil {
		return CompleteResult{}, err
	}

	result := CompleteResult{
		Task:       completed,
		Suggestion: suggestion.ForOutcome(p.Outcome, lead.Name),
	}

	if p.CreateFollowUp {
		followUp, err := s.Create(ctx, userID, CreateTaskParams{
			LeadID:   lead.ID,
			Title:    fmt.Sprintf("Follow up: %s", task.Title),
			Type:     task.Type,
			Priority: task.Priority,
			DueDate:  now.AddDate(0, 0, s.followUpDays()),
		})
		if err != nil {
			return CompleteResult{}, err
		}
		result.FollowUp = &followUp
	}

	s.audit(ctx, repository.AddActivityParams{
		UserID:      userID,
		LeadID:      lead.ID,
		TaskID:      &completed.ID,
		Type:        "task_completed",
		Title:       fmt.Sprintf("Task completed: %s", completed.Title),
		Description: repository.TruncateDescription(p.OutcomeNotes, repository.ActivityDescriptionMaxLen),
		Metadata: map[string]any{
			"outcome": string(p.Outcome),
		},
	})

	var followUpID *uuid.UUID
	if result.FollowUp != nil {
		followUpID = &result.FollowUp.ID
	}
	s.publish(ctx, events.TaskCompleted{
		BaseEvent:    events.NewBaseEvent(),
		TaskID:       completed.ID,
		LeadID:       lead.ID,
		UserID:       userID,
		Outcome:      string(p.Outcome),
		FollowUpTask: followUpID,
	})

	return result, nil
}

// Reschedule moves a pending task's due date, preserving the offset between
// the old due date and the old reminder time. The recomputed reminder is
// scheduled only when it still lies in the future.
func (s *Service) Reschedule(ctx context.Context, userID, taskID uuid.UUID, newDueDate time.Time, reason string) (repository.Task, error) {
	if newDueDate.IsZero() {
		return repository.Task{}, apperr.Validation("new due date is required")
	}

	task, err := s.getPendingTask(ctx, taskID, userID, "reschedule")
	if err != nil {
		return repository.Task{}, err
	}

	var reminderAt *time.Time
	var jobID *string
	if task.ReminderAt != nil {
		s.releaseReminder(ctx, task)

		offset := task.ReminderAt.Sub(task.DueDate)
		shifted := newDueDate.Add(offset)
		if shifted.After(s.now()) {
			reminderAt = &shifted
			jobID = s.scheduleReminder(ctx, task, shifted)
		}
	}

	updated, err := s.repo.RescheduleTask(ctx, task.ID, newDueDate, reminderAt, jobID)
	if err != nil {
		return repository.Task{}, s.mutationErr(err, "reschedule")
	}

	if _, err := s.repo.RecomputeNextFollowUp(ctx, task.LeadID); err != nil {
		return repository.Task{}, err
	}

	s.audit(ctx, repository.AddActivityParams{
		UserID:      userID,
		LeadID:      task.LeadID,
		TaskID:      &task.ID,
		Type:        "task_rescheduled",
		Title:       fmt.Sprintf("Task rescheduled: %s", task.Title),
		Description: repository.TruncateDescription(reason, repository.ActivityDescriptionMaxLen),
		Metadata: map[string]any{
			"oldDueDate": task.DueDate,
			"newDueDate": newDueDate,
		},
	})

	s.publish(ctx, events.TaskRescheduled{
		BaseEvent:  events.NewBaseEvent(),
		TaskID:     task.ID,
		LeadID:     task.LeadID,
		UserID:     userID,
		OldDueDate: task.DueDate,
		NewDueDate: newDueDate,
		Reason:     reason,
	})

	return updated, nil
}

// Snooze pushes a pending task's reminder to now + minutes, replacing any
// existing reminder job. The due date is untouched, so the lead's next
// follow-up needs no recomputation.
func (s *Service) Snooze(ctx context.Context, userID, taskID uuid.UUID, minutes int) (repository.Task, error) {
	task, err := s.getPendingTask(ctx, taskID, userID, "snooze")
	if err != nil {
		return repository.Task{}, err
	}

	if minutes <= 0 {
		minutes = s.snoozeMinutes()
	}

	s.releaseReminder(ctx, task)

	reminderAt := s.now().Add(time.Duration(minutes) * time.Minute)
	jobID := s.scheduleReminder(ctx, task, reminderAt)
	if err := s.repo.SetTaskReminder(ctx, task.ID, &reminderAt, jobID); err != nil {
		return repository.Task{}, err
	}

	task.ReminderAt = &reminderAt
	task.ReminderJobID = jobID
	return task, nil
}

// Cancel transitions a pending task to cancelled, releases its reminder,
// and recomputes the lead's next follow-up.
func (s *Service) Cancel(ctx context.Context, userID, taskID uuid.UUID) (repository.Task, error) {
	task, err := s.getPendingTask(ctx, taskID, userID, "cancel")
	if err != nil {
		return repository.Task{}, err
	}

	s.releaseReminder(ctx, task)

	cancelled, err := s.repo.CancelTask(ctx, task.ID)
	if err != nil {
		return repository.Task{}, s.mutationErr(err, "cancel")
	}

	if _, err := s.repo.RecomputeNextFollowUp(ctx, task.LeadID); err != nil {
		return repository.Task{}, err
	}

	s.audit(ctx, repository.AddActivityParams{
		UserID: userID,
		LeadID: task.LeadID,
		TaskID: &task.ID,
		Type:   "task_cancelled",
		Title:  fmt.Sprintf("Task cancelled: %s", task.Title),
	})

	s.publish(ctx, events.TaskCancelled{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    task.ID,
		LeadID:    task.LeadID,
		UserID:    userID,
	})

	return cancelled, nil
}

// GetTask returns a single task scoped to the caller.
func (s *Service) GetTask(ctx context.Context, userID, taskID uuid.UUID) (repository.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return repository.Task{}, apperr.NotFound("task not found")
		}
		return repository.Task{}, err
	}
	return task, nil
}

// ListLeadTasks returns a lead's tasks, optionally filtered by status.
func (s *Service) ListLeadTasks(ctx context.Context, userID, leadID uuid.UUID, status *domain.TaskStatus) ([]repository.Task, error) {
	if _, err := s.repo.GetLead(ctx, leadID, userID); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}
	return s.repo.ListTasksByLead(ctx, leadID, status)
}

// ----------------------------------------------------------------------------
// internals
// ----------------------------------------------------------------------------

func validateCreate(p CreateTaskParams) error {
	if p.LeadID == uuid.Nil {
		return apperr.Validation("leadId is required")
	}
	if p.Title == "" {
		return apperr.Validation("title is required")
	}
	if p.DueDate.IsZero() {
		return apperr.Validation("due date is required")
	}
	if !domain.IsKnownTaskType(p.Type) {
		return apperr.Validation("unknown task type")
	}
	if !domain.IsKnownTaskPriority(p.Priority) {
		return apperr.Validation("unknown task priority")
	}
	return nil
}

func (s *Service) getPendingTask(ctx context.Context, taskID, userID uuid.UUID, op string) (repository.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return repository.Task{}, apperr.NotFound("task not found")
		}
		return repository.Task{}, err
	}

	if task.Status != domain.TaskStatusPending {
		return repository.Task{}, apperr.InvalidState(
			fmt.Sprintf("cannot %s a %s task", op, task.Status),
		).WithDetails(map[string]any{"taskId": task.ID, "status": task.Status})
	}
	return task, nil
}

// mutationErr covers the window between the pending pre-check and the
// guarded UPDATE: a vanished row at that point means the task left the
// pending state concurrently.
func (s *Service) mutationErr(err error, op string) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return apperr.InvalidState(fmt.Sprintf("task is no longer pending, cannot %s", op))
	}
	return err
}

// scheduleReminder asks the external scheduler for a job and returns its
// handle. Scheduler failure is the degraded path: the task mutation has
// already committed, so the error is logged and the task is left without
// an active reminder job.
func (s *Service) scheduleReminder(ctx context.Context, task repository.Task, fireAt time.Time) *string {
	if s.sched == nil {
		return nil
	}

	jobID, err := s.sched.Schedule(ctx, ReminderJob{
		TaskID: task.ID,
		LeadID: task.LeadID,
		UserID: task.UserID,
		FireAt: fireAt,
	})
	if err != nil {
		if s.log != nil {
			s.log.SchedulerError("schedule", task.ID.String(), err)
		}
		return nil
	}
	return &jobID
}

// releaseReminder cancels the task's reminder job if one is recorded.
// Cancel is idempotent at the scheduler, so an already-fired handle is fine.
func (s *Service) releaseReminder(ctx context.Context, task repository.Task) {
	if s.sched == nil || task.ReminderJobID == nil {
		return
	}
	if err := s.sched.Cancel(ctx, *task.ReminderJobID); err != nil && s.log != nil {
		s.log.SchedulerError("cancel", task.ID.String(), err)
	}
}

// audit appends to the activity log. Failures never roll back the primary
// mutation; they are logged and dropped.
func (s *Service) audit(ctx context.Context, params repository.AddActivityParams) {
	if _, err := s.repo.AddActivity(ctx, params); err != nil && s.log != nil {
		s.log.AuditError(params.LeadID.String(), err)
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

func (s *Service) followUpDays() int {
	if s.cfg != nil {
		if days := s.cfg.GetDefaultFollowUpDays(); days > 0 {
			return days
		}
	}
	return 3
}

func (s *Service) snoozeMinutes() int {
	if s.cfg != nil {
		if minutes := s.cfg.GetDefaultSnoozeMinutes(); minutes > 0 {
			return minutes
		}
	}
	return 30
}
