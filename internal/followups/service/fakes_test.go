package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"followup_backend/internal/events"
	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/service"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory implementation of service.Repository. Its
// recompute mirrors the SQL subselect by ranking pending tasks with
// domain.EarliestPending.
type fakeRepo struct {
	mu         sync.Mutex
	leads      map[uuid.UUID]repository.Lead
	tasks      map[uuid.UUID]repository.Task
	activities []repository.Activity
	seq        int
}

var _ service.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads: make(map[uuid.UUID]repository.Lead),
		tasks: make(map[uuid.UUID]repository.Task),
	}
}

func (f *fakeRepo) addLead(userID uuid.UUID, name string) repository.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead := repository.Lead{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Status:    domain.LeadStatusNew,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead
}

func (f *fakeRepo) GetLead(_ context.Context, id, userID uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok || lead.UserID != userID {
		return repository.Lead{}, repository.ErrLeadNotFound
	}
	return lead, nil
}

func (f *fakeRepo) ListLeads(_ context.Context, userID uuid.UUID) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Lead
	for _, lead := range f.leads {
		if lead.UserID == userID {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeRepo) TouchLeadContacted(_ context.Context, leadID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.ErrLeadNotFound
	}
	lead.LastContactedAt = &at
	if lead.Status == domain.LeadStatusNew {
		lead.Status = domain.LeadStatusContacted
	}
	f.leads[leadID] = lead
	return nil
}

func (f *fakeRepo) RecomputeNextFollowUp(_ context.Context, leadID uuid.UUID) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok {
		return nil, repository.ErrLeadNotFound
	}

	var refs []domain.PendingTaskRef
	for _, task := range f.tasks {
		if task.LeadID == leadID && task.Status == domain.TaskStatusPending {
			refs = append(refs, domain.PendingTaskRef{
				ID:        task.ID,
				DueDate:   task.DueDate,
				CreatedAt: task.CreatedAt,
			})
		}
	}

	var next *time.Time
	if earliest := domain.EarliestPending(refs); earliest != nil {
		due := earliest.DueDate
		next = &due
	}
	lead.NextFollowUpAt = next
	f.leads[leadID] = lead
	return next, nil
}

func (f *fakeRepo) GetTask(_ context.Context, id, userID uuid.UUID) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.UserID != userID {
		return repository.Task{}, repository.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeRepo) ListTasksByLead(_ context.Context, leadID uuid.UUID, status *domain.TaskStatus) ([]repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Task
	for _, task := range f.tasks {
		if task.LeadID != leadID {
			continue
		}
		if status != nil && task.Status != *status {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (f *fakeRepo) CreateTask(_ context.Context, params repository.CreateTaskParams) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	task := repository.Task{
		ID:        uuid.New(),
		LeadID:    params.LeadID,
		UserID:    params.UserID,
		Title:     params.Title,
		Type:      params.Type,
		Priority:  params.Priority,
		Status:    domain.TaskStatusPending,
		DueDate:   params.DueDate,
		CreatedAt: time.Now().Add(time.Duration(f.seq) * time.Millisecond),
		UpdatedAt: time.Now(),
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeRepo) UpdateTaskFields(_ context.Context, id uuid.UUID, params repository.UpdateTaskParams) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.Status != domain.TaskStatusPending {
		return repository.Task{}, repository.ErrTaskNotFound
	}
	if params.Title != nil {
		task.Title = *params.Title
	}
	if params.Type != nil {
		task.Type = *params.Type
	}
	if params.Priority != nil {
		task.Priority = *params.Priority
	}
	if params.DueDate != nil {
		task.DueDate = *params.DueDate
	}
	task.UpdatedAt = time.Now()
	f.tasks[id] = task
	return task, nil
}

func (f *fakeRepo) SetTaskReminder(_ context.Context, id uuid.UUID, reminderAt *time.Time, jobID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.Status != domain.TaskStatusPending {
		return repository.ErrTaskNotFound
	}
	task.ReminderAt = reminderAt
	task.ReminderJobID = jobID
	f.tasks[id] = task
	return nil
}

func (f *fakeRepo) RescheduleTask(_ context.Context, id uuid.UUID, dueDate time.Time, reminderAt *time.Time, jobID *string) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.Status != domain.TaskStatusPending {
		return repository.Task{}, repository.ErrTaskNotFound
	}
	task.DueDate = dueDate
	task.ReminderAt = reminderAt
	task.ReminderJobID = jobID
	task.OverdueNotified = false
	f.tasks[id] = task
	return task, nil
}

func (f *fakeRepo) CompleteTask(_ context.Context, id uuid.UUID, completedAt time.Time, outcome, outcomeNotes *string) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.Status != domain.TaskStatusPending {
		return repository.Task{}, repository.ErrTaskNotFound
	}
	task.Status = domain.TaskStatusCompleted
	task.CompletedAt = &completedAt
	task.Outcome = outcome
	task.OutcomeNotes = outcomeNotes
	task.ReminderAt = nil
	task.ReminderJobID = nil
	f.tasks[id] = task
	return task, nil
}

func (f *fakeRepo) CancelTask(_ context.Context, id uuid.UUID) (repository.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.Status != domain.TaskStatusPending {
		return repository.Task{}, repository.ErrTaskNotFound
	}
	task.Status = domain.TaskStatusCancelled
	task.ReminderAt = nil
	task.ReminderJobID = nil
	f.tasks[id] = task
	return task, nil
}

func (f *fakeRepo) AddActivity(_ context.Context, params repository.AddActivityParams) (repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	activity := repository.Activity{
		ID:          uuid.New(),
		UserID:      params.UserID,
		LeadID:      params.LeadID,
		TaskID:      params.TaskID,
		Type:        params.Type,
		Title:       params.Title,
		Description: params.Description,
		Metadata:    params.Metadata,
		CreatedAt:   time.Now(),
	}
	f.activities = append(f.activities, activity)
	return activity, nil
}

// fakeScheduler records scheduled and cancelled reminder jobs.
type fakeScheduler struct {
	mu           sync.Mutex
	seq          int
	jobs         map[string]service.ReminderJob
	cancelled    []string
	failSchedule bool
}

var _ service.ReminderScheduler = (*fakeScheduler)(nil)

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{jobs: make(map[string]service.ReminderJob)}
}

func (f *fakeScheduler) Schedule(_ context.Context, job service.ReminderJob) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSchedule {
		return "", fmt.Errorf("scheduler unavailable")
	}
	f.seq++
	id := fmt.Sprintf("job-%d", f.seq)
	f.jobs[id] = job
	return id, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Unknown handles are tolerated: the job may have fired already.
	delete(f.jobs, jobID)
	f.cancelled = append(f.cancelled, jobID)
	return nil
}

func (f *fakeScheduler) activeJobs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// fakeBus records published events synchronously.
type fakeBus struct {
	mu     sync.Mutex
	events []events.Event
}

var _ events.Bus = (*fakeBus)(nil)

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	f.Publish(ctx, event)
	return nil
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func (f *fakeBus) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.EventName())
	}
	return out
}

// fakeFollowUpConfig supplies lifecycle defaults.
type fakeFollowUpConfig struct {
	followUpDays  int
	snoozeMinutes int
}

func (c fakeFollowUpConfig) GetDefaultFollowUpDays() int            { return c.followUpDays }
func (c fakeFollowUpConfig) GetDefaultSnoozeMinutes() int           { return c.snoozeMinutes }
func (c fakeFollowUpConfig) GetOverdueSweepInterval() time.Duration { return 5 * time.Minute }
func (c fakeFollowUpConfig) GetRecoveryTopN() int                   { return 20 }
