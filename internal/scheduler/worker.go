package scheduler

import (
	"context"
	"errors"
	"fmt"

	"followup_backend/internal/events"
	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes reminder jobs. It never mutates task lifecycle state; a
// fired reminder clears its own dispatch record and publishes an event for
// the notification consumers.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return err
	}

	followUp, err := w.repo.GetTask(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil
		}
		return err
	}

	if followUp.Status != domain.TaskStatusPending {
		return nil
	}

	jobID, ok := asynq.GetTaskID(ctx)
	if !ok {
		return fmt.Errorf("reminder job has no task id")
	}

	// A snooze or reschedule replaces the stored handle; a job that no
	// longer matches it is stale and must not notify.
	if followUp.ReminderJobID == nil || *followUp.ReminderJobID != jobID {
		return nil
	}

	cleared, err := w.repo.ClearDispatchedReminder(ctx, followUp.ID, jobID)
	if err != nil {
		return err
	}
	if !cleared {
		return nil
	}

	lead, err := w.repo.GetLead(ctx, followUp.LeadID, followUp.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return nil
		}
		return err
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, events.FollowUpReminderDue{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    followUp.ID,
		LeadID:    lead.ID,
		UserID:    followUp.UserID,
		TaskTitle: followUp.Title,
		LeadName:  lead.Name,
		DueDate:   followUp.DueDate,
	})

	return nil
}
