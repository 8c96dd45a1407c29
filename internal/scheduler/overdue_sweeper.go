package scheduler

import (
	"context"
	"time"

	"followup_backend/internal/events"
	"followup_backend/internal/followups/repository"
	"followup_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultOverdueSweepInterval = 5 * time.Minute
	overdueSweepBatchSize       = 200
)

// OverdueSweeper periodically scans for pending tasks past their due date
// and publishes a one-time overdue event per task.
type OverdueSweeper struct {
	repo     *repository.Repository
	bus      events.Bus
	log      *logger.Logger
	interval time.Duration
}

func NewOverdueSweeper(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger, interval time.Duration) *OverdueSweeper {
	if interval <= 0 {
		interval = defaultOverdueSweepInterval
	}

	return &OverdueSweeper{
		repo:     repository.New(pool),
		bus:      bus,
		log:      log,
		interval: interval,
	}
}

func (s *OverdueSweeper) Run(ctx context.Context) {
	if s == nil || s.repo == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *OverdueSweeper) sweep(ctx context.Context) {
	tasks, err := s.repo.ListOverduePending(ctx, time.Now(), overdueSweepBatchSize)
	if err != nil {
		s.log.Error("overdue sweep failed", "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}

	ids := make([]uuid.UUID, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)

		if s.bus != nil {
			s.bus.Publish(ctx, events.TaskOverdue{
				BaseEvent: events.NewBaseEvent(),
				TaskID:    task.ID,
				LeadID:    task.LeadID,
				UserID:    task.UserID,
				TaskTitle: task.Title,
				DueDate:   task.DueDate,
			})
		}
	}

	// Marking before handler completion is fine: the event is advisory and
	// a missed notification is preferable to repeated ones.
	if err := s.repo.MarkOverdueNotified(ctx, ids); err != nil {
		s.log.Error("marking overdue tasks failed", "error", err, "count", len(ids))
		return
	}

	s.log.Info("overdue sweep dispatched", "count", len(ids))
}
