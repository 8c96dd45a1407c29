package domain

import (
	"time"

	"github.com/google/uuid"
)

// PendingTaskRef is the minimal view of a pending task needed to pick the
// lead's next follow-up.
type PendingTaskRef struct {
	ID        uuid.UUID
	DueDate   time.Time
	CreatedAt time.Time
}

// EarliestPending selects the pending task whose due date defines a lead's
// nextFollowUpAt. Ordering: ascending due date; ties broken by creation
// order (first created wins), then by id so the result is deterministic.
// Returns nil when the slice is empty.
func EarliestPending(tasks []PendingTaskRef) *PendingTaskRef {
	if len(tasks) == 0 {
		return nil
	}

	best := tasks[0]
	for _, t := range tasks[1:] {
		if earlierThan(t, best) {
			best = t
		}
	}
	return &best
}

func earlierThan(a, b PendingTaskRef) bool {
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
