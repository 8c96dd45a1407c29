// Package domain provides core business rules for the follow-ups bounded context.
package domain

// TaskStatus is the lifecycle state of a follow-up task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// TaskType classifies the follow-up action.
type TaskType string

const (
	TaskTypeCall    TaskType = "call"
	TaskTypeMessage TaskType = "message"
	TaskTypeMeeting TaskType = "meeting"
	TaskTypeEmail   TaskType = "email"
	TaskTypeOther   TaskType = "other"
)

// TaskPriority orders follow-up urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

var knownTaskTypes = map[TaskType]struct{}{
	TaskTypeCall:    {},
	TaskTypeMessage: {},
	TaskTypeMeeting: {},
	TaskTypeEmail:   {},
	TaskTypeOther:   {},
}

var knownTaskPriorities = map[TaskPriority]struct{}{
	TaskPriorityLow:    {},
	TaskPriorityMedium: {},
	TaskPriorityHigh:   {},
	TaskPriorityUrgent: {},
}

// IsKnownTaskType reports whether t is a recognized task type.
func IsKnownTaskType(t TaskType) bool {
	_, ok := knownTaskTypes[t]
	return ok
}

// IsKnownTaskPriority reports whether p is a recognized priority.
func IsKnownTaskPriority(p TaskPriority) bool {
	_, ok := knownTaskPriorities[p]
	return ok
}

// IsTerminal returns true once a task can no longer be mutated.
// completed and cancelled are both terminal; there is no transition out
// of either state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// CanTransition reports whether a task may move from s to next.
// The only legal transitions are pending -> completed and pending -> cancelled.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if s != TaskStatusPending {
		return false
	}
	return next == TaskStatusCompleted || next == TaskStatusCancelled
}

// PriorityWeight maps a priority to its recovery-score contribution.
func PriorityWeight(p TaskPriority) int {
	switch p {
	case TaskPriorityUrgent:
		return 20
	case TaskPriorityHigh:
		return 15
	case TaskPriorityMedium:
		return 5
	default:
		return 0
	}
}

// PriorityRank orders priorities for "highest pending priority" selection.
func PriorityRank(p TaskPriority) int {
	switch p {
	case TaskPriorityUrgent:
		return 3
	case TaskPriorityHigh:
		return 2
	case TaskPriorityMedium:
		return 1
	default:
		return 0
	}
}
