// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"followup_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Follow-up Task Lifecycle Events
// =============================================================================

// TaskCreated is published when a new follow-up task enters the pending state.
type TaskCreated struct {
	BaseEvent
	TaskID   uuid.UUID  `json:"taskId"`
	LeadID   uuid.UUID  `json:"leadId"`
	UserID   uuid.UUID  `json:"userId"`
	Title    string     `json:"title"`
	DueDate  time.Time  `json:"dueDate"`
	Reminder *time.Time `json:"reminderAt,omitempty"`
}

func (e TaskCreated) EventName() string { return "followups.task.created" }

// TaskCompleted is published when a task reaches the completed terminal state.
type TaskCompleted struct {
	BaseEvent
	TaskID       uuid.UUID  `json:"taskId"`
	LeadID       uuid.UUID  `json:"leadId"`
	UserID       uuid.UUID  `json:"userId"`
	Outcome      string     `json:"outcome,omitempty"`
	FollowUpTask *uuid.UUID `json:"followUpTaskId,omitempty"`
}

func (e TaskCompleted) EventName() string { return "followups.task.completed" }

// TaskRescheduled is published when a pending task's due date moves.
type TaskRescheduled struct {
	BaseEvent
	TaskID     uuid.UUID `json:"taskId"`
	LeadID     uuid.UUID `json:"leadId"`
	UserID     uuid.UUID `json:"userId"`
	OldDueDate time.Time `json:"oldDueDate"`
	NewDueDate time.Time `json:"newDueDate"`
	Reason     string    `json:"reason,omitempty"`
}

func (e TaskRescheduled) EventName() string { return "followups.task.rescheduled" }

// TaskCancelled is published when a task reaches the cancelled terminal state.
type TaskCancelled struct {
	BaseEvent
	TaskID uuid.UUID `json:"taskId"`
	LeadID uuid.UUID `json:"leadId"`
	UserID uuid.UUID `json:"userId"`
}

func (e TaskCancelled) EventName() string { return "followups.task.cancelled" }

// =============================================================================
// Reminder Events
// =============================================================================

// FollowUpReminderDue is published by the scheduler worker when a reminder
// job fires for a task that is still pending. Consumers notify; they never
// mutate task lifecycle state.
type FollowUpReminderDue struct {
	BaseEvent
	TaskID    uuid.UUID `json:"taskId"`
	LeadID    uuid.UUID `json:"leadId"`
	UserID    uuid.UUID `json:"userId"`
	TaskTitle string    `json:"taskTitle"`
	LeadName  string    `json:"leadName"`
	DueDate   time.Time `json:"dueDate"`
}

func (e FollowUpReminderDue) EventName() string { return "followups.reminder.due" }

// TaskOverdue is published by the overdue sweep the first time a pending
// task is observed past its due date.
type TaskOverdue struct {
	BaseEvent
	TaskID    uuid.UUID `json:"taskId"`
	LeadID    uuid.UUID `json:"leadId"`
	UserID    uuid.UUID `json:"userId"`
	TaskTitle string    `json:"taskTitle"`
	DueDate   time.Time `json:"dueDate"`
}

func (e TaskOverdue) EventName() string { return "followups.task.overdue" }

// RecoveryDigestLead is one entry of a published recovery digest.
type RecoveryDigestLead struct {
	LeadID          uuid.UUID `json:"leadId"`
	LeadName        string    `json:"leadName"`
	Category        string    `json:"category"`
	DaysInactive    int       `json:"daysInactive"`
	RecoveryScore   int       `json:"recoveryScore"`
	SuggestionTitle string    `json:"suggestionTitle"`
}

// RecoveryDigestReady is published when a recovery digest has been built
// and should be delivered to the operator.
type RecoveryDigestReady struct {
	BaseEvent
	UserID        uuid.UUID            `json:"userId"`
	TotalLeads    int                  `json:"totalLeads"`
	ColdLeads     int                  `json:"coldLeads"`
	StuckLeads    int                  `json:"stuckLeads"`
	NoTaskLeads   int                  `json:"noTaskLeads"`
	RevenueAtRisk int64                `json:"revenueAtRisk"`
	Leads         []RecoveryDigestLead `json:"leads"`
}

func (e RecoveryDigestReady) EventName() string { return "followups.recovery.digest" }
