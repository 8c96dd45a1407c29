// Package transport defines the HTTP request and response shapes for the
// followups module.
package transport

import (
	"time"

	"followup_backend/internal/followups/repository"

	"github.com/google/uuid"
)

// CreateLeadRequest is the request body for creating a lead.
type CreateLeadRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=200"`
	Company        *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	EstimatedValue int64   `json:"estimatedValue" validate:"gte=0"`
}

// CreateTaskRequest is the request body for creating a follow-up task.
type CreateTaskRequest struct {
	LeadID     uuid.UUID  `json:"leadId" validate:"required"`
	Title      string     `json:"title" validate:"required,min=1,max=200"`
	Type       string     `json:"type" validate:"required,oneof=call message meeting email other"`
	Priority   string     `json:"priority" validate:"required,oneof=low medium high urgent"`
	DueDate    time.Time  `json:"dueDate" validate:"required"`
	ReminderAt *time.Time `json:"reminderAt,omitempty"`
}

// UpdateTaskRequest is the request body for partially editing a pending
// task. ReminderSet distinguishes "leave the reminder alone" from "clear
// it": a null reminderAt with reminderSet=true clears the reminder.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Type        *string    `json:"type,omitempty" validate:"omitempty,oneof=call message meeting email other"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ReminderAt  *time.Time `json:"reminderAt,omitempty"`
	ReminderSet bool       `json:"reminderSet,omitempty"`
}

// CompleteTaskRequest closes out a pending task.
type CompleteTaskRequest struct {
	Outcome        string `json:"outcome,omitempty" validate:"omitempty,oneof=no_answer voicemail busy connected_positive connected_needs_followup interested_not_ready"`
	OutcomeNotes   string `json:"outcomeNotes,omitempty" validate:"max=2000"`
	CreateFollowUp bool   `json:"createFollowUp"`
}

// RescheduleTaskRequest moves a pending task's due date.
type RescheduleTaskRequest struct {
	DueDate time.Time `json:"dueDate" validate:"required"`
	Reason  string    `json:"reason,omitempty" validate:"max=400"`
}

// SnoozeTaskRequest pushes a task's reminder forward.
type SnoozeTaskRequest struct {
	Minutes int `json:"minutes" validate:"gte=0,lte=10080"`
}

// ListTasksRequest is the query parameters for listing a lead's tasks.
type ListTasksRequest struct {
	LeadID uuid.UUID `form:"leadId" validate:"required"`
	Status *string   `form:"status" validate:"omitempty,oneof=pending completed cancelled"`
}

// RecoveryRequest is the query parameters for the recovery digest.
type RecoveryRequest struct {
	TopN int `form:"topN" validate:"gte=0,lte=100"`
	// Notify also delivers the digest via the notification channels.
	Notify bool `form:"notify"`
}

// TaskResponse is the wire shape of a follow-up task.
type TaskResponse struct {
	ID           uuid.UUID  `json:"id"`
	LeadID       uuid.UUID  `json:"leadId"`
	Title        string     `json:"title"`
	Type         string     `json:"type"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	DueDate      time.Time  `json:"dueDate"`
	ReminderAt   *time.Time `json:"reminderAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Outcome      *string    `json:"outcome,omitempty"`
	OutcomeNotes *string    `json:"outcomeNotes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewTaskResponse maps a stored task to its wire shape. The reminder job
// handle stays internal.
func NewTaskResponse(task repository.Task) TaskResponse {
	return TaskResponse{
		ID:           task.ID,
		LeadID:       task.LeadID,
		Title:        task.Title,
		Type:         string(task.Type),
		Priority:     string(task.Priority),
		Status:       string(task.Status),
		DueDate:      task.DueDate,
		ReminderAt:   task.ReminderAt,
		CompletedAt:  task.CompletedAt,
		Outcome:      task.Outcome,
		OutcomeNotes: task.OutcomeNotes,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

// NewTaskResponses maps a slice of stored tasks.
func NewTaskResponses(tasks []repository.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, NewTaskResponse(task))
	}
	return out
}

// LeadResponse is the wire shape of a lead.
type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Company         *string    `json:"company,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Email           *string    `json:"email,omitempty"`
	Status          string     `json:"status"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
	NextFollowUpAt  *time.Time `json:"nextFollowUpAt,omitempty"`
	EstimatedValue  int64      `json:"estimatedValue"`
	ActualValue     int64      `json:"actualValue"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewLeadResponse maps a stored lead to its wire shape.
func NewLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:              lead.ID,
		Name:            lead.Name,
		Company:         lead.Company,
		Phone:           lead.Phone,
		Email:           lead.Email,
		Status:          string(lead.Status),
		LastContactedAt: lead.LastContactedAt,
		NextFollowUpAt:  lead.NextFollowUpAt,
		EstimatedValue:  lead.EstimatedValue,
		ActualValue:     lead.ActualValue,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

// NewLeadResponses maps a slice of stored leads.
func NewLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, NewLeadResponse(lead))
	}
	return out
}
