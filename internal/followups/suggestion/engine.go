// Package suggestion maps completed-task outcomes to a proposed next action.
// The mapping is a closed table: same (outcome, lead name) in, same
// suggestion out, no side effects.
package suggestion

import (
	"strings"
	"time"

	"followup_backend/internal/followups/domain"
)

// namePlaceholder is resolved against the lead's display name when a
// suggestion is produced.
const namePlaceholder = "{name}"

// Suggestion is a proposed follow-up action derived from an outcome.
type Suggestion struct {
	Type            domain.TaskType     `json:"type"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	DueOffset       time.Duration       `json:"-"`
	DueOffsetHours  float64             `json:"dueOffsetHours"`
	Priority        domain.TaskPriority `json:"priority"`
	MessageTemplate string              `json:"messageTemplate,omitempty"`
}

var byOutcome = map[domain.TaskOutcome]Suggestion{
	domain.OutcomeNoAnswer: {
		Type:            domain.TaskTypeMessage,
		Title:           "Send a message to {name}",
		Description:     "The call went unanswered. A short text keeps the thread warm without another missed call.",
		DueOffset:       2 * time.Hour,
		Priority:        domain.TaskPriorityHigh,
		MessageTemplate: "missed_call",
	},
	domain.OutcomeVoicemail: {
		Type:            domain.TaskTypeMessage,
		Title:           "Follow up on the voicemail for {name}",
		Description:     "Reference the voicemail so the lead connects the message to your call.",
		DueOffset:       4 * time.Hour,
		Priority:        domain.TaskPriorityMedium,
		MessageTemplate: "voicemail_followup",
	},
	domain.OutcomeBusy: {
		Type:        domain.TaskTypeCall,
		Title:       "Call {name} back",
		Description: "The line was busy. Retry within the hour while the lead is still at their phone.",
		DueOffset:   1 * time.Hour,
		Priority:    domain.TaskPriorityHigh,
	},
	domain.OutcomeConnectedPositive: {
		Type:        domain.TaskTypeMeeting,
		Title:       "Schedule a meeting with {name}",
		Description: "The conversation went well. Lock in a meeting before the momentum fades.",
		DueOffset:   24 * time.Hour,
		Priority:    domain.TaskPriorityHigh,
	},
	domain.OutcomeConnectedNeedsFollowUp: {
		Type:        domain.TaskTypeCall,
		Title:       "Check in with {name}",
		Description: "Open questions remain from the last conversation. Follow up in a few days.",
		DueOffset:   72 * time.Hour,
		Priority:    domain.TaskPriorityMedium,
	},
	domain.OutcomeInterestedNotReady: {
		Type:            domain.TaskTypeMessage,
		Title:           "Nurture {name} with a check-in",
		Description:     "Interested but not ready to move. A light touch next week keeps you in the picture.",
		DueOffset:       7 * 24 * time.Hour,
		Priority:        domain.TaskPriorityLow,
		MessageTemplate: "nurture",
	},
}

// ForOutcome returns the suggested next action for a completed task's
// outcome, with the lead's display name resolved into the title.
// Unknown outcomes yield nil.
func ForOutcome(outcome domain.TaskOutcome, leadName string) *Suggestion {
	template, ok := byOutcome[outcome]
	if !ok {
		return nil
	}

	s := template
	s.Title = strings.ReplaceAll(s.Title, namePlaceholder, leadName)
	s.DueOffsetHours = s.DueOffset.Hours()
	return &s
}
