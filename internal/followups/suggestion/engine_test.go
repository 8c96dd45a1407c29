package suggestion

import (
	"testing"
	"time"

	"followup_backend/internal/followups/domain"
)

func TestForOutcomeNoAnswer(t *testing.T) {
	got := ForOutcome(domain.OutcomeNoAnswer, "Asha")
	if got == nil {
		t.Fatal("expected a suggestion for no_answer")
	}
	if got.Type != domain.TaskTypeMessage {
		t.Errorf("type = %s, want message", got.Type)
	}
	if got.Title != "Send a message to Asha" {
		t.Errorf("title = %q, want the lead name resolved", got.Title)
	}
	if got.DueOffset != 2*time.Hour {
		t.Errorf("due offset = %v, want 2h", got.DueOffset)
	}
	if got.DueOffsetHours != 2 {
		t.Errorf("due offset hours = %v, want 2", got.DueOffsetHours)
	}
	if got.Priority != domain.TaskPriorityHigh {
		t.Errorf("priority = %s, want high", got.Priority)
	}
	if got.MessageTemplate != "missed_call" {
		t.Errorf("message template = %q, want missed_call", got.MessageTemplate)
	}
}

func TestForOutcomeUnknownIsNil(t *testing.T) {
	if got := ForOutcome("ghosted", "Asha"); got != nil {
		t.Fatalf("unknown outcome must yield nil, got %+v", got)
	}
	if got := ForOutcome("", "Asha"); got != nil {
		t.Fatalf("empty outcome must yield nil, got %+v", got)
	}
}

func TestForOutcomeIsDeterministic(t *testing.T) {
	first := ForOutcome(domain.OutcomeConnectedPositive, "Ravi")
	second := ForOutcome(domain.OutcomeConnectedPositive, "Ravi")
	if first == nil || second == nil {
		t.Fatal("expected suggestions")
	}
	if *first != *second {
		t.Fatalf("same input must produce the same suggestion: %+v vs %+v", first, second)
	}
}

func TestForOutcomeDoesNotMutateTable(t *testing.T) {
	ForOutcome(domain.OutcomeBusy, "Asha")
	again := ForOutcome(domain.OutcomeBusy, "Ravi")
	if again.Title != "Call Ravi back" {
		t.Fatalf("title = %q, the template table must not retain a previous lead's name", again.Title)
	}
}

func TestAllKnownOutcomesCovered(t *testing.T) {
	outcomes := []domain.TaskOutcome{
		domain.OutcomeNoAnswer,
		domain.OutcomeVoicemail,
		domain.OutcomeBusy,
		domain.OutcomeConnectedPositive,
		domain.OutcomeConnectedNeedsFollowUp,
		domain.OutcomeInterestedNotReady,
	}
	for _, outcome := range outcomes {
		got := ForOutcome(outcome, "Asha")
		if got == nil {
			t.Errorf("%s: expected a suggestion", outcome)
			continue
		}
		if got.Title == "" || got.Description == "" || got.DueOffset <= 0 {
			t.Errorf("%s: incomplete suggestion %+v", outcome, got)
		}
		if !domain.IsKnownTaskType(got.Type) || !domain.IsKnownTaskPriority(got.Priority) {
			t.Errorf("%s: suggestion must use known type and priority", outcome)
		}
	}
}
