package domain

// TaskOutcome records how a completed follow-up played out. The suggestion
// engine derives the proposed next action from this value.
type TaskOutcome string

const (
	OutcomeNoAnswer                TaskOutcome = "no_answer"
	OutcomeVoicemail               TaskOutcome = "voicemail"
	OutcomeBusy                    TaskOutcome = "busy"
	OutcomeConnectedPositive       TaskOutcome = "connected_positive"
	OutcomeConnectedNeedsFollowUp  TaskOutcome = "connected_needs_followup"
	OutcomeInterestedNotReady      TaskOutcome = "interested_not_ready"
)

var knownOutcomes = map[TaskOutcome]struct{}{
	OutcomeNoAnswer:               {},
	OutcomeVoicemail:              {},
	OutcomeBusy:                   {},
	OutcomeConnectedPositive:      {},
	OutcomeConnectedNeedsFollowUp: {},
	OutcomeInterestedNotReady:     {},
}

// IsKnownOutcome reports whether o has a suggestion mapping. Unknown
// outcomes are stored as-is but yield no suggestion.
func IsKnownOutcome(o TaskOutcome) bool {
	_, ok := knownOutcomes[o]
	return ok
}
