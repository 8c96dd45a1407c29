package domain

// LeadStatus is a lead's position in the sales funnel.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusProposal    LeadStatus = "proposal"
	LeadStatusNegotiation LeadStatus = "negotiation"
	LeadStatusWon         LeadStatus = "won"
	LeadStatusLost        LeadStatus = "lost"
)

var knownLeadStatuses = map[LeadStatus]struct{}{
	LeadStatusNew:         {},
	LeadStatusContacted:   {},
	LeadStatusQualified:   {},
	LeadStatusProposal:    {},
	LeadStatusNegotiation: {},
	LeadStatusWon:         {},
	LeadStatusLost:        {},
}

// IsKnownLeadStatus reports whether s is a recognized funnel status.
func IsKnownLeadStatus(s LeadStatus) bool {
	_, ok := knownLeadStatuses[s]
	return ok
}

// IsTerminal returns true for won and lost. Terminal leads are excluded
// from recovery scoring; they are reversible only by an explicit status
// change outside this core.
func (s LeadStatus) IsTerminal() bool {
	return s == LeadStatusWon || s == LeadStatusLost
}

// StatusAdvancementBonus maps funnel progression to its recovery-score
// contribution: the further along the funnel, the more costly it is to
// let the relationship go cold.
func StatusAdvancementBonus(s LeadStatus) int {
	switch s {
	case LeadStatusNegotiation:
		return 20
	case LeadStatusProposal:
		return 15
	case LeadStatusQualified:
		return 10
	case LeadStatusContacted:
		return 5
	default:
		return 0
	}
}
