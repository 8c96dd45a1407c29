// Package recovery ranks at-risk leads: relationships going cold, deals
// stuck mid-funnel, and active leads with nothing scheduled. It is a pure
// read-side analysis over lead, task and activity snapshots.
package recovery

import (
	"time"

	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
)

// Category tags why a lead landed in the recovery set.
type Category string

const (
	CategoryCold   Category = "cold"
	CategoryStuck  Category = "stuck"
	CategoryNoTask Category = "no_task"
)

const (
	coldAfter  = 7 * 24 * time.Hour
	stuckAfter = 14 * 24 * time.Hour
)

var categoryBase = map[Category]int{
	CategoryCold:   30,
	CategoryStuck:  25,
	CategoryNoTask: 20,
}

// IsCold reports whether the lead has gone without contact for over seven
// days. A never-contacted lead counts from its creation time.
func IsCold(lead repository.Lead, now time.Time) bool {
	ref := lead.CreatedAt
	if lead.LastContactedAt != nil {
		ref = *lead.LastContactedAt
	}
	return now.Sub(ref) > coldAfter
}

// IsStuck reports whether the lead sits in an early funnel stage without
// any change for two weeks or more.
func IsStuck(lead repository.Lead, now time.Time) bool {
	if lead.Status != domain.LeadStatusContacted && lead.Status != domain.LeadStatusQualified {
		return false
	}
	return now.Sub(lead.UpdatedAt) >= stuckAfter
}

// DaysInactive counts whole days since the lead was last contacted, or
// since creation when it never was.
func DaysInactive(lead repository.Lead, now time.Time) int {
	ref := lead.CreatedAt
	if lead.LastContactedAt != nil {
		ref = *lead.LastContactedAt
	}
	days := int(now.Sub(ref).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func valueTierPoints(estimatedValue int64) int {
	switch {
	case estimatedValue > 5_000_000:
		return 30
	case estimatedValue > 1_000_000:
		return 20
	case estimatedValue > 500_000:
		return 10
	default:
		return 0
	}
}

func inactivityPoints(daysInactive int) int {
	switch {
	case daysInactive > 30:
		return 15
	case daysInactive > 14:
		return 10
	case daysInactive > 7:
		return 5
	default:
		return 0
	}
}

// Score computes the 0-100 urgency score for a lead in the given category.
// topPriority is the highest priority among the lead's pending tasks, empty
// when it has none.
func Score(category Category, lead repository.Lead, topPriority domain.TaskPriority, now time.Time) int {
	score := categoryBase[category]
	score += valueTierPoints(lead.EstimatedValue)
	score += domain.PriorityWeight(topPriority)
	score += inactivityPoints(DaysInactive(lead, now))
	score += domain.StatusAdvancementBonus(lead.Status)

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
