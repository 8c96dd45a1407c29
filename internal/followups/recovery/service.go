package recovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"followup_backend/internal/events"
	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
	"followup_backend/internal/followups/suggestion"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Info explains why a lead is in the recovery set and what to do about it.
type Info struct {
	Category      Category               `json:"category"`
	DaysInactive  int                    `json:"daysInactive"`
	LastActivity  *repository.Activity   `json:"lastActivity,omitempty"`
	Suggestion    *suggestion.Suggestion `json:"suggestion"`
	RecoveryScore int                    `json:"recoveryScore"`
}

// ScoredLead pairs a lead with its recovery assessment.
type ScoredLead struct {
	Lead     repository.Lead `json:"lead"`
	Recovery Info            `json:"recovery"`
}

// Summary aggregates the full recovery set, before top-N truncation for
// the category counts and after it for revenue at risk.
type Summary struct {
	TotalRecoveryLeads int   `json:"totalRecoveryLeads"`
	ColdLeads          int   `json:"coldLeads"`
	StuckLeads         int   `json:"stuckLeads"`
	NoTaskLeads        int   `json:"noTaskLeads"`
	RevenueAtRisk      int64 `json:"revenueAtRisk"`
}

// Digest is the recovery report consumed by the dashboard and the email
// digest.
type Digest struct {
	Leads   []ScoredLead `json:"leads"`
	Summary Summary      `json:"summary"`
}

// Service assembles recovery digests from lead, task and activity snapshots.
type Service struct {
	repo repository.RecoverySnapshotReader
	cfg  config.FollowUpConfig
	bus  events.Bus
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new recovery service. bus may be nil when digest delivery
// is not wired.
func New(repo repository.RecoverySnapshotReader, cfg config.FollowUpConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log, now: time.Now}
}

// WithClock overrides the service's time source for deterministic tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// BuildDigest classifies the user's active leads into cold, stuck and
// no-task, scores them, and returns the top-N by score. topN <= 0 uses the
// configured default.
func (s *Service) BuildDigest(ctx context.Context, userID uuid.UUID, topN int) (Digest, error) {
	if topN <= 0 {
		topN = s.topN()
	}

	var (
		leads      []repository.Lead
		stats      []repository.LeadTaskStats
		activities map[uuid.UUID]repository.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = s.repo.ListActiveLeads(gctx, userID)
		if err != nil {
			return fmt.Errorf("list active leads: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = s.repo.ListPendingTaskStats(gctx, userID)
		if err != nil {
			return fmt.Errorf("list pending task stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		activities, err = s.repo.LatestActivityByLead(gctx, userID)
		if err != nil {
			return fmt.Errorf("latest activities: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Digest{}, err
	}

	statsByLead := make(map[uuid.UUID]repository.LeadTaskStats, len(stats))
	for _, st := range stats {
		statsByLead[st.LeadID] = st
	}

	now := s.now()

	// Classification passes run in a fixed order; a lead keeps the first
	// category that claims it.
	category := make(map[uuid.UUID]Category)
	var order []uuid.UUID
	claim := func(id uuid.UUID, c Category) {
		if _, taken := category[id]; !taken {
			category[id] = c
			order = append(order, id)
		}
	}

	leadByID := make(map[uuid.UUID]repository.Lead, len(leads))
	for _, lead := range leads {
		leadByID[lead.ID] = lead
	}

	for _, lead := range leads {
		if IsCold(lead, now) {
			claim(lead.ID, CategoryCold)
		}
	}
	for _, lead := range leads {
		if IsStuck(lead, now) {
			claim(lead.ID, CategoryStuck)
		}
	}
	for _, lead := range leads {
		if statsByLead[lead.ID].PendingCount == 0 {
			claim(lead.ID, CategoryNoTask)
		}
	}

	summary := Summary{TotalRecoveryLeads: len(order)}
	scored := make([]ScoredLead, 0, len(order))
	for _, id := range order {
		lead := leadByID[id]
		cat := category[id]

		switch cat {
		case CategoryCold:
			summary.ColdLeads++
		case CategoryStuck:
			summary.StuckLeads++
		case CategoryNoTask:
			summary.NoTaskLeads++
		}

		var lastActivity *repository.Activity
		if activity, ok := activities[id]; ok {
			lastActivity = &activity
		}
		topPriority := statsByLead[id].TopPriority

		scored = append(scored, ScoredLead{
			Lead: lead,
			Recovery: Info{
				Category:      cat,
				DaysInactive:  DaysInactive(lead, now),
				LastActivity:  lastActivity,
				Suggestion:    suggestFor(cat, lead, lastActivity, topPriority),
				RecoveryScore: Score(cat, lead, topPriority, now),
			},
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Recovery.RecoveryScore != scored[j].Recovery.RecoveryScore {
			return scored[i].Recovery.RecoveryScore > scored[j].Recovery.RecoveryScore
		}
		if scored[i].Recovery.DaysInactive != scored[j].Recovery.DaysInactive {
			return scored[i].Recovery.DaysInactive > scored[j].Recovery.DaysInactive
		}
		return scored[i].Lead.ID.String() < scored[j].Lead.ID.String()
	})

	if len(scored) > topN {
		scored = scored[:topN]
	}
	for _, entry := range scored {
		summary.RevenueAtRisk += entry.Lead.EstimatedValue
	}

	return Digest{Leads: scored, Summary: summary}, nil
}

// NotifyDigest publishes a built digest on the event bus so the
// notification module can deliver it to the operator.
func (s *Service) NotifyDigest(ctx context.Context, userID uuid.UUID, digest Digest) {
	if s.bus == nil {
		return
	}

	entries := make([]events.RecoveryDigestLead, 0, len(digest.Leads))
	for _, entry := range digest.Leads {
		suggestionTitle := ""
		if entry.Recovery.Suggestion != nil {
			suggestionTitle = entry.Recovery.Suggestion.Title
		}
		entries = append(entries, events.RecoveryDigestLead{
			LeadID:          entry.Lead.ID,
			LeadName:        entry.Lead.Name,
			Category:        string(entry.Recovery.Category),
			DaysInactive:    entry.Recovery.DaysInactive,
			RecoveryScore:   entry.Recovery.RecoveryScore,
			SuggestionTitle: suggestionTitle,
		})
	}

	s.bus.Publish(ctx, events.RecoveryDigestReady{
		BaseEvent:     events.NewBaseEvent(),
		UserID:        userID,
		TotalLeads:    digest.Summary.TotalRecoveryLeads,
		ColdLeads:     digest.Summary.ColdLeads,
		StuckLeads:    digest.Summary.StuckLeads,
		NoTaskLeads:   digest.Summary.NoTaskLeads,
		RevenueAtRisk: digest.Summary.RevenueAtRisk,
		Leads:         entries,
	})
}

func (s *Service) topN() int {
	if s.cfg != nil {
		if n := s.cfg.GetRecoveryTopN(); n > 0 {
			return n
		}
	}
	return 20
}

// suggestFor builds the category's default suggestion, then refines it
// against the lead's most recent activity and its top pending priority.
func suggestFor(cat Category, lead repository.Lead, last *repository.Activity, topPriority domain.TaskPriority) *suggestion.Suggestion {
	sugg := baseSuggestion(cat, lead.Name)

	// A call that just went unanswered means another call is the wrong
	// move; switch the channel to messaging.
	if sugg.Type == domain.TaskTypeCall && lastOutcome(last) == string(domain.OutcomeNoAnswer) {
		sugg.Type = domain.TaskTypeMessage
		sugg.Title = fmt.Sprintf("Send a message to %s", lead.Name)
		sugg.Description = "The last call went unanswered. Switch to a message before trying the phone again."
		sugg.MessageTemplate = "missed_call"
	}

	if topPriority == domain.TaskPriorityUrgent || topPriority == domain.TaskPriorityHigh {
		sugg.Priority = domain.TaskPriorityUrgent
		sugg.Description = "High-priority work is pending on this lead. " + sugg.Description
	}

	sugg.DueOffsetHours = sugg.DueOffset.Hours()
	return &sugg
}

func baseSuggestion(cat Category, leadName string) suggestion.Suggestion {
	switch cat {
	case CategoryStuck:
		return suggestion.Suggestion{
			Type:        domain.TaskTypeMeeting,
			Title:       fmt.Sprintf("Unblock the deal with %s", leadName),
			Description: "This deal has not moved in two weeks. A short meeting surfaces what is holding it up.",
			DueOffset:   48 * time.Hour,
			Priority:    domain.TaskPriorityHigh,
		}
	case CategoryNoTask:
		return suggestion.Suggestion{
			Type:        domain.TaskTypeCall,
			Title:       fmt.Sprintf("Schedule a follow-up with %s", leadName),
			Description: "Nothing is planned for this lead. Put the next touchpoint on the calendar.",
			DueOffset:   24 * time.Hour,
			Priority:    domain.TaskPriorityMedium,
		}
	default:
		return suggestion.Suggestion{
			Type:        domain.TaskTypeCall,
			Title:       fmt.Sprintf("Reconnect with %s", leadName),
			Description: "It has been over a week since the last contact. A quick call keeps the relationship warm.",
			DueOffset:   24 * time.Hour,
			Priority:    domain.TaskPriorityHigh,
		}
	}
}

func lastOutcome(last *repository.Activity) string {
	if last == nil || last.Metadata == nil {
		return ""
	}
	if outcome, ok := last.Metadata["outcome"].(string); ok {
		return outcome
	}
	return ""
}
