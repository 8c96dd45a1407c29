package recovery_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"followup_backend/internal/events"
	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/recovery"
	"followup_backend/internal/followups/repository"
	"followup_backend/platform/logger"

	"github.com/google/uuid"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSnapshot struct {
	leads      []repository.Lead
	stats      []repository.LeadTaskStats
	activities map[uuid.UUID]repository.Activity
}

var _ repository.RecoverySnapshotReader = (*fakeSnapshot)(nil)

func (f *fakeSnapshot) ListActiveLeads(context.Context, uuid.UUID) ([]repository.Lead, error) {
	return f.leads, nil
}

func (f *fakeSnapshot) ListPendingTaskStats(context.Context, uuid.UUID) ([]repository.LeadTaskStats, error) {
	return f.stats, nil
}

func (f *fakeSnapshot) LatestActivityByLead(context.Context, uuid.UUID) (map[uuid.UUID]repository.Activity, error) {
	if f.activities == nil {
		return map[uuid.UUID]repository.Activity{}, nil
	}
	return f.activities, nil
}

type staticConfig struct{ topN int }

func (c staticConfig) GetDefaultFollowUpDays() int            { return 3 }
func (c staticConfig) GetDefaultSnoozeMinutes() int           { return 30 }
func (c staticConfig) GetOverdueSweepInterval() time.Duration { return 5 * time.Minute }
func (c staticConfig) GetRecoveryTopN() int                   { return c.topN }

func newService(snap *fakeSnapshot, topN int) *recovery.Service {
	return recovery.New(snap, staticConfig{topN: topN}, nil, logger.New("test")).
		WithClock(func() time.Time { return now })
}

func lead(name string, status domain.LeadStatus, lastContacted *time.Time, updatedAgo time.Duration, value int64) repository.Lead {
	return repository.Lead{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		Name:            name,
		Status:          status,
		LastContactedAt: lastContacted,
		EstimatedValue:  value,
		CreatedAt:       now.Add(-90 * 24 * time.Hour),
		UpdatedAt:       now.Add(-updatedAgo),
	}
}

func daysAgo(d int) *time.Time {
	t := now.Add(-time.Duration(d) * 24 * time.Hour)
	return &t
}

func TestColdLeadWithPendingTaskScoredColdOnly(t *testing.T) {
	// Contacted 10 days ago, status contacted, one pending low-priority
	// task, negligible value: 30 (cold) + 5 (inactivity >7d) + 5 (contacted).
	l := lead("Asha", domain.LeadStatusContacted, daysAgo(10), time.Hour, 0)
	snap := &fakeSnapshot{
		leads: []repository.Lead{l},
		stats: []repository.LeadTaskStats{{LeadID: l.ID, PendingCount: 1, TopPriority: domain.TaskPriorityLow}},
	}

	digest, err := newService(snap, 20).BuildDigest(context.Background(), l.UserID, 0)
	if err != nil {
		t.Fatalf("build digest: %v", err)
	}
	if len(digest.Leads) != 1 {
		t.Fatalf("got %d leads, want 1", len(digest.Leads))
	}

	entry := digest.Leads[0]
	if entry.Recovery.Category != recovery.CategoryCold {
		t.Errorf("category = %s, want cold", entry.Recovery.Category)
	}
	if entry.Recovery.RecoveryScore != 40 {
		t.Errorf("score = %d, want 40", entry.Recovery.RecoveryScore)
	}
	if digest.Summary.ColdLeads != 1 || digest.Summary.NoTaskLeads != 0 {
		t.Errorf("summary = %+v, want 1 cold and 0 no-task", digest.Summary)
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	// Everything maxed: 30 + 30 + 20 + 15 + 20 = 115, capped at 100.
	l := lead("Max", domain.LeadStatusNegotiation, daysAgo(45), time.Hour, 10_000_000)
	got := recovery.Score(recovery.CategoryCold, l, domain.TaskPriorityUrgent, now)
	if got != 100 {
		t.Fatalf("score = %d, want cap at 100", got)
	}

	fresh := lead("Min", domain.LeadStatusNew, daysAgo(0), time.Hour, 0)
	if s := recovery.Score(recovery.CategoryNoTask, fresh, "", now); s < 0 || s > 100 {
		t.Fatalf("score = %d, want within [0, 100]", s)
	}
}

func TestDigestNeverDuplicatesLeads(t *testing.T) {
	// Cold, stuck, and task-less all at once; must appear exactly once,
	// tagged with the first-seen category.
	l := lead("Asha", domain.LeadStatusContacted, daysAgo(20), 20*24*time.Hour, 0)
	snap := &fakeSnapshot{leads: []repository.Lead{l}}

	digest, err := newService(snap, 20).BuildDigest(context.Background(), l.UserID, 0)
	if err != nil {
		t.Fatalf("build digest: %v", err)
	}
	if len(digest.Leads) != 1 {
		t.Fatalf("got %d entries, want 1", len(digest.Leads))
	}
	if digest.Leads[0].Recovery.Category != recovery.CategoryCold {
		t.Fatalf("category = %s, want the first-seen cold", digest.Leads[0].Recovery.Category)
	}
	if digest.Summary.TotalRecoveryLeads != 1 {
		t.Fatalf("total = %d, want 1", digest.Summary.TotalRecoveryLeads)
	}
}

func TestDigestSortsByScoreAndTruncates(t *testing.T) {
	big := lead("Big", domain.LeadStatusNegotiation, daysAgo(40), time.Hour, 10_000_000)
	mid := lead("Mid", domain.LeadStatusQualified, daysAgo(16), time.Hour, 600_000)
	small := lead("Small", domain.LeadStatusNew, daysAgo(8), time.Hour, 0)
	snap := &fakeSnapshot{leads: []repository.Lead{small, mid, big}}

	digest, err := newService(snap, 2).BuildDigest(context.Background(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("build digest: %v", err)
	}
	if len(digest.Leads) != 2 {
		t.Fatalf("got %d leads, want top-2", len(digest.Leads))
	}
	if digest.Leads[0].Lead.Name != "Big" || digest.Leads[1].Lead.Name != "Mid" {
		t.Fatalf("order = %s, %s; want Big, Mid", digest.Leads[0].Lead.Name, digest.Leads[1].Lead.Name)
	}
	if digest.Leads[0].Recovery.RecoveryScore < digest.Leads[1].Recovery.RecoveryScore {
		t.Fatal("digest must be sorted by score descending")
	}

	// Category counts cover the full set; revenue only the returned leads.
	if digest.Summary.TotalRecoveryLeads != 3 {
		t.Fatalf("total = %d, want 3", digest.Summary.TotalRecoveryLeads)
	}
	wantRevenue := big.EstimatedValue + mid.EstimatedValue
	if digest.Summary.RevenueAtRisk != wantRevenue {
		t.Fatalf("revenue at risk = %d, want %d", digest.Summary.RevenueAtRisk, wantRevenue)
	}
}

func TestStuckDetection(t *testing.T) {
	cases := []struct {
		status     domain.LeadStatus
		updatedAgo time.Duration
		want       bool
	}{
		{domain.LeadStatusContacted, 15 * 24 * time.Hour, true},
		{domain.LeadStatusQualified, 14 * 24 * time.Hour, true},
		{domain.LeadStatusContacted, 10 * 24 * time.Hour, false},
		{domain.LeadStatusNegotiation, 30 * 24 * time.Hour, false},
		{domain.LeadStatusNew, 30 * 24 * time.Hour, false},
	}
	for i, tc := range cases {
		l := lead(fmt.Sprintf("lead-%d", i), tc.status, daysAgo(1), tc.updatedAgo, 0)
		if got := recovery.IsStuck(l, now); got != tc.want {
			t.Errorf("case %d (%s, %v): IsStuck = %v, want %v", i, tc.status, tc.updatedAgo, got, tc.want)
		}
	}
}

func TestColdDetectionFallsBackToCreation(t *testing.T) {
	neverContacted := repository.Lead{
		ID:        uuid.New(),
		Name:      "Quiet",
		Status:    domain.LeadStatusNew,
		CreatedAt: now.Add(-8 * 24 * time.Hour),
		UpdatedAt: now,
	}
	if !recovery.IsCold(neverContacted, now) {
		t.Fatal("a never-contacted lead older than 7 days must be cold")
	}

	fresh := neverContacted
	fresh.CreatedAt = now.Add(-2 * 24 * time.Hour)
	if recovery.IsCold(fresh, now) {
		t.Fatal("a 2-day-old lead must not be cold")
	}
}

func TestSuggestionRefinedByLastActivity(t *testing.T) {
	l := lead("Asha", domain.LeadStatusContacted, daysAgo(10), time.Hour, 0)
	snap := &fakeSnapshot{
		leads: []repository.Lead{l},
		stats: []repository.LeadTaskStats{{LeadID: l.ID, PendingCount: 1, TopPriority: domain.TaskPriorityLow}},
		activities: map[uuid.UUID]repository.Activity{
			l.ID: {
				LeadID:   l.ID,
				Type:     "task_completed",
				Metadata: map[string]any{"outcome": "no_answer"},
			},
		},
	}

	digest, err := newService(snap, 20).BuildDigest(context.Background(), l.UserID, 0)
	if err != nil {
		t.Fatalf("build digest: %v", err)
	}
	sugg := digest.Leads[0].Recovery.Suggestion
	if sugg == nil {
		t.Fatal("expected a suggestion")
	}
	if sugg.Type != domain.TaskTypeMessage {
		t.Fatalf("suggestion type = %s; an unanswered call must switch the channel to message", sugg.Type)
	}
}

func TestSuggestionAmplifiedByPriority(t *testing.T) {
	l := lead("Asha", domain.LeadStatusContacted, daysAgo(10), time.Hour, 0)
	snap := &fakeSnapshot{
		leads: []repository.Lead{l},
		stats: []repository.LeadTaskStats{{LeadID: l.ID, PendingCount: 2, TopPriority: domain.TaskPriorityUrgent}},
	}

	digest, err := newService(snap, 20).BuildDigest(context.Background(), l.UserID, 0)
	if err != nil {
		t.Fatalf("build digest: %v", err)
	}
	sugg := digest.Leads[0].Recovery.Suggestion
	if sugg.Priority != domain.TaskPriorityUrgent {
		t.Fatalf("suggestion priority = %s, want urgent for a high-priority lead", sugg.Priority)
	}
}

func TestTerminalLeadsAreExcludedUpstream(t *testing.T) {
	// ListActiveLeads already filters won/lost; an empty snapshot yields
	// an empty digest, not an error.
	digest, err := newService(&fakeSnapshot{}, 20).BuildDigest(context.Background(), uuid.New(), 0)
	if err != nil {
		t.Fatalf("build digest: %v", err)
	}
	if len(digest.Leads) != 0 || digest.Summary.TotalRecoveryLeads != 0 {
		t.Fatalf("expected empty digest, got %+v", digest.Summary)
	}
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func TestNotifyDigestPublishesSummary(t *testing.T) {
	snap := &fakeSnapshot{
		leads: []repository.Lead{
			lead("Asha", domain.LeadStatusQualified, daysAgo(12), time.Hour, 2000000),
		},
	}
	bus := &captureBus{}
	svc := recovery.New(snap, staticConfig{topN: 20}, bus, logger.New("test")).
		WithClock(func() time.Time { return now })

	userID := uuid.New()
	digest, err := svc.BuildDigest(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("build digest: %v", err)
	}

	svc.NotifyDigest(context.Background(), userID, digest)

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	event, ok := bus.published[0].(events.RecoveryDigestReady)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if event.UserID != userID {
		t.Fatalf("digest published for wrong user: %s", event.UserID)
	}
	if event.TotalLeads != 1 || event.ColdLeads != 1 {
		t.Fatalf("unexpected summary in event: %+v", event)
	}
	if len(event.Leads) != 1 || event.Leads[0].LeadName != "Asha" {
		t.Fatalf("unexpected digest leads: %+v", event.Leads)
	}
	if event.Leads[0].SuggestionTitle == "" {
		t.Fatal("expected a suggestion title in the digest entry")
	}
}
