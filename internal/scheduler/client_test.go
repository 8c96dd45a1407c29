package scheduler

import (
	"context"
	"testing"
	"time"

	"followup_backend/internal/followups/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "followups" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func newTestClient(t *testing.T) *Client {
	t.Helper()

	srv := miniredis.RunT(t)
	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestScheduleReturnsHandle(t *testing.T) {
	client := newTestClient(t)

	jobID, err := client.Schedule(context.Background(), service.ReminderJob{
		TaskID: uuid.New(),
		LeadID: uuid.New(),
		UserID: uuid.New(),
		FireAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a non-empty job handle")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	jobID, err := client.Schedule(ctx, service.ReminderJob{
		TaskID: uuid.New(),
		LeadID: uuid.New(),
		UserID: uuid.New(),
		FireAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if err := client.Cancel(ctx, jobID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := client.Cancel(ctx, jobID); err != nil {
		t.Fatalf("cancelling an already-cancelled handle must be a no-op: %v", err)
	}
}

func TestCancelUnknownHandleIsNoOp(t *testing.T) {
	client := newTestClient(t)

	if err := client.Cancel(context.Background(), "never-scheduled"); err != nil {
		t.Fatalf("unknown handle must be a no-op: %v", err)
	}
	if err := client.Cancel(context.Background(), ""); err != nil {
		t.Fatalf("empty handle must be a no-op: %v", err)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}
