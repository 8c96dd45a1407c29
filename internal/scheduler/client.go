package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"followup_backend/internal/followups/service"
	"followup_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client schedules follow-up reminder jobs on the asynq queue. The task ID
// asynq assigns on enqueue is the job handle the lifecycle stores.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
}

var _ service.ReminderScheduler = (*Client)(nil)

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	return errors.Join(errs...)
}

// Schedule enqueues a reminder to fire at job.FireAt and returns the asynq
// task ID as the job handle.
func (c *Client) Schedule(ctx context.Context, job service.ReminderJob) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("scheduler client not initialized")
	}

	task, err := NewFollowUpReminderTask(FollowUpReminderPayload{
		TaskID: job.TaskID.String(),
		LeadID: job.LeadID.String(),
		UserID: job.UserID.String(),
	})
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.ProcessAt(job.FireAt), asynq.Queue(c.queue))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Cancel deletes the scheduled job behind the handle. Handles that already
// fired or were already cancelled are gone from the queue; both cases are
// a no-op, not an error.
func (c *Client) Cancel(_ context.Context, jobID string) error {
	if c == nil || c.inspector == nil || jobID == "" {
		return nil
	}

	err := c.inspector.DeleteTask(c.queue, jobID)
	if err == nil ||
		errors.Is(err, asynq.ErrTaskNotFound) ||
		errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
