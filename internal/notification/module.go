// Package notification reacts to domain events by persisting in-app
// notifications and sending the operator emails. It inverts the dependency:
// the followups and scheduler modules publish events and never touch email
// providers or notification storage.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"followup_backend/internal/email"
	"followup_backend/internal/events"
	apphttp "followup_backend/internal/http"
	notifhandler "followup_backend/internal/notification/handler"
	"followup_backend/internal/notification/inapp"
	"followup_backend/platform/config"
	"followup_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	resourceTypeTask = "task"

	categoryReminder = "reminder"
	categoryWarning  = "warning"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	sender       email.Sender
	cfg          config.EmailConfig
	log          *logger.Logger
	inAppService *inapp.Service
	inAppHandler *notifhandler.HTTPHandler
}

// New creates a new notification module.
func New(pool *pgxpool.Pool, sender email.Sender, cfg config.EmailConfig, log *logger.Logger) *Module {
	inAppRepo := inapp.NewRepository(pool)
	inAppSvc := inapp.NewService(inAppRepo, log)

	return &Module{
		sender:       sender,
		cfg:          cfg,
		log:          log,
		inAppService: inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes registers notification API routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.inAppHandler == nil {
		return
	}

	notifications := ctx.Protected.Group("/notifications")
	m.inAppHandler.RegisterRoutes(notifications)
}

// InAppService exposes the in-app notification service for integration points.
func (m *Module) InAppService() *inapp.Service { return m.inAppService }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.FollowUpReminderDue{}.EventName(), m)
	bus.Subscribe(events.TaskOverdue{}.EventName(), m)
	bus.Subscribe(events.RecoveryDigestReady{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.FollowUpReminderDue:
		return m.handleReminderDue(ctx, e)
	case events.TaskOverdue:
		return m.handleTaskOverdue(ctx, e)
	case events.RecoveryDigestReady:
		return m.handleRecoveryDigest(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleReminderDue(ctx context.Context, e events.FollowUpReminderDue) error {
	taskID := e.TaskID
	resourceType := resourceTypeTask
	content := fmt.Sprintf("%q for %s is due %s.", e.TaskTitle, e.LeadName, e.DueDate.Format("Mon Jan 2 15:04"))

	if _, err := m.inAppService.Send(ctx, inapp.CreateParams{
		UserID:       e.UserID,
		Title:        "Follow-up reminder",
		Content:      content,
		ResourceID:   &taskID,
		ResourceType: &resourceType,
		Category:     categoryReminder,
	}); err != nil {
		m.log.Error("failed to store reminder notification",
			"taskId", e.TaskID,
			"userId", e.UserID,
			"error", err,
		)
		return err
	}

	to := strings.TrimSpace(m.cfg.GetNotificationEmail())
	if to == "" {
		m.log.Debug("notification email not configured; reminder email skipped", "taskId", e.TaskID)
		return nil
	}

	if err := m.sender.SendReminderEmail(ctx, to, email.ReminderEmail{
		TaskTitle: e.TaskTitle,
		LeadName:  e.LeadName,
		DueDate:   e.DueDate.Format(time.RFC1123),
	}); err != nil {
		m.log.Error("failed to send reminder email",
			"taskId", e.TaskID,
			"email", to,
			"error", err,
		)
		return err
	}

	m.log.Info("reminder delivered", "taskId", e.TaskID, "userId", e.UserID)
	return nil
}

func (m *Module) handleTaskOverdue(ctx context.Context, e events.TaskOverdue) error {
	taskID := e.TaskID
	resourceType := resourceTypeTask
	content := fmt.Sprintf("%q was due %s and is still pending.", e.TaskTitle, e.DueDate.Format("Mon Jan 2 15:04"))

	if _, err := m.inAppService.Send(ctx, inapp.CreateParams{
		UserID:       e.UserID,
		Title:        "Follow-up overdue",
		Content:      content,
		ResourceID:   &taskID,
		ResourceType: &resourceType,
		Category:     categoryWarning,
	}); err != nil {
		m.log.Error("failed to store overdue notification",
			"taskId", e.TaskID,
			"userId", e.UserID,
			"error", err,
		)
		return err
	}

	m.log.Info("overdue notification stored", "taskId", e.TaskID, "userId", e.UserID)
	return nil
}

func (m *Module) handleRecoveryDigest(ctx context.Context, e events.RecoveryDigestReady) error {
	content := fmt.Sprintf("%d leads need attention (%d cold, %d stuck, %d without a task).",
		e.TotalLeads, e.ColdLeads, e.StuckLeads, e.NoTaskLeads)

	if _, err := m.inAppService.Send(ctx, inapp.CreateParams{
		UserID:   e.UserID,
		Title:    "Lead recovery digest",
		Content:  content,
		Category: "info",
	}); err != nil {
		m.log.Error("failed to store recovery digest notification",
			"userId", e.UserID,
			"error", err,
		)
		return err
	}

	to := strings.TrimSpace(m.cfg.GetNotificationEmail())
	if to == "" {
		m.log.Debug("notification email not configured; digest email skipped", "userId", e.UserID)
		return nil
	}

	entries := make([]email.DigestEntry, 0, len(e.Leads))
	for _, lead := range e.Leads {
		entries = append(entries, email.DigestEntry{
			LeadName:        lead.LeadName,
			Category:        lead.Category,
			DaysInactive:    lead.DaysInactive,
			RecoveryScore:   lead.RecoveryScore,
			SuggestionTitle: lead.SuggestionTitle,
		})
	}

	if err := m.sender.SendRecoveryDigestEmail(ctx, to, email.DigestEmail{
		TotalLeads:    e.TotalLeads,
		RevenueAtRisk: fmt.Sprintf("%d", e.RevenueAtRisk),
		Entries:       entries,
	}); err != nil {
		m.log.Error("failed to send recovery digest email",
			"userId", e.UserID,
			"email", to,
			"error", err,
		)
		return err
	}

	m.log.Info("recovery digest delivered", "userId", e.UserID, "leadCount", len(e.Leads))
	return nil
}

var _ apphttp.Module = (*Module)(nil)
var _ events.Handler = (*Module)(nil)
