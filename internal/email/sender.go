// Package email delivers the reminder and recovery digest emails.
package email

import (
	"context"

	"followup_backend/platform/config"
)

// ReminderEmail carries the fields rendered into a due-reminder email.
type ReminderEmail struct {
	TaskTitle string
	LeadName  string
	DueDate   string
}

// DigestEntry is one lead in the recovery digest email.
type DigestEntry struct {
	LeadName        string
	Category        string
	DaysInactive    int
	RecoveryScore   int
	SuggestionTitle string
}

// DigestEmail carries the fields rendered into a recovery digest email.
type DigestEmail struct {
	TotalLeads    int
	RevenueAtRisk string
	Entries       []DigestEntry
}

// Sender delivers follow-up emails. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendReminderEmail(ctx context.Context, toEmail string, data ReminderEmail) error
	SendRecoveryDigestEmail(ctx context.Context, toEmail string, data DigestEmail) error
}

// NewSender returns the SMTP sender, or a no-op sender when outbound email
// is disabled.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}

// NoopSender drops all email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendReminderEmail(context.Context, string, ReminderEmail) error {
	return nil
}

func (NoopSender) SendRecoveryDigestEmail(context.Context, string, DigestEmail) error {
	return nil
}
