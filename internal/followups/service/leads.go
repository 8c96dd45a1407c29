package service

import (
	"context"
	"errors"

	"followup_backend/internal/followups/domain"
	"followup_backend/internal/followups/repository"
	"followup_backend/platform/apperr"
	"followup_backend/platform/phone"

	"github.com/google/uuid"
)

// LeadStore is the data access the lead directory needs. Lead creation sits
// outside the lifecycle core's Repository on purpose: the state machine
// never creates leads.
type LeadStore interface {
	CreateLead(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetLead(ctx context.Context, id, userID uuid.UUID) (repository.Lead, error)
	ListLeads(ctx context.Context, userID uuid.UUID) ([]repository.Lead, error)
}

// LeadDirectory provides the minimal lead surface the API exposes.
type LeadDirectory struct {
	store LeadStore
}

// NewLeadDirectory creates a new lead directory.
func NewLeadDirectory(store LeadStore) *LeadDirectory {
	return &LeadDirectory{store: store}
}

// CreateLeadParams are the caller-supplied fields for a new lead.
type CreateLeadParams struct {
	Name           string
	Company        *string
	Phone          *string
	Email          *string
	EstimatedValue int64
}

// CreateLead stores a new lead with its phone number normalized to E.164.
func (d *LeadDirectory) CreateLead(ctx context.Context, userID uuid.UUID, p CreateLeadParams) (repository.Lead, error) {
	if p.Name == "" {
		return repository.Lead{}, apperr.Validation("name is required")
	}
	if p.EstimatedValue < 0 {
		return repository.Lead{}, apperr.Validation("estimated value cannot be negative")
	}

	normalizedPhone := p.Phone
	if p.Phone != nil {
		normalized := phone.NormalizeE164(*p.Phone)
		normalizedPhone = &normalized
	}

	return d.store.CreateLead(ctx, repository.CreateLeadParams{
		UserID:         userID,
		Name:           p.Name,
		Company:        p.Company,
		Phone:          normalizedPhone,
		Email:          p.Email,
		Status:         domain.LeadStatusNew,
		EstimatedValue: p.EstimatedValue,
	})
}

// GetLead returns a single lead scoped to the caller.
func (d *LeadDirectory) GetLead(ctx context.Context, userID, leadID uuid.UUID) (repository.Lead, error) {
	lead, err := d.store.GetLead(ctx, leadID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		return repository.Lead{}, err
	}
	return lead, nil
}

// ListLeads returns the caller's leads.
func (d *LeadDirectory) ListLeads(ctx context.Context, userID uuid.UUID) ([]repository.Lead, error) {
	return d.store.ListLeads(ctx, userID)
}
