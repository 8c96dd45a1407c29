package service

import (
	"context"
	"errors"
	"time"

	"followup_backend/internal/followups/repository"
	"followup_backend/platform/apperr"

	"github.com/google/uuid"
)

// RecomputeNextFollowUp rebuilds a lead's derived next-follow-up timestamp
// from its pending tasks and returns the new value, nil when no pending task
// remains. The lifecycle operations call this implicitly after every
// mutation; this entry point exists for repair jobs and handlers that need
// the value directly.
//
// The recompute runs as a single UPDATE with a subselect, so two concurrent
// mutations on the same lead each leave the column consistent with some
// committed task set. Last write wins; both writers read committed rows.
func (s *Service) RecomputeNextFollowUp(ctx context.Context, userID, leadID uuid.UUID) (*time.Time, error) {
	if _, err := s.repo.GetLead(ctx, leadID, userID); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}
	return s.repo.RecomputeNextFollowUp(ctx, leadID)
}
