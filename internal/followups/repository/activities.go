package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ActivityDescriptionMaxLen is the canonical maximum character length for
// activity descriptions. Callers should use TruncateDescription when
// populating AddActivityParams.Description.
const ActivityDescriptionMaxLen = 400

// TruncateDescription trims text to at most maxLen bytes, appending "..."
// on overflow. The cut lands on a rune boundary so the result stays valid
// UTF-8. Returns nil for blank input.
func TruncateDescription(text string, maxLen int) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
			cut--
		}
		trimmed = trimmed[:cut] + "..."
	}
	return &trimmed
}

// Activity is an immutable audit record on a lead. The lifecycle core only
// appends; the single read path is the recovery scorer's latest-activity
// lookup.
type Activity struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	LeadID      uuid.UUID
	TaskID      *uuid.UUID
	Type        string
	Title       string
	Description *string
	Metadata    map[string]any
	CreatedAt   time.Time
}

type AddActivityParams struct {
	UserID      uuid.UUID
	LeadID      uuid.UUID
	TaskID      *uuid.UUID
	Type        string
	Title       string
	Description *string
	Metadata    map[string]any
}

func (r *Repository) AddActivity(ctx context.Context, params AddActivityParams) (Activity, error) {
	metadataJSON, err := json.Marshal(params.Metadata)
	if err != nil {
		return Activity{}, err
	}

	var activity Activity
	err = r.pool.QueryRow(ctx, `
		INSERT INTO activities (user_id, lead_id, task_id, type, title, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, lead_id, task_id, type, title, description, created_at
	`, params.UserID, params.LeadID, params.TaskID, params.Type, params.Title, params.Description, metadataJSON).Scan(
		&activity.ID,
		&activity.UserID,
		&activity.LeadID,
		&activity.TaskID,
		&activity.Type,
		&activity.Title,
		&activity.Description,
		&activity.CreatedAt,
	)
	if err != nil {
		return Activity{}, err
	}

	activity.Metadata = params.Metadata
	return activity, nil
}

type activityRowScanner interface {
	Scan(dest ...any) error
}

// scanActivity populates an Activity from a row. Column order must be:
// id, user_id, lead_id, task_id, type, title, description, metadata,
// created_at. Metadata is decoded from the stored JSONB so downstream
// readers see the outcome recorded at write time.
func scanActivity(s activityRowScanner) (Activity, error) {
	var a Activity
	var rawMetadata []byte
	if err := s.Scan(
		&a.ID,
		&a.UserID,
		&a.LeadID,
		&a.TaskID,
		&a.Type,
		&a.Title,
		&a.Description,
		&rawMetadata,
		&a.CreatedAt,
	); err != nil {
		return Activity{}, err
	}
	if len(rawMetadata) > 0 {
		_ = json.Unmarshal(rawMetadata, &a.Metadata)
	}
	return a, nil
}

// LatestActivityByLead returns each lead's most recent activity for the user.
func (r *Repository) LatestActivityByLead(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (lead_id)
			id, user_id, lead_id, task_id, type, title, description, metadata, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY lead_id, created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[uuid.UUID]Activity)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		latest[a.LeadID] = a
	}
	return latest, rows.Err()
}
