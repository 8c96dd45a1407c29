package repository

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

// activityRow mimics the column order of the activity SELECTs, with metadata
// arriving as raw JSONB bytes the way pgx delivers it.
func activityRow(metadata []byte) scanFunc {
	id, userID, leadID := uuid.New(), uuid.New(), uuid.New()
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return func(dest ...any) error {
		*dest[0].(*uuid.UUID) = id
		*dest[1].(*uuid.UUID) = userID
		*dest[2].(*uuid.UUID) = leadID
		*dest[3].(**uuid.UUID) = nil
		*dest[4].(*string) = "task_completed"
		*dest[5].(*string) = "Task completed: Intro call"
		*dest[6].(**string) = nil
		*dest[7].(*[]byte) = metadata
		*dest[8].(*time.Time) = created
		return nil
	}
}

func TestScanActivityDecodesMetadata(t *testing.T) {
	a, err := scanActivity(activityRow([]byte(`{"outcome":"no_answer","taskType":"call"}`)))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if a.Metadata == nil {
		t.Fatal("metadata must survive the read path")
	}
	if got := a.Metadata["outcome"]; got != "no_answer" {
		t.Fatalf("metadata outcome = %v, want no_answer", got)
	}
}

func TestScanActivityEmptyMetadata(t *testing.T) {
	a, err := scanActivity(activityRow(nil))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if a.Metadata != nil {
		t.Fatalf("expected nil metadata, got %v", a.Metadata)
	}
}

func TestTruncateDescription(t *testing.T) {
	if got := TruncateDescription("  ", 400); got != nil {
		t.Fatalf("blank input must yield nil, got %q", *got)
	}

	short := TruncateDescription("quick note", 400)
	if short == nil || *short != "quick note" {
		t.Fatalf("short input must pass through, got %v", short)
	}

	long := TruncateDescription(strings.Repeat("a", 500), 400)
	if long == nil || *long != strings.Repeat("a", 400)+"..." {
		t.Fatal("overflow must cut at the limit and append the ellipsis")
	}
}

func TestTruncateDescriptionRuneBoundary(t *testing.T) {
	// The two-byte rune straddles the byte limit; the cut must back off to
	// the rune start so the stored text stays valid UTF-8.
	input := strings.Repeat("a", 399) + "é"
	got := TruncateDescription(input, 400)
	if got == nil {
		t.Fatal("expected a truncated value")
	}
	if !utf8.ValidString(*got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", *got)
	}
	if *got != strings.Repeat("a", 399)+"..." {
		t.Fatalf("cut landed mid-rune: %q", *got)
	}
}
