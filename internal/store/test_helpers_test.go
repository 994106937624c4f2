package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/fieldkit/internal/schema"
)

// createTestStore opens a store backed by a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testTime is a fixed instant used across store tests.
var testTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// createTestEvent builds a minimal valid event. Seq is left for the store
// to assign.
func createTestEvent(id, episodeID string, name schema.EventName) *schema.Event {
	return &schema.Event{
		SchemaVersion: schema.CurrentSchemaVersion,
		ID:            id,
		NetworkID:     "nw_test",
		EpisodeID:     episodeID,
		Timestamp:     testTime,
		Kind:          schema.KindM,
		Direction:     schema.DirUserToField,
		Actor:         schema.UserActor,
		Name:          name,
		Refs:          schema.Refs{},
	}
}
