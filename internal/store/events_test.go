package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/fieldkit/internal/schema"
)

func TestAppendEvent_AssignsSequentialSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		e := createTestEvent("ev_"+string(rune('0'+i)), "ep_1", schema.EventItemCreated)
		if err := s.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent() %d failed: %v", i, err)
		}
		if e.Seq != int64(i) {
			t.Errorf("event %d assigned seq %d, want %d", i, e.Seq, i)
		}
	}
}

func TestAppendEvent_IndependentEpisodeSequences(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := createTestEvent("ev_a1", "ep_a", schema.EventItemCreated)
	b := createTestEvent("ev_b1", "ep_b", schema.EventItemCreated)
	a2 := createTestEvent("ev_a2", "ep_a", schema.EventItemCreated)

	for _, e := range []*schema.Event{a, b, a2} {
		if err := s.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent(%s) failed: %v", e.ID, err)
		}
	}

	if a.Seq != 1 || a2.Seq != 2 {
		t.Errorf("episode a seqs = %d, %d; want 1, 2", a.Seq, a2.Seq)
	}
	if b.Seq != 1 {
		t.Errorf("episode b seq = %d, want 1", b.Seq)
	}
}

func TestAppendEvent_RejectsNonCanonicalName(t *testing.T) {
	s := createTestStore(t)

	e := createTestEvent("ev_bad", "ep_1", schema.EventName("made.up.name"))
	if err := s.AppendEvent(context.Background(), e); err == nil {
		t.Error("expected error for non-canonical event name, got nil")
	}
}

func TestAppendEvent_RejectsMissingScope(t *testing.T) {
	s := createTestStore(t)

	e := createTestEvent("ev_bad", "ep_1", schema.EventItemCreated)
	e.NetworkID = ""
	if err := s.AppendEvent(context.Background(), e); err == nil {
		t.Error("expected error for missing network id, got nil")
	}
}

func TestAppendEvent_ReopenResumesSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	for i := 1; i <= 3; i++ {
		e := createTestEvent("ev_"+string(rune('0'+i)), "ep_1", schema.EventItemCreated)
		if err := s1.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent() failed: %v", err)
		}
	}
	s1.Close()

	// A fresh store must pick up exactly where the log left off.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	e := createTestEvent("ev_4", "ep_1", schema.EventItemCreated)
	if err := s2.AppendEvent(ctx, e); err != nil {
		t.Fatalf("AppendEvent() after reopen failed: %v", err)
	}
	if e.Seq != 4 {
		t.Errorf("seq after reopen = %d, want 4", e.Seq)
	}
}

func TestLoadEvents_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	names := []schema.EventName{
		schema.EventEpisodeCreated,
		schema.EventItemCreated,
		schema.EventBondDraftCreated,
	}
	for i, name := range names {
		e := createTestEvent("ev_"+string(rune('0'+i)), "ep_1", name)
		if err := s.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent() failed: %v", err)
		}
	}
	// Events in another episode must not leak in.
	other := createTestEvent("ev_other", "ep_2", schema.EventItemCreated)
	if err := s.AppendEvent(ctx, other); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	events, err := s.LoadEvents(ctx, "ep_1")
	if err != nil {
		t.Fatalf("LoadEvents() failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, e := range events {
		if e.Seq != int64(i+1) {
			t.Errorf("event %d has seq %d, want %d", i, e.Seq, i+1)
		}
		if e.Name != names[i] {
			t.Errorf("event %d has name %q, want %q", i, e.Name, names[i])
		}
	}
}

func TestLoadEvents_EmptyEpisode(t *testing.T) {
	s := createTestStore(t)

	events, err := s.LoadEvents(context.Background(), "ep_none")
	if err != nil {
		t.Fatalf("LoadEvents() failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events for empty episode, want 0", len(events))
	}
}

func TestGetEvent_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := createTestEvent("ev_rt", "ep_1", schema.EventCreditsDelta)
	e.Refs = schema.Refs{
		"amount": int64(-10),
		"reason": "bond_run",
	}
	e.Kind = schema.KindD
	e.Direction = schema.DirSystemToField
	e.Actor = schema.SystemActor
	if err := s.AppendEvent(ctx, e); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	got, err := s.GetEvent(ctx, "ev_rt")
	if err != nil {
		t.Fatalf("GetEvent() failed: %v", err)
	}
	if got.Name != schema.EventCreditsDelta || got.Seq != 1 {
		t.Errorf("got name=%q seq=%d", got.Name, got.Seq)
	}
	if got.Kind != schema.KindD || got.Direction != schema.DirSystemToField {
		t.Errorf("kind/direction did not survive round trip: %q %q", got.Kind, got.Direction)
	}
	if got.Actor != schema.SystemActor {
		t.Errorf("actor did not survive round trip: %+v", got.Actor)
	}
	if !got.Timestamp.Equal(testTime) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, testTime)
	}

	// Numeric refs must come back with integer fidelity.
	amount, ok := got.Refs.Int64("amount")
	if !ok || amount != -10 {
		t.Errorf("refs amount = %d (ok=%v), want -10", amount, ok)
	}
	reason, ok := got.Refs.String("reason")
	if !ok || reason != "bond_run" {
		t.Errorf("refs reason = %q (ok=%v), want bond_run", reason, ok)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetEvent(context.Background(), "ev_missing")
	if err == nil {
		t.Fatal("expected error for missing event, got nil")
	}
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx, "ep_1")
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("LastSeq() on empty episode = %d, want 0", seq)
	}

	for i := 1; i <= 3; i++ {
		e := createTestEvent("ev_"+string(rune('0'+i)), "ep_1", schema.EventItemCreated)
		if err := s.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent() failed: %v", err)
		}
	}

	seq, err = s.LastSeq(ctx, "ep_1")
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 3 {
		t.Errorf("LastSeq() = %d, want 3", seq)
	}
}

func TestCountEventsNamed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, name := range []schema.EventName{
		schema.EventEpisodeCreated,
		schema.EventItemCreated,
		schema.EventItemCreated,
	} {
		e := createTestEvent("ev_"+string(rune('0'+i)), "ep_1", name)
		if err := s.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent() failed: %v", err)
		}
	}

	n, err := s.CountEventsNamed(ctx, "ep_1", schema.EventItemCreated)
	if err != nil {
		t.Fatalf("CountEventsNamed() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountEventsNamed(item.created) = %d, want 2", n)
	}

	n, err = s.CountEventsNamed(ctx, "ep_1", schema.EventBondExecuted)
	if err != nil {
		t.Fatalf("CountEventsNamed() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("CountEventsNamed(bond.executed) = %d, want 0", n)
	}
}
