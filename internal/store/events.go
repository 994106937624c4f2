package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/fieldkit/internal/schema"
)

const eventColumns = "id, network_id, episode_id, ts, seq, qdpi, direction, actor, name, refs, schema_version"

// AppendEvent assigns the next sequence number in the event's episode and
// persists the event. On return e.Seq holds the assigned value.
//
// Appends within one episode serialize on a per-episode lock, so concurrent
// callers cannot race a sequence number; the UNIQUE(episode_id, seq) guard
// in the schema backstops the invariant at the storage layer.
func (s *Store) AppendEvent(ctx context.Context, e *schema.Event) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	lock := s.seq.episodeLock(e.EpisodeID)
	lock.Lock()
	defer lock.Unlock()

	seq, err := s.seq.reserve(ctx, e.EpisodeID)
	if err != nil {
		return err
	}
	e.Seq = seq

	actorJSON, err := marshalCanonical(e.Actor)
	if err != nil {
		return err
	}
	refs := e.Refs
	if refs == nil {
		refs = schema.Refs{}
	}
	refsJSON, err := marshalCanonical(refs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.NetworkID, e.EpisodeID, e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Seq, string(e.Kind), string(e.Direction), string(actorJSON),
		string(e.Name), string(refsJSON), e.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("append event %s: %w", e.Name, err)
	}

	s.seq.commit(e.EpisodeID, e.Seq)

	s.log.Debug().
		Str("event", string(e.Name)).
		Str("episode", e.EpisodeID).
		Int64("seq", e.Seq).
		Msg("event appended")
	return nil
}

// LoadEvents returns every event of one episode in sequence order.
func (s *Store) LoadEvents(ctx context.Context, episodeID string) ([]schema.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE episode_id = ? ORDER BY seq ASC",
		episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("load events for episode %s: %w", episodeID, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// LoadAllEvents returns the whole log ordered by episode then sequence.
func (s *Store) LoadAllEvents(ctx context.Context) ([]schema.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events ORDER BY episode_id ASC, seq ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetEvent returns one event by id.
func (s *Store) GetEvent(ctx context.Context, id string) (*schema.Event, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", id,
	)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

// LastSeq returns the highest assigned sequence number for the episode,
// or 0 when the episode has no events.
func (s *Store) LastSeq(ctx context.Context, episodeID string) (int64, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(seq) FROM events WHERE episode_id = ?", episodeID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("last seq for episode %s: %w", episodeID, err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64, nil
}

// CountEventsNamed returns how many events with the given name exist in the
// episode. Used by idempotent setup paths to detect a prior run.
func (s *Store) CountEventsNamed(ctx context.Context, episodeID string, name schema.EventName) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE episode_id = ? AND name = ?",
		episodeID, string(name),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s events: %w", name, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*schema.Event, error) {
	var (
		e         schema.Event
		ts        string
		kind      string
		direction string
		actorJSON string
		name      string
		refsJSON  string
	)
	err := row.Scan(&e.ID, &e.NetworkID, &e.EpisodeID, &ts, &e.Seq,
		&kind, &direction, &actorJSON, &name, &refsJSON, &e.SchemaVersion)
	if err != nil {
		return nil, err
	}

	e.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("parse event timestamp %q: %w", ts, err)
	}
	e.Kind = schema.QDPIKind(kind)
	e.Direction = schema.Direction(direction)
	e.Name = schema.EventName(name)
	if err := unmarshalRecord([]byte(actorJSON), &e.Actor); err != nil {
		return nil, err
	}
	e.Refs, err = unmarshalRefs([]byte(refsJSON))
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]schema.Event, error) {
	var events []schema.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
