package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fieldkit/internal/schema"
)

// Entity saves append a full serialized copy; reads resolve each id to the
// copy with the highest rev. "Latest rev wins" is the whole update model:
// there is no UPDATE statement anywhere in this package.

// SaveNetwork appends a snapshot of the network.
func (s *Store) SaveNetwork(ctx context.Context, n *schema.Network) error {
	record, err := marshalCanonical(n)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO networks (id, record) VALUES (?, ?)",
		n.ID, string(record),
	)
	if err != nil {
		return fmt.Errorf("save network %s: %w", n.ID, err)
	}
	return nil
}

// GetNetwork returns the latest snapshot of the network.
func (s *Store) GetNetwork(ctx context.Context, id string) (*schema.Network, error) {
	var n schema.Network
	if err := s.getLatest(ctx, "networks", "network", id, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNetworks returns the latest snapshot of every network, oldest first.
func (s *Store) ListNetworks(ctx context.Context) ([]schema.Network, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM networks n
		 WHERE rev = (SELECT MAX(rev) FROM networks WHERE id = n.id)
		 ORDER BY rev ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list networks: %w", err)
	}
	defer rows.Close()

	var out []schema.Network
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		var n schema.Network
		if err := unmarshalRecord([]byte(record), &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SaveEpisode appends a snapshot of the episode.
func (s *Store) SaveEpisode(ctx context.Context, e *schema.Episode) error {
	record, err := marshalCanonical(e)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO episodes (id, network_id, status, record) VALUES (?, ?, ?, ?)",
		e.ID, e.NetworkID, string(e.Status), string(record),
	)
	if err != nil {
		return fmt.Errorf("save episode %s: %w", e.ID, err)
	}
	return nil
}

// GetEpisode returns the latest snapshot of the episode.
func (s *Store) GetEpisode(ctx context.Context, id string) (*schema.Episode, error) {
	var e schema.Episode
	if err := s.getLatest(ctx, "episodes", "episode", id, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEpisodes returns the latest snapshot of every episode in the network,
// oldest first.
func (s *Store) ListEpisodes(ctx context.Context, networkID string) ([]schema.Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM episodes e
		 WHERE network_id = ?
		   AND rev = (SELECT MAX(rev) FROM episodes WHERE id = e.id)
		 ORDER BY rev ASC`,
		networkID,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []schema.Episode
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		var e schema.Episode
		if err := unmarshalRecord([]byte(record), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveItem appends a snapshot of the item.
func (s *Store) SaveItem(ctx context.Context, it *schema.Item) error {
	record, err := marshalCanonical(it)
	if err != nil {
		return err
	}
	archived := 0
	if it.Archived() {
		archived = 1
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO items (id, network_id, episode_id, type, archived, record) VALUES (?, ?, ?, ?, ?, ?)",
		it.ID, it.NetworkID, it.EpisodeID, string(it.Type), archived, string(record),
	)
	if err != nil {
		return fmt.Errorf("save item %s: %w", it.ID, err)
	}
	return nil
}

// GetItem returns the latest snapshot of the item.
func (s *Store) GetItem(ctx context.Context, id string) (*schema.Item, error) {
	var it schema.Item
	if err := s.getLatest(ctx, "items", "item", id, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// ItemFilter narrows ListItems. The zero value lists every live item.
type ItemFilter struct {
	EpisodeID       string
	IncludeArchived bool
}

// ListItems returns the latest snapshot of each matching item, oldest first.
// Archived items are excluded unless the filter asks for them.
func (s *Store) ListItems(ctx context.Context, f ItemFilter) ([]schema.Item, error) {
	query := `SELECT record FROM items i
	 WHERE rev = (SELECT MAX(rev) FROM items WHERE id = i.id)`
	var args []any
	if f.EpisodeID != "" {
		query += " AND episode_id = ?"
		args = append(args, f.EpisodeID)
	}
	if !f.IncludeArchived {
		query += " AND archived = 0"
	}
	query += " ORDER BY rev ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []schema.Item
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		var it schema.Item
		if err := unmarshalRecord([]byte(record), &it); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// SaveBond appends a snapshot of the bond.
func (s *Store) SaveBond(ctx context.Context, b *schema.Bond) error {
	record, err := marshalCanonical(b)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO bonds (id, network_id, episode_id, status, record) VALUES (?, ?, ?, ?, ?)",
		b.ID, b.NetworkID, b.EpisodeID, string(b.Status), string(record),
	)
	if err != nil {
		return fmt.Errorf("save bond %s: %w", b.ID, err)
	}
	return nil
}

// GetBond returns the latest snapshot of the bond.
func (s *Store) GetBond(ctx context.Context, id string) (*schema.Bond, error) {
	var b schema.Bond
	if err := s.getLatest(ctx, "bonds", "bond", id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// BondFilter narrows ListBonds. The zero value lists every bond.
type BondFilter struct {
	EpisodeID string
	Status    schema.BondStatus
}

// ListBonds returns the latest snapshot of each matching bond, oldest first.
func (s *Store) ListBonds(ctx context.Context, f BondFilter) ([]schema.Bond, error) {
	query := `SELECT record FROM bonds b
	 WHERE rev = (SELECT MAX(rev) FROM bonds WHERE id = b.id)`
	var args []any
	if f.EpisodeID != "" {
		query += " AND episode_id = ?"
		args = append(args, f.EpisodeID)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	query += " ORDER BY rev ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bonds: %w", err)
	}
	defer rows.Close()

	var out []schema.Bond
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		var b schema.Bond
		if err := unmarshalRecord([]byte(record), &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// getLatest resolves id to its highest-rev record in table and decodes it.
// table is one of the fixed entity table names, never user input.
func (s *Store) getLatest(ctx context.Context, table, kind, id string, out any) error {
	var record string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT record FROM %s WHERE id = ? ORDER BY rev DESC LIMIT 1", table),
		id,
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	if err != nil {
		return fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return unmarshalRecord([]byte(record), out)
}
