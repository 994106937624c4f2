// Package store persists the Field-Kit workspace in a single SQLite file.
//
// Two write disciplines coexist:
//
//   - the events table is a true append-only log, totally ordered per episode
//     by seq, with a uniqueness guard on (episode_id, seq);
//   - entity tables (networks, episodes, items, bonds) are append-only
//     snapshot streams: every save appends a full serialized copy and reads
//     resolve each id to its highest-rev copy.
//
// Nothing is ever updated in place or deleted.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

// currentSchemaVersion is the store's migration level, tracked in SQLite's
// user_version pragma. Bump when adding a migration step.
const currentSchemaVersion = 1

// Store wraps the SQLite handle and the per-episode sequence allocator.
type Store struct {
	db  *sql.DB
	seq *seqAllocator
	log zerolog.Logger
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// Open opens (creating if needed) the workspace database at path and brings
// its schema up to date.
//
// The pool is pinned to a single connection: all physical appends serialize
// through it, which keeps rev assignment and last-write-wins resolution
// deterministic without table locks in application code.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		db:  db,
		seq: newSeqAllocator(db),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.applyPragmas(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Debug().Str("path", path).Msg("store opened")
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for read-only diagnostics and tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) applySchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// runMigrations walks the store from its recorded user_version up to
// currentSchemaVersion, one step at a time.
func (s *Store) runMigrations() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for version < currentSchemaVersion {
		next := version + 1
		var err error
		switch next {
		case 1:
			err = s.migrateToV1()
		default:
			err = fmt.Errorf("no migration step for version %d", next)
		}
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", next, err)
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", next)); err != nil {
			return fmt.Errorf("record user_version %d: %w", next, err)
		}
		s.log.Debug().Int("version", next).Msg("store migrated")
		version = next
	}
	return nil
}

// migrateToV1 is the baseline: schema.sql already creates everything, so the
// step only exists to stamp user_version on fresh databases.
func (s *Store) migrateToV1() error {
	return nil
}

// verifyPragma reads back a pragma value and compares it; used by tests.
func (s *Store) verifyPragma(name, want string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("read pragma %s: %w", name, err)
	}
	if value != want {
		return fmt.Errorf("pragma %s = %q, want %q", name, value, want)
	}
	return nil
}
