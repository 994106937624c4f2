package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// seqAllocator hands out per-episode sequence numbers.
//
// Each episode's seq values are exactly 1..N with no gaps. The allocator
// caches the next number per episode and reconciles with the log on first
// use, so reopening a store resumes exactly where the log left off.
type seqAllocator struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-episode append locks
	next  map[string]int64       // next seq per episode, 0 = not loaded
}

func newSeqAllocator(db *sql.DB) *seqAllocator {
	return &seqAllocator{
		db:    db,
		locks: make(map[string]*sync.Mutex),
		next:  make(map[string]int64),
	}
}

// episodeLock returns the mutex guarding appends for one episode.
func (a *seqAllocator) episodeLock(episodeID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[episodeID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[episodeID] = l
	}
	return l
}

// reserve returns the next seq for the episode. The caller must hold the
// episode lock and must call commit only after the event row is durable;
// an abandoned reservation is simply handed out again.
func (a *seqAllocator) reserve(ctx context.Context, episodeID string) (int64, error) {
	a.mu.Lock()
	cached := a.next[episodeID]
	a.mu.Unlock()

	if cached > 0 {
		return cached, nil
	}

	// Cold start for this episode: reconcile with the persisted log.
	var max sql.NullInt64
	err := a.db.QueryRowContext(ctx,
		"SELECT MAX(seq) FROM events WHERE episode_id = ?", episodeID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("load max seq for episode %s: %w", episodeID, err)
	}

	next := int64(1)
	if max.Valid {
		next = max.Int64 + 1
	}
	return next, nil
}

// commit records that seq was durably written for the episode.
func (a *seqAllocator) commit(episodeID string, seq int64) {
	a.mu.Lock()
	a.next[episodeID] = seq + 1
	a.mu.Unlock()
}
