package schema

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ID prefixes make record types recognizable in logs and exports.
const (
	PrefixNetwork = "nw_"
	PrefixEpisode = "ep_"
	PrefixItem    = "it_"
	PrefixBond    = "bd_"
	PrefixEvent   = "ev_"
)

// IDGenerator produces prefixed record identifiers.
//
// The production generator emits time-sortable UUIDv7-based ids; tests use
// FixedGenerator for deterministic traces.
type IDGenerator interface {
	// NewID returns a fresh identifier carrying the given prefix.
	NewID(prefix string) string
}

// UUIDGenerator generates prefixed, time-sortable ids from UUIDv7.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids sort by
// creation time, which keeps exports and debugging output readable.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDGenerator struct{}

// NewID returns prefix + the hex form of a fresh UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDGenerator) NewID(prefix string) string {
	raw := uuid.Must(uuid.NewV7()).String()
	return prefix + strings.ReplaceAll(raw, "-", "")
}

// FixedGenerator returns predetermined ids for testing.
//
// This enables deterministic test execution and golden trace comparison.
// Tests provide a known sequence of ids and verify exact output.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
// The prefix argument to NewID is prepended to each, so fixtures can stay
// short ("1", "2", ...) while stored ids remain recognizable.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// NewID returns the next predetermined id.
// Panics if all ids have been consumed; this fail-fast catches test
// misconfiguration (the test created more records than expected).
func (g *FixedGenerator) NewID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return prefix + id
}
