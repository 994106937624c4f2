package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// CurrentSchemaVersion is stamped on every new record.
const CurrentSchemaVersion = 1

// QDPIKind classifies an event or item on the QDPI axis:
// Question, Monologue, Dialogue, Holologue.
type QDPIKind string

const (
	KindQ QDPIKind = "Q"
	KindM QDPIKind = "M"
	KindD QDPIKind = "D"
	KindH QDPIKind = "H"
)

// Valid reports whether k is one of the four QDPI kinds.
func (k QDPIKind) Valid() bool {
	switch k {
	case KindQ, KindM, KindD, KindH:
		return true
	}
	return false
}

// Direction records which way an event flowed relative to the field.
type Direction string

const (
	DirUserToField   Direction = "user→field"
	DirSystemToField Direction = "system→field"
	DirFieldToUser   Direction = "field→user"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case DirUserToField, DirSystemToField, DirFieldToUser:
		return true
	}
	return false
}

// ActorRef identifies who caused an event or created an entity.
type ActorRef struct {
	Kind    string `json:"kind"` // "user" | "system" | "agent"
	ID      string `json:"id,omitempty"`
	Display string `json:"display,omitempty"`
}

// Default actors for the local single-tenant workspace.
var (
	SystemActor = ActorRef{Kind: "system", ID: "system", Display: "Field-Kit"}
	UserActor   = ActorRef{Kind: "user", ID: "local-user", Display: "You"}
)

// Refs is the opaque key→value reference map attached to an event.
// Values survive a JSON round trip, so numeric entries may come back as
// json.Number; use the typed accessors rather than direct assertions.
type Refs map[string]any

// Int64 returns the integer value stored under key, if any.
func (r Refs) Int64(key string) (int64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// String returns the string value stored under key, if any.
func (r Refs) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Event is one immutable record in the append-only QDPI log.
//
// For a fixed EpisodeID, Seq values are exactly 1..N with no gaps, assigned
// in append order. Once appended an event is never modified or deleted.
type Event struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	NetworkID     string    `json:"network_id"`
	EpisodeID     string    `json:"episode_id"`
	Timestamp     time.Time `json:"ts"`
	Seq           int64     `json:"seq"`
	Kind          QDPIKind  `json:"qdpi"`
	Direction     Direction `json:"direction"`
	Actor         ActorRef  `json:"actor"`
	Name          EventName `json:"name"`
	Refs          Refs      `json:"refs"`
}

// Validate checks the fields that must be set before the event can be
// sequenced and persisted. Seq is assigned by the store and is not checked.
func (e *Event) Validate() error {
	if !IsCanonical(e.Name) {
		return fmt.Errorf("event name %q is not canonical", e.Name)
	}
	if e.NetworkID == "" || e.EpisodeID == "" {
		return fmt.Errorf("event %q missing network/episode scope", e.Name)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("event %q has invalid qdpi kind %q", e.Name, e.Kind)
	}
	if !e.Direction.Valid() {
		return fmt.Errorf("event %q has invalid direction %q", e.Name, e.Direction)
	}
	return nil
}

// Network is the top-level workspace container. Created once at
// initialization; later updates are whole-record rewrites.
type Network struct {
	SchemaVersion   int        `json:"schema_version"`
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	RootEpisodeID   string     `json:"root_episode_id"`
	ActiveEpisodeID string     `json:"active_episode_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
}

// EpisodeStatus is the lifecycle state of an Episode.
type EpisodeStatus string

const (
	EpisodeActive   EpisodeStatus = "active"
	EpisodeArchived EpisodeStatus = "archived"
)

// Episode is a bounded session within a network: the scope for event
// sequencing and for curation.
//
// CuratedItemIDs and CuratedBondIDs are ordered, duplicate-free lists
// mutated only by explicit curate/uncurate operations. They are never
// auto-pruned when a referenced entity becomes invalid; the curated
// projection filters lazily instead.
type Episode struct {
	SchemaVersion  int           `json:"schema_version"`
	ID             string        `json:"id"`
	NetworkID      string        `json:"network_id"`
	Title          string        `json:"title"`
	Ordinal        int           `json:"ordinal"`
	Status         EpisodeStatus `json:"status"`
	CuratedItemIDs []string      `json:"curated_item_ids,omitempty"`
	CuratedBondIDs []string      `json:"curated_bond_ids,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	LastActiveAt   time.Time     `json:"last_active_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ItemType is the QDPI classification of an Item.
type ItemType = QDPIKind

// Item is one content unit. Items are created exactly once — by direct user
// action, by a successful Bond run, or by a successful Holologue run — and
// after that ArchivedAt is the only mutation.
type Item struct {
	SchemaVersion int        `json:"schema_version"`
	ID            string     `json:"id"`
	NetworkID     string     `json:"network_id"`
	EpisodeID     string     `json:"episode_id"`
	Type          ItemType   `json:"type"`
	Title         string     `json:"title"`
	Body          string     `json:"body,omitempty"`
	Provenance    Provenance `json:"provenance"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
}

// Archived reports whether the item has been soft-deleted.
func (i *Item) Archived() bool { return i.ArchivedAt != nil }

// BondStatus is the lifecycle state of a Bond.
type BondStatus string

const (
	BondDraft    BondStatus = "draft"
	BondExecuted BondStatus = "executed"
)

// ErrorInfo captures the last failure of a retryable operation.
type ErrorInfo struct {
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	At      time.Time `json:"at"`
}

// Bond is a requested content transformation over one or more input items.
//
// A Bond is created in draft. Status transitions to executed exactly once,
// irreversibly, only on workflow success. A draft Bond may be retried any
// number of times after a failed run: LastError is overwritten on each
// failed attempt and ExecutionCount increments only on success.
type Bond struct {
	SchemaVersion  int        `json:"schema_version"`
	ID             string     `json:"id"`
	NetworkID      string     `json:"network_id"`
	EpisodeID      string     `json:"episode_id"`
	InputItemIDs   []string   `json:"input_item_ids"`
	PromptText     string     `json:"prompt_text"`
	IntentType     string     `json:"intent_type,omitempty"`
	RecipeID       string     `json:"recipe_id,omitempty"`
	Status         BondStatus `json:"status"`
	OutputItemID   string     `json:"output_item_id,omitempty"`
	ExecutionCount int        `json:"execution_count"`
	LastError      *ErrorInfo `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ExecutedAt     *time.Time `json:"executed_at,omitempty"`
}
