// Package workflow drives the write side of the workspace: every operation
// that mutates state goes through the Orchestrator, which appends canonical
// events, updates snapshots, and keeps the credit ledger balanced through
// compensating refunds.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/fieldkit/internal/policy"
	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/spin"
	"github.com/roach88/fieldkit/internal/store"
	"github.com/roach88/fieldkit/internal/views"
)

// Orchestrator coordinates store writes, event logging, credit accounting,
// and generation for one local workspace.
type Orchestrator struct {
	store  *store.Store
	gen    spin.Generator
	policy policy.Policy
	ids    schema.IDGenerator
	now    func() time.Time
	log    zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGenerator replaces the default stub generator.
func WithGenerator(g spin.Generator) Option {
	return func(o *Orchestrator) { o.gen = g }
}

// WithIDGenerator replaces the default UUID-based id generator. Tests use
// schema.FixedGenerator for deterministic traces.
func WithIDGenerator(g schema.IDGenerator) Option {
	return func(o *Orchestrator) { o.ids = g }
}

// WithClock replaces the wall clock. Tests pin it for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New builds an Orchestrator over the given store with the given policy.
func New(s *store.Store, p policy.Policy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  s,
		gen:    spin.StubGenerator{},
		policy: p,
		ids:    schema.UUIDGenerator{},
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Workspace is the resolved scope every operation runs in: the single
// network and its active episode.
type Workspace struct {
	NetworkID string
	EpisodeID string
}

// workspace resolves the initialized workspace, or reports that init is
// still needed.
func (o *Orchestrator) workspace(ctx context.Context) (Workspace, error) {
	networks, err := o.store.ListNetworks(ctx)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolve workspace: %w", err)
	}
	if len(networks) == 0 {
		return Workspace{}, newValidationError(ErrCodeNotInitialized,
			"workspace not initialized, run init first", "")
	}
	n := networks[0]
	episodeID := n.ActiveEpisodeID
	if episodeID == "" {
		episodeID = n.RootEpisodeID
	}
	return Workspace{NetworkID: n.ID, EpisodeID: episodeID}, nil
}

// eventSpec fixes the QDPI classification of one canonical event name.
type eventSpec struct {
	kind      schema.QDPIKind
	direction schema.Direction
}

// eventSpecs maps every canonical event to its classification. The actor is
// implied by direction: user→field events are the user's, everything else is
// the system's.
var eventSpecs = map[schema.EventName]eventSpec{
	schema.EventAppFirstRunStarted:       {schema.KindQ, schema.DirSystemToField},
	schema.EventEpisodeCreated:           {schema.KindQ, schema.DirSystemToField},
	schema.EventFieldOpened:              {schema.KindQ, schema.DirUserToField},
	schema.EventTutorialStarted:          {schema.KindQ, schema.DirUserToField},
	schema.EventItemCreated:              {schema.KindM, schema.DirUserToField},
	schema.EventBondSuggestionsPresented: {schema.KindQ, schema.DirSystemToField},
	schema.EventBondDraftCreated:         {schema.KindD, schema.DirUserToField},
	schema.EventBondRunRequested:         {schema.KindQ, schema.DirUserToField},
	schema.EventBondExecuted:             {schema.KindM, schema.DirSystemToField},
	schema.EventBondExecutionFailed:      {schema.KindM, schema.DirSystemToField},
	schema.EventHolologueRunRequested:    {schema.KindH, schema.DirUserToField},
	schema.EventHolologueValidationFail:  {schema.KindH, schema.DirUserToField},
	schema.EventHolologueCompleted:       {schema.KindH, schema.DirSystemToField},
	schema.EventHolologueFailed:          {schema.KindH, schema.DirSystemToField},
	schema.EventBondProposalsPresented:   {schema.KindQ, schema.DirSystemToField},
	schema.EventLedgerOpened:             {schema.KindQ, schema.DirUserToField},
	schema.EventStoreCommit:              {schema.KindQ, schema.DirSystemToField},
	schema.EventStoreCommitFailed:        {schema.KindQ, schema.DirSystemToField},
	schema.EventCreditsDelta:             {schema.KindQ, schema.DirSystemToField},
}

// append builds and persists one canonical event in the workspace scope.
func (o *Orchestrator) append(ctx context.Context, ws Workspace, name schema.EventName, refs schema.Refs) (*schema.Event, error) {
	spec, ok := eventSpecs[name]
	if !ok {
		return nil, fmt.Errorf("append: no classification for event %q", name)
	}
	actor := schema.SystemActor
	if spec.direction == schema.DirUserToField {
		actor = schema.UserActor
	}
	if refs == nil {
		refs = schema.Refs{}
	}

	e := &schema.Event{
		SchemaVersion: schema.CurrentSchemaVersion,
		ID:            o.ids.NewID(schema.PrefixEvent),
		NetworkID:     ws.NetworkID,
		EpisodeID:     ws.EpisodeID,
		Timestamp:     o.now().UTC(),
		Kind:          spec.kind,
		Direction:     spec.direction,
		Actor:         actor,
		Name:          name,
		Refs:          refs,
	}
	if err := o.store.AppendEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// logCredits appends a credits.delta event carrying the movement and the
// resulting balance. extraRefs attaches the causing entity ids.
func (o *Orchestrator) logCredits(ctx context.Context, ws Workspace, delta int64, reason string, extraRefs schema.Refs) (*schema.Event, error) {
	balance, err := views.CreditBalance(ctx, o.store, ws.EpisodeID)
	if err != nil {
		return nil, err
	}

	refs := schema.Refs{
		"delta":         delta,
		"balance_after": balance + delta,
		"reason":        reason,
	}
	for k, v := range extraRefs {
		refs[k] = v
	}

	e, err := o.append(ctx, ws, schema.EventCreditsDelta, refs)
	if err != nil {
		return nil, err
	}
	o.log.Debug().
		Int64("delta", delta).
		Int64("balance", balance+delta).
		Str("reason", reason).
		Msg("credits moved")
	return e, nil
}

// commit appends the store.commit checkpoint that closes every mutating
// operation.
func (o *Orchestrator) commit(ctx context.Context, ws Workspace, refs schema.Refs) error {
	_, err := o.append(ctx, ws, schema.EventStoreCommit, refs)
	return err
}

// CreditBalance returns the active episode's derived credit balance.
func (o *Orchestrator) CreditBalance(ctx context.Context) (int64, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return 0, err
	}
	return views.CreditBalance(ctx, o.store, ws.EpisodeID)
}

// CuratedProjection returns the resolved curated view of the active episode.
func (o *Orchestrator) CuratedProjection(ctx context.Context) (views.Projection, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return views.Projection{}, err
	}
	return views.CuratedProjection(ctx, o.store, ws.NetworkID, ws.EpisodeID)
}
