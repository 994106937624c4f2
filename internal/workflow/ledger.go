package workflow

import (
	"context"
	"time"

	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/store"
	"github.com/roach88/fieldkit/internal/views"
)

// Ledger is the full-workspace summary behind the ledger view.
type Ledger struct {
	NetworkCount int                `json:"network_count"`
	EpisodeCount int                `json:"episode_count"`
	Items        []schema.Item      `json:"items"`
	Bonds        []schema.Bond      `json:"bonds"`
	EventCount   int                `json:"event_count"`
	Events       []schema.Event     `json:"events"`
	Credits      []views.CreditLine `json:"credits"`
	Balance      int64              `json:"balance"`
}

// OpenLedger records the ledger being opened and returns the summary of
// everything in the active episode.
func (o *Orchestrator) OpenLedger(ctx context.Context) (*Ledger, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := o.append(ctx, ws, schema.EventLedgerOpened, nil); err != nil {
		return nil, err
	}

	networks, err := o.store.ListNetworks(ctx)
	if err != nil {
		return nil, err
	}
	episodes, err := o.store.ListEpisodes(ctx, ws.NetworkID)
	if err != nil {
		return nil, err
	}
	items, err := o.store.ListItems(ctx, store.ItemFilter{EpisodeID: ws.EpisodeID, IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	bonds, err := o.store.ListBonds(ctx, store.BondFilter{EpisodeID: ws.EpisodeID})
	if err != nil {
		return nil, err
	}
	events, err := o.store.LoadEvents(ctx, ws.EpisodeID)
	if err != nil {
		return nil, err
	}
	credits, err := views.CreditHistory(ctx, o.store, ws.EpisodeID)
	if err != nil {
		return nil, err
	}
	balance, err := views.CreditBalance(ctx, o.store, ws.EpisodeID)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		NetworkCount: len(networks),
		EpisodeCount: len(episodes),
		Items:        items,
		Bonds:        bonds,
		EventCount:   len(events),
		Events:       events,
		Credits:      credits,
		Balance:      balance,
	}, nil
}

// EpisodeExport is the full-episode export document.
type EpisodeExport struct {
	ExportType string          `json:"export_type"`
	ExportedAt time.Time       `json:"exported_at"`
	Network    *schema.Network `json:"network"`
	Episode    *schema.Episode `json:"episode"`
	Items      []schema.Item   `json:"items"`
	Bonds      []schema.Bond   `json:"bonds"`
	Events     []schema.Event  `json:"qdpi_events"`
	Derived    ExportDerived   `json:"derived"`
}

// ExportDerived carries the counts and balance computed at export time.
type ExportDerived struct {
	CreditsBalance int64 `json:"credits_balance"`
	ItemCount      int   `json:"item_count"`
	BondCount      int   `json:"bond_count"`
	EventCount     int   `json:"event_count"`
}

// ExportEpisode gathers the active episode's full state into one document.
func (o *Orchestrator) ExportEpisode(ctx context.Context) (*EpisodeExport, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return nil, err
	}

	network, err := o.store.GetNetwork(ctx, ws.NetworkID)
	if err != nil {
		return nil, err
	}
	episode, err := o.store.GetEpisode(ctx, ws.EpisodeID)
	if err != nil {
		return nil, err
	}
	items, err := o.store.ListItems(ctx, store.ItemFilter{EpisodeID: ws.EpisodeID, IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	bonds, err := o.store.ListBonds(ctx, store.BondFilter{EpisodeID: ws.EpisodeID})
	if err != nil {
		return nil, err
	}
	events, err := o.store.LoadEvents(ctx, ws.EpisodeID)
	if err != nil {
		return nil, err
	}
	balance, err := views.CreditBalance(ctx, o.store, ws.EpisodeID)
	if err != nil {
		return nil, err
	}

	return &EpisodeExport{
		ExportType: "episode",
		ExportedAt: o.now().UTC(),
		Network:    network,
		Episode:    episode,
		Items:      items,
		Bonds:      bonds,
		Events:     events,
		Derived: ExportDerived{
			CreditsBalance: balance,
			ItemCount:      len(items),
			BondCount:      len(bonds),
			EventCount:     len(events),
		},
	}, nil
}

// CuratedExport is the curated-projection export document: the raw curated
// lists alongside their resolution.
type CuratedExport struct {
	ExportType     string           `json:"export_type"`
	ExportedAt     time.Time        `json:"exported_at"`
	NetworkID      string           `json:"network_id"`
	EpisodeID      string           `json:"episode_id"`
	CuratedItemIDs []string         `json:"curated_item_ids"`
	CuratedBondIDs []string         `json:"curated_bond_ids"`
	Projection     views.Projection `json:"projection"`
}

// ExportCurated gathers the curated projection and the raw curated lists it
// was resolved from.
func (o *Orchestrator) ExportCurated(ctx context.Context) (*CuratedExport, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return nil, err
	}

	episode, err := o.store.GetEpisode(ctx, ws.EpisodeID)
	if err != nil {
		return nil, err
	}
	projection, err := views.CuratedProjection(ctx, o.store, ws.NetworkID, ws.EpisodeID)
	if err != nil {
		return nil, err
	}

	return &CuratedExport{
		ExportType:     "curated_projection",
		ExportedAt:     o.now().UTC(),
		NetworkID:      ws.NetworkID,
		EpisodeID:      ws.EpisodeID,
		CuratedItemIDs: episode.CuratedItemIDs,
		CuratedBondIDs: episode.CuratedBondIDs,
		Projection:     projection,
	}, nil
}
