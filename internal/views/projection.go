package views

import (
	"context"
	"fmt"

	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/store"
)

// Projection is the resolved curated view of an episode.
//
// Items and Bonds appear in curation order. Entries that failed to resolve
// are reported as warnings; the stored curated lists are never mutated by
// building a projection.
type Projection struct {
	EpisodeID string        `json:"episode_id"`
	Items     []schema.Item `json:"items"`
	Bonds     []schema.Bond `json:"bonds"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// CuratedProjection resolves the episode's curated id lists against the
// latest snapshots.
//
// An item is dropped (with a warning) when it no longer exists, belongs to a
// different scope, or is archived. A draft bond is still included, with a
// warning, because curation of a draft is legal but usually a mistake.
func CuratedProjection(ctx context.Context, s *store.Store, networkID, episodeID string) (Projection, error) {
	episode, err := s.GetEpisode(ctx, episodeID)
	if err != nil {
		return Projection{}, fmt.Errorf("curated projection: %w", err)
	}

	p := Projection{EpisodeID: episodeID}

	for _, id := range episode.CuratedItemIDs {
		item, err := s.GetItem(ctx, id)
		if store.IsNotFound(err) {
			p.Warnings = append(p.Warnings, fmt.Sprintf("curated item %s not found", id))
			continue
		}
		if err != nil {
			return Projection{}, fmt.Errorf("curated projection: %w", err)
		}
		if item.NetworkID != networkID || item.EpisodeID != episodeID {
			p.Warnings = append(p.Warnings, fmt.Sprintf("curated item %s belongs to another scope", id))
			continue
		}
		if item.Archived() {
			p.Warnings = append(p.Warnings, fmt.Sprintf("curated item %s is archived", id))
			continue
		}
		p.Items = append(p.Items, *item)
	}

	for _, id := range episode.CuratedBondIDs {
		bond, err := s.GetBond(ctx, id)
		if store.IsNotFound(err) {
			p.Warnings = append(p.Warnings, fmt.Sprintf("curated bond %s not found", id))
			continue
		}
		if err != nil {
			return Projection{}, fmt.Errorf("curated projection: %w", err)
		}
		if bond.NetworkID != networkID || bond.EpisodeID != episodeID {
			p.Warnings = append(p.Warnings, fmt.Sprintf("curated bond %s belongs to another scope", id))
			continue
		}
		if bond.Status == schema.BondDraft {
			p.Warnings = append(p.Warnings, fmt.Sprintf("curated bond %s has not been executed", id))
		}
		p.Bonds = append(p.Bonds, *bond)
	}

	return p, nil
}
