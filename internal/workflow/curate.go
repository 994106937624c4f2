package workflow

import (
	"context"

	"github.com/samber/lo"

	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/store"
)

// Curated lists are ordered and duplicate-free, mutated only here. Entries
// are never auto-pruned when the referenced entity later becomes invalid;
// the curated projection filters lazily instead.

// CurateItemAdd appends an item to the episode's curated list.
func (o *Orchestrator) CurateItemAdd(ctx context.Context, itemID string) error {
	ws, err := o.workspace(ctx)
	if err != nil {
		return err
	}

	item, err := o.store.GetItem(ctx, itemID)
	if store.IsNotFound(err) {
		return newValidationError(ErrCodeItemNotFound, "item not found", itemID)
	}
	if err != nil {
		return err
	}
	if item.NetworkID != ws.NetworkID || item.EpisodeID != ws.EpisodeID {
		return newValidationError(ErrCodeScopeMismatch,
			"item belongs to another network or episode", itemID)
	}

	episode, err := o.store.GetEpisode(ctx, ws.EpisodeID)
	if err != nil {
		return err
	}
	if lo.Contains(episode.CuratedItemIDs, itemID) {
		return newValidationError(ErrCodeAlreadyCurated, "item already curated", itemID)
	}

	episode.CuratedItemIDs = append(episode.CuratedItemIDs, itemID)
	return o.saveCuration(ctx, ws, episode, itemID)
}

// CurateItemRemove removes an item from the episode's curated list.
func (o *Orchestrator) CurateItemRemove(ctx context.Context, itemID string) error {
	ws, err := o.workspace(ctx)
	if err != nil {
		return err
	}

	episode, err := o.store.GetEpisode(ctx, ws.EpisodeID)
	if err != nil {
		return err
	}
	if !lo.Contains(episode.CuratedItemIDs, itemID) {
		return newValidationError(ErrCodeNotCurated, "item not in curated list", itemID)
	}

	episode.CuratedItemIDs = lo.Without(episode.CuratedItemIDs, itemID)
	return o.saveCuration(ctx, ws, episode, itemID)
}

// CurateBondAdd appends a bond to the episode's curated list. Draft bonds
// are allowed when explicitly curated; the projection warns about them.
func (o *Orchestrator) CurateBondAdd(ctx context.Context, bondID string) error {
	ws, err := o.workspace(ctx)
	if err != nil {
		return err
	}

	bond, err := o.store.GetBond(ctx, bondID)
	if store.IsNotFound(err) {
		return newValidationError(ErrCodeItemNotFound, "bond not found", bondID)
	}
	if err != nil {
		return err
	}
	if bond.NetworkID != ws.NetworkID || bond.EpisodeID != ws.EpisodeID {
		return newValidationError(ErrCodeScopeMismatch,
			"bond belongs to another network or episode", bondID)
	}

	episode, err := o.store.GetEpisode(ctx, ws.EpisodeID)
	if err != nil {
		return err
	}
	if lo.Contains(episode.CuratedBondIDs, bondID) {
		return newValidationError(ErrCodeAlreadyCurated, "bond already curated", bondID)
	}

	episode.CuratedBondIDs = append(episode.CuratedBondIDs, bondID)
	return o.saveCuration(ctx, ws, episode, bondID)
}

// CurateBondRemove removes a bond from the episode's curated list.
func (o *Orchestrator) CurateBondRemove(ctx context.Context, bondID string) error {
	ws, err := o.workspace(ctx)
	if err != nil {
		return err
	}

	episode, err := o.store.GetEpisode(ctx, ws.EpisodeID)
	if err != nil {
		return err
	}
	if !lo.Contains(episode.CuratedBondIDs, bondID) {
		return newValidationError(ErrCodeNotCurated, "bond not in curated list", bondID)
	}

	episode.CuratedBondIDs = lo.Without(episode.CuratedBondIDs, bondID)
	return o.saveCuration(ctx, ws, episode, bondID)
}

// saveCuration persists the curation change and records the checkpoint with
// the modified id.
func (o *Orchestrator) saveCuration(ctx context.Context, ws Workspace, episode *schema.Episode, modifiedID string) error {
	episode.UpdatedAt = o.now().UTC()
	if err := o.store.SaveEpisode(ctx, episode); err != nil {
		return err
	}
	return o.commit(ctx, ws, schema.Refs{
		"episode_id":   ws.EpisodeID,
		"modified_ids": []string{modifiedID},
	})
}
