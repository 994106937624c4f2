package workflow

import (
	"context"
	"fmt"

	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/spin"
	"github.com/roach88/fieldkit/internal/store"
)

// InitResult reports the workspace InitWorkspace resolved or created.
type InitResult struct {
	Workspace Workspace
	Balance   int64
	Created   bool
}

// InitWorkspace creates the Network, its Episode 0, and the seed credit
// grant. Calling it on an initialized workspace is a no-op that returns the
// existing context.
func (o *Orchestrator) InitWorkspace(ctx context.Context) (*InitResult, error) {
	if ws, err := o.workspace(ctx); err == nil {
		balance, err := o.CreditBalance(ctx)
		if err != nil {
			return nil, err
		}
		return &InitResult{Workspace: ws, Balance: balance}, nil
	} else if !IsNotInitialized(err) {
		return nil, err
	}

	now := o.now().UTC()
	networkID := o.ids.NewID(schema.PrefixNetwork)
	episodeID := o.ids.NewID(schema.PrefixEpisode)

	network := &schema.Network{
		SchemaVersion:   schema.CurrentSchemaVersion,
		ID:              networkID,
		Title:           "My Field",
		RootEpisodeID:   episodeID,
		ActiveEpisodeID: episodeID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := o.store.SaveNetwork(ctx, network); err != nil {
		return nil, err
	}

	episode := &schema.Episode{
		SchemaVersion: schema.CurrentSchemaVersion,
		ID:            episodeID,
		NetworkID:     networkID,
		Title:         "Session 0",
		Ordinal:       0,
		Status:        schema.EpisodeActive,
		StartedAt:     now,
		LastActiveAt:  now,
		UpdatedAt:     now,
	}
	if err := o.store.SaveEpisode(ctx, episode); err != nil {
		return nil, err
	}

	ws := Workspace{NetworkID: networkID, EpisodeID: episodeID}

	if _, err := o.append(ctx, ws, schema.EventAppFirstRunStarted, nil); err != nil {
		return nil, err
	}
	if _, err := o.append(ctx, ws, schema.EventEpisodeCreated, schema.Refs{
		"episode_id": episodeID,
		"title":      episode.Title,
		"ordinal":    episode.Ordinal,
	}); err != nil {
		return nil, err
	}
	if _, err := o.logCredits(ctx, ws, o.policy.SeedCredits, "seed", nil); err != nil {
		return nil, err
	}
	if err := o.commit(ctx, ws, nil); err != nil {
		return nil, err
	}

	o.log.Info().
		Str("network", networkID).
		Str("episode", episodeID).
		Int64("seed", o.policy.SeedCredits).
		Msg("workspace initialized")

	return &InitResult{Workspace: ws, Balance: o.policy.SeedCredits, Created: true}, nil
}

// OpenField records the user opening the field surface.
func (o *Orchestrator) OpenField(ctx context.Context) error {
	ws, err := o.workspace(ctx)
	if err != nil {
		return err
	}
	_, err = o.append(ctx, ws, schema.EventFieldOpened, nil)
	return err
}

// StartTutorial records the user starting the tutorial.
func (o *Orchestrator) StartTutorial(ctx context.Context) error {
	ws, err := o.workspace(ctx)
	if err != nil {
		return err
	}
	_, err = o.append(ctx, ws, schema.EventTutorialStarted, nil)
	return err
}

// CreateItem creates a user-authored item, grants the creation reward, and
// checkpoints.
func (o *Orchestrator) CreateItem(ctx context.Context, title, body string, itemType schema.QDPIKind) (*schema.Item, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return nil, err
	}
	if !itemType.Valid() {
		return nil, newValidationError(ErrCodeInvalidArgument,
			fmt.Sprintf("invalid item type %q", itemType), "")
	}

	now := o.now().UTC()
	item := &schema.Item{
		SchemaVersion: schema.CurrentSchemaVersion,
		ID:            o.ids.NewID(schema.PrefixItem),
		NetworkID:     ws.NetworkID,
		EpisodeID:     ws.EpisodeID,
		Type:          itemType,
		Title:         title,
		Body:          body,
		Provenance:    schema.UserProvenance("user"),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.store.SaveItem(ctx, item); err != nil {
		return nil, err
	}

	if _, err := o.append(ctx, ws, schema.EventItemCreated, schema.Refs{
		"item_id":   item.ID,
		"item_type": string(itemType),
		"title":     title,
	}); err != nil {
		return nil, err
	}
	if _, err := o.logCredits(ctx, ws, o.policy.Rewards.ItemCreated, "item_created",
		schema.Refs{"item_id": item.ID}); err != nil {
		return nil, err
	}
	if err := o.commit(ctx, ws, nil); err != nil {
		return nil, err
	}

	return item, nil
}

// ArchiveItem soft-archives an item. Archiving an already archived item is a
// no-op.
func (o *Orchestrator) ArchiveItem(ctx context.Context, itemID string) error {
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
	if item.Archived() {
		return nil
	}

	now := o.now().UTC()
	item.ArchivedAt = &now
	item.UpdatedAt = now
	if err := o.store.SaveItem(ctx, item); err != nil {
		return err
	}

	return o.commit(ctx, ws, schema.Refs{"item_id": itemID})
}

// PresentSuggestions renders exactly four prompt suggestions for an item and
// records their presentation. Suggestions are events-only: no Bond is
// created.
func (o *Orchestrator) PresentSuggestions(ctx context.Context, itemID string) ([]spin.Suggestion, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return nil, err
	}

	item, err := o.store.GetItem(ctx, itemID)
	if store.IsNotFound(err) {
		return nil, newValidationError(ErrCodeItemNotFound, "item not found", itemID)
	}
	if err != nil {
		return nil, err
	}

	suggestions := spin.SuggestionsForItem(item.Title, item.Body)
	if _, err := o.append(ctx, ws, schema.EventBondSuggestionsPresented, schema.Refs{
		"item_id":     itemID,
		"suggestions": suggestions,
	}); err != nil {
		return nil, err
	}
	return suggestions, nil
}
