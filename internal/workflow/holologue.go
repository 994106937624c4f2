package workflow

import (
	"context"

	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/spin"
	"github.com/roach88/fieldkit/internal/store"
)

// minHolologueSelection is the smallest selection a synthesis accepts.
const minHolologueSelection = 2

// RunHolologue synthesizes one artifact item from a selection of items.
//
// Validation runs before any spend: a too-small selection or a missing item
// records holologue.validation_failed and returns a validation error with
// nothing to refund. After the spend, exactly one terminal outcome follows:
// holologue.completed (whose persisted event id becomes the output item's
// provenance) plus the reward and a proposals batch, or holologue.failed
// plus a full refund. Either way the run closes with a store.commit.
func (o *Orchestrator) RunHolologue(ctx context.Context, selectedItemIDs []string, artifactKind string, opts RunOptions) (*RunResult, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return nil, err
	}

	if len(selectedItemIDs) < minHolologueSelection {
		if _, err := o.append(ctx, ws, schema.EventHolologueValidationFail, schema.Refs{
			"reason": "selection_too_small",
		}); err != nil {
			return nil, err
		}
		return nil, newValidationError(ErrCodeSelectionTooSmall,
			"holologue requires at least 2 items", "")
	}

	items := make([]schema.Item, 0, len(selectedItemIDs))
	for _, id := range selectedItemIDs {
		item, err := o.store.GetItem(ctx, id)
		if store.IsNotFound(err) {
			if _, err := o.append(ctx, ws, schema.EventHolologueValidationFail, schema.Refs{
				"reason": "item_not_found",
			}); err != nil {
				return nil, err
			}
			return nil, newValidationError(ErrCodeItemNotFound, "selected item not found", id)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	runEvent, err := o.append(ctx, ws, schema.EventHolologueRunRequested, schema.Refs{
		"selected_item_ids": selectedItemIDs,
		"artifact_kind":     artifactKind,
	})
	if err != nil {
		return nil, err
	}

	cost := o.policy.Costs.HolologueRun
	if _, err := o.logCredits(ctx, ws, -cost, "holologue_run_spend",
		schema.Refs{"event_id": runEvent.ID}); err != nil {
		return nil, err
	}

	var output spin.Output
	var genErr error
	if opts.ForceFail {
		genErr = &forcedFailure{reason: opts.failReason()}
	} else {
		output, genErr = o.gen.GenerateSynthesis(ctx, spin.SynthesisRequest{
			Kind:  artifactKind,
			Items: items,
		})
	}
	if genErr != nil {
		return o.failHolologue(ctx, ws, runEvent.ID, cost, genErr.Error())
	}

	// The completion event is appended before the output item so the item's
	// provenance can reference the persisted event id.
	outputItemID := o.ids.NewID(schema.PrefixItem)
	completed, err := o.append(ctx, ws, schema.EventHolologueCompleted, schema.Refs{
		"selected_item_ids": selectedItemIDs,
		"output_item_id":    outputItemID,
		"artifact_kind":     artifactKind,
	})
	if err != nil {
		return nil, err
	}

	now := o.now().UTC()
	item := &schema.Item{
		SchemaVersion: schema.CurrentSchemaVersion,
		ID:            outputItemID,
		NetworkID:     ws.NetworkID,
		EpisodeID:     ws.EpisodeID,
		Type:          schema.KindH,
		Title:         output.Title,
		Body:          output.Body,
		Provenance:    schema.FromHolologue(completed.ID, selectedItemIDs, artifactKind),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.store.SaveItem(ctx, item); err != nil {
		return nil, err
	}

	if _, err := o.logCredits(ctx, ws, o.policy.Rewards.HolologueCompleted, "holologue_completed_reward",
		schema.Refs{"output_item_id": item.ID}); err != nil {
		return nil, err
	}

	proposals := spin.ProposalsForHolologue(output.Title, output.Body)
	if _, err := o.append(ctx, ws, schema.EventBondProposalsPresented, schema.Refs{
		"source":      schema.Refs{"kind": "holologue", "output_item_id": item.ID},
		"suggestions": proposals,
	}); err != nil {
		return nil, err
	}

	if err := o.commit(ctx, ws, nil); err != nil {
		return nil, err
	}

	balance, err := o.CreditBalance(ctx)
	if err != nil {
		return nil, err
	}

	o.log.Info().
		Str("output", item.ID).
		Str("kind", artifactKind).
		Int("selection", len(selectedItemIDs)).
		Msg("holologue completed")

	return &RunResult{Succeeded: true, OutputItem: item, Balance: balance}, nil
}

// failHolologue runs the holologue compensation: terminal failure event,
// full refund of the spend, checkpoint.
func (o *Orchestrator) failHolologue(ctx context.Context, ws Workspace, runEventID string, spent int64, reason string) (*RunResult, error) {
	if _, err := o.append(ctx, ws, schema.EventHolologueFailed, schema.Refs{
		"reason": reason,
	}); err != nil {
		return nil, err
	}
	if _, err := o.logCredits(ctx, ws, spent, "holologue_run_refund",
		schema.Refs{"event_id": runEventID}); err != nil {
		return nil, err
	}
	if err := o.commit(ctx, ws, nil); err != nil {
		return nil, err
	}

	balance, err := o.CreditBalance(ctx)
	if err != nil {
		return nil, err
	}

	o.log.Warn().
		Str("reason", reason).
		Msg("holologue failed, spend refunded")

	return &RunResult{FailureReason: reason, Balance: balance}, nil
}
