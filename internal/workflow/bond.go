package workflow

import (
	"context"

	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/spin"
	"github.com/roach88/fieldkit/internal/store"
)

// RunOptions tune a Bond or Holologue run.
type RunOptions struct {
	// ForceFail makes the run fail after the spend, exercising the refund
	// path without involving the generator.
	ForceFail bool

	// FailReason overrides the failure reason recorded on a forced failure.
	FailReason string
}

func (opts RunOptions) failReason() string {
	if opts.FailReason == "" {
		return "forced_failure"
	}
	return opts.FailReason
}

// RunResult is the outcome of a Bond or Holologue run. Exactly one of the
// two shapes holds: Succeeded with an OutputItem, or failed with a
// FailureReason after the spend was refunded.
type RunResult struct {
	Succeeded     bool
	OutputItem    *schema.Item
	FailureReason string
	Balance       int64
}

// CreateBondDraft creates a draft Bond over existing input items.
//
// recipeID is optional; when the draft originates from a presented
// suggestion it is recorded as the draft's origin.
func (o *Orchestrator) CreateBondDraft(ctx context.Context, inputItemIDs []string, promptText, intentType, recipeID string) (*schema.Bond, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return nil, err
	}
	if len(inputItemIDs) == 0 {
		return nil, newValidationError(ErrCodeInvalidArgument, "bond needs at least one input item", "")
	}

	for _, id := range inputItemIDs {
		if _, err := o.store.GetItem(ctx, id); err != nil {
			if store.IsNotFound(err) {
				return nil, newValidationError(ErrCodeItemNotFound, "input item not found", id)
			}
			return nil, err
		}
	}

	now := o.now().UTC()
	bond := &schema.Bond{
		SchemaVersion: schema.CurrentSchemaVersion,
		ID:            o.ids.NewID(schema.PrefixBond),
		NetworkID:     ws.NetworkID,
		EpisodeID:     ws.EpisodeID,
		InputItemIDs:  inputItemIDs,
		PromptText:    promptText,
		IntentType:    intentType,
		RecipeID:      recipeID,
		Status:        schema.BondDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.store.SaveBond(ctx, bond); err != nil {
		return nil, err
	}

	refs := schema.Refs{
		"bond_id":        bond.ID,
		"input_item_ids": inputItemIDs,
		"prompt_text":    promptText,
	}
	if recipeID != "" {
		refs["origin"] = recipeID
	}
	if _, err := o.append(ctx, ws, schema.EventBondDraftCreated, refs); err != nil {
		return nil, err
	}
	if err := o.commit(ctx, ws, nil); err != nil {
		return nil, err
	}

	return bond, nil
}

// RunBond executes a draft Bond.
//
// The run is a compensating transaction: the spend is debited up front, and
// exactly one terminal outcome follows. On success the output item exists,
// the bond is executed, and the reward is credited; on failure the bond
// stays draft with last_error set and the spend is refunded in full. Either
// way the run closes with a store.commit checkpoint.
//
// An executed bond is rejected before any event is appended.
func (o *Orchestrator) RunBond(ctx context.Context, bondID string, outputType schema.QDPIKind, opts RunOptions) (*RunResult, error) {
	ws, err := o.workspace(ctx)
	if err != nil {
		return nil, err
	}
	if !outputType.Valid() {
		return nil, newValidationError(ErrCodeInvalidArgument,
			"invalid output type", string(outputType))
	}

	bond, err := o.store.GetBond(ctx, bondID)
	if store.IsNotFound(err) {
		return nil, newValidationError(ErrCodeItemNotFound, "bond not found", bondID)
	}
	if err != nil {
		return nil, err
	}
	if bond.Status == schema.BondExecuted {
		return nil, newValidationError(ErrCodeAlreadyExecuted,
			"bond already executed, runs are not repeatable", bondID)
	}

	if _, err := o.append(ctx, ws, schema.EventBondRunRequested, schema.Refs{
		"bond_id": bondID,
	}); err != nil {
		return nil, err
	}

	cost := o.policy.Costs.BondRun
	if _, err := o.logCredits(ctx, ws, -cost, "bond_run_spend",
		schema.Refs{"bond_id": bondID}); err != nil {
		return nil, err
	}

	output, genErr := o.generateBondOutput(ctx, bond, outputType, opts)
	if genErr != nil {
		return o.failBond(ctx, ws, bond, cost, genErr.Error())
	}

	now := o.now().UTC()
	item := &schema.Item{
		SchemaVersion: schema.CurrentSchemaVersion,
		ID:            o.ids.NewID(schema.PrefixItem),
		NetworkID:     ws.NetworkID,
		EpisodeID:     ws.EpisodeID,
		Type:          outputType,
		Title:         output.Title,
		Body:          output.Body,
		Provenance:    schema.FromBond(bond.ID, bond.InputItemIDs),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.store.SaveItem(ctx, item); err != nil {
		return nil, err
	}

	bond.Status = schema.BondExecuted
	bond.OutputItemID = item.ID
	bond.ExecutionCount++
	bond.ExecutedAt = &now
	bond.UpdatedAt = now
	if err := o.store.SaveBond(ctx, bond); err != nil {
		return nil, err
	}

	if _, err := o.append(ctx, ws, schema.EventBondExecuted, schema.Refs{
		"bond_id":         bond.ID,
		"input_item_ids":  bond.InputItemIDs,
		"output_item_id":  item.ID,
		"execution_count": bond.ExecutionCount,
	}); err != nil {
		return nil, err
	}
	if _, err := o.logCredits(ctx, ws, o.policy.Rewards.BondExecuted, "bond_executed_reward",
		schema.Refs{"bond_id": bond.ID, "output_item_id": item.ID}); err != nil {
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
		Str("bond", bond.ID).
		Str("output", item.ID).
		Msg("bond executed")

	return &RunResult{Succeeded: true, OutputItem: item, Balance: balance}, nil
}

// generateBondOutput loads the bond's inputs and asks the generator for the
// output content. A forced failure skips generation entirely.
func (o *Orchestrator) generateBondOutput(ctx context.Context, bond *schema.Bond, outputType schema.QDPIKind, opts RunOptions) (spin.Output, error) {
	if opts.ForceFail {
		return spin.Output{}, &forcedFailure{reason: opts.failReason()}
	}

	inputs := make([]schema.Item, 0, len(bond.InputItemIDs))
	for _, id := range bond.InputItemIDs {
		item, err := o.store.GetItem(ctx, id)
		if err != nil {
			return spin.Output{}, err
		}
		inputs = append(inputs, *item)
	}

	return o.gen.GenerateBond(ctx, spin.BondRequest{
		BondID:     bond.ID,
		Prompt:     bond.PromptText,
		Inputs:     inputs,
		OutputType: outputType,
		RecipeID:   bond.RecipeID,
	})
}

// failBond runs the bond compensation: record last_error, keep the draft,
// refund the spend in full, checkpoint.
func (o *Orchestrator) failBond(ctx context.Context, ws Workspace, bond *schema.Bond, spent int64, reason string) (*RunResult, error) {
	now := o.now().UTC()
	bond.LastError = &schema.ErrorInfo{
		Message: reason,
		Code:    "EXECUTION_FAILED",
		At:      now,
	}
	bond.UpdatedAt = now
	if err := o.store.SaveBond(ctx, bond); err != nil {
		return nil, err
	}

	if _, err := o.append(ctx, ws, schema.EventBondExecutionFailed, schema.Refs{
		"bond_id": bond.ID,
		"reason":  reason,
	}); err != nil {
		return nil, err
	}
	if _, err := o.logCredits(ctx, ws, spent, "bond_run_refund",
		schema.Refs{"bond_id": bond.ID}); err != nil {
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
		Str("bond", bond.ID).
		Str("reason", reason).
		Msg("bond execution failed, spend refunded")

	return &RunResult{FailureReason: reason, Balance: balance}, nil
}

// forcedFailure marks a failure injected through RunOptions.ForceFail.
type forcedFailure struct {
	reason string
}

func (f *forcedFailure) Error() string { return f.reason }
