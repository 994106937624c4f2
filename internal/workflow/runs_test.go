package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/spin"
)

func createDraft(t *testing.T, o *Orchestrator, inputTitles ...string) *schema.Bond {
	t.Helper()
	ctx := context.Background()

	ids := make([]string, 0, len(inputTitles))
	for _, title := range inputTitles {
		item, err := o.CreateItem(ctx, title, "", schema.KindQ)
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	bond, err := o.CreateBondDraft(ctx, ids, "Expand into a checklist.", "expands", "expand_to_checklist")
	require.NoError(t, err)
	return bond
}

func TestCreateBondDraft(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ws := initWorkspace(t, o)
	ctx := context.Background()

	bond := createDraft(t, o, "Cache invalidation")

	assert.Equal(t, schema.BondDraft, bond.Status)
	assert.Equal(t, "expand_to_checklist", bond.RecipeID)
	assert.Zero(t, bond.ExecutionCount)

	events, err := s.LoadEvents(ctx, ws.EpisodeID)
	require.NoError(t, err)
	var draftEvent *schema.Event
	for i := range events {
		if events[i].Name == schema.EventBondDraftCreated {
			draftEvent = &events[i]
		}
	}
	require.NotNil(t, draftEvent)
	origin, _ := draftEvent.Refs.String("origin")
	assert.Equal(t, "expand_to_checklist", origin)
}

func TestCreateBondDraft_MissingInput(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	initWorkspace(t, o)

	_, err := o.CreateBondDraft(context.Background(), []string{"it_missing"}, "p", "", "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestRunBond_Success(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ws := initWorkspace(t, o)
	ctx := context.Background()

	bond := createDraft(t, o, "Cache invalidation")
	// seed 100 + item 1 = 101 before the run
	require.Equal(t, int64(101), balance(t, o))

	res, err := o.RunBond(ctx, bond.ID, schema.KindM, RunOptions{})
	require.NoError(t, err)

	assert.True(t, res.Succeeded)
	require.NotNil(t, res.OutputItem)
	// 101 - 10 + 3
	assert.Equal(t, int64(94), res.Balance)

	names := eventNames(t, s, ws.EpisodeID)
	assert.Equal(t, []string{
		"bond.run_requested",
		"credits.delta",
		"bond.executed",
		"credits.delta",
		"store.commit",
	}, names[len(names)-5:])

	stored, err := s.GetBond(ctx, bond.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.BondExecuted, stored.Status)
	assert.Equal(t, res.OutputItem.ID, stored.OutputItemID)
	assert.Equal(t, 1, stored.ExecutionCount)
	require.NotNil(t, stored.ExecutedAt)

	output, err := s.GetItem(ctx, res.OutputItem.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.KindM, output.Type)
	require.Equal(t, schema.ProvenanceBond, output.Provenance.Kind)
	assert.Equal(t, bond.ID, output.Provenance.Bond.BondID)
	assert.Equal(t, bond.InputItemIDs, output.Provenance.Bond.InputItemIDs)
	assert.Contains(t, output.Body, "# Checklist: Cache invalidation")
}

func TestRunBond_ForcedFailureRefundsExactly(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ws := initWorkspace(t, o)
	ctx := context.Background()

	bond := createDraft(t, o, "Cache invalidation")
	before := balance(t, o)

	res, err := o.RunBond(ctx, bond.ID, schema.KindM, RunOptions{ForceFail: true})
	require.NoError(t, err)

	assert.False(t, res.Succeeded)
	assert.Nil(t, res.OutputItem)
	assert.Equal(t, "forced_failure", res.FailureReason)
	// Spend fully refunded: net zero.
	assert.Equal(t, before, res.Balance)

	names := eventNames(t, s, ws.EpisodeID)
	assert.Equal(t, []string{
		"bond.run_requested",
		"credits.delta",
		"bond.execution_failed",
		"credits.delta",
		"store.commit",
	}, names[len(names)-5:])

	stored, err := s.GetBond(ctx, bond.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.BondDraft, stored.Status)
	assert.Empty(t, stored.OutputItemID)
	assert.Zero(t, stored.ExecutionCount)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "forced_failure", stored.LastError.Message)
}

func TestRunBond_GeneratorFailure(t *testing.T) {
	o, _ := newTestOrchestrator(t, WithGenerator(spin.FailingGenerator{Reason: "model unavailable"}))
	initWorkspace(t, o)
	ctx := context.Background()

	bond := createDraft(t, o, "Cache invalidation")
	before := balance(t, o)

	res, err := o.RunBond(ctx, bond.ID, schema.KindM, RunOptions{})
	require.NoError(t, err)

	assert.False(t, res.Succeeded)
	assert.Contains(t, res.FailureReason, "model unavailable")
	assert.Equal(t, before, res.Balance)
}

func TestRunBond_RetryAfterFailureSucceeds(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ws := initWorkspace(t, o)
	ctx := context.Background()

	bond := createDraft(t, o, "Cache invalidation")

	failed, err := o.RunBond(ctx, bond.ID, schema.KindM, RunOptions{ForceFail: true, FailReason: "first try"})
	require.NoError(t, err)
	assert.False(t, failed.Succeeded)

	// A failed run leaves the bond draft, so it stays runnable.
	res, err := o.RunBond(ctx, bond.ID, schema.KindM, RunOptions{})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	stored, err := s.GetBond(ctx, bond.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.BondExecuted, stored.Status)
	assert.Equal(t, 1, stored.ExecutionCount)

	// Two full run cycles, each seq-contiguous.
	events, err := s.LoadEvents(ctx, ws.EpisodeID)
	require.NoError(t, err)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Seq)
	}
}

func TestRunBond_RejectsExecuted(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ws := initWorkspace(t, o)
	ctx := context.Background()

	bond := createDraft(t, o, "Cache invalidation")
	_, err := o.RunBond(ctx, bond.ID, schema.KindM, RunOptions{})
	require.NoError(t, err)

	before := eventNames(t, s, ws.EpisodeID)

	_, err = o.RunBond(ctx, bond.ID, schema.KindM, RunOptions{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// Rejection happens before any event or spend.
	assert.Equal(t, before, eventNames(t, s, ws.EpisodeID))
}

func TestRunBond_NotFound(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	initWorkspace(t, o)

	_, err := o.RunBond(context.Background(), "bd_missing", schema.KindM, RunOptions{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestRunHolologue_Success(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ws := initWorkspace(t, o)
	ctx := context.Background()

	a, err := o.CreateItem(ctx, "First idea", "", schema.KindQ)
	require.NoError(t, err)
	b, err := o.CreateItem(ctx, "Second idea", "", schema.KindQ)
	require.NoError(t, err)
	// 100 + 1 + 1
	require.Equal(t, int64(102), balance(t, o))

	res, err := o.RunHolologue(ctx, []string{a.ID, b.ID}, "plan", RunOptions{})
	require.NoError(t, err)

	assert.True(t, res.Succeeded)
	require.NotNil(t, res.OutputItem)
	// 102 - 20 + 5
	assert.Equal(t, int64(87), res.Balance)
	assert.Equal(t, schema.KindH, res.OutputItem.Type)

	names := eventNames(t, s, ws.EpisodeID)
	assert.Equal(t, []string{
		"holologue.run_requested",
		"credits.delta",
		"holologue.completed",
		"credits.delta",
		"bond.proposals.presented",
		"store.commit",
	}, names[len(names)-6:])

	// Provenance references the persisted completion event.
	stored, err := s.GetItem(ctx, res.OutputItem.ID)
	require.NoError(t, err)
	require.Equal(t, schema.ProvenanceHolologue, stored.Provenance.Kind)
	completionID := stored.Provenance.Holologue.CompletionEventID

	completion, err := s.GetEvent(ctx, completionID)
	require.NoError(t, err)
	assert.Equal(t, schema.EventHolologueCompleted, completion.Name)
	outputRef, _ := completion.Refs.String("output_item_id")
	assert.Equal(t, stored.ID, outputRef)

	assert.Equal(t, []string{a.ID, b.ID}, stored.Provenance.Holologue.SelectedItemIDs)
	assert.Equal(t, "plan", stored.Provenance.Holologue.ArtifactKind)
}

func TestRunHolologue_SelectionTooSmall(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ws := initWorkspace(t, o)
	ctx := context.Background()

	item, err := o.CreateItem(ctx, "Only one", "", schema.KindQ)
	require.NoError(t, err)
	before := balance(t, o)

	_, err = o.RunHolologue(ctx, []string{item.ID}, "plan", RunOptions{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// Validation failure is recorded but nothing was spent.
	names := eventNames(t, s, ws.EpisodeID)
	assert.Equal(t, "holologue.validation_failed", names[len(names)-1])
	assert.Equal(t, before, balance(t, o))
}

func TestRunHolologue_MissingItem(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ws := initWorkspace(t, o)
	ctx := context.Background()

	item, err := o.CreateItem(ctx, "Exists", "", schema.KindQ)
	require.NoError(t, err)
	before := balance(t, o)

	_, err = o.RunHolologue(ctx, []string{item.ID, "it_missing"}, "plan", RunOptions{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	names := eventNames(t, s, ws.EpisodeID)
	assert.Equal(t, "holologue.validation_failed", names[len(names)-1])
	assert.Equal(t, before, balance(t, o))
}

func TestRunHolologue_ForcedFailureRefundsExactly(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ws := initWorkspace(t, o)
	ctx := context.Background()

	a, err := o.CreateItem(ctx, "First", "", schema.KindQ)
	require.NoError(t, err)
	b, err := o.CreateItem(ctx, "Second", "", schema.KindQ)
	require.NoError(t, err)
	before := balance(t, o)

	res, err := o.RunHolologue(ctx, []string{a.ID, b.ID}, "plan", RunOptions{ForceFail: true})
	require.NoError(t, err)

	assert.False(t, res.Succeeded)
	assert.Equal(t, before, res.Balance)

	names := eventNames(t, s, ws.EpisodeID)
	assert.Equal(t, []string{
		"holologue.run_requested",
		"credits.delta",
		"holologue.failed",
		"credits.delta",
		"store.commit",
	}, names[len(names)-5:])

	// No output item was created.
	items, err := o.OpenLedger(ctx)
	require.NoError(t, err)
	for _, it := range items.Items {
		assert.NotEqual(t, schema.KindH, it.Type)
	}
}

// TestGoldenFlow walks the canonical first session: seed, two items, a bond
// run, a holologue over both originals. The balance checkpoints are the
// contract: 100 → 102 → 95 → 80.
func TestGoldenFlow(t *testing.T) {
	o, s := newTestOrchestrator(t)
	ctx := context.Background()

	res, err := o.InitWorkspace(ctx)
	require.NoError(t, err)
	ws := res.Workspace
	assert.Equal(t, int64(100), res.Balance)

	a, err := o.CreateItem(ctx, "First idea", "", schema.KindQ)
	require.NoError(t, err)
	b, err := o.CreateItem(ctx, "Second idea", "", schema.KindQ)
	require.NoError(t, err)
	assert.Equal(t, int64(102), balance(t, o))

	bond, err := o.CreateBondDraft(ctx, []string{a.ID}, "Expand into a checklist.", "expands", "expand_to_checklist")
	require.NoError(t, err)
	bondRes, err := o.RunBond(ctx, bond.ID, schema.KindM, RunOptions{})
	require.NoError(t, err)
	require.True(t, bondRes.Succeeded)
	assert.Equal(t, int64(95), bondRes.Balance)

	holoRes, err := o.RunHolologue(ctx, []string{a.ID, b.ID}, "plan", RunOptions{})
	require.NoError(t, err)
	require.True(t, holoRes.Succeeded)
	assert.Equal(t, int64(80), holoRes.Balance)

	// Replaying the log from scratch lands on the same balance.
	assert.Equal(t, int64(80), balance(t, o))

	events, err := s.LoadEvents(ctx, ws.EpisodeID)
	require.NoError(t, err)
	for i, e := range events {
		require.Equal(t, int64(i+1), e.Seq, "log must be gap-free")
	}
}
