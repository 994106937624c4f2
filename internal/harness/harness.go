package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/fieldkit/internal/policy"
	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/store"
	"github.com/roach88/fieldkit/internal/views"
	"github.com/roach88/fieldkit/internal/workflow"
)

// idPoolSize bounds the number of ids a single scenario may consume. The
// fixed pool makes every generated id a function of step order alone.
const idPoolSize = 400

// harnessEpoch is the pinned clock for scenario runs.
var harnessEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TraceEvent is one row of the scenario trace: the event's position and
// name, plus the credit movement when the event is a credits.delta.
type TraceEvent struct {
	Seq          int64  `json:"seq"`
	Name         string `json:"name"`
	Reason       string `json:"reason,omitempty"`
	Delta        *int64 `json:"delta,omitempty"`
	BalanceAfter *int64 `json:"balance_after,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step met its expectation and every assertion
	// held.
	Pass bool `json:"pass"`

	// Trace is the episode's full event log in append order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists step and assertion failures. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Balance is the derived credit balance after the final step.
	Balance int64 `json:"final_balance"`

	// bondStatuses maps bond aliases to their final status, captured before
	// the store closes so assertions can run on the Result alone.
	bondStatuses map[string]string
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// runner executes one scenario against a fresh workspace.
type runner struct {
	orch   *workflow.Orchestrator
	store  *store.Store
	items  map[string]string // alias -> item id
	bonds  map[string]string // alias -> bond id
	result *Result
}

// Run executes a scenario against a fresh in-memory workspace and returns
// the result. An error return means the harness itself failed (bad scenario
// wiring, storage fault); step expectation mismatches and assertion
// failures are reported through Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open scenario store: %w", err)
	}
	defer st.Close()

	ids := make([]string, idPoolSize)
	for i := range ids {
		ids[i] = fmt.Sprintf("%03d", i+1)
	}

	r := &runner{
		orch: workflow.New(st, policy.MustLoad(),
			workflow.WithIDGenerator(schema.NewFixedGenerator(ids...)),
			workflow.WithClock(func() time.Time { return harnessEpoch }),
		),
		store:  st,
		items:  make(map[string]string),
		bonds:  make(map[string]string),
		result: &Result{Pass: true, bondStatuses: make(map[string]string)},
	}

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := r.runStep(ctx, i, step); err != nil {
			return nil, err
		}
		if !r.result.Pass {
			break
		}
	}

	if err := r.capture(ctx); err != nil {
		return nil, err
	}
	checkAssertions(scenario, r.result)
	return r.result, nil
}

// runStep executes one step and checks its expectation. Validation errors
// and run failures are outcomes, not harness errors; anything else aborts
// the run.
func (r *runner) runStep(ctx context.Context, index int, step Step) error {
	outcome, code, err := r.execute(ctx, step)
	if err != nil {
		return fmt.Errorf("steps[%d] %s: %w", index, step.Op, err)
	}

	want := "success"
	wantCode := ""
	if step.Expect != nil {
		want = step.Expect.Outcome
		wantCode = step.Expect.ErrorCode
	}
	if outcome != want {
		r.result.AddError(fmt.Sprintf("steps[%d] %s: expected outcome %s, got %s", index, step.Op, want, outcome))
		return nil
	}
	if want == "error" && code != wantCode {
		r.result.AddError(fmt.Sprintf("steps[%d] %s: expected error code %s, got %s", index, step.Op, wantCode, code))
	}
	return nil
}

// execute dispatches one step. It returns the observed outcome ("success",
// "failure", or "error" with the validation code); a non-nil error is a
// harness-level fault.
func (r *runner) execute(ctx context.Context, step Step) (outcome, code string, err error) {
	switch step.Op {
	case OpInit:
		_, err = r.orch.InitWorkspace(ctx)
	case OpFieldOpen:
		err = r.orch.OpenField(ctx)
	case OpTutorialStart:
		err = r.orch.StartTutorial(ctx)

	case OpItemCreate:
		var item *schema.Item
		item, err = r.orch.CreateItem(ctx, step.Title, step.Body, schema.QDPIKind(step.ItemType))
		if err == nil && step.As != "" {
			r.items[step.As] = item.ID
		}

	case OpItemArchive:
		id, rerr := r.itemID(step.Item)
		if rerr != nil {
			return "", "", rerr
		}
		err = r.orch.ArchiveItem(ctx, id)

	case OpSuggest:
		id, rerr := r.itemID(step.Item)
		if rerr != nil {
			return "", "", rerr
		}
		_, err = r.orch.PresentSuggestions(ctx, id)

	case OpBondCreate:
		inputs, rerr := r.itemIDs(step.Inputs)
		if rerr != nil {
			return "", "", rerr
		}
		var bond *schema.Bond
		bond, err = r.orch.CreateBondDraft(ctx, inputs, step.Prompt, step.IntentType, step.RecipeID)
		if err == nil && step.As != "" {
			r.bonds[step.As] = bond.ID
		}

	case OpBondRun:
		id, rerr := r.bondID(step.Bond)
		if rerr != nil {
			return "", "", rerr
		}
		var res *workflow.RunResult
		res, err = r.orch.RunBond(ctx, id, schema.QDPIKind(step.OutputType), workflow.RunOptions{
			ForceFail:  step.ForceFail,
			FailReason: step.FailReason,
		})
		if err == nil {
			return r.runOutcome(res, step.As), "", nil
		}

	case OpHolologueRun:
		inputs, rerr := r.itemIDs(step.Inputs)
		if rerr != nil {
			return "", "", rerr
		}
		var res *workflow.RunResult
		res, err = r.orch.RunHolologue(ctx, inputs, step.Kind, workflow.RunOptions{
			ForceFail:  step.ForceFail,
			FailReason: step.FailReason,
		})
		if err == nil {
			return r.runOutcome(res, step.As), "", nil
		}

	case OpCurateItemAdd:
		id, rerr := r.itemID(step.Item)
		if rerr != nil {
			return "", "", rerr
		}
		err = r.orch.CurateItemAdd(ctx, id)
	case OpCurateItemRemove:
		id, rerr := r.itemID(step.Item)
		if rerr != nil {
			return "", "", rerr
		}
		err = r.orch.CurateItemRemove(ctx, id)
	case OpCurateBondAdd:
		id, rerr := r.bondID(step.Bond)
		if rerr != nil {
			return "", "", rerr
		}
		err = r.orch.CurateBondAdd(ctx, id)
	case OpCurateBondRemove:
		id, rerr := r.bondID(step.Bond)
		if rerr != nil {
			return "", "", rerr
		}
		err = r.orch.CurateBondRemove(ctx, id)

	case OpLedgerOpen:
		_, err = r.orch.OpenLedger(ctx)

	default:
		return "", "", fmt.Errorf("unknown op %q", step.Op)
	}

	if err == nil {
		return "success", "", nil
	}
	var verr *workflow.ValidationError
	if errors.As(err, &verr) {
		return "error", string(verr.Code), nil
	}
	return "", "", err
}

// runOutcome records a run's output item alias and maps the result to an
// outcome string.
func (r *runner) runOutcome(res *workflow.RunResult, as string) string {
	if !res.Succeeded {
		return "failure"
	}
	if as != "" && res.OutputItem != nil {
		r.items[as] = res.OutputItem.ID
	}
	return "success"
}

func (r *runner) itemID(alias string) (string, error) {
	id, ok := r.items[alias]
	if !ok {
		return "", fmt.Errorf("unknown item alias %q", alias)
	}
	return id, nil
}

func (r *runner) itemIDs(aliases []string) ([]string, error) {
	ids := make([]string, 0, len(aliases))
	for _, a := range aliases {
		id, err := r.itemID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *runner) bondID(alias string) (string, error) {
	id, ok := r.bonds[alias]
	if !ok {
		return "", fmt.Errorf("unknown bond alias %q", alias)
	}
	return id, nil
}

// capture snapshots the trace, balance, and bond statuses into the result
// before the store closes.
func (r *runner) capture(ctx context.Context) error {
	networks, err := r.store.ListNetworks(ctx)
	if err != nil {
		return err
	}
	if len(networks) == 0 {
		return nil // scenario never ran init
	}
	episodeID := networks[0].ActiveEpisodeID
	if episodeID == "" {
		episodeID = networks[0].RootEpisodeID
	}

	events, err := r.store.LoadEvents(ctx, episodeID)
	if err != nil {
		return err
	}
	for _, e := range events {
		te := TraceEvent{Seq: e.Seq, Name: string(e.Name)}
		if e.Name == schema.EventCreditsDelta {
			if reason, ok := e.Refs.String("reason"); ok {
				te.Reason = reason
			}
			if delta, ok := e.Refs.Int64("delta"); ok {
				te.Delta = &delta
			}
			if after, ok := e.Refs.Int64("balance_after"); ok {
				te.BalanceAfter = &after
			}
		}
		r.result.Trace = append(r.result.Trace, te)
	}

	balance, err := views.CreditBalance(ctx, r.store, episodeID)
	if err != nil {
		return err
	}
	r.result.Balance = balance

	for alias, id := range r.bonds {
		bond, err := r.store.GetBond(ctx, id)
		if err != nil {
			return err
		}
		r.result.bondStatuses[alias] = string(bond.Status)
	}
	return nil
}
