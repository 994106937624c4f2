package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one declarative workflow test: an ordered list of steps
// executed against a fresh workspace, then assertions over the resulting
// event trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden file
	// name for trace comparison.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps contains the ordered workflow operations to execute.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_order, trace_count, final_balance, bond_status.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a single workflow operation. Op selects the operation; the other
// fields carry its arguments. Entities created by a step are registered
// under the alias in As so later steps can reference them.
type Step struct {
	// Op is the operation to run: init, field_open, tutorial_start,
	// item_create, item_archive, suggest, bond_create, bond_run,
	// holologue_run, curate_item_add, curate_item_remove, curate_bond_add,
	// curate_bond_remove, ledger_open.
	Op string `yaml:"op"`

	// As registers the created entity (item or bond, including run outputs)
	// under an alias for later steps.
	As string `yaml:"as,omitempty"`

	// Title, Body, and ItemType feed item_create.
	Title    string `yaml:"title,omitempty"`
	Body     string `yaml:"body,omitempty"`
	ItemType string `yaml:"item_type,omitempty"`

	// Item references a single item alias (item_archive, suggest,
	// curate_item_add, curate_item_remove).
	Item string `yaml:"item,omitempty"`

	// Inputs references item aliases (bond_create inputs, holologue_run
	// selection).
	Inputs []string `yaml:"inputs,omitempty"`

	// Prompt, IntentType, and RecipeID feed bond_create.
	Prompt     string `yaml:"prompt,omitempty"`
	IntentType string `yaml:"intent_type,omitempty"`
	RecipeID   string `yaml:"recipe_id,omitempty"`

	// Bond references a bond alias (bond_run, curate_bond_add,
	// curate_bond_remove).
	Bond string `yaml:"bond,omitempty"`

	// OutputType is the QDPI kind of a bond run's output item.
	OutputType string `yaml:"output_type,omitempty"`

	// Kind is the artifact kind of a holologue run (plan, checklist,
	// spec_fragment).
	Kind string `yaml:"kind,omitempty"`

	// ForceFail injects a failure after the spend, exercising the refund
	// path. FailReason overrides the recorded reason.
	ForceFail  bool   `yaml:"force_fail,omitempty"`
	FailReason string `yaml:"fail_reason,omitempty"`

	// Expect specifies the expected step outcome. If nil the step must
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Outcome is "success", "failure" (a run that failed and was refunded),
	// or "error" (the operation was rejected).
	Outcome string `yaml:"outcome"`

	// ErrorCode is the expected validation error code when Outcome is
	// "error" (e.g. SELECTION_TOO_SMALL, ALREADY_EXECUTED).
	ErrorCode string `yaml:"error_code,omitempty"`
}

// Assertion validates the trace or the final state after all steps ran.
type Assertion struct {
	// Type selects the assertion:
	//   - "trace_order": event names appear in this relative order
	//   - "trace_count": event name appears exactly Count times
	//   - "final_balance": the derived credit balance equals Balance
	//   - "bond_status": the bond behind alias Bond has status Status
	Type string `yaml:"type"`

	// Events is the expected event-name order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Event is the event name to count (trace_count).
	Event string `yaml:"event,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Balance is the expected final credit balance (final_balance).
	Balance int64 `yaml:"balance,omitempty"`

	// Bond is the bond alias and Status the expected status (bond_status).
	Bond   string `yaml:"bond,omitempty"`
	Status string `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceOrder   = "trace_order"
	AssertTraceCount   = "trace_count"
	AssertFinalBalance = "final_balance"
	AssertBondStatus   = "bond_status"
)

// Step op constants.
const (
	OpInit             = "init"
	OpFieldOpen        = "field_open"
	OpTutorialStart    = "tutorial_start"
	OpItemCreate       = "item_create"
	OpItemArchive      = "item_archive"
	OpSuggest          = "suggest"
	OpBondCreate       = "bond_create"
	OpBondRun          = "bond_run"
	OpHolologueRun     = "holologue_run"
	OpCurateItemAdd    = "curate_item_add"
	OpCurateItemRemove = "curate_item_remove"
	OpCurateBondAdd    = "curate_bond_add"
	OpCurateBondRemove = "curate_bond_remove"
	OpLedgerOpen       = "ledger_open"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos in scenario files fail loudly instead of silently
// skipping an assertion.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

var knownOps = map[string]bool{
	OpInit:             true,
	OpFieldOpen:        true,
	OpTutorialStart:    true,
	OpItemCreate:       true,
	OpItemArchive:      true,
	OpSuggest:          true,
	OpBondCreate:       true,
	OpBondRun:          true,
	OpHolologueRun:     true,
	OpCurateItemAdd:    true,
	OpCurateItemRemove: true,
	OpCurateBondAdd:    true,
	OpCurateBondRemove: true,
	OpLedgerOpen:       true,
}

// validateScenario checks required fields before any step runs.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if !knownOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Expect != nil {
			switch step.Expect.Outcome {
			case "success", "failure":
			case "error":
				if step.Expect.ErrorCode == "" {
					return fmt.Errorf("steps[%d].expect: error_code is required when outcome is error", i)
				}
			default:
				return fmt.Errorf("steps[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFinalBalance:
		// Zero is a legal expected balance, nothing more to check.
	case AssertBondStatus:
		if a.Bond == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: bond and status are required for bond_status", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
