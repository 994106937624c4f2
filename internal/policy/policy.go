// Package policy loads the credit policy that prices workspace operations.
//
// The policy is declared in an embedded CUE file and unified against a CUE
// schema at load time, so malformed or inconsistent amounts are rejected
// before any workflow can spend or refund credits.
package policy

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed policy.cue
var policyCUE []byte

// Costs are the spend amounts debited when a run is requested.
type Costs struct {
	BondRun      int64 `json:"bond_run"`
	HolologueRun int64 `json:"holologue_run"`
}

// Rewards are the credit amounts granted on successful outcomes.
type Rewards struct {
	ItemCreated        int64 `json:"item_created"`
	BondExecuted       int64 `json:"bond_executed"`
	HolologueCompleted int64 `json:"holologue_completed"`
}

// Policy prices every credit-bearing operation in the workspace.
type Policy struct {
	SchemaVersion int     `json:"schema_version"`
	SeedCredits   int64   `json:"seed_credits"`
	Costs         Costs   `json:"costs"`
	Rewards       Rewards `json:"rewards"`
}

// Load decodes and validates the embedded credit policy.
//
// Beyond CUE schema unification, Load enforces that each run reward is
// strictly below its matching cost: a successful run must be a net spend,
// otherwise the ledger could be inflated by re-running workflows.
func Load() (Policy, error) {
	ctx := cuecontext.New()

	value := ctx.CompileBytes(policyCUE)
	if err := value.Err(); err != nil {
		return Policy{}, fmt.Errorf("compile policy: %w", err)
	}

	policyVal := value.LookupPath(cue.ParsePath("policy"))
	if !policyVal.Exists() {
		return Policy{}, fmt.Errorf("policy: missing top-level policy field")
	}
	if err := policyVal.Validate(cue.Concrete(true)); err != nil {
		return Policy{}, fmt.Errorf("validate policy: %w", err)
	}

	var p Policy
	if err := policyVal.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}

	if p.Rewards.BondExecuted >= p.Costs.BondRun {
		return Policy{}, fmt.Errorf("policy: bond reward %d must be below bond cost %d",
			p.Rewards.BondExecuted, p.Costs.BondRun)
	}
	if p.Rewards.HolologueCompleted >= p.Costs.HolologueRun {
		return Policy{}, fmt.Errorf("policy: holologue reward %d must be below holologue cost %d",
			p.Rewards.HolologueCompleted, p.Costs.HolologueRun)
	}

	return p, nil
}

// MustLoad is Load for initialization paths where the embedded policy is
// known-good; it panics on error.
func MustLoad() Policy {
	p, err := Load()
	if err != nil {
		panic(err)
	}
	return p
}
