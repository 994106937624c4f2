package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the serialized form compared against golden files. Field
// order is fixed by the struct, so marshaling is deterministic.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	FinalBalance int64        `json:"final_balance"`
	Trace        []TraceEvent `json:"trace"`
}

// RunWithGolden executes a scenario and compares its trace against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
//
// The returned error covers harness faults and failed step expectations or
// assertions; golden mismatches fail through t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		FinalBalance: result.Balance,
		Trace:        result.Trace,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return result, nil
}
