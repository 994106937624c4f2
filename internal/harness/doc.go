// Package harness runs declarative workflow scenarios against a real
// workspace and validates the resulting event trace.
//
// A scenario is a YAML file describing an ordered list of workflow steps
// (init, item_create, bond_run, holologue_run, curation ops) followed by
// assertions over the final trace and state. Execution is fully
// deterministic: ids come from a fixed sequence and the clock is pinned, so
// the same scenario always produces the same event log. That determinism is
// what makes golden trace comparison possible.
//
// Scenarios live in testdata/scenarios, golden traces in testdata/golden.
// Regenerate goldens with:
//
//	go test ./internal/harness -update
package harness
