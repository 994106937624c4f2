package harness

import (
	"strings"
	"testing"
)

func int64p(v int64) *int64 { return &v }

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Name: "app.first_run.started"},
		{Seq: 2, Name: "episode.created"},
		{Seq: 3, Name: "credits.delta", Reason: "seed", Delta: int64p(100), BalanceAfter: int64p(100)},
		{Seq: 4, Name: "store.commit"},
		{Seq: 5, Name: "bond.run_requested"},
		{Seq: 6, Name: "credits.delta", Reason: "bond_run_spend", Delta: int64p(-10), BalanceAfter: int64p(90)},
		{Seq: 7, Name: "bond.executed"},
		{Seq: 8, Name: "store.commit"},
	}
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	ok := Assertion{Type: AssertTraceOrder, Events: []string{
		"app.first_run.started", "bond.run_requested", "bond.executed",
	}}
	if err := assertTraceOrder(trace, ok); err != nil {
		t.Errorf("expected order to hold: %v", err)
	}

	// Order may skip intervening events but never reverse.
	bad := Assertion{Type: AssertTraceOrder, Events: []string{
		"bond.executed", "bond.run_requested",
	}}
	if err := assertTraceOrder(trace, bad); err == nil {
		t.Error("expected reversed order to fail")
	}

	missing := Assertion{Type: AssertTraceOrder, Events: []string{
		"holologue.completed",
	}}
	err := assertTraceOrder(trace, missing)
	if err == nil || !strings.Contains(err.Error(), "holologue.completed") {
		t.Errorf("expected missing event in error, got %v", err)
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	if err := assertTraceCount(trace, Assertion{Type: AssertTraceCount, Event: "store.commit", Count: 2}); err != nil {
		t.Errorf("expected count to hold: %v", err)
	}
	if err := assertTraceCount(trace, Assertion{Type: AssertTraceCount, Event: "store.commit", Count: 3}); err == nil {
		t.Error("expected count mismatch to fail")
	}
	// Count zero asserts absence.
	if err := assertTraceCount(trace, Assertion{Type: AssertTraceCount, Event: "holologue.failed", Count: 0}); err != nil {
		t.Errorf("expected zero count to hold: %v", err)
	}
}

func TestAssertFinalBalance(t *testing.T) {
	result := &Result{Pass: true, Balance: 93, Trace: sampleTrace()}

	if err := assertFinalBalance(result, Assertion{Type: AssertFinalBalance, Balance: 93}); err != nil {
		t.Errorf("expected balance to hold: %v", err)
	}
	err := assertFinalBalance(result, Assertion{Type: AssertFinalBalance, Balance: 100})
	if err == nil || !strings.Contains(err.Error(), "balance 93") {
		t.Errorf("expected actual balance in error, got %v", err)
	}
}

func TestAssertBondStatus(t *testing.T) {
	result := &Result{
		Pass:         true,
		bondStatuses: map[string]string{"bond_1": "executed"},
	}

	if err := assertBondStatus(result, Assertion{Type: AssertBondStatus, Bond: "bond_1", Status: "executed"}); err != nil {
		t.Errorf("expected status to hold: %v", err)
	}
	if err := assertBondStatus(result, Assertion{Type: AssertBondStatus, Bond: "bond_1", Status: "draft"}); err == nil {
		t.Error("expected status mismatch to fail")
	}
	if err := assertBondStatus(result, Assertion{Type: AssertBondStatus, Bond: "ghost", Status: "draft"}); err == nil {
		t.Error("expected unknown alias to fail")
	}
}

func TestAssertionErrorIncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "1 occurrences of bond.executed",
		Actual:   "0 occurrences",
		Trace:    sampleTrace(),
	}
	msg := err.Error()
	for _, want := range []string{"assertion failed", "bond.run_requested", "bond_run_spend", "-10"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message missing %q:\n%s", want, msg)
		}
	}
}
