package harness

import (
	"fmt"
	"strings"
)

// AssertionError is an assertion failure with enough context to debug it
// without rerunning the scenario.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\ntrace:\n")
	for _, ev := range e.Trace {
		if ev.Delta != nil && ev.BalanceAfter != nil {
			fmt.Fprintf(&buf, "  [%d] %s %s %+d -> %d\n", ev.Seq, ev.Name, ev.Reason, *ev.Delta, *ev.BalanceAfter)
		} else {
			fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, ev.Name)
		}
	}
	return buf.String()
}

// checkAssertions validates every assertion against the captured result,
// recording failures on the result.
func checkAssertions(scenario *Scenario, result *Result) {
	for _, a := range scenario.Assertions {
		var err error
		switch a.Type {
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalBalance:
			err = assertFinalBalance(result, a)
		case AssertBondStatus:
			err = assertBondStatus(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			result.AddError(err.Error())
		}
	}
}

// assertTraceOrder checks the event names appear in the given relative
// order. Intervening events are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Events) && ev.Name == a.Events[next] {
			next++
		}
	}
	if next < len(a.Events) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("events in order: %v", a.Events),
			Actual:   fmt.Sprintf("did not reach %q (matched %d of %d)", a.Events[next], next, len(a.Events)),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks the event appears exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Name == a.Event {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalBalance checks the derived credit balance after the last step.
func assertFinalBalance(result *Result, a Assertion) error {
	if result.Balance != a.Balance {
		return &AssertionError{
			Type:     AssertFinalBalance,
			Expected: fmt.Sprintf("balance %d", a.Balance),
			Actual:   fmt.Sprintf("balance %d", result.Balance),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertBondStatus checks the final status of a bond created during the
// scenario, addressed by its step alias.
func assertBondStatus(result *Result, a Assertion) error {
	status, ok := result.bondStatuses[a.Bond]
	if !ok {
		return &AssertionError{
			Type:     AssertBondStatus,
			Expected: fmt.Sprintf("bond alias %q", a.Bond),
			Actual:   "alias not registered by any step",
			Trace:    result.Trace,
		}
	}
	if status != a.Status {
		return &AssertionError{
			Type:     AssertBondStatus,
			Expected: fmt.Sprintf("bond %q status %s", a.Bond, a.Status),
			Actual:   fmt.Sprintf("status %s", status),
			Trace:    result.Trace,
		}
	}
	return nil
}
