package schema

// EventName identifies one of the canonical QDPI event types.
//
// The set is closed and versioned (NamesVersion). New names may be added in
// later versions, but existing names are never renamed or removed, so old
// logs always replay.
type EventName string

// NamesVersion is the version of the canonical event name set.
const NamesVersion = 1

// Canonical event names. Do not invent new names.
const (
	EventAppFirstRunStarted       EventName = "app.first_run.started"
	EventEpisodeCreated           EventName = "episode.created"
	EventFieldOpened              EventName = "field.opened"
	EventTutorialStarted          EventName = "tutorial.started"
	EventItemCreated              EventName = "item.created"
	EventBondSuggestionsPresented EventName = "bond.suggestions.presented"
	EventBondDraftCreated         EventName = "bond.draft_created"
	EventBondRunRequested         EventName = "bond.run_requested"
	EventBondExecuted             EventName = "bond.executed"
	EventBondExecutionFailed      EventName = "bond.execution_failed"
	EventHolologueRunRequested    EventName = "holologue.run_requested"
	EventHolologueValidationFail  EventName = "holologue.validation_failed"
	EventHolologueCompleted       EventName = "holologue.completed"
	EventHolologueFailed          EventName = "holologue.failed"
	EventBondProposalsPresented   EventName = "bond.proposals.presented"
	EventLedgerOpened             EventName = "ledger.opened"
	EventStoreCommit              EventName = "store.commit"
	EventStoreCommitFailed        EventName = "store.commit_failed"
	EventCreditsDelta             EventName = "credits.delta"
)

// CanonicalEventNames is the closed set of valid event names, in declaration
// order. Used for validation and documentation output.
var CanonicalEventNames = []EventName{
	EventAppFirstRunStarted,
	EventEpisodeCreated,
	EventFieldOpened,
	EventTutorialStarted,
	EventItemCreated,
	EventBondSuggestionsPresented,
	EventBondDraftCreated,
	EventBondRunRequested,
	EventBondExecuted,
	EventBondExecutionFailed,
	EventHolologueRunRequested,
	EventHolologueValidationFail,
	EventHolologueCompleted,
	EventHolologueFailed,
	EventBondProposalsPresented,
	EventLedgerOpened,
	EventStoreCommit,
	EventStoreCommitFailed,
	EventCreditsDelta,
}

var canonicalNameSet = func() map[EventName]struct{} {
	set := make(map[EventName]struct{}, len(CanonicalEventNames))
	for _, n := range CanonicalEventNames {
		set[n] = struct{}{}
	}
	return set
}()

// IsCanonical reports whether name belongs to the canonical event name set.
func IsCanonical(name EventName) bool {
	_, ok := canonicalNameSet[name]
	return ok
}
