// Package views holds the read side: pure functions that derive values from
// the persisted log and snapshots without writing anything.
package views

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/roach88/fieldkit/internal/schema"
	"github.com/roach88/fieldkit/internal/store"
)

// CreditBalance folds the episode's credits.delta events in sequence order.
//
// The balance is 0 when no credit events exist, otherwise the balance_after
// of the last credit event. Replaying the same log always yields the same
// balance.
func CreditBalance(ctx context.Context, s *store.Store, episodeID string) (int64, error) {
	events, err := s.LoadEvents(ctx, episodeID)
	if err != nil {
		return 0, fmt.Errorf("credit balance: %w", err)
	}

	credits := lo.Filter(events, func(e schema.Event, _ int) bool {
		return e.Name == schema.EventCreditsDelta
	})
	if len(credits) == 0 {
		return 0, nil
	}

	last := credits[len(credits)-1]
	balance, ok := last.Refs.Int64("balance_after")
	if !ok {
		return 0, fmt.Errorf("credit balance: event %s missing balance_after", last.ID)
	}
	return balance, nil
}

// CreditLine is one row of the ledger view: a single credit movement.
type CreditLine struct {
	Seq          int64  `json:"seq"`
	Delta        int64  `json:"delta"`
	BalanceAfter int64  `json:"balance_after"`
	Reason       string `json:"reason"`
}

// CreditHistory returns every credit movement of the episode in order.
func CreditHistory(ctx context.Context, s *store.Store, episodeID string) ([]CreditLine, error) {
	events, err := s.LoadEvents(ctx, episodeID)
	if err != nil {
		return nil, fmt.Errorf("credit history: %w", err)
	}

	var lines []CreditLine
	for _, e := range events {
		if e.Name != schema.EventCreditsDelta {
			continue
		}
		delta, ok := e.Refs.Int64("delta")
		if !ok {
			return nil, fmt.Errorf("credit history: event %s missing delta", e.ID)
		}
		after, ok := e.Refs.Int64("balance_after")
		if !ok {
			return nil, fmt.Errorf("credit history: event %s missing balance_after", e.ID)
		}
		reason, _ := e.Refs.String("reason")
		lines = append(lines, CreditLine{
			Seq:          e.Seq,
			Delta:        delta,
			BalanceAfter: after,
			Reason:       reason,
		})
	}
	return lines, nil
}
