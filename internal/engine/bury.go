package engine

import (
	"context"
	"fmt"
	"log/slog"

	"kinmark/internal/card"
)

// BuryOnAnswer holds back the answered item's siblings from the current
// session. For every group the owning record belongs to, the items of
// every other member record are classified: new and learning phases are
// unconditionally eligible, review and day-learning only when due on or
// before the current scheduling day. Items already buried or suspended
// are left alone — suspension is a stronger state that must never be
// weakened. Eligible items are unioned across groups and buried with a
// single host command, so an item reachable through two groups is
// touched once. Returns the count buried.
func (e *Engine) BuryOnAnswer(ctx context.Context, answered card.Item) (int, error) {
	rec, err := e.host.Record(ctx, answered.RecordID)
	if err != nil {
		slog.Warn("answered record not found", "record", answered.RecordID, "error", err)
		return 0, nil
	}
	groups := groupsFromLabels(rec.Labels)
	if len(groups) == 0 {
		return 0, nil
	}

	today, err := e.host.Today(ctx)
	if err != nil {
		return 0, fmt.Errorf("scheduling day: %w", err)
	}

	eligible := make(map[card.ItemID]struct{})
	for _, group := range groups {
		members, err := e.MembersOf(ctx, group)
		if err != nil {
			slog.Warn("skipping group in bury scan", "group", group, "error", err)
			continue
		}
		for _, member := range members {
			if member == answered.RecordID {
				// Same-record items are native siblings; the host buries
				// those itself.
				continue
			}
			items, err := e.host.Items(ctx, member)
			if err != nil {
				slog.Warn("skipping member in bury scan", "record", member, "error", err)
				continue
			}
			for _, it := range items {
				if it.ID == answered.ID {
					continue
				}
				if buryEligible(it, today) {
					eligible[it.ID] = struct{}{}
				}
			}
		}
	}

	if len(eligible) == 0 {
		return 0, nil
	}

	ids := sortedItemIDs(eligible)
	if err := e.host.Bury(ctx, ids); err != nil {
		return 0, fmt.Errorf("bury %d siblings: %w", len(ids), err)
	}
	slog.Info("buried siblings", "item", answered.ID, "count", len(ids))
	return len(ids), nil
}

// buryEligible reports whether a sibling item would otherwise surface in
// the current session.
func buryEligible(it card.Item, today int) bool {
	if it.Activity != card.ActivityActive {
		return false
	}
	switch it.Phase {
	case card.PhaseNew, card.PhaseLearning:
		return true
	case card.PhaseReview, card.PhaseDayLearning:
		return it.Due <= today
	}
	return false
}
