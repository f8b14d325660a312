package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"kinmark/internal/card"
)

// Spread enforces a minimum gap between sibling due dates. Every
// review-phase item across the group's members that is due on or before
// the current day is collected and sorted by (due, id) for determinism;
// the earliest stays put and each later one moves to today + i*minGap
// for its 1-based position i in the remainder. Updates are only issued
// when the value actually changes. Returns the count rescheduled.
func (e *Engine) Spread(ctx context.Context, group string, minGap int) (int, error) {
	if e.host == nil {
		return 0, nil
	}
	if minGap < 1 {
		minGap = 1
	}

	today, err := e.host.Today(ctx)
	if err != nil {
		return 0, fmt.Errorf("scheduling day: %w", err)
	}

	members, err := e.MembersOf(ctx, group)
	if err != nil {
		return 0, err
	}

	var due []card.Item
	for _, member := range members {
		items, err := e.host.Items(ctx, member)
		if err != nil {
			slog.Warn("skipping member in spread", "record", member, "error", err)
			continue
		}
		for _, it := range items {
			if it.Phase == card.PhaseReview && it.Activity != card.ActivitySuspended && it.Due <= today {
				due = append(due, it)
			}
		}
	}
	if len(due) < 2 {
		return 0, nil
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].Due != due[j].Due {
			return due[i].Due < due[j].Due
		}
		return due[i].ID < due[j].ID
	})

	rescheduled := 0
	for i, it := range due[1:] {
		target := today + (i+1)*minGap
		if it.Due == target {
			continue
		}
		it.Due = target
		if err := e.host.UpdateItem(ctx, it); err != nil {
			slog.Warn("spread update failed", "item", it.ID, "error", err)
			continue
		}
		rescheduled++
	}

	if rescheduled > 0 {
		slog.Info("spread group", "group", group, "rescheduled", rescheduled)
	}
	return rescheduled, nil
}

// SpreadAll runs Spread over every group, groups in name order.
// Returns the total rescheduled.
func (e *Engine) SpreadAll(ctx context.Context) (int, error) {
	if e.host == nil {
		return 0, nil
	}

	groups, err := e.AllGroups(ctx)
	if err != nil {
		return 0, err
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		n, err := e.Spread(ctx, name, e.minGap)
		if err != nil {
			slog.Warn("spread failed for group", "group", name, "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

// RescheduleOnAnswer is the cheap per-answer variant of Spread: every
// sibling of the answered record still in review phase and due today or
// earlier is pushed to today + daysOffset directly, without preserving
// relative order. The fast push and the sort-based Spread can disagree
// transiently (two pushed items land on the same day); the next full
// spread pass reconciles them. Returns the count pushed.
func (e *Engine) RescheduleOnAnswer(ctx context.Context, answered card.Item, daysOffset int) (int, error) {
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
	target := today + daysOffset

	// Union first so an item reachable via two groups moves once.
	pending := make(map[card.ItemID]card.Item)
	for _, group := range groups {
		members, err := e.MembersOf(ctx, group)
		if err != nil {
			slog.Warn("skipping group in push", "group", group, "error", err)
			continue
		}
		for _, member := range members {
			if member == answered.RecordID {
				continue
			}
			items, err := e.host.Items(ctx, member)
			if err != nil {
				slog.Warn("skipping member in push", "record", member, "error", err)
				continue
			}
			for _, it := range items {
				if it.Phase == card.PhaseReview && it.Activity != card.ActivitySuspended && it.Due <= today && it.Due != target {
					pending[it.ID] = it
				}
			}
		}
	}

	pushed := 0
	for _, id := range sortedItemIDs(keysOf(pending)) {
		it := pending[id]
		it.Due = target
		if err := e.host.UpdateItem(ctx, it); err != nil {
			slog.Warn("push update failed", "item", it.ID, "error", err)
			continue
		}
		pushed++
	}
	return pushed, nil
}

func keysOf(m map[card.ItemID]card.Item) map[card.ItemID]struct{} {
	set := make(map[card.ItemID]struct{}, len(m))
	for id := range m {
		set[id] = struct{}{}
	}
	return set
}
