package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"kinmark/internal/card"
	"kinmark/internal/tag"
)

// The sequencer models a FIFO release queue per group over its new-phase
// items without any queue data structure: ordering is derived from
// ascending item identifier, which is assigned at creation and never
// changes, so every device's copy of this scan reaches the same decision
// from replicated marker state alone.
//
// Markers (sibling-suspended::<name>) live on records, matching the
// record granularity of group membership. A marker is created only by
// SuspendExtras and removed only by the release path here (and by a full
// detach in Unmark, which releases the held items first) — deleting a
// marker while sequencer-suspended items remain would make them
// indistinguishable from user-suspended items, which must never happen.

// SuspendExtras sequences the new-phase items of freshly grouped
// records: candidate records are ordered by their earliest new item, the
// first stays open, and every later record has its new items suspended
// and receives the group's suspension marker. Runs once at group
// formation over the records just added. Returns the count of items
// suspended.
func (e *Engine) SuspendExtras(ctx context.Context, group string, records []card.RecordID) (int, error) {
	type candidate struct {
		rec      card.Record
		newItems []card.Item
		minItem  card.ItemID
	}

	var candidates []candidate
	for _, id := range records {
		rec, err := e.host.Record(ctx, id)
		if err != nil {
			slog.Warn("skipping missing record in sequencing", "record", id, "error", err)
			continue
		}
		items, err := e.host.Items(ctx, id)
		if err != nil {
			slog.Warn("skipping unreadable record in sequencing", "record", id, "error", err)
			continue
		}
		var fresh []card.Item
		for _, it := range items {
			if it.Phase == card.PhaseNew && it.Activity != card.ActivitySuspended {
				fresh = append(fresh, it)
			}
		}
		if len(fresh) == 0 {
			continue
		}
		candidates = append(candidates, candidate{rec: rec, newItems: fresh, minItem: fresh[0].ID})
	}

	if len(candidates) < 2 {
		return 0, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].minItem < candidates[j].minItem })

	suspended := 0
	marker := tag.SuspendLabel(group)
	for _, c := range candidates[1:] {
		for _, it := range c.newItems {
			it.Activity = card.ActivitySuspended
			if err := e.host.UpdateItem(ctx, it); err != nil {
				slog.Warn("suspend failed", "item", it.ID, "error", err)
				continue
			}
			suspended++
		}
		if c.rec.HasLabel(marker) {
			continue
		}
		if err := e.host.ReplaceLabels(ctx, c.rec.ID, append(c.rec.Labels, marker)); err != nil {
			slog.Warn("marker write failed", "record", c.rec.ID, "error", err)
		}
	}

	if suspended > 0 {
		slog.Info("suspended extras", "group", group, "items", suspended)
	}
	return suspended, nil
}

// ReleaseNext advances every group's release queue by at most one item.
// Intended to run once per profile activation.
//
// Per group, member records are walked in ascending earliest-item order.
// A marked record releases its first held item only when every earlier
// member has been touched — a member whose new items all lack review
// history is still open and blocks the queue. The record's marker is
// removed only once its last held item is released; until then the
// marker keeps the remaining items recognizable as sequencer-suspended.
// Markers left without any held item (the user unsuspended manually, or
// another device released) are stripped during the walk. Returns the
// total items released across all groups.
func (e *Engine) ReleaseNext(ctx context.Context) (int, error) {
	if e.host == nil {
		return 0, nil
	}

	groups, err := e.AllGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("release scan: %w", err)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	released := 0
	for _, name := range names {
		n, err := e.releaseGroup(ctx, name, groups[name])
		if err != nil {
			slog.Warn("release pass failed for group", "group", name, "error", err)
			continue
		}
		released += n
	}
	return released, nil
}

func (e *Engine) releaseGroup(ctx context.Context, group string, members []card.RecordID) (int, error) {
	type member struct {
		rec     card.Record
		items   []card.Item
		minItem card.ItemID
	}

	var ordered []member
	for _, id := range members {
		rec, err := e.host.Record(ctx, id)
		if err != nil {
			slog.Warn("skipping missing member", "group", group, "record", id, "error", err)
			continue
		}
		items, err := e.host.Items(ctx, id)
		if err != nil {
			slog.Warn("skipping unreadable member", "group", group, "record", id, "error", err)
			continue
		}
		if len(items) == 0 {
			continue
		}
		ordered = append(ordered, member{rec: rec, items: items, minItem: items[0].ID})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].minItem < ordered[j].minItem })

	marker := tag.SuspendLabel(group)
	previousFullyReviewed := true
	released := 0

	for _, m := range ordered {
		if m.rec.HasLabel(marker) {
			held := heldItems(m.items)
			if len(held) == 0 {
				// Stale marker: nothing suspended remains on the record.
				if err := e.removeLabel(ctx, m.rec, marker); err != nil {
					slog.Warn("stale marker removal failed", "record", m.rec.ID, "error", err)
				}
				// Fall through: the record is an open member now.
			} else {
				if previousFullyReviewed && released == 0 {
					it := held[0]
					it.Activity = card.ActivityActive
					if err := e.host.UpdateItem(ctx, it); err != nil {
						slog.Warn("release failed", "item", it.ID, "error", err)
						continue
					}
					released++
					if len(held) == 1 {
						if err := e.removeLabel(ctx, m.rec, marker); err != nil {
							slog.Warn("marker removal failed", "record", m.rec.ID, "error", err)
						}
					}
					slog.Info("released next sibling", "group", group, "item", it.ID)
					// The freshly opened item has no history yet.
					previousFullyReviewed = false
				}
				continue
			}
		}

		if e.blocksQueue(ctx, m.items) {
			previousFullyReviewed = false
		}
	}

	return released, nil
}

// blocksQueue reports whether an open member is still untouched: it has
// new-phase items and none of them carries any review history.
func (e *Engine) blocksQueue(ctx context.Context, items []card.Item) bool {
	hasNew := false
	for _, it := range items {
		if it.Phase != card.PhaseNew || it.Activity == card.ActivitySuspended {
			continue
		}
		hasNew = true
		reviewed, err := e.host.HasReviews(ctx, it.ID)
		if err != nil {
			slog.Warn("history lookup failed", "item", it.ID, "error", err)
			continue
		}
		if reviewed {
			return false
		}
	}
	return hasNew
}

// releaseRecord unsuspends every sequencer-held new item of one record.
// Used by the full-detach path, where the markers are going away anyway.
func (e *Engine) releaseRecord(ctx context.Context, id card.RecordID) (int, error) {
	items, err := e.host.Items(ctx, id)
	if err != nil {
		return 0, err
	}
	released := 0
	for _, it := range heldItems(items) {
		it.Activity = card.ActivityActive
		if err := e.host.UpdateItem(ctx, it); err != nil {
			slog.Warn("release on detach failed", "item", it.ID, "error", err)
			continue
		}
		released++
	}
	return released, nil
}

// heldItems filters a record's items down to those the sequencer is
// holding: new phase and currently suspended. Ascending id order is
// preserved from the host.
func heldItems(items []card.Item) []card.Item {
	var held []card.Item
	for _, it := range items {
		if it.Phase == card.PhaseNew && it.Activity == card.ActivitySuspended {
			held = append(held, it)
		}
	}
	return held
}

// removeLabel rewrites a record's labels without the given label.
func (e *Engine) removeLabel(ctx context.Context, rec card.Record, label string) error {
	kept := rec.Labels[:0:0]
	for _, l := range rec.Labels {
		if l != label {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(rec.Labels) {
		return nil
	}
	return e.host.ReplaceLabels(ctx, rec.ID, kept)
}
