package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"kinmark/internal/card"
	"kinmark/internal/tag"
)

// Mark declares the items' owning records siblings of one group.
//
// Name resolution: a caller-supplied name is sanitized (generated when
// sanitization empties it); with no name and no existing memberships a
// name is generated; with no name but existing memberships the caller
// must resolve the ambiguity — ResolveNone surfaces a choice request
// (ReasonAmbiguousGroups plus the candidate list) with nothing mutated.
//
// The membership label is written to each involved record at most once;
// re-marking an already-member record is a no-op for that record. After
// the write the separation pipeline runs for the resolved group: new
// items are sequenced behind one open record, due review items spread.
func (e *Engine) Mark(ctx context.Context, items []card.ItemID, name string, resolve Resolution) (MarkResult, error) {
	if e.host == nil {
		return MarkResult{Reason: ReasonNoCollection}, nil
	}

	records := e.recordsOf(ctx, items)
	if len(records) < 2 {
		return MarkResult{Reason: ReasonTooFewRecords}, nil
	}

	existing, err := e.existingGroups(ctx, records)
	if err != nil {
		return MarkResult{}, err
	}

	var group string
	switch {
	case name != "":
		s, ok := tag.Sanitize(name)
		if !ok {
			s = e.generate()
		}
		group = s
	case len(existing) == 0:
		group = e.generate()
	case resolve == ResolveUseExisting:
		group = existing[0]
	case resolve == ResolveCreateNew:
		group = e.generate()
	default:
		return MarkResult{Reason: ReasonAmbiguousGroups, Existing: existing}, nil
	}

	modified := e.addLabel(ctx, records, group)

	if _, err := e.SuspendExtras(ctx, group, records); err != nil {
		return MarkResult{}, fmt.Errorf("suspend extras for %q: %w", group, err)
	}
	if _, err := e.Spread(ctx, group, e.minGap); err != nil {
		return MarkResult{}, fmt.Errorf("spread %q: %w", group, err)
	}

	slog.Info("marked siblings", "group", group, "records", len(records), "modified", modified)
	return MarkResult{Group: group, Modified: modified, Reason: ReasonOK}, nil
}

// AddToGroup attaches the items' records to an existing group. Unlike
// Mark this does not run the separation pipeline: it is the "add one
// more record later" path, reconciled at the next profile activation.
func (e *Engine) AddToGroup(ctx context.Context, items []card.ItemID, name string) (MarkResult, error) {
	if e.host == nil {
		return MarkResult{Reason: ReasonNoCollection}, nil
	}

	group, ok := tag.Sanitize(name)
	if !ok {
		return MarkResult{Reason: ReasonNoSuchGroup}, nil
	}
	members, err := e.MembersOf(ctx, group)
	if err != nil {
		return MarkResult{}, err
	}
	if len(members) == 0 {
		return MarkResult{Group: group, Reason: ReasonNoSuchGroup}, nil
	}

	records := e.recordsOf(ctx, items)
	if len(records) == 0 {
		return MarkResult{Group: group, Reason: ReasonNotFound}, nil
	}

	modified := e.addLabel(ctx, records, group)
	slog.Info("added to group", "group", group, "modified", modified)
	return MarkResult{Group: group, Modified: modified, Reason: ReasonOK}, nil
}

// Unmark detaches the items' records from every sibling group: all
// membership labels and all suspension markers are removed. This is a
// full detach by contract, not a per-group removal. Items the sequencer
// was holding suspended are released alongside their markers so the
// detach cannot strand them outside any group's release scan.
func (e *Engine) Unmark(ctx context.Context, items []card.ItemID) (UnmarkResult, error) {
	if e.host == nil {
		return UnmarkResult{Reason: ReasonNoCollection}, nil
	}

	modified := 0
	released := 0
	for _, id := range e.recordsOf(ctx, items) {
		rec, err := e.host.Record(ctx, id)
		if err != nil {
			slog.Warn("skipping missing record", "record", id, "error", err)
			continue
		}

		hadMarker := len(markerGroupsFromLabels(rec.Labels)) > 0
		kept := rec.Labels[:0:0]
		for _, l := range rec.Labels {
			if _, ok := tag.FromLabel(l); ok {
				continue
			}
			if _, ok := tag.FromSuspendLabel(l); ok {
				continue
			}
			kept = append(kept, l)
		}
		if len(kept) == len(rec.Labels) {
			continue
		}

		if hadMarker {
			n, err := e.releaseRecord(ctx, rec.ID)
			if err != nil {
				slog.Warn("release on unmark failed", "record", rec.ID, "error", err)
			} else {
				released += n
			}
		}

		if err := e.host.ReplaceLabels(ctx, rec.ID, kept); err != nil {
			slog.Warn("unmark label write failed", "record", rec.ID, "error", err)
			continue
		}
		modified++
	}

	slog.Info("unmarked records", "modified", modified, "released", released)
	return UnmarkResult{Modified: modified, Released: released, Reason: ReasonOK}, nil
}

// Info reports each involved record's group memberships.
func (e *Engine) Info(ctx context.Context, items []card.ItemID) ([]RecordInfo, error) {
	if e.host == nil {
		return nil, nil
	}

	var infos []RecordInfo
	for _, id := range e.recordsOf(ctx, items) {
		groups, err := e.GroupsOf(ctx, id)
		if err != nil {
			slog.Warn("skipping unreadable record", "record", id, "error", err)
			continue
		}
		infos = append(infos, RecordInfo{Record: id, Groups: groups})
	}
	return infos, nil
}

// addLabel writes the group's membership label to each record that does
// not already carry it, returning the count of records modified.
func (e *Engine) addLabel(ctx context.Context, records []card.RecordID, group string) int {
	label := tag.ToLabel(group)
	modified := 0
	for _, id := range records {
		rec, err := e.host.Record(ctx, id)
		if err != nil {
			slog.Warn("skipping missing record", "record", id, "error", err)
			continue
		}
		if rec.HasLabel(label) {
			continue
		}
		if err := e.host.ReplaceLabels(ctx, id, append(rec.Labels, label)); err != nil {
			slog.Warn("label write failed", "record", id, "label", label, "error", err)
			continue
		}
		modified++
	}
	return modified
}

// existingGroups collects the sorted union of group memberships across
// the given records.
func (e *Engine) existingGroups(ctx context.Context, records []card.RecordID) ([]string, error) {
	seen := make(map[string]struct{})
	for _, id := range records {
		rec, err := e.host.Record(ctx, id)
		if err != nil {
			slog.Warn("skipping missing record", "record", id, "error", err)
			continue
		}
		for _, name := range groupsFromLabels(rec.Labels) {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
