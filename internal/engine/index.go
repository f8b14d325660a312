package engine

import (
	"context"
	"fmt"
	"sort"

	"kinmark/internal/card"
	"kinmark/internal/tag"
)

// AllGroups reconstructs the group → member-records mapping from the
// current label state. The result is deduplicated and order-independent:
// scanning records in any order yields the same mapping. Nothing is
// cached — the host mutates labels outside the engine's control, so a
// stale cache would silently desynchronize.
func (e *Engine) AllGroups(ctx context.Context) (map[string][]card.RecordID, error) {
	records, err := e.host.RecordsWithLabelPrefix(ctx, tag.GroupPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan sibling labels: %w", err)
	}

	groups := make(map[string][]card.RecordID)
	for _, rec := range records {
		for _, name := range groupsFromLabels(rec.Labels) {
			if containsRecord(groups[name], rec.ID) {
				// Two labels for the same group on one record; tolerated,
				// contributes once.
				continue
			}
			groups[name] = append(groups[name], rec.ID)
		}
	}

	for name := range groups {
		ids := groups[name]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	return groups, nil
}

// MembersOf returns the records currently carrying the group's
// membership label, ascending.
func (e *Engine) MembersOf(ctx context.Context, name string) ([]card.RecordID, error) {
	records, err := e.host.RecordsWithLabelPrefix(ctx, tag.ToLabel(name))
	if err != nil {
		return nil, fmt.Errorf("members of %q: %w", name, err)
	}

	label := tag.ToLabel(name)
	var ids []card.RecordID
	for _, rec := range records {
		// Prefix scan also matches longer names (sibling::x vs
		// sibling::xy); keep exact membership only.
		if rec.HasLabel(label) {
			ids = append(ids, rec.ID)
		}
	}
	return ids, nil
}

// GroupsOf returns the sibling groups a record belongs to, sorted.
func (e *Engine) GroupsOf(ctx context.Context, id card.RecordID) ([]string, error) {
	rec, err := e.host.Record(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("groups of record %d: %w", id, err)
	}
	return groupsFromLabels(rec.Labels), nil
}

// groupsFromLabels extracts the sorted, deduplicated group names encoded
// in a label set.
func groupsFromLabels(labels []string) []string {
	seen := make(map[string]struct{})
	for _, l := range labels {
		if name, ok := tag.FromLabel(l); ok {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// markerGroupsFromLabels extracts the sorted group names of suspension
// markers in a label set.
func markerGroupsFromLabels(labels []string) []string {
	seen := make(map[string]struct{})
	for _, l := range labels {
		if name, ok := tag.FromSuspendLabel(l); ok {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func containsRecord(ids []card.RecordID, id card.RecordID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sortedRecordIDs(set map[card.RecordID]struct{}) []card.RecordID {
	ids := make([]card.RecordID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedItemIDs(set map[card.ItemID]struct{}) []card.ItemID {
	ids := make([]card.ItemID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
