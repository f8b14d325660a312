package engine

import (
	"context"
	"log/slog"
	"sort"

	"kinmark/internal/card"
	"kinmark/internal/tag"
)

// ImportLegacy replays a legacy flat-file grouping (group name → item
// identifiers, the pre-label private storage format) through the
// add-label path. Group names are sanitized the same way user input is;
// a name that sanitizes to nothing gets a generated one. Items that no
// longer exist are skipped. Groups are processed in name order so the
// import is deterministic. No separation pipeline runs — the next
// profile activation reconciles sequencing and spreading.
func (e *Engine) ImportLegacy(ctx context.Context, groups map[string][]card.ItemID) (ImportResult, error) {
	if e.host == nil {
		return ImportResult{Reason: ReasonNoCollection}, nil
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	imported := 0
	modified := 0
	for _, name := range names {
		group, ok := tag.Sanitize(name)
		if !ok {
			group = e.generate()
		}

		records := e.recordsOf(ctx, groups[name])
		if len(records) == 0 {
			slog.Warn("legacy group has no surviving records", "group", name)
			continue
		}

		n := e.addLabel(ctx, records, group)
		modified += n
		imported++
		slog.Info("imported legacy group", "group", group, "records", len(records), "modified", n)
	}

	return ImportResult{Groups: imported, Modified: modified, Reason: ReasonOK}, nil
}
