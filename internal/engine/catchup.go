package engine

import (
	"context"
	"fmt"
	"log/slog"

	"kinmark/internal/card"
)

// CatchUp replays review-history entries recorded while this engine was
// not resident — reviews from another device, or performed during sync.
// Entries newer than the stored last-check timestamp are deduplicated by
// item and fed through the bury coordinator as if each item had just
// been answered locally.
//
// The timestamp is advanced to now after the pass completes, even when
// zero entries were found or every lookup failed, so deleted items can
// never cause unbounded rescanning. It is never advanced speculatively
// before replay is attempted. On first activation the key is initialized
// to now without replaying: history predating installation is not ours.
func (e *Engine) CatchUp(ctx context.Context) (CatchUpResult, error) {
	if e.host == nil {
		return CatchUpResult{Reason: ReasonNoCollection}, nil
	}

	nowMillis := e.now().UnixMilli()

	last, ok, err := e.host.GetConfigInt64(ctx, LastCheckKey)
	if err != nil {
		return CatchUpResult{}, fmt.Errorf("read last check: %w", err)
	}
	if !ok {
		if err := e.host.SetConfigInt64(ctx, LastCheckKey, nowMillis); err != nil {
			return CatchUpResult{}, fmt.Errorf("init last check: %w", err)
		}
		slog.Info("catch-up initialized", "now", nowMillis)
		return CatchUpResult{Reason: ReasonOK}, nil
	}

	if nowMillis < last {
		// Wall clock went backwards; the high-water mark never does.
		nowMillis = last
	}

	reviews, err := e.host.ReviewsSince(ctx, last)
	if err != nil {
		return CatchUpResult{}, fmt.Errorf("reviews since %d: %w", last, err)
	}

	seen := make(map[card.ItemID]struct{})
	buried := 0
	replayed := 0
	for _, rev := range reviews {
		if _, dup := seen[rev.ItemID]; dup {
			continue
		}
		seen[rev.ItemID] = struct{}{}
		replayed++

		it, err := e.host.Item(ctx, rev.ItemID)
		if err != nil {
			slog.Warn("skipping reviewed item", "item", rev.ItemID, "error", err)
			continue
		}
		n, err := e.BuryOnAnswer(ctx, it)
		if err != nil {
			slog.Warn("catch-up bury failed", "item", rev.ItemID, "error", err)
			continue
		}
		buried += n
	}

	if err := e.host.SetConfigInt64(ctx, LastCheckKey, nowMillis); err != nil {
		return CatchUpResult{}, fmt.Errorf("advance last check: %w", err)
	}

	if replayed > 0 {
		slog.Info("catch-up complete", "replayed", replayed, "buried", buried)
	}
	return CatchUpResult{Replayed: replayed, Buried: buried, Reason: ReasonOK}, nil
}
