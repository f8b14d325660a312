package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kinmark/internal/card"
	"kinmark/internal/tag"
)

// LastCheckKey is the host configuration key holding the catch-up
// scanner's high-water mark, in epoch milliseconds.
const LastCheckKey = "kinmark_last_check"

// Host is the collection/scheduler boundary the engine runs against.
// The engine calls it, never implements it. All list results must be
// ordered by id ascending so scans are deterministic across devices.
type Host interface {
	// Queries.
	RecordsWithLabelPrefix(ctx context.Context, prefix string) ([]card.Record, error)
	Record(ctx context.Context, id card.RecordID) (card.Record, error)
	Item(ctx context.Context, id card.ItemID) (card.Item, error)
	Items(ctx context.Context, id card.RecordID) ([]card.Item, error)
	Today(ctx context.Context) (int, error)
	HasReviews(ctx context.Context, id card.ItemID) (bool, error)
	ReviewsSince(ctx context.Context, sinceMillis int64) ([]card.Review, error)
	GetConfigInt64(ctx context.Context, key string) (int64, bool, error)

	// Mutations. The host applies its own semantics (bury duration,
	// scheduling) — the engine only issues the commands.
	ReplaceLabels(ctx context.Context, id card.RecordID, labels []string) error
	UpdateItem(ctx context.Context, it card.Item) error
	Bury(ctx context.Context, ids []card.ItemID) error
	SetConfigInt64(ctx context.Context, key string, v int64) error
}

// Engine is the sibling coordination engine. All operations are
// synchronous and run to completion inside the triggering event's
// handler; there is no internal concurrency.
type Engine struct {
	host     Host
	minGap   int
	pushDays int
	generate func() string
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinGap sets the minimum gap in days enforced by the due-date
// spreader. Default 1.
func WithMinGap(days int) Option {
	return func(e *Engine) {
		if days >= 1 {
			e.minGap = days
		}
	}
}

// WithAnswerPush sets the fixed offset in days the per-answer reschedule
// pushes due siblings out by. Default 1.
func WithAnswerPush(days int) Option {
	return func(e *Engine) {
		if days >= 1 {
			e.pushDays = days
		}
	}
}

// WithNameSource replaces the random group-name generator.
// Tests and the scenario harness install a deterministic sequence.
func WithNameSource(f func() string) Option {
	return func(e *Engine) { e.generate = f }
}

// WithNow replaces the wall clock used for the last-check timestamp.
func WithNow(f func() time.Time) Option {
	return func(e *Engine) { e.now = f }
}

// New creates an Engine bound to a host collection. A nil host is legal:
// every operation then refuses with ReasonNoCollection, mirroring the
// "no collection open" state of the real application.
func New(host Host, opts ...Option) *Engine {
	e := &Engine{
		host:     host,
		minGap:   1,
		pushDays: 1,
		generate: tag.GenerateName,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnAnswer handles an item-answered event: buries eligible siblings and
// pushes due review-phase siblings out by the configured offset.
func (e *Engine) OnAnswer(ctx context.Context, id card.ItemID) (AnswerResult, error) {
	if e.host == nil {
		return AnswerResult{Reason: ReasonNoCollection}, nil
	}

	it, err := e.host.Item(ctx, id)
	if err != nil {
		slog.Warn("answered item not found", "item", id, "error", err)
		return AnswerResult{Reason: ReasonNotFound}, nil
	}

	buried, err := e.BuryOnAnswer(ctx, it)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("bury on answer: %w", err)
	}
	pushed, err := e.RescheduleOnAnswer(ctx, it, e.pushDays)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("reschedule on answer: %w", err)
	}

	return AnswerResult{Buried: buried, Pushed: pushed, Reason: ReasonOK}, nil
}

// OnSyncFinished handles a sync-finished event by replaying remote
// review history through the bury coordinator.
func (e *Engine) OnSyncFinished(ctx context.Context) (CatchUpResult, error) {
	return e.CatchUp(ctx)
}

// OnProfileActivated reconciles accumulated drift: catch up on remote
// reviews, advance every group's release queue by one step, and re-spread
// due dates across all groups.
func (e *Engine) OnProfileActivated(ctx context.Context) (ReconcileResult, error) {
	if e.host == nil {
		return ReconcileResult{Reason: ReasonNoCollection}, nil
	}

	cu, err := e.CatchUp(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("catch up: %w", err)
	}

	released, err := e.ReleaseNext(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("release next: %w", err)
	}

	rescheduled, err := e.SpreadAll(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("spread all: %w", err)
	}

	return ReconcileResult{
		CatchUp:     cu,
		Released:    released,
		Rescheduled: rescheduled,
		Reason:      ReasonOK,
	}, nil
}

// recordsOf resolves item identifiers to their distinct owning records,
// sorted ascending. Items that no longer exist are skipped.
func (e *Engine) recordsOf(ctx context.Context, items []card.ItemID) []card.RecordID {
	seen := make(map[card.RecordID]struct{})
	for _, id := range items {
		it, err := e.host.Item(ctx, id)
		if err != nil {
			slog.Warn("skipping missing item", "item", id, "error", err)
			continue
		}
		seen[it.RecordID] = struct{}{}
	}
	return sortedRecordIDs(seen)
}
