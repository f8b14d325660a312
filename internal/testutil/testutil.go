// Package testutil provides deterministic fixtures for engine and
// harness tests: seeded in-memory collections and predictable group-name
// sources.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"kinmark/internal/card"
	"kinmark/internal/collection"
)

// NewCollection opens an in-memory collection closed on test cleanup.
func NewCollection(t *testing.T) *collection.Store {
	t.Helper()
	s, err := collection.OpenMemory()
	if err != nil {
		t.Fatalf("open memory collection: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NameSequence returns a name source yielding g01, g02, ... in order.
// Installed via engine.WithNameSource for deterministic generated names.
func NameSequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("g%02d", n)
	}
}

// MustRecord seeds a record with the given labels.
func MustRecord(t *testing.T, s *collection.Store, id card.RecordID, labels ...string) {
	t.Helper()
	if err := s.CreateRecord(context.Background(), id, labels); err != nil {
		t.Fatalf("seed record %d: %v", id, err)
	}
}

// MustItem seeds an item.
func MustItem(t *testing.T, s *collection.Store, it card.Item) {
	t.Helper()
	if err := s.CreateItem(context.Background(), it); err != nil {
		t.Fatalf("seed item %d: %v", it.ID, err)
	}
}

// MustReview seeds a review-history entry.
func MustReview(t *testing.T, s *collection.Store, rev card.Review) {
	t.Helper()
	if err := s.AddReview(context.Background(), rev); err != nil {
		t.Fatalf("seed review for item %d: %v", rev.ItemID, err)
	}
}

// MustToday sets the scheduling day.
func MustToday(t *testing.T, s *collection.Store, day int) {
	t.Helper()
	if err := s.SetToday(context.Background(), day); err != nil {
		t.Fatalf("set scheduling day: %v", err)
	}
}

// NewItem is a shorthand for an active item.
func NewItem(id card.ItemID, rec card.RecordID, phase card.Phase, due int) card.Item {
	return card.Item{ID: id, RecordID: rec, Phase: phase, Activity: card.ActivityActive, Due: due}
}
