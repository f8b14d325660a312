package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinmark/internal/card"
	"kinmark/internal/tag"
	"kinmark/internal/testutil"
)

func TestSuspendExtras(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	// Earliest new item decides who stays open, not record id.
	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x")
	testutil.MustRecord(t, s, 3, "sibling::x")
	testutil.MustItem(t, s, testutil.NewItem(15, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(21, 2, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(22, 2, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(31, 3, card.PhaseNew, 0))

	suspended, err := e.SuspendExtras(ctx, "x", []card.RecordID{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, suspended)

	// Record 1 (item 15) comes first only if its item id is lowest; here
	// record 1's item 15 beats 21 and 31, so it stays open.
	it, err := s.Item(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, card.ActivityActive, it.Activity)

	for _, id := range []card.ItemID{21, 22, 31} {
		it, err := s.Item(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, card.ActivitySuspended, it.Activity, "item %d", id)
	}

	for _, rid := range []card.RecordID{2, 3} {
		rec, err := s.Record(ctx, rid)
		require.NoError(t, err)
		assert.True(t, rec.HasLabel(tag.SuspendLabel("x")), "record %d", rid)
	}
	rec, err := s.Record(ctx, 1)
	require.NoError(t, err)
	assert.False(t, rec.HasLabel(tag.SuspendLabel("x")))
}

func TestSuspendExtras_SingleCandidate(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	// Only one record has unsuspended new items: nothing to sequence.
	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(21, 2, card.PhaseReview, 5))

	suspended, err := e.SuspendExtras(ctx, "x", []card.RecordID{1, 2})
	require.NoError(t, err)
	assert.Zero(t, suspended)
}

func TestReleaseNext_BlockedByUntouchedMember(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x", "sibling-suspended::x")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, card.Item{ID: 21, RecordID: 2, Phase: card.PhaseNew, Activity: card.ActivitySuspended})

	released, err := e.ReleaseNext(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)

	it, err := s.Item(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, card.ActivitySuspended, it.Activity)
}

func TestReleaseNext_ReleasesAfterReview(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x", "sibling-suspended::x")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, card.Item{ID: 21, RecordID: 2, Phase: card.PhaseNew, Activity: card.ActivitySuspended})
	testutil.MustReview(t, s, card.Review{ID: 1, ItemID: 11})

	released, err := e.ReleaseNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	it, err := s.Item(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, card.ActivityActive, it.Activity)

	// Last held item gone, marker gone with it.
	rec, err := s.Record(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"sibling::x"}, rec.Labels)
}

func TestReleaseNext_MarkerStaysWhileItemsHeld(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x", "sibling-suspended::x")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, card.Item{ID: 21, RecordID: 2, Phase: card.PhaseNew, Activity: card.ActivitySuspended})
	testutil.MustItem(t, s, card.Item{ID: 22, RecordID: 2, Phase: card.PhaseNew, Activity: card.ActivitySuspended})
	testutil.MustReview(t, s, card.Review{ID: 1, ItemID: 11})

	released, err := e.ReleaseNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	// Lowest held item first; the marker survives for item 22.
	it, err := s.Item(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, card.ActivityActive, it.Activity)
	it, err = s.Item(ctx, 22)
	require.NoError(t, err)
	assert.Equal(t, card.ActivitySuspended, it.Activity)

	rec, err := s.Record(ctx, 2)
	require.NoError(t, err)
	assert.True(t, rec.HasLabel(tag.SuspendLabel("x")))
}

func TestReleaseNext_OnePerGroupPerPass(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x", "sibling-suspended::x")
	testutil.MustRecord(t, s, 3, "sibling::x", "sibling-suspended::x")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, card.Item{ID: 21, RecordID: 2, Phase: card.PhaseNew, Activity: card.ActivitySuspended})
	testutil.MustItem(t, s, card.Item{ID: 31, RecordID: 3, Phase: card.PhaseNew, Activity: card.ActivitySuspended})
	testutil.MustReview(t, s, card.Review{ID: 1, ItemID: 11})

	released, err := e.ReleaseNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	// Only the earliest held record advanced.
	it, err := s.Item(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, card.ActivityActive, it.Activity)
	it, err = s.Item(ctx, 31)
	require.NoError(t, err)
	assert.Equal(t, card.ActivitySuspended, it.Activity)
}

func TestReleaseNext_IndependentGroupsAdvanceTogether(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1, "sibling::a")
	testutil.MustRecord(t, s, 2, "sibling::a", "sibling-suspended::a")
	testutil.MustRecord(t, s, 3, "sibling::b")
	testutil.MustRecord(t, s, 4, "sibling::b", "sibling-suspended::b")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, card.Item{ID: 21, RecordID: 2, Phase: card.PhaseNew, Activity: card.ActivitySuspended})
	testutil.MustItem(t, s, testutil.NewItem(31, 3, card.PhaseNew, 0))
	testutil.MustItem(t, s, card.Item{ID: 41, RecordID: 4, Phase: card.PhaseNew, Activity: card.ActivitySuspended})
	testutil.MustReview(t, s, card.Review{ID: 1, ItemID: 11})
	testutil.MustReview(t, s, card.Review{ID: 2, ItemID: 31})

	released, err := e.ReleaseNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, released)
}

func TestReleaseNext_StripsStaleMarker(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	// Marker present but nothing is held: the user unsuspended by hand.
	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x", "sibling-suspended::x")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(21, 2, card.PhaseNew, 0))

	released, err := e.ReleaseNext(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)

	rec, err := s.Record(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"sibling::x"}, rec.Labels)
}

func TestBlocksQueue(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1)
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(12, 1, card.PhaseReview, 5))

	items, err := s.Items(ctx, 1)
	require.NoError(t, err)
	assert.True(t, e.blocksQueue(ctx, items), "unreviewed new item blocks")

	testutil.MustReview(t, s, card.Review{ID: 1, ItemID: 11})
	assert.False(t, e.blocksQueue(ctx, items), "any reviewed new item unblocks")
}

func TestBlocksQueue_NoNewItems(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1)
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseReview, 5))

	items, err := s.Items(ctx, 1)
	require.NoError(t, err)
	assert.False(t, e.blocksQueue(ctx, items))
}
