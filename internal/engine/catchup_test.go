package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinmark/internal/card"
	"kinmark/internal/testutil"
)

func fixedClock(millis int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(millis) }
}

func TestCatchUp_FirstRunInitializesOnly(t *testing.T) {
	e, s := newEngine(t, WithNow(fixedClock(5_000)))
	ctx := context.Background()

	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(21, 2, card.PhaseNew, 0))
	testutil.MustReview(t, s, card.Review{ID: 1_000, ItemID: 11})

	// History predating installation is not replayed.
	res, err := e.CatchUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonOK, res.Reason)
	assert.Zero(t, res.Replayed)

	last, ok, err := s.GetConfigInt64(ctx, LastCheckKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5_000), last)
}

func TestCatchUp_ReplaysNewReviews(t *testing.T) {
	clock := int64(5_000)
	e, s := newEngine(t, WithNow(func() time.Time { return time.UnixMilli(clock) }))
	ctx := context.Background()
	testutil.MustToday(t, s, 10)

	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(21, 2, card.PhaseNew, 0))

	_, err := e.CatchUp(ctx)
	require.NoError(t, err)

	// A review lands from another device, then time passes.
	testutil.MustReview(t, s, card.Review{ID: 6_000, ItemID: 11})
	clock = 10_000

	res, err := e.CatchUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replayed)
	assert.Equal(t, 1, res.Buried)

	it, err := s.Item(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, card.ActivityBuried, it.Activity)

	last, _, err := s.GetConfigInt64(ctx, LastCheckKey)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), last)

	// The same entry is never replayed twice.
	clock = 11_000
	res, err = e.CatchUp(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Replayed)
}

func TestCatchUp_DeduplicatesByItem(t *testing.T) {
	clock := int64(5_000)
	e, s := newEngine(t, WithNow(func() time.Time { return time.UnixMilli(clock) }))
	ctx := context.Background()
	testutil.MustToday(t, s, 10)

	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::x")
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(21, 2, card.PhaseNew, 0))

	_, err := e.CatchUp(ctx)
	require.NoError(t, err)

	testutil.MustReview(t, s, card.Review{ID: 6_000, ItemID: 11})
	testutil.MustReview(t, s, card.Review{ID: 6_001, ItemID: 11})
	testutil.MustReview(t, s, card.Review{ID: 6_002, ItemID: 11})
	clock = 10_000

	res, err := e.CatchUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replayed)
}

func TestCatchUp_SkipsDeletedItems(t *testing.T) {
	clock := int64(5_000)
	e, s := newEngine(t, WithNow(func() time.Time { return time.UnixMilli(clock) }))
	ctx := context.Background()

	testutil.MustRecord(t, s, 1)
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))

	_, err := e.CatchUp(ctx)
	require.NoError(t, err)

	// A review for an item that no longer exists must not wedge the scan.
	testutil.MustReview(t, s, card.Review{ID: 6_000, ItemID: 999})
	clock = 10_000

	res, err := e.CatchUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replayed)
	assert.Zero(t, res.Buried)

	// The mark still advanced, so the dangling entry is not rescanned.
	last, _, err := s.GetConfigInt64(ctx, LastCheckKey)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), last)
}

func TestCatchUp_ClockNeverRegresses(t *testing.T) {
	clock := int64(10_000)
	e, s := newEngine(t, WithNow(func() time.Time { return time.UnixMilli(clock) }))
	ctx := context.Background()

	testutil.MustRecord(t, s, 1)
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))

	_, err := e.CatchUp(ctx)
	require.NoError(t, err)

	// Wall clock jumps backwards; the high-water mark must hold.
	clock = 2_000
	_, err = e.CatchUp(ctx)
	require.NoError(t, err)

	last, _, err := s.GetConfigInt64(ctx, LastCheckKey)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), last)
}
