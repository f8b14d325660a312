package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinmark/internal/card"
	"kinmark/internal/collection"
	"kinmark/internal/testutil"
)

// newEngine builds an engine over a fresh in-memory collection with a
// deterministic name source.
func newEngine(t *testing.T, opts ...Option) (*Engine, *collection.Store) {
	t.Helper()
	s := testutil.NewCollection(t)
	base := []Option{WithNameSource(testutil.NameSequence())}
	return New(s, append(base, opts...)...), s
}

// seedPair seeds two records each owning one new item (11 and 21).
func seedPair(t *testing.T, s *collection.Store) {
	t.Helper()
	testutil.MustRecord(t, s, 1)
	testutil.MustRecord(t, s, 2)
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(21, 2, card.PhaseNew, 0))
}

func TestNilHost_RefusesEverything(t *testing.T) {
	ctx := context.Background()
	e := New(nil)

	mark, err := e.Mark(ctx, []card.ItemID{1, 2}, "x", ResolveNone)
	require.NoError(t, err)
	assert.Equal(t, ReasonNoCollection, mark.Reason)

	unmark, err := e.Unmark(ctx, []card.ItemID{1})
	require.NoError(t, err)
	assert.Equal(t, ReasonNoCollection, unmark.Reason)

	answer, err := e.OnAnswer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ReasonNoCollection, answer.Reason)

	cu, err := e.CatchUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonNoCollection, cu.Reason)

	rec, err := e.OnProfileActivated(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonNoCollection, rec.Reason)
}

func TestOnAnswer_MissingItem(t *testing.T) {
	e, _ := newEngine(t)
	res, err := e.OnAnswer(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, ReasonNotFound, res.Reason)
}

func TestOnAnswer_UngroupedItemIsNoop(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1)
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))

	res, err := e.OnAnswer(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, ReasonOK, res.Reason)
	assert.Zero(t, res.Buried)
	assert.Zero(t, res.Pushed)
}

func TestOnProfileActivated_ComposesPasses(t *testing.T) {
	clock := time.UnixMilli(1_700_000_000_000)
	e, s := newEngine(t, WithNow(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()
	testutil.MustToday(t, s, 10)

	// Group of three: record 1 open, records 2 and 3 held back.
	testutil.MustRecord(t, s, 1)
	testutil.MustRecord(t, s, 2)
	testutil.MustRecord(t, s, 3)
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(21, 2, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(31, 3, card.PhaseNew, 0))

	mark, err := e.Mark(ctx, []card.ItemID{11, 21, 31}, "verbs", ResolveNone)
	require.NoError(t, err)
	require.Equal(t, ReasonOK, mark.Reason)

	// First activation initializes catch-up and releases nothing: the
	// open record has no history yet.
	res, err := e.OnProfileActivated(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonOK, res.Reason)
	assert.Zero(t, res.CatchUp.Replayed)
	assert.Zero(t, res.Released)

	// After the open record is reviewed the next activation releases one.
	testutil.MustReview(t, s, card.Review{ID: 1, ItemID: 11})
	res, err = e.OnProfileActivated(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Released)

	it, err := s.Item(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, card.ActivityActive, it.Activity)
}

func TestRecordsOf_DedupesAndSorts(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 2)
	testutil.MustRecord(t, s, 1)
	testutil.MustItem(t, s, testutil.NewItem(11, 1, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(21, 2, card.PhaseNew, 0))
	testutil.MustItem(t, s, testutil.NewItem(22, 2, card.PhaseNew, 0))

	got := e.recordsOf(ctx, []card.ItemID{22, 11, 21, 999})
	assert.Equal(t, []card.RecordID{1, 2}, got)
}
