package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinmark/internal/card"
	"kinmark/internal/testutil"
)

func TestAllGroups(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 3, "sibling::x")
	testutil.MustRecord(t, s, 1, "sibling::x", "sibling::y")
	testutil.MustRecord(t, s, 2, "sibling::y", "unrelated")

	groups, err := e.AllGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []card.RecordID{1, 3}, groups["x"])
	assert.Equal(t, []card.RecordID{1, 2}, groups["y"])
}

func TestAllGroups_IgnoresMarkersAndForeignLabels(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1, "sibling-suspended::x", "unrelated", "marked")

	groups, err := e.AllGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestMembersOf_ExactNameOnly(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	// "xy" shares the prefix of "x" and must not leak into its members.
	testutil.MustRecord(t, s, 1, "sibling::x")
	testutil.MustRecord(t, s, 2, "sibling::xy")

	members, err := e.MembersOf(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, []card.RecordID{1}, members)

	members, err = e.MembersOf(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestGroupsOf(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()

	testutil.MustRecord(t, s, 1, "sibling::zeta", "sibling::alpha", "other")

	groups, err := e.GroupsOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, groups)

	_, err = e.GroupsOf(ctx, 404)
	require.Error(t, err)
}
