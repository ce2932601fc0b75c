package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/tally/internal/errors"
)

func TestSessions_All(t *testing.T) {
	store := seedStore(t, "START A x", "START B y", "START A x")

	tl, err := Sessions(context.Background(), store, SessionsInput{})
	require.NoError(t, err)
	require.Equal(t, 3, tl.Total)
	require.Equal(t, 1, tl.Active)
}

func TestSessions_CategoryFilter(t *testing.T) {
	store := seedStore(t, "START A x", "START B y", "START A x")

	tl, err := Sessions(context.Background(), store, SessionsInput{Category: "A"})
	require.NoError(t, err)
	require.Equal(t, 2, tl.Total)
	require.Equal(t, 1, tl.Active, "last A session is the active one")

	tl, err = Sessions(context.Background(), store, SessionsInput{Category: "B"})
	require.NoError(t, err)
	require.Equal(t, 1, tl.Total)
	require.Equal(t, 0, tl.Active)
}

func TestCurrentSession_Op(t *testing.T) {
	cur, err := CurrentSession(context.Background(), seedStore(t, "START A x", "START B y"))
	require.NoError(t, err)
	require.Equal(t, "B", cur.Category)

	cur, err = CurrentSession(context.Background(), newStore(t))
	require.NoError(t, err)
	require.Nil(t, cur)
}

func TestRatios_Op(t *testing.T) {
	ra, err := Ratios(context.Background(), seedStore(t, "START THEORY a", "START PRACTICE b", "START PRACTICE c"))
	require.NoError(t, err)
	require.Equal(t, 3, ra.TotalEvents)
	require.InDelta(t, 0.5, ra.TheoryToPractice, 1e-9)
}

func TestProjectionOps_IOError(t *testing.T) {
	ctx := context.Background()
	store := brokenStore(t)

	_, err := Sessions(ctx, store, SessionsInput{})
	require.True(t, errors.Is(err, errors.ErrIO))
	_, err = CurrentSession(ctx, store)
	require.True(t, errors.Is(err, errors.ErrIO))
	_, err = Ratios(ctx, store)
	require.True(t, errors.Is(err, errors.ErrIO))
}
