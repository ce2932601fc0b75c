package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/tally/internal/errors"
)

func TestListEvents(t *testing.T) {
	store := seedStore(t, "START THEORY pandas", "x", "NOTE THEORY y")

	out, err := ListEvents(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, []string{"START THEORY pandas", "x", "NOTE THEORY y"}, out.Events)
	require.Equal(t, 3, out.Count)
}

func TestListEvents_Empty(t *testing.T) {
	out, err := ListEvents(context.Background(), newStore(t))
	require.NoError(t, err)
	require.NotNil(t, out.Events)
	require.Equal(t, 0, out.Count)
}

func TestListEvents_IOError(t *testing.T) {
	_, err := ListEvents(context.Background(), brokenStore(t))
	require.True(t, errors.Is(err, errors.ErrIO))
}
