package variable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/stochtime/variable"
)

func TestSet_InsertionOrder(t *testing.T) {
	t.Parallel()

	s := variable.NewSet("b", "a", "b", "c")
	require.Equal(t, []variable.Variable{"b", "a", "c"}, s.Slice())
	require.Equal(t, 3, s.Len())
}

func TestSet_RemoveReindexes(t *testing.T) {
	t.Parallel()

	s := variable.NewSet("a", "b", "c")
	require.True(t, s.Remove("b"))
	require.Equal(t, []variable.Variable{"a", "c"}, s.Slice())
	require.Equal(t, 1, s.IndexOf("c"))
	require.False(t, s.Remove("b"))
}

func TestSet_Clone_Independent(t *testing.T) {
	t.Parallel()

	s := variable.NewSet("a", "b")
	c := s.Clone()
	c.Add("z")
	require.Equal(t, 2, s.Len())
	require.Equal(t, 3, c.Len())
}

func TestGround(t *testing.T) {
	t.Parallel()

	require.True(t, variable.TStar.IsGround())
	require.False(t, variable.X.IsGround())
}
