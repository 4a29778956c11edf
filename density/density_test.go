package density_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/stochtime/decimal"
	"github.com/katalvlaran/stochtime/density"
	"github.com/katalvlaran/stochtime/expo"
	"github.com/katalvlaran/stochtime/variable"
)

func TestAddContinuous_ExponentialShortcut(t *testing.T) {
	t.Parallel()

	sd := density.New()
	pdf, err := expo.Parse("2*Exp(2,x)")
	require.NoError(t, err)
	require.NoError(t, sd.AddContinuous("a", pdf))

	mean, err := sd.Mean("a")
	require.NoError(t, err)
	require.True(t, mean.Equal(decimal.NewFromFloat(0.5)), "expected 1/rate=0.5, got %s", mean)
}

func TestAddDeterministic_ShiftAndProjectMarginalizes(t *testing.T) {
	t.Parallel()

	sd := density.New()
	require.NoError(t, sd.AddDeterministic("a", decimal.NewFromInt(3)))
	require.NoError(t, sd.AddDeterministic("b", decimal.NewFromInt(7)))

	require.NoError(t, sd.ShiftAndProject("a"))

	mean, err := sd.Mean("b")
	require.NoError(t, err)
	require.True(t, mean.Equal(decimal.NewFromInt(4)), "expected b to advance by 3, got %s", mean)
}

func TestAddSynchronized_RequiresContinuousCompanion(t *testing.T) {
	t.Parallel()

	sd := density.New()
	err := sd.AddSynchronized("s", "missing", decimal.One)
	require.ErrorIs(t, err, density.ErrNotContinuous)
}

func TestMarginalize_UnknownVariable(t *testing.T) {
	t.Parallel()

	sd := density.New()
	err := sd.Marginalize(variable.Variable("ghost"))
	require.ErrorIs(t, err, density.ErrUnknownVariable)
}
