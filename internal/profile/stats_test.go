package profile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	assert.Nil(t, ComputeStats(nil))

	st := ComputeStats([]float64{9, 2, 4, 4, 4, 5, 5, 7})
	require.NotNil(t, st)
	assert.Equal(t, 2.0, st.Min)
	assert.Equal(t, 9.0, st.Max)
	assert.Equal(t, 5.0, st.Mean)
	assert.Equal(t, 4.5, st.Median)
	assert.InDelta(t, 2.0, st.StdDev, 1e-12, "population std dev divides by N")

	odd := ComputeStats([]float64{3, 1, 2})
	require.NotNil(t, odd)
	assert.Equal(t, 2.0, odd.Median)

	one := ComputeStats([]float64{7})
	require.NotNil(t, one)
	assert.Equal(t, 0.0, one.StdDev)
	assert.False(t, math.IsNaN(one.Mean))
}

func TestComputeStatsDoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	ComputeStats(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestComputeFencesConcreteCase(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}
	f, ok := ComputeFences(vals, SensitivityMedium)
	require.True(t, ok)
	assert.Equal(t, 3.0, f.Q1)
	assert.Equal(t, 8.0, f.Q3)
	assert.Equal(t, 5.0, f.IQR)
	assert.Equal(t, -4.5, f.Lower)
	assert.Equal(t, 15.5, f.Upper)

	outs, _, ok := DetectOutliers(vals, SensitivityMedium)
	require.True(t, ok)
	assert.Equal(t, []float64{100}, outs)
}

func TestFenceMultiplier(t *testing.T) {
	assert.Equal(t, 3.0, FenceMultiplier(SensitivityLow))
	assert.Equal(t, 1.5, FenceMultiplier(SensitivityMedium))
	assert.Equal(t, 1.0, FenceMultiplier(SensitivityHigh))
	assert.Equal(t, 1.5, FenceMultiplier(""))
}

func TestComputeFencesNeedsMoreThanFiveSamples(t *testing.T) {
	_, ok := ComputeFences([]float64{1, 2, 3, 4, 500}, SensitivityHigh)
	assert.False(t, ok)
	_, ok = ComputeFences(nil, SensitivityMedium)
	assert.False(t, ok)
}

func TestOutlierSeverityIsInvertedForHighSensitivity(t *testing.T) {
	assert.Equal(t, SeverityHigh, outlierSeverity(SensitivityLow))
	assert.Equal(t, SeverityHigh, outlierSeverity(SensitivityMedium))
	assert.Equal(t, SeverityMedium, outlierSeverity(SensitivityHigh))
}
