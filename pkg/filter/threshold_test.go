package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func TestAdaptiveThresholdWarmup(t *testing.T) {
	a := newAdaptiveThreshold(2.0)

	// Empty and single-sample windows yield exactly the fallback.
	assert.Equal(t, 2.0, a.update(7.3))

	// From the second sample on, the statistic takes over.
	got := a.update(1.0)
	want := stat.Mean([]float64{7.3, 1}, nil) + 1.5*stat.PopStdDev([]float64{7.3, 1}, nil)
	assert.InDelta(t, want, got, 1e-12)
}

func TestAdaptiveThresholdMeanPlusStd(t *testing.T) {
	a := newAdaptiveThreshold(2.0)
	deltas := []float64{1, 2, 3, 4, 5}

	var got float64
	for _, d := range deltas {
		got = a.update(d)
	}
	// mean 3, population stddev sqrt(2): threshold 3 + 1.5*sqrt(2)
	assert.InDelta(t, 3+1.5*1.4142135623730951, got, 1e-12)
}

func TestAdaptiveThresholdWindowEviction(t *testing.T) {
	a := newAdaptiveThreshold(2.0)

	// One large outlier followed by zeros. While the outlier is inside the
	// 100-sample window it props the threshold up; the 100th zero evicts it
	// and the threshold collapses.
	a.update(50)
	var got float64
	for range adaptiveWindowSize - 1 {
		got = a.update(0)
	}
	assert.Greater(t, got, 0.0)

	got = a.update(0)
	assert.Equal(t, 0.0, got)
}

func TestFixedThresholdIgnoresHistory(t *testing.T) {
	f := fixedThreshold{value: 2.5}
	for _, d := range []float64{0, 100, 3.7, 0.001} {
		assert.Equal(t, 2.5, f.update(d))
	}
}
