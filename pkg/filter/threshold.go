package filter

import "gonum.org/v1/gonum/stat"

const (
	// adaptiveWindowSize bounds the history of trigger deltas the adaptive
	// estimator considers.
	adaptiveWindowSize = 100

	// adaptiveStdFactor scales the standard deviation term of the adaptive
	// threshold: threshold = mean + adaptiveStdFactor * stddev.
	adaptiveStdFactor = 1.5
)

// thresholdSource yields the correlation gate's threshold for one tick, given
// the trigger joint's absolute delta. The fixed and adaptive variants are
// selected once at pipeline construction.
type thresholdSource interface {
	update(delta float64) float64
}

// fixedThreshold returns the configured threshold unconditionally and keeps
// no history.
type fixedThreshold struct {
	value float64
}

func (t fixedThreshold) update(float64) float64 { return t.value }

// adaptiveThreshold recomputes the gate threshold from the recent trigger
// deltas: mean plus 1.5 population standard deviations over a sliding window.
// Below two samples the statistic is undefined and the configured fallback is
// returned instead.
type adaptiveThreshold struct {
	window   *window
	fallback float64
	scratch  []float64
}

func newAdaptiveThreshold(fallback float64) *adaptiveThreshold {
	return &adaptiveThreshold{
		window:   newWindow(adaptiveWindowSize),
		fallback: fallback,
		scratch:  make([]float64, 0, adaptiveWindowSize),
	}
}

func (t *adaptiveThreshold) update(delta float64) float64 {
	t.window.push(delta)
	if t.window.len() < 2 {
		return t.fallback
	}
	t.scratch = t.window.values(t.scratch[:0])
	return stat.Mean(t.scratch, nil) + adaptiveStdFactor*stat.PopStdDev(t.scratch, nil)
}
