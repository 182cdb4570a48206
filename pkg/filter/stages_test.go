package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeadzoneFreezesSmallChanges(t *testing.T) {
	d := newDeadzone(2.0)

	// First sample primes and passes through.
	v, fired := d.apply("wrist_roll", 10.0)
	assert.Equal(t, 10.0, v)
	assert.False(t, fired)

	// Below threshold: frozen at previous value.
	v, fired = d.apply("wrist_roll", 11.5)
	assert.Equal(t, 10.0, v)
	assert.True(t, fired)

	// At or above threshold: passes and becomes the new reference.
	v, fired = d.apply("wrist_roll", 13.0)
	assert.Equal(t, 13.0, v)
	assert.False(t, fired)

	v, fired = d.apply("wrist_roll", 12.0)
	assert.Equal(t, 13.0, v)
	assert.True(t, fired)
}

func TestDeadzoneZeroThresholdIsNoop(t *testing.T) {
	d := newDeadzone(0)
	for _, v := range []float64{5, 5.0001, 5, -3} {
		got, fired := d.apply("j", v)
		assert.Equal(t, v, got)
		assert.False(t, fired)
	}
}

func TestDeadzoneTracksJointsIndependently(t *testing.T) {
	d := newDeadzone(1.0)
	d.apply("a", 0)
	d.apply("b", 100)

	v, fired := d.apply("a", 0.5)
	assert.Equal(t, 0.0, v)
	assert.True(t, fired)

	v, fired = d.apply("b", 105)
	assert.Equal(t, 105.0, v)
	assert.False(t, fired)
}

func TestSmootherPartialWindow(t *testing.T) {
	s := newSmoother(4)

	assert.Equal(t, 8.0, s.apply("j", 8))           // mean of {8}
	assert.Equal(t, 6.0, s.apply("j", 4))           // mean of {8,4}
	assert.InDelta(t, 6.0, s.apply("j", 6), 1e-12)  // mean of {8,4,6}
	assert.InDelta(t, 5.0, s.apply("j", 2), 1e-12)  // mean of {8,4,6,2}
	assert.InDelta(t, 5.5, s.apply("j", 10), 1e-12) // 8 evicted: {4,6,2,10}
}

func TestSmootherOutputBounded(t *testing.T) {
	s := newSmoother(5)
	inputs := []float64{-40, 12, 3.5, 99, -7, 0, 54, -100, 100, 13}

	var win []float64
	for _, v := range inputs {
		win = append(win, v)
		if len(win) > 5 {
			win = win[1:]
		}
		lo, hi := win[0], win[0]
		for _, w := range win {
			lo = min(lo, w)
			hi = max(hi, w)
		}
		got := s.apply("j", v)
		assert.GreaterOrEqual(t, got, lo)
		assert.LessOrEqual(t, got, hi)
	}
}

func TestSmootherSizeOnePassesThrough(t *testing.T) {
	s := newSmoother(1)
	assert.Equal(t, 3.0, s.apply("j", 3))
	assert.Equal(t, -9.0, s.apply("j", -9))
}

func TestLockEngagesOnMovement(t *testing.T) {
	l := newLock(5.0)

	assert.False(t, l.engaged(50)) // priming sample
	assert.False(t, l.engaged(52)) // delta 2 < 5
	assert.True(t, l.engaged(60))  // delta 8 > 5
	assert.False(t, l.engaged(60)) // delta 0
	assert.True(t, l.engaged(40))  // delta 20, sign irrelevant
}

func TestWindowEvictsOldestFirst(t *testing.T) {
	w := newWindow(3)
	w.push(1)
	w.push(2)
	assert.Equal(t, 2, w.len())
	assert.Equal(t, []float64{1, 2}, w.values(nil))

	w.push(3)
	w.push(4) // evicts 1
	w.push(5) // evicts 2
	assert.Equal(t, 3, w.len())
	assert.Equal(t, []float64{3, 4, 5}, w.values(nil))
}
