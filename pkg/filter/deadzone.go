package filter

import "math"

// deadzone freezes a joint whenever its frame-to-frame change is below a
// fixed threshold, discarding encoder noise. A threshold of 0 disables it.
type deadzone struct {
	threshold float64
	prev      map[Joint]float64
}

func newDeadzone(threshold float64) *deadzone {
	return &deadzone{
		threshold: threshold,
		prev:      make(map[Joint]float64),
	}
}

// apply returns the joint's output value and whether the stage froze it.
// The first sample for a joint passes through unchanged.
func (d *deadzone) apply(j Joint, cur float64) (float64, bool) {
	prev, ok := d.prev[j]
	if ok && d.threshold > 0 && math.Abs(cur-prev) < d.threshold {
		return prev, true
	}
	d.prev[j] = cur
	return cur, false
}
