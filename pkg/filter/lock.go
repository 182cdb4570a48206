package filter

import "math"

// lock watches a designated joint (typically the gripper) and reports when it
// is actively moving, which forces the victim joint to hold its last accepted
// value regardless of what the gate produced.
type lock struct {
	threshold float64
	prev      float64
	primed    bool
}

func newLock(threshold float64) *lock {
	return &lock{threshold: threshold}
}

// engaged records the lock joint's current value and reports whether its
// delta exceeds the movement threshold.
func (l *lock) engaged(cur float64) bool {
	if !l.primed {
		l.prev = cur
		l.primed = true
		return false
	}
	delta := math.Abs(cur - l.prev)
	l.prev = cur
	return delta > l.threshold
}
