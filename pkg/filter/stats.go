package filter

// Fired records which stages modified the victim joint on one tick.
type Fired struct {
	Deadzone bool
	Gate     bool
	Lock     bool
}

// Tracker counts processed frames and stage activity. Counters only grow;
// Reset is an explicit operator action.
type Tracker struct {
	total    uint64
	filtered uint64
	deadzone uint64
	gate     uint64
	lock     uint64
}

// Snapshot is a point-in-time read of the tracker plus the gate's current
// threshold, for telemetry display.
type Snapshot struct {
	TotalFrames    uint64
	FilteredFrames uint64
	DeadzoneFrames uint64
	GateFrames     uint64
	LockFrames     uint64

	// FilterRate is FilteredFrames/TotalFrames, 0 before the first frame.
	FilterRate float64

	// Threshold is the correlation gate threshold in effect.
	Threshold float64
}

// Record counts one processed frame.
func (t *Tracker) Record(f Fired) {
	t.total++
	if f.Deadzone {
		t.deadzone++
	}
	if f.Gate {
		t.gate++
	}
	if f.Lock {
		t.lock++
	}
	if f.Deadzone || f.Gate || f.Lock {
		t.filtered++
	}
}

// Snapshot returns the current counters without mutating them. The Threshold
// field is filled in by the pipeline.
func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		TotalFrames:    t.total,
		FilteredFrames: t.filtered,
		DeadzoneFrames: t.deadzone,
		GateFrames:     t.gate,
		LockFrames:     t.lock,
	}
	if t.total > 0 {
		s.FilterRate = float64(t.filtered) / float64(t.total)
	}
	return s
}

// Reset zeroes all counters.
func (t *Tracker) Reset() { *t = Tracker{} }
