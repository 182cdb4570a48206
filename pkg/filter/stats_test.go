package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerEmptySnapshot(t *testing.T) {
	var tr Tracker
	s := tr.Snapshot()
	assert.Equal(t, uint64(0), s.TotalFrames)
	assert.Equal(t, 0.0, s.FilterRate)
}

func TestTrackerCountsPerStage(t *testing.T) {
	var tr Tracker
	tr.Record(Fired{})
	tr.Record(Fired{Deadzone: true})
	tr.Record(Fired{Gate: true})
	tr.Record(Fired{Gate: true, Lock: true})

	s := tr.Snapshot()
	assert.Equal(t, uint64(4), s.TotalFrames)
	assert.Equal(t, uint64(1), s.DeadzoneFrames)
	assert.Equal(t, uint64(2), s.GateFrames)
	assert.Equal(t, uint64(1), s.LockFrames)
	assert.Equal(t, uint64(3), s.FilteredFrames)
	assert.InDelta(t, 0.75, s.FilterRate, 1e-12)
}

func TestTrackerSnapshotDoesNotMutate(t *testing.T) {
	var tr Tracker
	tr.Record(Fired{Gate: true})

	a := tr.Snapshot()
	b := tr.Snapshot()
	assert.Equal(t, a, b)
}

func TestTrackerReset(t *testing.T) {
	var tr Tracker
	tr.Record(Fired{Gate: true})
	tr.Reset()
	assert.Equal(t, uint64(0), tr.Snapshot().TotalFrames)
}
