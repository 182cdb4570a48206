package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gateOnlyConfig isolates the correlation gate: deadzone off, smoothing off,
// fixed threshold.
func gateOnlyConfig() Config {
	return Config{
		TriggerJoint:      "elbow_flex",
		VictimJoint:       "wrist_roll",
		LockJoint:         "gripper",
		DeadzoneThreshold: 0,
		SmoothingWindow:   1,
		FilterStrength:    0.8,
		AdaptiveThreshold: false,
		FixedThreshold:    2.0,
		LockThreshold:     5.0,
	}
}

func frame(seq uint64, elbow, wrist, gripper float64) Frame {
	return Frame{
		Seq: seq,
		Positions: map[Joint]float64{
			"elbow_flex":   elbow,
			"wrist_roll":   wrist,
			"gripper":      gripper,
			"shoulder_pan": 42, // unmanaged
		},
	}
}

func TestGateSuppressesCoupledMotion(t *testing.T) {
	p, err := NewPipeline(gateOnlyConfig())
	require.NoError(t, err)

	elbow := []float64{0, 0, 0, 12, 12}
	wrist := []float64{10, 10, 10, 40, 10}
	want := []float64{10, 10, 10, 16, 10} // tick 4: 10 + 0.2*(40-10)

	for i := range elbow {
		out, err := p.Process(frame(uint64(i), elbow[i], wrist[i], 0))
		require.NoError(t, err)
		assert.InDelta(t, want[i], out.Positions["wrist_roll"], 1e-12, "tick %d", i+1)
		assert.Equal(t, 42.0, out.Positions["shoulder_pan"], "unmanaged joint must pass through")
	}

	s := p.Snapshot()
	assert.Equal(t, uint64(5), s.TotalFrames)
	assert.Equal(t, uint64(1), s.GateFrames)
	assert.Equal(t, uint64(1), s.FilteredFrames)
	assert.InDelta(t, 0.2, s.FilterRate, 1e-12)
	assert.Equal(t, 2.0, s.Threshold)
}

func TestGateMonotonicInStrength(t *testing.T) {
	var prevDeviation float64 = math.Inf(1)

	for _, strength := range []float64{0, 0.25, 0.5, 0.75, 1} {
		cfg := gateOnlyConfig()
		cfg.FilterStrength = strength
		p, err := NewPipeline(cfg)
		require.NoError(t, err)

		_, err = p.Process(frame(1, 0, 10, 0)) // prime, last accepted 10
		require.NoError(t, err)
		out, err := p.Process(frame(2, 12, 40, 0)) // gate fires
		require.NoError(t, err)

		deviation := math.Abs(out.Positions["wrist_roll"] - 10)
		assert.LessOrEqual(t, deviation, prevDeviation,
			"strength %g must not deviate more than weaker setting", strength)
		prevDeviation = deviation
	}
}

func TestLockFreezesVictim(t *testing.T) {
	p, err := NewPipeline(gateOnlyConfig())
	require.NoError(t, err)

	_, err = p.Process(frame(1, 0, 10, 50))
	require.NoError(t, err)

	// Gripper moves 20 > 5 while the trigger is still: hard freeze at the
	// last accepted value even though the gate passes.
	out, err := p.Process(frame(2, 0, 30, 70))
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.Positions["wrist_roll"])

	s := p.Snapshot()
	assert.Equal(t, uint64(1), s.LockFrames)
}

func TestLockOverridesGate(t *testing.T) {
	p, err := NewPipeline(gateOnlyConfig())
	require.NoError(t, err)

	_, err = p.Process(frame(1, 0, 10, 50))
	require.NoError(t, err)

	// Both the trigger and the lock joint move. The gate alone would yield
	// 10 + 0.2*(40-10) = 16; the lock wins with a hard freeze.
	out, err := p.Process(frame(2, 12, 40, 70))
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.Positions["wrist_roll"])

	// The freeze also pins the accepted value, so the next quiet frame
	// resumes from 10, not 16.
	out, err = p.Process(frame(3, 12, 10, 70+1))
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.Positions["wrist_roll"])
}

func TestDeterminism(t *testing.T) {
	cfg := gateOnlyConfig()
	cfg.AdaptiveThreshold = true
	cfg.DeadzoneThreshold = 0.5
	cfg.SmoothingWindow = 3

	run := func() ([]map[Joint]float64, Snapshot) {
		p, err := NewPipeline(cfg)
		require.NoError(t, err)
		var outs []map[Joint]float64
		for i := range 200 {
			f := frame(uint64(i),
				math.Sin(float64(i)/7)*50,
				math.Cos(float64(i)/3)*40,
				math.Mod(float64(i)*1.7, 30))
			out, err := p.Process(f)
			require.NoError(t, err)
			outs = append(outs, out.Positions)
		}
		return outs, p.Snapshot()
	}

	outA, snapA := run()
	outB, snapB := run()
	assert.Equal(t, outA, outB)
	assert.Equal(t, snapA, snapB)
}

func TestFixedModeIgnoresDeltaHistory(t *testing.T) {
	cfg := gateOnlyConfig()
	cfg.FixedThreshold = 2.5

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	// A long run of large trigger deltas would drag an adaptive threshold
	// way up; fixed mode must keep firing at exactly the same crossing.
	elbow := 0.0
	for i := range 150 {
		elbow += 20
		_, err := p.Process(frame(uint64(i), elbow, 10, 0))
		require.NoError(t, err)
	}
	out, err := p.Process(frame(151, elbow+3, 30, 0)) // delta 3 > 2.5
	require.NoError(t, err)
	assert.InDelta(t, 10+0.2*(30-10), out.Positions["wrist_roll"], 1e-12)
	assert.Equal(t, 2.5, p.Snapshot().Threshold)
}

func TestGlobalStagesCoverUnmanagedJoints(t *testing.T) {
	cfg := gateOnlyConfig()
	cfg.DeadzoneThreshold = 2.0
	cfg.GlobalDeadzone = true

	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	f := frame(1, 0, 10, 0)
	f.Positions["shoulder_pan"] = 20
	_, err = p.Process(f)
	require.NoError(t, err)

	f = frame(2, 0, 10, 0)
	f.Positions["shoulder_pan"] = 21 // within deadzone
	out, err := p.Process(f)
	require.NoError(t, err)
	assert.Equal(t, 20.0, out.Positions["shoulder_pan"])

	f = frame(3, 0, 10, 0)
	f.Positions["shoulder_pan"] = 25
	out, err = p.Process(f)
	require.NoError(t, err)
	assert.Equal(t, 25.0, out.Positions["shoulder_pan"])
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"strength above one", func(c *Config) { c.FilterStrength = 1.5 }},
		{"strength negative", func(c *Config) { c.FilterStrength = -0.1 }},
		{"negative deadzone", func(c *Config) { c.DeadzoneThreshold = -1 }},
		{"zero smoothing window", func(c *Config) { c.SmoothingWindow = 0 }},
		{"negative lock threshold", func(c *Config) { c.LockThreshold = -2 }},
		{"missing victim", func(c *Config) { c.VictimJoint = "" }},
		{"victim doubles as trigger", func(c *Config) { c.TriggerJoint = c.VictimJoint }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := gateOnlyConfig()
			tt.mutate(&cfg)
			_, err := NewPipeline(cfg)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestUnknownRoleJointRejected(t *testing.T) {
	cfg := gateOnlyConfig()
	cfg.TriggerJoint = "elbow_pitch" // not in the frame
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	_, err = p.Process(frame(1, 0, 10, 0))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSchemaMismatch(t *testing.T) {
	p, err := NewPipeline(gateOnlyConfig())
	require.NoError(t, err)

	_, err = p.Process(frame(1, 0, 10, 0))
	require.NoError(t, err)

	// Dropped joint.
	f := frame(2, 0, 10, 0)
	delete(f.Positions, "shoulder_pan")
	_, err = p.Process(f)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	// Added joint.
	f = frame(3, 0, 10, 0)
	f.Positions["wrist_flex"] = 1
	_, err = p.Process(f)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	// Renamed joint, same cardinality.
	f = frame(4, 0, 10, 0)
	delete(f.Positions, "shoulder_pan")
	f.Positions["shoulder_tilt"] = 1
	_, err = p.Process(f)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestProcessDoesNotMutateInput(t *testing.T) {
	p, err := NewPipeline(gateOnlyConfig())
	require.NoError(t, err)

	_, err = p.Process(frame(1, 0, 10, 0))
	require.NoError(t, err)

	in := frame(2, 12, 40, 0)
	out, err := p.Process(in)
	require.NoError(t, err)
	assert.Equal(t, 40.0, in.Positions["wrist_roll"])
	assert.NotEqual(t, in.Positions["wrist_roll"], out.Positions["wrist_roll"])
}
