package filter

import (
	"fmt"
	"slices"
)

// Defaults match the tuning used on the SO-101 arms.
const (
	DefaultDeadzoneThreshold = 1.0
	DefaultSmoothingWindow   = 1
	DefaultFilterStrength    = 0.8
	DefaultFixedThreshold    = 2.0
	DefaultLockThreshold     = 5.0
)

// Config declares the joint roles and tuning for one Pipeline. One joint each
// for trigger, victim and lock; compose multiple pipelines for multiple
// victim joints.
type Config struct {
	// TriggerJoint is watched for fast motion that couples into the victim.
	TriggerJoint Joint `json:"trigger_joint"`
	// VictimJoint receives the correction.
	VictimJoint Joint `json:"victim_joint"`
	// LockJoint freezes the victim while it is actively moving.
	LockJoint Joint `json:"lock_joint"`

	// DeadzoneThreshold freezes the victim below this frame-to-frame change.
	// Must be >= 0; 0 disables the stage.
	DeadzoneThreshold float64 `json:"deadzone_threshold"`

	// SmoothingWindow is the moving-average length for the victim. Must be
	// >= 1; 1 disables smoothing.
	SmoothingWindow int `json:"smoothing_window"`

	// FilterStrength in [0,1] sets how hard the gate suppresses the victim
	// when it fires; 1 freezes, 0 passes through.
	FilterStrength float64 `json:"filter_strength"`

	// AdaptiveThreshold selects the adaptive gate threshold. When false the
	// gate uses FixedThreshold unconditionally.
	AdaptiveThreshold bool `json:"adaptive_threshold"`

	// FixedThreshold is the gate threshold in fixed mode, and the fallback
	// before the adaptive estimator has warmed up.
	FixedThreshold float64 `json:"fixed_threshold"`

	// LockThreshold is the lock joint's movement-detection threshold.
	// Must be >= 0.
	LockThreshold float64 `json:"lock_threshold"`

	// GlobalDeadzone and GlobalSmoothing extend those stages to the
	// unmanaged joints; the trigger and lock joints always pass through
	// untouched so detection works on raw values.
	GlobalDeadzone  bool `json:"global_deadzone,omitempty"`
	GlobalSmoothing bool `json:"global_smoothing,omitempty"`
}

// DefaultConfig returns the SO-101 configuration: elbow_flex motion and
// gripper activity both corrupt wrist_roll.
func DefaultConfig() Config {
	return Config{
		TriggerJoint:      "elbow_flex",
		VictimJoint:       "wrist_roll",
		LockJoint:         "gripper",
		DeadzoneThreshold: DefaultDeadzoneThreshold,
		SmoothingWindow:   DefaultSmoothingWindow,
		FilterStrength:    DefaultFilterStrength,
		AdaptiveThreshold: true,
		FixedThreshold:    DefaultFixedThreshold,
		LockThreshold:     DefaultLockThreshold,
	}
}

// Validate checks the tuning parameters.
func (c Config) Validate() error {
	if c.TriggerJoint == "" || c.VictimJoint == "" || c.LockJoint == "" {
		return fmt.Errorf("%w: trigger, victim and lock joints must be set", ErrInvalidParameter)
	}
	if c.TriggerJoint == c.VictimJoint || c.LockJoint == c.VictimJoint || c.TriggerJoint == c.LockJoint {
		return fmt.Errorf("%w: trigger, victim and lock must be distinct joints", ErrInvalidParameter)
	}
	if c.FilterStrength < 0 || c.FilterStrength > 1 {
		return fmt.Errorf("%w: filter_strength %g outside [0,1]", ErrInvalidParameter, c.FilterStrength)
	}
	if c.DeadzoneThreshold < 0 {
		return fmt.Errorf("%w: deadzone_threshold %g is negative", ErrInvalidParameter, c.DeadzoneThreshold)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("%w: smoothing_window %d below 1", ErrInvalidParameter, c.SmoothingWindow)
	}
	if c.LockThreshold < 0 {
		return fmt.Errorf("%w: lock_threshold %g is negative", ErrInvalidParameter, c.LockThreshold)
	}
	return nil
}

// Pipeline applies the configured stages to each frame, in order deadzone,
// smoothing, correlation gate, lock. It owns all its state and is not safe
// for concurrent use; the control loop calls Process from a single goroutine.
type Pipeline struct {
	cfg Config

	deadzone *deadzone
	smoother *smoother
	gate     *gate
	lock     *lock
	stats    Tracker

	joints []Joint // joint set captured from the first frame, sorted
}

// NewPipeline validates cfg and builds a pipeline. The joint roles are
// checked against the first frame handed to Process.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var src thresholdSource
	if cfg.AdaptiveThreshold {
		src = newAdaptiveThreshold(cfg.FixedThreshold)
	} else {
		src = fixedThreshold{value: cfg.FixedThreshold}
	}

	return &Pipeline{
		cfg:      cfg,
		deadzone: newDeadzone(cfg.DeadzoneThreshold),
		smoother: newSmoother(cfg.SmoothingWindow),
		gate:     newGate(cfg.FilterStrength, src, cfg.FixedThreshold),
		lock:     newLock(cfg.LockThreshold),
	}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Process corrects one frame. The returned frame has the same joint set;
// unmanaged joints pass through unchanged unless global deadzone or smoothing
// is enabled. The first frame primes all stage history and passes through.
func (p *Pipeline) Process(raw Frame) (Frame, error) {
	if err := p.checkSchema(raw); err != nil {
		return Frame{}, err
	}

	out := raw.Clone()
	var fired Fired

	v := raw.Positions[p.cfg.VictimJoint]
	v, fired.Deadzone = p.deadzone.apply(p.cfg.VictimJoint, v)
	v = p.smoother.apply(p.cfg.VictimJoint, v)

	held, primed := p.gate.lastAccepted()
	v, fired.Gate = p.gate.apply(raw.Positions[p.cfg.TriggerJoint], v)

	// The lock stage runs last so an active lock joint always wins.
	if p.lock.engaged(raw.Positions[p.cfg.LockJoint]) && primed {
		v = held
		p.gate.setLast(held)
		fired.Lock = true
	}
	out.Positions[p.cfg.VictimJoint] = v

	if p.cfg.GlobalDeadzone || p.cfg.GlobalSmoothing {
		p.applyGlobal(raw, out)
	}

	p.stats.Record(fired)
	return out, nil
}

// applyGlobal runs the deadzone/smoothing stages over the unmanaged joints.
// Iteration follows the sorted joint list so output is deterministic.
func (p *Pipeline) applyGlobal(raw, out Frame) {
	for _, j := range p.joints {
		if j == p.cfg.VictimJoint || j == p.cfg.TriggerJoint || j == p.cfg.LockJoint {
			continue
		}
		v := raw.Positions[j]
		if p.cfg.GlobalDeadzone {
			v, _ = p.deadzone.apply(j, v)
		}
		if p.cfg.GlobalSmoothing {
			v = p.smoother.apply(j, v)
		}
		out.Positions[j] = v
	}
}

// Snapshot returns the statistics counters and current gate threshold.
func (p *Pipeline) Snapshot() Snapshot {
	s := p.stats.Snapshot()
	s.Threshold = p.gate.currentThreshold()
	return s
}

// ResetStats zeroes the statistics counters.
func (p *Pipeline) ResetStats() { p.stats.Reset() }

func (p *Pipeline) checkSchema(f Frame) error {
	if p.joints == nil {
		for _, j := range []Joint{p.cfg.TriggerJoint, p.cfg.VictimJoint, p.cfg.LockJoint} {
			if _, ok := f.Positions[j]; !ok {
				return fmt.Errorf("%w: joint %q not present in first frame", ErrConfiguration, j)
			}
		}
		p.joints = make([]Joint, 0, len(f.Positions))
		for j := range f.Positions {
			p.joints = append(p.joints, j)
		}
		slices.Sort(p.joints)
		return nil
	}

	if len(f.Positions) != len(p.joints) {
		return fmt.Errorf("%w: frame %d has %d joints, expected %d",
			ErrSchemaMismatch, f.Seq, len(f.Positions), len(p.joints))
	}
	for _, j := range p.joints {
		if _, ok := f.Positions[j]; !ok {
			return fmt.Errorf("%w: frame %d is missing joint %q", ErrSchemaMismatch, f.Seq, j)
		}
	}
	return nil
}
