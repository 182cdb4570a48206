// Package teleop provides the leader-follower teleoperation control loop with
// per-frame interference filtering.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gwillem/lerobot-filter/pkg/filter"
	"github.com/gwillem/lerobot-filter/pkg/robot"
)

// State is one control tick's result as published to the UI.
type State struct {
	// Raw holds the leader positions as read, Filtered what was sent to
	// the follower. They differ only where the pipeline intervened.
	Raw      map[robot.MotorName]float64
	Filtered map[robot.MotorName]float64

	Stats     filter.Snapshot
	Timestamp time.Time
	Error     error
}

// Config holds configuration for the controller.
type Config struct {
	LeaderPort          string
	LeaderCalibration   robot.Calibration
	FollowerPort        string
	FollowerCalibration robot.Calibration

	Hz     int
	Mirror bool // invert shoulder_pan and wrist_roll positions

	// Filter enables the interference pipeline. Nil runs unfiltered
	// pass-through.
	Filter *filter.Config

	// LogPath, when set, writes a CSV session log of raw and filtered
	// positions.
	LogPath string
}

// Controller manages the teleoperation control loop.
type Controller struct {
	leader   *robot.Arm
	follower *robot.Arm
	hz       int
	mirror   bool

	pipeline  *filter.Pipeline
	seq       uint64
	recorder  *sessionLog
	filterOff atomic.Bool
	resetReq  atomic.Bool

	mu      sync.Mutex
	running bool
	stateCh chan State
	logCh   chan string
}

// NewController creates a new teleoperation controller. The filter
// configuration is validated here; role errors against the actual joint set
// surface on the first processed frame.
func NewController(cfg Config) (*Controller, error) {
	leader, err := robot.NewArm(cfg.LeaderPort, cfg.LeaderCalibration)
	if err != nil {
		return nil, fmt.Errorf("create leader arm: %w", err)
	}

	follower, err := robot.NewArm(cfg.FollowerPort, cfg.FollowerCalibration)
	if err != nil {
		leader.Close()
		return nil, fmt.Errorf("create follower arm: %w", err)
	}

	var pipeline *filter.Pipeline
	if cfg.Filter != nil {
		pipeline, err = filter.NewPipeline(*cfg.Filter)
		if err != nil {
			leader.Close()
			follower.Close()
			return nil, fmt.Errorf("create filter pipeline: %w", err)
		}
	}

	var recorder *sessionLog
	if cfg.LogPath != "" {
		recorder, err = newSessionLog(cfg.LogPath)
		if err != nil {
			leader.Close()
			follower.Close()
			return nil, fmt.Errorf("open session log: %w", err)
		}
	}

	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}

	return &Controller{
		leader:   leader,
		follower: follower,
		hz:       cfg.Hz,
		mirror:   cfg.Mirror,
		pipeline: pipeline,
		recorder: recorder,
		stateCh:  make(chan State, 1),
		logCh:    make(chan string, 10),
	}, nil
}

// Close closes the controller and releases resources.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	var errs []error
	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.leader.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.follower.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Filtering reports whether the interference pipeline is active.
func (c *Controller) Filtering() bool {
	return c.pipeline != nil && !c.filterOff.Load()
}

// ResetStats asks the control loop to zero the filter counters on its next
// tick. The pipeline is single-writer, so the reset happens on the loop
// goroutine.
func (c *Controller) ResetStats() {
	c.resetReq.Store(true)
}

func (c *Controller) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start begins the teleoperation control loop.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.leader.Disable(ctx); err != nil {
		c.log("Warning: failed to disable leader: %v", err)
	} else {
		c.log("Leader arm: torque disabled (passive mode)")
	}

	if err := c.follower.Enable(ctx); err != nil {
		c.log("Warning: failed to enable follower: %v", err)
	} else {
		c.log("Follower arm: torque enabled")
	}

	if c.pipeline != nil {
		cfg := c.pipeline.Config()
		mode := fmt.Sprintf("fixed threshold %.2f", cfg.FixedThreshold)
		if cfg.AdaptiveThreshold {
			mode = "adaptive threshold"
		}
		c.log("Filter: %s -> %s (lock: %s, %s)",
			cfg.TriggerJoint, cfg.VictimJoint, cfg.LockJoint, mode)
	} else {
		c.log("Filter disabled: raw pass-through")
	}
	c.log("Teleoperation started at %d Hz", c.hz)

	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

func (c *Controller) step(ctx context.Context) {
	positions, err := c.leader.ReadPositions(ctx)
	if err != nil {
		c.log("Read error: %v", err)
		c.sendState(State{Error: err, Timestamp: time.Now()})
		return
	}

	if c.mirror {
		positions = mirrorPositions(positions)
	}

	corrected := positions
	var stats filter.Snapshot
	if c.Filtering() {
		if c.resetReq.Swap(false) {
			c.pipeline.ResetStats()
			c.log("Filter statistics reset")
		}
		c.seq++
		out, err := c.pipeline.Process(filter.Frame{
			Seq:       c.seq,
			Timestamp: time.Now(),
			Positions: toJoints(positions),
		})
		switch {
		case err == nil:
			corrected = fromJoints(out.Positions)
			stats = c.pipeline.Snapshot()
		case errors.Is(err, filter.ErrConfiguration), errors.Is(err, filter.ErrSchemaMismatch):
			// Contract violation: disable filtering and keep the arm
			// controllable on raw pass-through.
			c.log("Filter disabled: %v", err)
			c.filterOff.Store(true)
		default:
			c.log("Filter error: %v", err)
		}
	}

	if err := c.follower.WritePositions(ctx, corrected); err != nil {
		c.log("Write error: %v", err)
	}

	if c.recorder != nil {
		if err := c.recorder.Write(time.Now(), positions, corrected); err != nil {
			c.log("Session log error: %v", err)
			c.recorder = nil
		}
	}

	c.sendState(State{
		Raw:       positions,
		Filtered:  corrected,
		Stats:     stats,
		Timestamp: time.Now(),
	})
}

// mirrorPositions inverts shoulder_pan and wrist_roll, for arms mounted
// facing each other.
func mirrorPositions(positions map[robot.MotorName]float64) map[robot.MotorName]float64 {
	out := make(map[robot.MotorName]float64, len(positions))
	for name, pos := range positions {
		if name == robot.ShoulderPan || name == robot.WristRoll {
			out[name] = -pos
		} else {
			out[name] = pos
		}
	}
	return out
}

func toJoints(positions map[robot.MotorName]float64) map[filter.Joint]float64 {
	out := make(map[filter.Joint]float64, len(positions))
	for name, pos := range positions {
		out[filter.Joint(name)] = pos
	}
	return out
}

func fromJoints(positions map[filter.Joint]float64) map[robot.MotorName]float64 {
	out := make(map[robot.MotorName]float64, len(positions))
	for j, pos := range positions {
		out[robot.MotorName(j)] = pos
	}
	return out
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	ctx := context.Background()
	if err := c.follower.Disable(ctx); err != nil {
		c.log("Warning: failed to disable follower: %v", err)
	} else {
		c.log("Follower arm: torque disabled")
	}
	if c.Filtering() {
		s := c.pipeline.Snapshot()
		c.log("Filter totals: %d/%d frames corrected (%.1f%%)",
			s.FilteredFrames, s.TotalFrames, s.FilterRate*100)
	}
	c.log("Teleoperation stopped")
}
