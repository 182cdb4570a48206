// Package motion provides recording and replay of arm motion.
package motion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gwillem/lerobot-filter/pkg/robot"
)

// Frame is one recorded control tick.
type Frame struct {
	// T is the elapsed time since recording start, in seconds.
	T         float64                     `json:"t"`
	Positions map[robot.MotorName]float64 `json:"positions"`
}

// Recording is a captured leader-arm motion, replayable on a follower.
type Recording struct {
	FPS    int               `json:"fps"`
	Motors []robot.MotorName `json:"motors"`
	Frames []Frame           `json:"frames"`
}

// Duration returns the elapsed time of the last frame in seconds.
func (r *Recording) Duration() float64 {
	if len(r.Frames) == 0 {
		return 0
	}
	return r.Frames[len(r.Frames)-1].T
}

// Validate checks that the recording is replayable.
func (r *Recording) Validate() error {
	if r.FPS < 1 {
		return fmt.Errorf("fps %d below 1", r.FPS)
	}
	if len(r.Frames) == 0 {
		return fmt.Errorf("no frames")
	}
	if len(r.Motors) == 0 {
		return fmt.Errorf("no motors")
	}
	for i, f := range r.Frames {
		for _, m := range r.Motors {
			if _, ok := f.Positions[m]; !ok {
				return fmt.Errorf("frame %d is missing motor %s", i, m)
			}
		}
	}
	return nil
}

// Load reads and validates a recording from a JSON file.
func Load(path string) (*Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse recording: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("recording %s: %w", path, err)
	}
	return &rec, nil
}

// Save writes the recording as JSON, creating parent directories as needed.
func (r *Recording) Save(path string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
