// Package filter removes cross-joint interference from streaming joint
// commands during teleoperation.
//
// Coupling on the leader arm makes one joint (the victim, typically
// wrist_roll) pick up motion whenever another joint (the trigger, typically
// elbow_flex) moves fast, or while a third joint (the lock, typically the
// gripper) is being actuated. A Pipeline watches the trigger and lock joints
// each frame and attenuates or freezes the victim accordingly. The package is
// hardware-independent: it consumes one Frame of named joint positions per
// control tick and returns a corrected Frame of the same shape.
package filter

import (
	"maps"
	"time"
)

// Joint identifies one controllable degree of freedom by its stable name.
type Joint string

// Frame is one control tick's joint commands: a joint-name to position
// mapping with a monotonically increasing sequence number. The joint set must
// be identical for every frame processed by the same Pipeline.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Positions map[Joint]float64
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	return Frame{
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
		Positions: maps.Clone(f.Positions),
	}
}
