// Package lerobotfilter provides teleoperation control for SO-101 robot arms
// with adaptive cross-joint interference filtering.
//
// Mechanical and electrical coupling between joints on the SO-101 leader arm
// causes spurious commanded motion on the follower, most visibly unwanted
// wrist_roll rotation while elbow_flex or the gripper moves. This module runs
// the standard leader/follower control loop and corrects each frame of joint
// commands before it reaches the follower.
//
// # Usage
//
// First, run setup to detect and calibrate your arms and pick the filtered
// joints:
//
//	lerobot-filter setup
//
// Then start teleoperation:
//
//	lerobot-filter teleoperate
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/lerobot-filter: CLI with setup, teleoperate, record and replay commands
//   - pkg/filter: frame filter pipeline (deadzone, smoothing, correlation
//     gate, lock) and its statistics tracker
//   - pkg/robot: arm control, calibration, and configuration
//   - pkg/teleop: teleoperation controller
//   - pkg/motion: motion recording and replay
package lerobotfilter
