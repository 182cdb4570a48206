package motion

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/lerobot-filter/pkg/robot"
)

func sampleRecording() *Recording {
	return &Recording{
		FPS:    30,
		Motors: []robot.MotorName{robot.ElbowFlex, robot.WristRoll},
		Frames: []Frame{
			{T: 0, Positions: map[robot.MotorName]float64{robot.ElbowFlex: 0, robot.WristRoll: 10}},
			{T: 0.033, Positions: map[robot.MotorName]float64{robot.ElbowFlex: 5, robot.WristRoll: 11}},
			{T: 0.066, Positions: map[robot.MotorName]float64{robot.ElbowFlex: 9, robot.WristRoll: 12}},
		},
	}
}

func TestRecordingDuration(t *testing.T) {
	rec := sampleRecording()
	assert.InDelta(t, 0.066, rec.Duration(), 1e-9)

	empty := &Recording{}
	assert.Equal(t, 0.0, empty.Duration())
}

func TestRecordingValidate(t *testing.T) {
	require.NoError(t, sampleRecording().Validate())

	noFrames := sampleRecording()
	noFrames.Frames = nil
	assert.Error(t, noFrames.Validate())

	badFPS := sampleRecording()
	badFPS.FPS = 0
	assert.Error(t, badFPS.Validate())

	missingMotor := sampleRecording()
	delete(missingMotor.Frames[1].Positions, robot.WristRoll)
	assert.Error(t, missingMotor.Validate())
}

func TestRecordingSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motions", "wave.json")
	rec := sampleRecording()
	require.NoError(t, rec.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestLoadRejectsInvalidRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	rec := sampleRecording()
	rec.Frames = rec.Frames[:0]
	// Save refuses to write it; write the raw JSON instead.
	assert.Error(t, rec.Save(path))

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
