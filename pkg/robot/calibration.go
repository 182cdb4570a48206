package robot

import (
	"encoding/json"
	"fmt"
	"os"
)

// MotorCalibration holds calibration data for a single motor.
type MotorCalibration struct {
	ID           int `json:"id"`
	DriveMode    int `json:"drive_mode"`
	HomingOffset int `json:"homing_offset"`
	RangeMin     int `json:"range_min"`
	RangeMax     int `json:"range_max"`
}

// Calibration holds calibration data for all motors, keyed by motor name.
type Calibration map[MotorName]MotorCalibration

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("calibration %s: %w", path, err)
	}
	return cal, nil
}

// Validate checks that every motor has a usable range.
func (c Calibration) Validate() error {
	for name, mc := range c {
		if mc.ID <= 0 {
			return fmt.Errorf("motor %s: invalid servo ID %d", name, mc.ID)
		}
		if mc.RangeMax <= mc.RangeMin {
			return fmt.Errorf("motor %s: empty range [%d,%d]", name, mc.RangeMin, mc.RangeMax)
		}
	}
	return nil
}

// Normalize converts a raw servo position to a normalized value in [-100, 100].
func (c MotorCalibration) Normalize(raw int) float64 {
	span := float64(c.RangeMax - c.RangeMin)
	if span == 0 {
		return 0
	}
	return (float64(raw-c.RangeMin)/span)*200 - 100
}

// Denormalize converts a normalized value [-100, 100] to a raw servo position.
func (c MotorCalibration) Denormalize(norm float64) int {
	span := float64(c.RangeMax - c.RangeMin)
	return int((norm+100)/200*span) + c.RangeMin
}

// MotorIDs returns the servo IDs for all motors in the calibration, in the
// canonical motor order.
func (c Calibration) MotorIDs() []int {
	ids := make([]int, 0, len(c))
	for _, name := range AllMotors() {
		if mc, ok := c[name]; ok {
			ids = append(ids, mc.ID)
		}
	}
	return ids
}

// ByID returns motor name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (MotorName, MotorCalibration, bool) {
	for _, name := range AllMotors() {
		if mc, ok := c[name]; ok && mc.ID == id {
			return name, mc, true
		}
	}
	return "", MotorCalibration{}, false
}
