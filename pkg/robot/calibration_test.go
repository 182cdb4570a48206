package robot

import (
	"math"
	"testing"
)

func TestMotorCalibration_Normalize(t *testing.T) {
	cal := MotorCalibration{
		RangeMin: 800,
		RangeMax: 3200,
	}

	tests := []struct {
		raw      int
		expected float64
	}{
		{800, -100.0},  // min -> -100
		{3200, 100.0},  // max -> 100
		{2000, 0.0},    // mid -> 0
		{1400, -50.0},  // quarter -> -50
		{2600, 50.0},   // three-quarter -> 50
	}

	for _, tt := range tests {
		got := cal.Normalize(tt.raw)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("Normalize(%d) = %f, want %f", tt.raw, got, tt.expected)
		}
	}
}

func TestMotorCalibration_RoundTrip(t *testing.T) {
	cal := MotorCalibration{
		RangeMin: 731,
		RangeMax: 3594,
	}

	for raw := cal.RangeMin; raw <= cal.RangeMax; raw += 97 {
		norm := cal.Normalize(raw)
		back := cal.Denormalize(norm)
		if math.Abs(float64(back-raw)) > 1 {
			t.Errorf("Round-trip failed: %d -> %f -> %d", raw, norm, back)
		}
	}
}

func TestCalibration_Validate(t *testing.T) {
	good := Calibration{
		ElbowFlex: MotorCalibration{ID: 3, RangeMin: 500, RangeMax: 3500},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() on good calibration: %v", err)
	}

	tests := []struct {
		name string
		cal  Calibration
	}{
		{"zero ID", Calibration{WristRoll: MotorCalibration{ID: 0, RangeMin: 0, RangeMax: 100}}},
		{"empty range", Calibration{WristRoll: MotorCalibration{ID: 5, RangeMin: 2000, RangeMax: 2000}}},
		{"inverted range", Calibration{WristRoll: MotorCalibration{ID: 5, RangeMin: 3000, RangeMax: 1000}}},
	}
	for _, tt := range tests {
		if err := tt.cal.Validate(); err == nil {
			t.Errorf("%s: Validate() should fail", tt.name)
		}
	}
}

func TestCalibration_MotorIDs(t *testing.T) {
	cal := Calibration{}
	for i, name := range AllMotors() {
		cal[name] = MotorCalibration{ID: i + 1, RangeMin: 0, RangeMax: 4095}
	}

	ids := cal.MotorIDs()
	if len(ids) != 6 {
		t.Fatalf("MotorIDs returned %d IDs, want 6", len(ids))
	}
	for i, id := range ids {
		if id != i+1 {
			t.Errorf("MotorIDs()[%d] = %d, want %d", i, id, i+1)
		}
	}
}

func TestCalibration_ByID(t *testing.T) {
	cal := Calibration{
		ElbowFlex: MotorCalibration{ID: 3, RangeMin: 100, RangeMax: 200},
		Gripper:   MotorCalibration{ID: 6, RangeMin: 300, RangeMax: 400},
	}

	name, mc, ok := cal.ByID(3)
	if !ok {
		t.Fatal("ByID(3) returned false")
	}
	if name != ElbowFlex {
		t.Errorf("ByID(3) returned name %s, want elbow_flex", name)
	}
	if mc.RangeMax != 200 {
		t.Errorf("ByID(3) returned wrong calibration: %+v", mc)
	}

	if _, _, ok := cal.ByID(99); ok {
		t.Error("ByID(99) should return false")
	}
}
