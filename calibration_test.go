package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// scriptReader replays a fixed sequence of readings, one per call; nil
// entries and an exhausted queue both mean no touch.
type scriptReader struct {
	queue []*RawSample
}

func (r *scriptReader) ReadTouch(int, int) *RawSample {
	if len(r.queue) == 0 {
		return nil
	}
	head := r.queue[0]
	r.queue = r.queue[1:]
	return head
}

// scriptedTaps builds a reader that reports each point once, followed by
// enough quiet reads to satisfy the release window before the next point.
func scriptedTaps(points ...RawSample) *scriptReader {
	r := &scriptReader{}
	for _, p := range points {
		p := p
		r.queue = append(r.queue, &p)
		for i := 0; i < 25; i++ {
			r.queue = append(r.queue, nil)
		}
	}
	return r
}

func TestMapInvertedCorner(t *testing.T) {
	c := Calibration{XMin: 300, XMax: 3800, YMin: 300, YMax: 3700}

	x, y := c.Map(RawSample{X: 300, Y: 300}, 320, 240)
	if x != 319 || y != 239 {
		t.Errorf("raw min corner should map to inverted corner (319,239), got (%d,%d)", x, y)
	}

	x, y = c.Map(RawSample{X: 3800, Y: 3700}, 320, 240)
	if x != 0 || y != 0 {
		t.Errorf("raw max corner should map to (0,0), got (%d,%d)", x, y)
	}
}

func TestMapMonotonicAndBounded(t *testing.T) {
	c := Calibration{XMin: 300, XMax: 3800, YMin: 300, YMax: 3700}

	prevX := 320
	for raw := uint16(300); raw <= 3800; raw += 100 {
		x, y := c.Map(RawSample{X: raw, Y: 2000}, 320, 240)
		if x < 0 || x > 319 || y < 0 || y > 239 {
			t.Fatalf("mapped point out of bounds: (%d,%d)", x, y)
		}
		if x > prevX {
			t.Fatalf("screen x should not increase with raw x: raw=%d x=%d prev=%d", raw, x, prevX)
		}
		prevX = x
	}
}

func TestMapDegenerateSpan(t *testing.T) {
	// Adversarial equal min/max must not divide by zero.
	c := Calibration{XMin: 2000, XMax: 2000, YMin: 300, YMax: 3700}
	x, y := c.Map(RawSample{X: 2000, Y: 2000}, 320, 240)
	if x < 0 || x > 319 || y < 0 || y > 239 {
		t.Errorf("degenerate span produced out-of-bounds point (%d,%d)", x, y)
	}
	if c.Valid() {
		t.Error("degenerate profile should not be valid")
	}
}

func TestMapClampsOutOfRangeRaw(t *testing.T) {
	c := Calibration{XMin: 300, XMax: 3800, YMin: 300, YMax: 3700}
	x, y := c.Map(RawSample{X: 4095, Y: 0}, 320, 240)
	if x < 0 || x > 319 || y < 0 || y > 239 {
		t.Errorf("out-of-range raw should clamp, got (%d,%d)", x, y)
	}
}

func TestCalibrationRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "touch_calibration.json")
	want := Calibration{XMin: 300, XMax: 3800, YMin: 310, YMax: 3700}

	if err := saveCalibration(path, want); err != nil {
		t.Fatalf("saveCalibration failed: %v", err)
	}
	got := loadCalibration(path)
	if got != want {
		t.Errorf("round trip mismatch: saved %+v, loaded %+v", want, got)
	}
}

func TestSaveCalibrationRejectsDegenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "touch_calibration.json")
	if err := saveCalibration(path, Calibration{XMin: 5, XMax: 5, YMin: 0, YMax: 10}); err == nil {
		t.Error("degenerate profile should not be persisted")
	}
}

func TestLoadCalibrationFallsBackToDefaults(t *testing.T) {
	got := loadCalibration(filepath.Join(t.TempDir(), "missing.json"))
	if got != defaultCalibration() {
		t.Errorf("missing file should yield defaults, got %+v", got)
	}

	path := filepath.Join(t.TempDir(), "corrupt.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	got = loadCalibration(path)
	if got != defaultCalibration() {
		t.Errorf("corrupt file should yield defaults, got %+v", got)
	}

	path = filepath.Join(t.TempDir(), "invalid.json")
	os.WriteFile(path, []byte(`{"x_min":500,"x_max":100,"y_min":0,"y_max":4095}`), 0644)
	got = loadCalibration(path)
	if got != defaultCalibration() {
		t.Errorf("invalid span should yield defaults, got %+v", got)
	}
}

func TestRunCalibrationHappyPath(t *testing.T) {
	a := testApp()
	defer a.overlay.Shutdown()
	a.calibrationPath = filepath.Join(t.TempDir(), "touch_calibration.json")
	a.calib = defaultCalibration()
	a.touch = scriptedTaps(
		RawSample{X: 300, Y: 320},
		RawSample{X: 3800, Y: 340},
		RawSample{X: 320, Y: 3700},
		RawSample{X: 3790, Y: 3680},
	)

	if err := runCalibration(a); err != nil {
		t.Fatalf("calibration failed: %v", err)
	}

	want := Calibration{XMin: 300, XMax: 3800, YMin: 320, YMax: 3700}
	if got := a.Calib(); got != want {
		t.Errorf("active profile = %+v, want %+v", got, want)
	}
	if got := loadCalibration(a.calibrationPath); got != want {
		t.Errorf("persisted profile = %+v, want %+v", got, want)
	}
	if a.calibrationActive() {
		t.Error("gate should be released after the flow")
	}
}

func TestRunCalibrationKeepsOldProfileOnFailure(t *testing.T) {
	a := testApp()
	defer a.overlay.Shutdown()
	a.calibrationPath = filepath.Join(t.TempDir(), "touch_calibration.json")
	old := Calibration{XMin: 100, XMax: 4000, YMin: 100, YMax: 4000}
	a.calib = old

	// Colinear points: every tap far enough from the previous one to be
	// accepted, but the Y span collapses and the profile is degenerate.
	a.touch = scriptedTaps(
		RawSample{X: 300, Y: 2000},
		RawSample{X: 1300, Y: 2000},
		RawSample{X: 2300, Y: 2000},
		RawSample{X: 3300, Y: 2000},
	)

	if err := runCalibration(a); err == nil {
		t.Fatal("degenerate points should fail the flow")
	}
	if got := a.Calib(); got != old {
		t.Errorf("failed flow must keep the old profile, got %+v", got)
	}
	if _, err := os.Stat(a.calibrationPath); err == nil {
		t.Error("failed flow must not persist a profile")
	}
	if a.calibrationActive() {
		t.Error("gate should be released after a failed flow")
	}
}

func TestWaitForCalibTouchTimesOut(t *testing.T) {
	if _, err := waitForCalibTouch(&scriptReader{}, nil, 50*time.Millisecond); err == nil {
		t.Error("a silent sensor should time out")
	}
}

func TestWaitForCalibTouchRejectsNearPrevious(t *testing.T) {
	prev := RawSample{X: 500, Y: 500}
	near := RawSample{X: 560, Y: 520} // within 200 raw units of prev
	far := RawSample{X: 3000, Y: 3000}
	r := &scriptReader{queue: []*RawSample{&near, &far}}

	got, err := waitForCalibTouch(r, &prev, 2*time.Second)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if *got != far {
		t.Errorf("finger that never lifted should be skipped, got %+v", *got)
	}
}

func TestProfileFromPoints(t *testing.T) {
	points := []RawSample{
		{X: 300, Y: 350},
		{X: 3800, Y: 340},
		{X: 320, Y: 3700},
		{X: 3790, Y: 3680},
	}
	c := profileFromPoints(points)
	if c.XMin != 300 || c.XMax != 3800 || c.YMin != 340 || c.YMax != 3700 {
		t.Errorf("unexpected profile %+v", c)
	}
	if !c.Valid() {
		t.Error("profile from spread points should be valid")
	}

	if profileFromPoints(nil).Valid() {
		t.Error("empty point set should not produce a valid profile")
	}
}
