package main

import "testing"

// constReader always reports the same stable tap.
type constReader struct {
	s RawSample
}

func (r *constReader) ReadTouch(int, int) *RawSample {
	s := r.s
	return &s
}

func TestCalibrationGateIsExclusive(t *testing.T) {
	a := testApp()
	defer a.overlay.Shutdown()

	if !a.beginCalibration() {
		t.Fatal("gate should be free initially")
	}
	if a.beginCalibration() {
		t.Error("second begin should be refused while a flow runs")
	}
	if err := runCalibration(a); err == nil {
		t.Error("starting a flow while the gate is held should fail")
	}
	a.endCalibration()
	if !a.beginCalibration() {
		t.Error("gate should be free again after end")
	}
	a.endCalibration()
}

func TestPollLoopIgnoresTouchDuringCalibration(t *testing.T) {
	a := testApp()
	defer a.overlay.Shutdown()
	a.calib = defaultCalibration()
	a.touch = &constReader{s: RawSample{X: 2048, Y: 2048}}

	var events []string
	s := &fakeScreen{name: "config", events: &events}
	var presses int
	s.AddButton(&Button{X1: 0, Y1: 0, X2: 319, Y2: 239, Label: "Back", OnPress: func() {
		presses++
	}})
	a.screens.SetScreen(s)
	draws := s.draws

	if !a.beginCalibration() {
		t.Fatal("gate should be free")
	}
	a.dispatchTouch()
	if presses != 0 {
		t.Error("a tap during calibration must not press live buttons")
	}
	if s.draws != draws {
		t.Error("a tap during calibration must not repaint over the target frame")
	}
	a.endCalibration()

	a.dispatchTouch()
	if presses != 1 {
		t.Errorf("after calibration the same tap should dispatch, presses = %d", presses)
	}
}

func TestDispatchTouchWithoutReader(t *testing.T) {
	a := testApp()
	defer a.overlay.Shutdown()
	a.dispatchTouch() // nil reader must be a no-op, not a panic
}
