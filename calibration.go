package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"
)

const (
	calibPointTimeout  = 12 * time.Second
	calibReleaseWindow = 300 * time.Millisecond
	calibReleaseLimit  = 5 * time.Second
	// A new sample this close (raw units) to the previous accepted point is
	// assumed to be a finger that never lifted.
	calibMinPointDistance = 200.0
)

// Calibration maps raw 12-bit touch coordinates to screen pixels with a
// 2-point (min/max per axis) affine model.
type Calibration struct {
	XMin uint16 `json:"x_min"`
	XMax uint16 `json:"x_max"`
	YMin uint16 `json:"y_min"`
	YMax uint16 `json:"y_max"`
}

func defaultCalibration() Calibration {
	return Calibration{XMin: 0, XMax: 4095, YMin: 0, YMax: 4095}
}

// Valid reports whether both axis spans are positive. A degenerate span
// would divide by zero in Map and is treated as corrupt.
func (c Calibration) Valid() bool {
	return c.XMax > c.XMin && c.YMax > c.YMin
}

// Map converts a raw sample to screen coordinates: affine scale, then both
// axes inverted (the panel is mounted rotated relative to the sensor), then
// clamped to panel bounds.
func (c Calibration) Map(raw RawSample, width, height int) (int, int) {
	dx := int(c.XMax) - int(c.XMin)
	if dx < 1 {
		dx = 1
	}
	dy := int(c.YMax) - int(c.YMin)
	if dy < 1 {
		dy = 1
	}

	sx := (int(raw.X) - int(c.XMin)) * width / dx
	sy := (int(raw.Y) - int(c.YMin)) * height / dy
	sx = width - 1 - sx
	sy = height - 1 - sy

	return clampInt(sx, 0, width-1), clampInt(sy, 0, height-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// loadCalibration reads the persisted profile. Missing or corrupt files
// (including degenerate spans) reset to full-range defaults.
func loadCalibration(path string) Calibration {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Calib] no calibration file (%v), using defaults", err)
		return defaultCalibration()
	}
	var c Calibration
	if err := json.Unmarshal(data, &c); err != nil {
		log.Printf("[Calib] calibration file unreadable (%v), using defaults", err)
		return defaultCalibration()
	}
	if !c.Valid() {
		log.Println("[Calib] calibration file invalid, resetting to defaults")
		return defaultCalibration()
	}
	return c
}

// saveCalibration persists the profile atomically: write a temp file in the
// same directory, then rename over the target so a partial write can never
// corrupt the profile.
func saveCalibration(path string, c Calibration) error {
	if !c.Valid() {
		return fmt.Errorf("refusing to save degenerate calibration %+v", c)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".calib-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

type calibTarget struct {
	label string
	sx    int
	sy    int
}

// runCalibration walks the guided on-device flow: for each corner target,
// draw a crosshair, wait for a stable touch, reject samples suspiciously
// close to the previous accepted point, and require a short release window
// before advancing. Any timeout fails soft: the existing profile stays in
// force and a transient message is shown.
func runCalibration(a *App) error {
	if !a.beginCalibration() {
		return fmt.Errorf("calibration already running")
	}
	defer a.endCalibration()

	w, h := a.presenter.Size()
	inset := 20
	targets := []calibTarget{
		{"top-left", inset, inset},
		{"top-right", w - inset, inset},
		{"bottom-left", inset, h - inset},
		{"bottom-right", w - inset, h - inset},
	}

	var accepted []RawSample
	var prev *RawSample
	for _, tgt := range targets {
		a.presenter.Present(calibTargetFrame(w, h, tgt))

		raw, err := waitForCalibTouch(a.touch, prev, calibPointTimeout)
		if err != nil {
			a.presenter.Present(calibMessageFrame(w, h, "Calibration timed out", SNOW_RED))
			time.Sleep(1200 * time.Millisecond)
			return err
		}
		log.Printf("[Calib] %s raw point: (%d,%d)", tgt.label, raw.X, raw.Y)
		accepted = append(accepted, *raw)
		prev = raw

		if err := waitForRelease(a.touch); err != nil {
			a.presenter.Present(calibMessageFrame(w, h, "Lift finger between points", SNOW_RED))
			time.Sleep(1200 * time.Millisecond)
			return err
		}
	}

	c := profileFromPoints(accepted)
	if !c.Valid() {
		a.presenter.Present(calibMessageFrame(w, h, "Calibration failed", SNOW_RED))
		time.Sleep(1200 * time.Millisecond)
		return fmt.Errorf("degenerate calibration points")
	}
	if err := saveCalibration(a.calibrationPath, c); err != nil {
		return err
	}
	a.setCalibration(c)
	a.presenter.Present(calibMessageFrame(w, h, "Calibration complete", SNOW_WHITE))
	time.Sleep(1200 * time.Millisecond)
	return nil
}

// profileFromPoints derives per-axis min/max from the accepted raw points.
func profileFromPoints(points []RawSample) Calibration {
	if len(points) == 0 {
		return Calibration{}
	}
	c := Calibration{XMin: points[0].X, XMax: points[0].X, YMin: points[0].Y, YMax: points[0].Y}
	for _, p := range points[1:] {
		if p.X < c.XMin {
			c.XMin = p.X
		}
		if p.X > c.XMax {
			c.XMax = p.X
		}
		if p.Y < c.YMin {
			c.YMin = p.Y
		}
		if p.Y > c.YMax {
			c.YMax = p.Y
		}
	}
	return c
}

func rawDistance(a, b RawSample) float64 {
	dx := float64(a.X) - float64(b.X)
	dy := float64(a.Y) - float64(b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func waitForCalibTouch(touch TouchReader, prev *RawSample, timeout time.Duration) (*RawSample, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		raw := touch.ReadTouch(touchSamples, touchTolerance)
		if raw != nil {
			if prev != nil && rawDistance(*raw, *prev) < calibMinPointDistance {
				// Finger not lifted yet; keep waiting.
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return raw, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil, fmt.Errorf("timeout waiting for calibration touch")
}

// waitForRelease blocks until the sensor reports no touch for a full
// release window, bounded by calibReleaseLimit.
func waitForRelease(touch TouchReader) error {
	deadline := time.Now().Add(calibReleaseLimit)
	clearSince := time.Now()
	for time.Now().Before(deadline) {
		if touch.ReadTouch(touchSamples, touchTolerance) != nil {
			clearSince = time.Now()
		} else if time.Since(clearSince) >= calibReleaseWindow {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("touch never released")
}

func calibTargetFrame(w, h int, tgt calibTarget) *image.RGBA {
	frame := newBlackFrame(w, h)
	strokeRoundedRect(frame, 1, 1, float64(w-2), float64(h-2), SNOW_GREY)
	drawCrosshair(frame, tgt.sx, tgt.sy, SNOW_RED)
	drawText(frame, "Touch the "+tgt.label+" target", w/2, 10, getFontFace("small"), SNOW_WHITE, true)
	return frame
}

func calibMessageFrame(w, h int, msg string, clr color.RGBA) *image.RGBA {
	frame := newBlackFrame(w, h)
	drawText(frame, msg, w/2, h/2-8, getFontFace("reg"), clr, true)
	return frame
}
