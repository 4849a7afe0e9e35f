package main

import (
	"errors"
	"image"
	"testing"
)

// captureSink records every displayed frame and can fail on demand.
type captureSink struct {
	w, h   int
	frames []*image.RGBA
	fail   bool
}

func (s *captureSink) Size() (int, int) { return s.w, s.h }

func (s *captureSink) Display(frame *image.RGBA) error {
	if s.fail {
		return errors.New("spi write failed")
	}
	s.frames = append(s.frames, cloneFrame(frame))
	return nil
}

func whiteFrame(w, h int) *image.RGBA {
	frame := newBlackFrame(w, h)
	for i := range frame.Pix {
		frame.Pix[i] = 255
	}
	return frame
}

func TestPresentFullBrightnessPassthrough(t *testing.T) {
	sink := &captureSink{w: 320, h: 240}
	p := newPresenter(sink)

	p.Present(whiteFrame(320, 240))
	if len(sink.frames) != 1 {
		t.Fatalf("expected 1 displayed frame, got %d", len(sink.frames))
	}
	if sink.frames[0].Pix[0] != 255 {
		t.Errorf("full brightness should not alter pixels, got %d", sink.frames[0].Pix[0])
	}
}

func TestPresentDimsColorKeepsAlpha(t *testing.T) {
	sink := &captureSink{w: 320, h: 240}
	p := newPresenter(sink)
	p.SetBrightness(0.5)

	p.Present(whiteFrame(320, 240))
	got := sink.frames[0].Pix
	if got[0] < 120 || got[0] > 135 {
		t.Errorf("dimmed white channel = %d, want about 127", got[0])
	}
	if got[3] != 255 {
		t.Errorf("alpha should survive dimming, got %d", got[3])
	}
}

func TestSetBrightnessClamps(t *testing.T) {
	p := newPresenter(&noopSink{width: 320, height: 240})
	p.SetBrightness(2.0)
	if p.Brightness() != 1.0 {
		t.Errorf("brightness should clamp to 1.0, got %v", p.Brightness())
	}
	p.SetBrightness(0)
	if p.Brightness() != 0.01 {
		t.Errorf("brightness should floor at 0.01, got %v", p.Brightness())
	}
}

func TestFailingSinkSwappedForNoop(t *testing.T) {
	sink := &captureSink{w: 320, h: 240, fail: true}
	p := newPresenter(sink)

	p.Present(whiteFrame(320, 240))
	// The presenter now runs on a no-op sink; the failing one sees no more writes.
	sink.fail = false
	p.Present(whiteFrame(320, 240))
	if len(sink.frames) != 0 {
		t.Errorf("failed sink should be abandoned, got %d later frames", len(sink.frames))
	}
	if w, h := p.Size(); w != 320 || h != 240 {
		t.Errorf("replacement sink should keep the panel size, got %dx%d", w, h)
	}
}

func TestLastFrameIsIndependentCopy(t *testing.T) {
	p := newPresenter(&noopSink{width: 320, height: 240})
	frame := whiteFrame(320, 240)
	p.Present(frame)

	snap := p.LastFrame()
	if snap.Pix[0] != 255 {
		t.Fatalf("last frame should hold the presented pixels, got %d", snap.Pix[0])
	}
	snap.Pix[0] = 0
	if again := p.LastFrame(); again.Pix[0] != 255 {
		t.Error("mutating a returned frame should not affect the presenter's copy")
	}
}

func TestPresentNilIsNoop(t *testing.T) {
	sink := &captureSink{w: 320, h: 240}
	p := newPresenter(sink)
	p.Present(nil)
	if len(sink.frames) != 0 {
		t.Error("nil frame should not reach the sink")
	}
}
