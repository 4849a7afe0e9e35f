package main

import (
	"image"
	"log"
	"sync"
)

// Presenter is the single serialized entry point for writing frames to the
// panel. Every writer — the screen manager and the snowfall overlay — goes
// through Present; the lock is held for the brightness transform and the
// hardware write, never across a sleep.
type Presenter struct {
	mu        sync.Mutex
	sink      FrameSink
	scale     float64 // brightness, (0,1]
	work      *image.RGBA
	lastFrame *image.RGBA // copy of the last presented frame, for /frame
}

func newPresenter(sink FrameSink) *Presenter {
	w, h := sink.Size()
	return &Presenter{
		sink:      sink,
		scale:     1.0,
		work:      image.NewRGBA(image.Rect(0, 0, w, h)),
		lastFrame: image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

// Present shows a frame on the panel. It never fails observably: a sink
// error is logged and the sink is swapped for a no-op so the control loop
// keeps running without a display.
func (p *Presenter) Present(frame *image.RGBA) {
	if frame == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	out := frame
	if p.scale < 0.999 {
		out = p.dimLocked(frame)
	}

	if len(p.lastFrame.Pix) == len(out.Pix) {
		copy(p.lastFrame.Pix, out.Pix)
	}

	if err := p.sink.Display(out); err != nil {
		log.Printf("[Presenter] display write failed, switching to no-op sink: %v", err)
		w, h := p.sink.Size()
		p.sink = &noopSink{width: w, height: h}
	}
}

// dimLocked blends the frame toward black by the current brightness scale.
// Writes into the presenter's scratch buffer; caller holds p.mu.
func (p *Presenter) dimLocked(frame *image.RGBA) *image.RGBA {
	if p.work.Bounds() != frame.Bounds() {
		p.work = image.NewRGBA(frame.Bounds())
	}
	src := frame.Pix
	dst := p.work.Pix
	s := uint32(p.scale * 256)
	for i := 0; i+3 < len(src); i += 4 {
		dst[i] = uint8(uint32(src[i]) * s >> 8)
		dst[i+1] = uint8(uint32(src[i+1]) * s >> 8)
		dst[i+2] = uint8(uint32(src[i+2]) * s >> 8)
		dst[i+3] = src[i+3]
	}
	return p.work
}

// SetBrightness applies a new brightness scale to all subsequent frames.
func (p *Presenter) SetBrightness(scale float64) {
	if scale <= 0 {
		scale = 0.01
	}
	if scale > 1 {
		scale = 1
	}
	p.mu.Lock()
	p.scale = scale
	p.mu.Unlock()
}

func (p *Presenter) Brightness() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scale
}

func (p *Presenter) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sink.Size()
}

// LastFrame returns a copy of the most recently presented frame.
func (p *Presenter) LastFrame() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := image.NewRGBA(p.lastFrame.Bounds())
	copy(out.Pix, p.lastFrame.Pix)
	return out
}
