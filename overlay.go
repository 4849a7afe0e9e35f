package main

import (
	"image"
	"image/color"
	"log"
	"math"
	"math/rand"
	"os"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

const (
	maxCPUPct = 80.0 // soft process-wide ceiling
	baseFPS   = 24
	peakFPS   = 28
	minFPS    = 10

	memResetBytes = 64 << 20 // RSS growth that triggers a buffer recycle
	frameJitter   = 4 * time.Millisecond
	poolPad       = 16 // extra preallocated flakes
)

// Delta(cm) 1..10 mapped to flake count and fall-speed multiplier.
var (
	densityByDelta = [10]int{20, 35, 55, 75, 95, 115, 130, 145, 155, 165}
	speedByDelta   = [10]float64{1.0, 1.05, 1.10, 1.15, 1.22, 1.30, 1.40, 1.55, 1.75, 2.15}
)

type flake struct {
	x, y, vy float64
	w        int
}

// processStats exposes the two process metrics the overlay paces itself by.
type processStats interface {
	CPUPercent() float64
	RSSBytes() uint64
}

type gopsutilStats struct {
	proc *process.Process
}

func newProcessStats() processStats {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Printf("[Snow] process stats unavailable: %v", err)
		return nullStats{}
	}
	// First call primes the CPU delta; subsequent calls are instantaneous.
	p.Percent(0)
	return &gopsutilStats{proc: p}
}

func (s *gopsutilStats) CPUPercent() float64 {
	pct, err := s.proc.Percent(0)
	if err != nil {
		return 0
	}
	return pct
}

func (s *gopsutilStats) RSSBytes() uint64 {
	mi, err := s.proc.MemoryInfo()
	if err != nil || mi == nil {
		return 0
	}
	return mi.RSS
}

type nullStats struct{}

func (nullStats) CPUPercent() float64 { return 0 }
func (nullStats) RSSBytes() uint64    { return 0 }

// SnowfallOverlay animates falling snow over the report screen even though
// the screen manager itself only redraws on input and fetch intervals. The
// latest base frame is cached here; a background worker composites base plus
// snow into a reusable frame buffer and hands the result to the presenter.
//
// Lifecycle: OnEnter binds the presenter when the report screen becomes
// active; UpdateBase caches each fresh base frame; Trigger starts or
// refreshes the storm for a positive delta; Stop ends it; OnExit idles the
// worker when leaving the screen. The worker thread persists across idle
// periods so restarting a storm is cheap.
type SnowfallOverlay struct {
	getSize func() (int, int)
	stats   processStats

	mu       sync.Mutex
	present  func(*image.RGBA)
	allowed  bool // report screen is current
	running  bool // a positive delta is active
	density  int
	speedMul float64

	base    *image.RGBA // last full base frame, our own copy
	overlay *image.RGBA // per-frame snow layer
	frame   *image.RGBA // composited output

	pool   []*flake
	flakes []*flake
	rng    *rand.Rand

	width  int
	height int

	workerUp bool
	stopCh   chan struct{}
	done     chan struct{}

	// Memory sentinel, touched only by the worker (and tests).
	lastRSS      uint64
	lastRSSCheck time.Time
}

func newSnowfallOverlay(getSize func() (int, int), stats processStats) *SnowfallOverlay {
	return &SnowfallOverlay{
		getSize:      getSize,
		stats:        stats,
		speedMul:     1.0,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(os.Getpid()))),
		lastRSS:      stats.RSSBytes(),
		lastRSSCheck: time.Now(),
	}
}

// OnEnter binds the presenter and allows animation while this screen is up.
func (o *SnowfallOverlay) OnEnter(present func(*image.RGBA)) {
	o.mu.Lock()
	o.present = present
	o.allowed = true
	o.ensureBuffersLocked()
	o.mu.Unlock()
	o.startIfNeeded()
}

// OnExit idles the overlay. The worker stays alive but stops presenting.
func (o *SnowfallOverlay) OnExit() {
	o.mu.Lock()
	o.allowed = false
	o.running = false
	o.density = 0
	o.mu.Unlock()
}

// UpdateBase caches the latest base frame. The overlay keeps its own copy so
// the UI side can drop its reference; a mismatched size is letterboxed onto
// black rather than resampled.
func (o *SnowfallOverlay) UpdateBase(img *image.RGBA) {
	if img == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ensureBuffersLocked()

	if img.Bounds().Dx() == o.width && img.Bounds().Dy() == o.height {
		if o.base == nil || len(o.base.Pix) != len(img.Pix) {
			o.base = image.NewRGBA(img.Bounds())
		}
		copy(o.base.Pix, img.Pix)
		return
	}
	base := newBlackFrame(o.width, o.height)
	if err := copyImageToImageAt(base, img, 0, 0); err != nil {
		log.Printf("[Snow] base letterbox failed: %v", err)
	}
	o.base = base
}

// Trigger starts or refreshes the snowfall for a positive delta in cm.
func (o *SnowfallOverlay) Trigger(deltaCm int) {
	log.Printf("[Snow] triggering snowfall overlay: %d cm", deltaCm)
	delta := clampInt(deltaCm, 1, 10)

	o.mu.Lock()
	o.density = densityByDelta[delta-1]
	o.speedMul = speedByDelta[delta-1]
	o.ensurePoolLocked(o.density + poolPad)
	o.seedFlakesLocked(o.density)
	o.running = true
	o.mu.Unlock()

	o.startIfNeeded()
}

// Stop ends the snowfall but keeps the worker and buffers for a cheap restart.
func (o *SnowfallOverlay) Stop() {
	o.mu.Lock()
	o.running = false
	o.density = 0
	if o.overlay != nil {
		clearOverlay(o.overlay)
	}
	o.mu.Unlock()
}

// Shutdown stops the worker thread entirely. Only used at process exit.
func (o *SnowfallOverlay) Shutdown() {
	o.mu.Lock()
	if !o.workerUp {
		o.mu.Unlock()
		return
	}
	o.workerUp = false
	stop, done := o.stopCh, o.done
	o.mu.Unlock()

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		log.Println("[Snow] overlay worker slow to stop, abandoning")
	}
}

// Density and SpeedMul report the active storm parameters.
func (o *SnowfallOverlay) Density() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.density
}

func (o *SnowfallOverlay) SpeedMul() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speedMul
}

func (o *SnowfallOverlay) startIfNeeded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.workerUp {
		return
	}
	o.workerUp = true
	o.stopCh = make(chan struct{})
	o.done = make(chan struct{})
	go o.loop(o.stopCh, o.done)
}

func (o *SnowfallOverlay) ensureBuffersLocked() {
	w, h := o.getSize()
	o.width, o.height = w, h
	if o.overlay == nil || o.overlay.Bounds().Dx() != w || o.overlay.Bounds().Dy() != h {
		o.overlay = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	if o.frame == nil || o.frame.Bounds().Dx() != w || o.frame.Bounds().Dy() != h {
		o.frame = newBlackFrame(w, h)
	}
}

func (o *SnowfallOverlay) ensurePoolLocked(want int) {
	for len(o.pool) < want {
		o.pool = append(o.pool, &flake{})
	}
}

// seedFlakesLocked activates n pooled flakes spread above the visible area.
// Sizes are weighted: 60% small, 30% medium, 10% large.
func (o *SnowfallOverlay) seedFlakesLocked(n int) {
	o.ensureBuffersLocked()
	w, h := o.width, o.height
	o.flakes = o.pool[:n]
	for _, f := range o.flakes {
		f.x = float64(o.rng.Intn(w))
		f.y = -float64(o.rng.Intn(h) + 1)
		f.vy = (0.9 + o.rng.Float64()*0.8) * o.speedMul
		r := o.rng.Float64()
		switch {
		case r < 0.6:
			f.w = 2
		case r < 0.9:
			f.w = 4
		default:
			f.w = 5
		}
	}
}

// adaptiveFPS picks the frame rate from process CPU load: halve toward the
// floor above the ceiling, allow a small boost when mostly idle.
func adaptiveFPS(cpuPct float64) int {
	switch {
	case cpuPct > maxCPUPct:
		fps := baseFPS / 2
		if fps < minFPS {
			fps = minFPS
		}
		return fps
	case cpuPct < 40.0:
		fps := baseFPS + 2
		if fps > peakFPS {
			fps = peakFPS
		}
		return fps
	default:
		return baseFPS
	}
}

func (o *SnowfallOverlay) loop(stop, done chan struct{}) {
	defer close(done)
	last := time.Now()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		select {
		case <-stop:
			return
		default:
		}

		o.mu.Lock()
		allowed := o.allowed
		running := o.running
		present := o.present
		ready := o.base != nil && o.overlay != nil && o.frame != nil
		o.mu.Unlock()

		if !(allowed && running && present != nil && ready) {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		fps := adaptiveFPS(o.stats.CPUPercent())
		interval := time.Second / time.Duration(fps)
		if dt := time.Since(last); dt < interval {
			// Random jitter desyncs us from the other periodic loops.
			time.Sleep(interval - dt + time.Duration(rng.Int63n(int64(frameJitter))))
		}
		last = time.Now()

		o.mu.Lock()
		o.advanceFlakesLocked(rng)
		o.composeLocked()
		frame := o.frame
		o.mu.Unlock()

		o.presentFrame(present, frame)

		o.checkMemory(time.Now())
	}
}

// advanceFlakesLocked moves every active flake and redraws the snow layer.
// A flake past the bottom edge respawns just above the top at a jittered x.
func (o *SnowfallOverlay) advanceFlakesLocked(rng *rand.Rand) {
	w, h := o.width, o.height
	clearOverlay(o.overlay)
	for _, f := range o.flakes {
		f.y += f.vy
		if f.y >= float64(h) {
			f.y = -2
			f.x = math.Mod(f.x+float64(rng.Intn(17)-8)+float64(w), float64(w))
		}
		fillFlake(o.overlay, int(f.x), int(f.y), f.w)
	}
}

func fillFlake(overlay *image.RGBA, x0, y0, size int) {
	c := color.RGBA{255, 255, 255, 220}
	for y := y0; y <= y0+size; y++ {
		for x := x0; x <= x0+size; x++ {
			overlay.SetRGBA(x, y, c)
		}
	}
}

// composeLocked copies the base frame then alpha-composites the snow layer.
func (o *SnowfallOverlay) composeLocked() {
	copy(o.frame.Pix, o.base.Pix)
	if err := copyImageToImageAt(o.frame, o.overlay, 0, 0); err != nil {
		log.Printf("[Snow] compose failed: %v", err)
	}
}

// presentFrame hands the composited frame to the presenter. Losing the device
// for a moment must never kill the worker, so a panic just backs off briefly.
func (o *SnowfallOverlay) presentFrame(present func(*image.RGBA), frame *image.RGBA) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Snow] present failed: %v", r)
			time.Sleep(50 * time.Millisecond)
		}
	}()
	present(frame)
}

// checkMemory is the low-frequency sentinel: every 2s compare RSS to the last
// snapshot; on growth past the threshold, recreate the overlay and frame
// buffers to defragment and request a reclaim pass. The snapshot only moves
// forward when a reset fires, so steady growth trips it once, not every tick.
// Returns whether a reset happened.
func (o *SnowfallOverlay) checkMemory(now time.Time) bool {
	if now.Sub(o.lastRSSCheck) <= 2*time.Second {
		return false
	}
	o.lastRSSCheck = now
	rss := o.stats.RSSBytes()
	if rss <= o.lastRSS || rss-o.lastRSS <= memResetBytes {
		return false
	}

	o.mu.Lock()
	if o.overlay != nil {
		o.overlay = image.NewRGBA(o.overlay.Bounds())
	}
	if o.frame != nil {
		o.frame = newBlackFrame(o.frame.Bounds().Dx(), o.frame.Bounds().Dy())
	}
	o.mu.Unlock()

	runtime.GC()
	debug.FreeOSMemory()
	o.lastRSS = rss
	log.Printf("[Snow] buffers recycled, rss now %d MB", rss>>20)
	return true
}
