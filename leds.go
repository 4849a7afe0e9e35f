package main

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

const (
	// GPIO13 is PWM1; keeps GPIO18 (PWM0) free for the buzzer.
	LED_GPIO_PIN   = 13
	LED_COUNT      = 7
	LED_DRIVER_MAX = 255

	sparkleThreshold = 20
	sparkleInterval  = 80 * time.Millisecond

	steadyBrightness = 0.35
	breathLow        = 0.18
	breathHigh       = 0.85

	ledJoinTimeout = 600 * time.Millisecond
)

// RGB is a plain 8-bit color triple for the strip.
type RGB struct {
	R, G, B uint8
}

// PixelStrip is the hardware-facing LED contract. A no-op implementation
// exists for headless/dev operation.
type PixelStrip interface {
	SetPixel(i int, r, g, b uint8)
	Show() error
	Count() int
}

type noopStrip struct {
	n int
}

func (s *noopStrip) SetPixel(int, uint8, uint8, uint8) {}
func (s *noopStrip) Show() error                       { return nil }
func (s *noopStrip) Count() int                        { return s.n }

// ws2811Strip drives a WS2812 ring through the PWM peripheral.
type ws2811Strip struct {
	dev *ws2811.WS2811
	n   int
}

func newWS2811Strip() (*ws2811Strip, error) {
	opt := ws2811.DefaultOptions
	opt.Channels[0].GpioPin = LED_GPIO_PIN
	opt.Channels[0].LedCount = LED_COUNT
	opt.Channels[0].Brightness = LED_DRIVER_MAX // driver max, scaling is ours
	opt.Channels[0].StripeType = ws2811.WS2812Strip

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, err
	}
	if err := dev.Init(); err != nil {
		return nil, err
	}
	log.Println("[LED] WS2812 initialized on GPIO13")
	return &ws2811Strip{dev: dev, n: LED_COUNT}, nil
}

func (s *ws2811Strip) SetPixel(i int, r, g, b uint8) {
	s.dev.Leds(0)[i] = uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func (s *ws2811Strip) Show() error { return s.dev.Render() }
func (s *ws2811Strip) Count() int  { return s.n }

func (s *ws2811Strip) Close() {
	s.dev.Fini()
}

// SnowLEDs drives the indicator strip from the snowfall metric: steady color
// when the value is unchanged, a breathing pulse when it just changed, and a
// sparkle overlay on heavy snowfall. The color ramp is clamped to 1..20 but
// change detection, breathing period and the sparkle threshold all use the
// raw values.
type SnowLEDs struct {
	strip PixelStrip

	// paintMu serializes every write to the physical strip, including the
	// global brightness scale that multiplies each paint.
	paintMu     sync.Mutex
	globalScale float64

	// mu guards the effect state and worker handles.
	mu        sync.Mutex
	baseColor RGB
	currentCm int
	prevCm    int

	breathStop  chan struct{}
	breathDone  chan struct{}
	sparkleStop chan struct{}
	sparkleDone chan struct{}
}

func newSnowLEDs(strip PixelStrip) *SnowLEDs {
	return &SnowLEDs{strip: strip, globalScale: 1.0}
}

// SetSnowValue updates the strip for a new metric reading. Breathing runs
// only while the value differs from the previous one; calling with the same
// pair twice settles on a steady paint and starts nothing.
func (l *SnowLEDs) SetSnowValue(now, prev int) {
	l.mu.Lock()
	l.currentCm = now
	l.prevCm = prev
	if now > 0 {
		l.baseColor = colorForCm(now)
	} else {
		l.baseColor = RGB{}
	}
	base := l.baseColor
	l.mu.Unlock()

	if now > sparkleThreshold {
		l.startSparkle()
	} else {
		l.stopSparkle()
	}

	if now <= 0 {
		l.stopBreathe()
		l.paintSolid(RGB{}, 0)
		return
	}

	if now != prev {
		delta := now - prev
		if delta < 0 {
			delta = -delta
		}
		l.startBreathe(breathPeriodForDelta(delta))
	} else {
		l.stopBreathe()
		l.paintSolid(base, steadyBrightness)
	}
}

// SetGlobalBrightness changes the scale applied to every paint and repaints
// the current state immediately so a dimmer change is visible right away.
// Breathing repaints itself within one 20ms step.
func (l *SnowLEDs) SetGlobalBrightness(scale float64) {
	if scale <= 0 {
		scale = 0.01
	}
	if scale > 1 {
		scale = 1
	}

	l.mu.Lock()
	base := l.baseColor
	cm := l.currentCm
	breathing := l.breathStop != nil
	l.mu.Unlock()

	l.paintMu.Lock()
	l.globalScale = scale
	if !breathing {
		if cm > 0 {
			l.paintSolidLocked(base, steadyBrightness)
		} else {
			l.paintSolidLocked(RGB{}, 0)
		}
	}
	l.paintMu.Unlock()
}

func (l *SnowLEDs) GlobalBrightness() float64 {
	l.paintMu.Lock()
	defer l.paintMu.Unlock()
	return l.globalScale
}

// RainbowFadeIn runs the boot splash effect: a color wheel that fades in
// with a smoothstep curve over the given duration, then the strip goes dark.
// Blocking; run once before the effect workers exist.
func (l *SnowLEDs) RainbowFadeIn(duration time.Duration) {
	n := l.strip.Count()
	if n < 1 {
		n = 1
	}
	t0 := time.Now()
	for {
		t := time.Since(t0)
		if t >= duration {
			break
		}
		u := t.Seconds() / duration.Seconds()
		fade := u * u * (3 - 2*u)
		wheelBase := int(t.Seconds() * 256 / 5.0)

		l.paintMu.Lock()
		s := fade * l.globalScale
		for i := 0; i < n; i++ {
			c := wheel(byte((wheelBase + i*256/n) & 255))
			l.strip.SetPixel(i, uint8(float64(c.R)*s), uint8(float64(c.G)*s), uint8(float64(c.B)*s))
		}
		if err := l.strip.Show(); err != nil {
			log.Printf("[LED] strip show failed: %v", err)
		}
		l.paintMu.Unlock()

		time.Sleep(20 * time.Millisecond)
	}
	l.Clear()
}

// Clear stops all effect workers and turns every pixel off.
func (l *SnowLEDs) Clear() {
	l.stopBreathe()
	l.stopSparkle()
	l.paintSolid(RGB{}, 0)
}

// BreathingActive reports whether the breathing worker is running.
func (l *SnowLEDs) BreathingActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.breathStop != nil
}

// SparkleActive reports whether the sparkle worker is running.
func (l *SnowLEDs) SparkleActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sparkleStop != nil
}

func (l *SnowLEDs) paintSolid(c RGB, level float64) {
	l.paintMu.Lock()
	l.paintSolidLocked(c, level)
	l.paintMu.Unlock()
}

// paintSolidLocked writes one color to every pixel. Caller holds paintMu.
func (l *SnowLEDs) paintSolidLocked(c RGB, level float64) {
	s := level * l.globalScale
	r := uint8(float64(c.R) * s)
	g := uint8(float64(c.G) * s)
	b := uint8(float64(c.B) * s)
	for i := 0; i < l.strip.Count(); i++ {
		l.strip.SetPixel(i, r, g, b)
	}
	if err := l.strip.Show(); err != nil {
		log.Printf("[LED] strip show failed: %v", err)
	}
}

// ----- breathing worker -----

func (l *SnowLEDs) startBreathe(period time.Duration) {
	l.stopBreathe()

	l.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	l.breathStop = stop
	l.breathDone = done
	base := l.baseColor
	l.mu.Unlock()

	go l.breatheLoop(base, period, stop, done)
}

func (l *SnowLEDs) stopBreathe() {
	l.mu.Lock()
	stop, done := l.breathStop, l.breathDone
	l.breathStop, l.breathDone = nil, nil
	l.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	select {
	case <-done:
	case <-time.After(ledJoinTimeout):
		log.Println("[LED] breathing worker slow to stop, abandoning")
	}
}

func (l *SnowLEDs) breatheLoop(base RGB, period time.Duration, stop, done chan struct{}) {
	defer close(done)
	t0 := time.Now()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			phase := math.Mod(time.Since(t0).Seconds(), period.Seconds()) / period.Seconds()
			amp := 0.5 - 0.5*math.Cos(2*math.Pi*phase)
			l.paintSolid(base, breathLow+(breathHigh-breathLow)*amp)
		}
	}
}

// breathPeriodForDelta maps the metric change to a pulse period:
// delta 1 breathes slowly (~8s), delta 10 and above quickly (1.5s).
func breathPeriodForDelta(delta int) time.Duration {
	if delta < 1 {
		delta = 1
	}
	if delta > 10 {
		delta = 10
	}
	sec := 8.0 - float64(delta-1)*0.73
	if sec < 1.5 {
		sec = 1.5
	}
	return time.Duration(sec * float64(time.Second))
}

// ----- sparkle worker -----

func (l *SnowLEDs) startSparkle() {
	l.mu.Lock()
	if l.sparkleStop != nil {
		l.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	l.sparkleStop = stop
	l.sparkleDone = done
	l.mu.Unlock()

	go l.sparkleLoop(stop, done)
}

func (l *SnowLEDs) stopSparkle() {
	l.mu.Lock()
	stop, done := l.sparkleStop, l.sparkleDone
	l.sparkleStop, l.sparkleDone = nil, nil
	l.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	select {
	case <-done:
	case <-time.After(ledJoinTimeout):
		log.Println("[LED] sparkle worker slow to stop, abandoning")
	}
}

// sparkleLoop repaints the base color then whitens a random subset of pixels
// each pass. It runs on top of whatever steady/breathing paints, so each pass
// re-establishes the base before flashing.
func (l *SnowLEDs) sparkleLoop(stop, done chan struct{}) {
	defer close(done)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(sparkleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			cm := l.currentCm
			base := l.baseColor
			level := steadyBrightness
			if l.breathStop != nil {
				level = 0.50
			}
			l.mu.Unlock()

			l.paintSparkle(base, level, sparkleProb(cm), rng)
		}
	}
}

func (l *SnowLEDs) paintSparkle(base RGB, level, prob float64, rng *rand.Rand) {
	l.paintMu.Lock()
	defer l.paintMu.Unlock()

	s := level * l.globalScale
	r := uint8(float64(base.R) * s)
	g := uint8(float64(base.G) * s)
	b := uint8(float64(base.B) * s)
	white := uint8(255 * l.globalScale)

	for i := 0; i < l.strip.Count(); i++ {
		if rng.Float64() < prob {
			l.strip.SetPixel(i, white, white, white)
		} else {
			l.strip.SetPixel(i, r, g, b)
		}
	}
	if err := l.strip.Show(); err != nil {
		log.Printf("[LED] strip show failed: %v", err)
	}
}

// sparkleProb grows linearly from 0.10 at the threshold to 0.25 five cm past it.
func sparkleProb(cm int) float64 {
	t := float64(cm-sparkleThreshold) / 5.0
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return 0.10 + 0.15*t
}

// ----- color helpers -----

// colorForCm maps snowfall depth to the indicator ramp:
// 1..10 light blue to deep blue to purple, 10..20 purple to dark red to
// bright red. Input is clamped to 1..20; values past the cap stay bright red.
func colorForCm(cm int) RGB {
	lightBlue := RGB{168, 216, 255}
	deepBlue := RGB{0, 72, 255}
	purple := RGB{128, 0, 255}
	darkRed := RGB{139, 0, 0}
	brightRed := RGB{255, 0, 0}

	if cm < 1 {
		cm = 1
	}
	if cm > 20 {
		cm = 20
	}
	switch {
	case cm <= 5:
		return lerpRGB(lightBlue, deepBlue, float64(cm-1)/4.0)
	case cm <= 10:
		return lerpRGB(deepBlue, purple, float64(cm-5)/5.0)
	case cm <= 15:
		return lerpRGB(purple, darkRed, float64(cm-10)/5.0)
	default:
		return lerpRGB(darkRed, brightRed, float64(cm-15)/5.0)
	}
}

func lerpRGB(a, b RGB, t float64) RGB {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return RGB{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

// wheel is the strandtest color wheel, 0..255 across the hue circle.
func wheel(pos byte) RGB {
	p := 255 - pos
	switch {
	case p < 85:
		return RGB{255 - p*3, 0, p * 3}
	case p < 170:
		p -= 85
		return RGB{0, p * 3, 255 - p*3}
	default:
		p -= 170
		return RGB{p * 3, 255 - p*3, 0}
	}
}
