package main

import (
	"image"
	"log"
	"sync"

	"golang.org/x/image/font/basicfont"
)

// Button is a rectangular touch region. Hit-testing is always active;
// Visible only controls whether the hitbox outline is rendered (most screens
// ship their labels baked into the background image).
type Button struct {
	X1, Y1, X2, Y2 int
	Label          string
	Visible        bool
	OnPress        func()
}

func (b *Button) Contains(x, y int) bool {
	return b.X1 <= x && x <= b.X2 && b.Y1 <= y && y <= b.Y2
}

func (b *Button) draw(frame *image.RGBA) {
	if !b.Visible {
		return
	}
	drawRect(frame, b.X1, b.Y1, b.X2-b.X1, b.Y2-b.Y1, SNOW_GREY)
	strokeRoundedRect(frame, float64(b.X1), float64(b.Y1), float64(b.X2-b.X1), float64(b.Y2-b.Y1), SNOW_WHITE)
	drawText(frame, b.Label, b.X1+4, b.Y1+4, basicfont.Face7x13, SNOW_BLACK, false)
}

// Screen is one kiosk page: it renders a full frame and owns its buttons.
// OnActivate/OnDeactivate let a screen hook subsystems (the report screen
// binds and unbinds the snowfall overlay there).
type Screen interface {
	Name() string
	Draw(a *App) *image.RGBA
	Buttons() []*Button
	OnActivate(a *App)
	OnDeactivate(a *App)
}

// baseScreen carries the button list; most variants embed it.
type baseScreen struct {
	buttons []*Button
}

func (s *baseScreen) Buttons() []*Button  { return s.buttons }
func (s *baseScreen) OnActivate(*App)     {}
func (s *baseScreen) OnDeactivate(*App)   {}
func (s *baseScreen) AddButton(b *Button) { s.buttons = append(s.buttons, b) }

func (s *baseScreen) drawButtons(frame *image.RGBA) {
	for _, b := range s.buttons {
		b.draw(frame)
	}
}

// ScreenManager owns the current screen and the transition sequence:
// deactivate the outgoing screen, swap, activate the incoming one, redraw.
type ScreenManager struct {
	app *App

	mu       sync.Mutex
	current  Screen
	previous Screen // keyboard hand-back target
}

func newScreenManager(app *App) *ScreenManager {
	return &ScreenManager{app: app}
}

func (m *ScreenManager) Current() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SetScreen transitions to a new screen. Activation hooks run outside the
// manager lock so they may call back into the manager.
func (m *ScreenManager) SetScreen(s Screen) {
	m.mu.Lock()
	old := m.current
	m.mu.Unlock()

	if old != nil {
		old.OnDeactivate(m.app)
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	if s != nil {
		log.Printf("[Screen] now showing %s", s.Name())
		s.OnActivate(m.app)
	}
	m.Redraw()
}

// rememberCurrent stashes the active screen so a keyboard can hand back.
func (m *ScreenManager) rememberCurrent() {
	m.mu.Lock()
	m.previous = m.current
	m.mu.Unlock()
}

func (m *ScreenManager) restorePrevious() {
	m.mu.Lock()
	prev := m.previous
	m.previous = nil
	m.mu.Unlock()
	if prev != nil {
		m.SetScreen(prev)
	}
}

// HandleTouch dispatches a mapped coordinate to the first matching button in
// insertion order, then redraws. A panicking callback is logged and the UI
// keeps running.
func (m *ScreenManager) HandleTouch(x, y int) {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur == nil {
		return
	}

	for _, b := range cur.Buttons() {
		if b.Contains(x, y) {
			log.Printf("[Button] %s", b.Label)
			m.press(cur, b, x, y)
			break
		}
	}
	m.Redraw()
}

func (m *ScreenManager) press(s Screen, b *Button, x, y int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Button] %s on %s panicked at (%d,%d): %v", b.Label, s.Name(), x, y, r)
		}
	}()
	if b.OnPress != nil {
		b.OnPress()
	}
}

// Redraw renders the current screen and presents it. The report screen's
// frame is handed to the overlay first so the compositor animates over the
// freshest base.
func (m *ScreenManager) Redraw() {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur == nil {
		return
	}

	frame := cur.Draw(m.app)
	if frame == nil {
		return
	}
	if _, ok := cur.(*SnowReportScreen); ok {
		m.app.overlay.UpdateBase(frame)
	}
	m.app.presenter.Present(frame)
}

func cloneFrame(src *image.RGBA) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, src.Pix)
	return out
}
