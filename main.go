package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"

	"periph.io/x/host/v3"
)

const (
	LCD_SPI_PORT   = "SPI0.0"
	TOUCH_SPI_PORT = "SPI0.1"

	RST_PIN       = "GPIO25"
	DC_PIN        = "GPIO24"
	CS_PIN        = "GPIO8"
	BL_PIN        = "GPIO12"
	TOUCH_IRQ_PIN = "GPIO17"

	LCD_WIDTH  = 320
	LCD_HEIGHT = 240

	FETCH_PERIOD       = 10 * time.Minute
	HEARTBEAT_FILE     = "heartbeat.txt"
	HEARTBEAT_INTERVAL = 30 * time.Second
)

// App wires the subsystems together and is handed to every screen
// constructor, so nothing reaches for package-level singletons.
type App struct {
	presenter *Presenter
	screens   *ScreenManager
	overlay   *SnowfallOverlay
	leds      *SnowLEDs
	touch     TouchReader
	net       *NetStatus
	anthem    *AnthemPlayer

	calibMu         sync.Mutex
	calib           Calibration
	calibrating     bool
	calibrationPath string

	hillMu sync.Mutex
	hill   *SkiHill

	brightnessMu  sync.Mutex
	brightnessIdx int

	versionMu     sync.Mutex
	latestVersion string

	// applyWifi receives collected credentials; supplicant config and
	// reassociation are handled outside the kiosk.
	applyWifi func(ssid, password string)
}

// Hill returns a snapshot of the selected hill's readings.
func (a *App) Hill() SkiHill {
	a.hillMu.Lock()
	defer a.hillMu.Unlock()
	h := *a.hill
	h.source = nil
	return h
}

// ReloadHill rebuilds the hill from the persisted resort index.
func (a *App) ReloadHill() {
	a.hillMu.Lock()
	src := a.hill.source
	a.hill = createSelectedHill(src)
	log.Printf("[Hill] reloaded: %s", a.hill.Name)
	a.hillMu.Unlock()
}

func (a *App) RefreshSnow() error {
	a.hillMu.Lock()
	defer a.hillMu.Unlock()
	return a.hill.Refresh()
}

func (a *App) Calib() Calibration {
	a.calibMu.Lock()
	defer a.calibMu.Unlock()
	return a.calib
}

func (a *App) setCalibration(c Calibration) {
	a.calibMu.Lock()
	a.calib = c
	a.calibMu.Unlock()
}

// beginCalibration claims the guided-flow gate. While held, the poll loop
// leaves the touch sensor and the panel to the calibration flow: the same
// physical tap must not also press live buttons, and a stray redraw must not
// paint over the target frame. Returns false when a flow is already running.
func (a *App) beginCalibration() bool {
	a.calibMu.Lock()
	defer a.calibMu.Unlock()
	if a.calibrating {
		return false
	}
	a.calibrating = true
	return true
}

func (a *App) endCalibration() {
	a.calibMu.Lock()
	a.calibrating = false
	a.calibMu.Unlock()
}

func (a *App) calibrationActive() bool {
	a.calibMu.Lock()
	defer a.calibMu.Unlock()
	return a.calibrating
}

// SetLatestVersion records the newest release reported by the external
// updater (via the status server). The update screen compares it to the
// installed version.
func (a *App) SetLatestVersion(v string) {
	a.versionMu.Lock()
	a.latestVersion = v
	a.versionMu.Unlock()
}

func (a *App) LatestVersion() string {
	a.versionMu.Lock()
	defer a.versionMu.Unlock()
	return a.latestVersion
}

// SetBrightnessProfile applies one of the named profiles to the panel dim
// transform and the LED scale, persists the index, and redraws.
func (a *App) SetBrightnessProfile(idx int) {
	if idx < 0 || idx >= len(brightnessProfiles) {
		idx = 0
	}
	a.brightnessMu.Lock()
	a.brightnessIdx = idx
	p := brightnessProfiles[idx]
	a.brightnessMu.Unlock()

	a.presenter.SetBrightness(p.Scale)
	a.leds.SetGlobalBrightness(p.Scale)
	if err := saveBrightnessIndex(BRIGHTNESS_CONF_FILE, idx); err != nil {
		log.Printf("[Brightness] persist failed: %v", err)
	}
	log.Printf("[Brightness] profile %s (%.1f)", p.Name, p.Scale)
	a.screens.Redraw()
}

func (a *App) CycleBrightness() {
	a.brightnessMu.Lock()
	next := (a.brightnessIdx + 1) % len(brightnessProfiles)
	a.brightnessMu.Unlock()
	a.SetBrightnessProfile(next)
}

func (a *App) BrightnessName() string {
	a.brightnessMu.Lock()
	defer a.brightnessMu.Unlock()
	return brightnessProfiles[a.brightnessIdx].Name
}

func main() {
	if _, err := host.Init(); err != nil {
		log.Fatalf("host init failed: %v", err)
	}

	var sink FrameSink
	panel, err := openPanel()
	if err != nil {
		log.Printf("[Display] init failed (%v), using no-op sink", err)
		sink = &noopSink{width: LCD_WIDTH, height: LCD_HEIGHT}
	} else {
		sink = panel
	}
	presenter := newPresenter(sink)

	var strip PixelStrip
	if ws, err := newWS2811Strip(); err != nil {
		log.Printf("[LED] init failed (%v), using no-op strip", err)
		strip = &noopStrip{n: LED_COUNT}
	} else {
		strip = ws
	}

	app := &App{
		presenter:       presenter,
		leds:            newSnowLEDs(strip),
		overlay:         newSnowfallOverlay(presenter.Size, newProcessStats()),
		net:             &NetStatus{},
		calibrationPath: CALIBRATION_FILE,
		hill:            createSelectedHill(stubSnowSource),
	}
	app.screens = newScreenManager(app)
	app.anthem = newAnthemPlayer(noopBeeper{})
	app.calib = loadCalibration(CALIBRATION_FILE)
	app.applyWifi = func(ssid, _ string) {
		log.Printf("[WiFi] credentials collected for %q, supplicant update is external", ssid)
	}

	if xpt, err := newXPT2046(); err != nil {
		log.Printf("[Touch] init failed: %v", err)
	} else {
		app.touch = xpt
	}

	app.SetBrightnessProfile(loadBrightnessIndex(BRIGHTNESS_CONF_FILE))

	go heartbeat()
	go app.net.worker()
	go httpServer(app)
	go monitorPowerKey(app)

	showSplash(app)
	app.leds.RainbowFadeIn(3 * time.Second)

	app.screens.SetScreen(newMainMenuScreen(app))

	runLoop(app)
}

func showSplash(a *App) {
	w, h := a.presenter.Size()
	a.presenter.Present(loadBackground("images/splashlogo.png", w, h))
}

// runLoop is the main polling loop: touch dispatch, periodic snow refresh,
// LED and overlay updates on metric changes, and the alarm check.
func runLoop(a *App) {
	var lastFetch time.Time
	prevSnow := a.Hill().NewSnow
	a.leds.SetSnowValue(prevSnow, prevSnow)

	for {
		a.dispatchTouch()

		if time.Since(lastFetch) > FETCH_PERIOD {
			lastFetch = time.Now()
			if err := a.RefreshSnow(); err != nil {
				log.Printf("[Snow] fetch failed: %v", err)
			} else {
				hill := a.Hill()
				log.Printf("[Snow] %s: 24h new = %d", hill.Name, hill.NewSnow)
				if err := logSnowData(SNOW_LOG_FILE, &hill); err != nil {
					log.Printf("[SnowLog] %v", err)
				}
			}
			if !a.calibrationActive() {
				a.screens.Redraw()
			}
		}

		current := a.Hill().NewSnow
		if current != prevSnow {
			log.Printf("[Snow] change detected: %d -> %d", prevSnow, current)
			a.leds.SetSnowValue(current, prevSnow)
			if current > prevSnow {
				a.overlay.Trigger(current - prevSnow)
			} else {
				a.overlay.Stop()
			}
			prevSnow = current
		}

		checkAndTriggerAlarm(ALARM_CONF_FILE, a.anthem, current, time.Now())

		time.Sleep(100 * time.Millisecond)
	}
}

// dispatchTouch polls the sensor once and routes a stable tap to the screen
// manager. Suppressed while the calibration flow owns the sensor: only one
// goroutine may transact on the touch SPI connection, and the tap belongs to
// the crosshair target, not to whatever button sits under it.
func (a *App) dispatchTouch() {
	if a.touch == nil || a.calibrationActive() {
		return
	}
	if raw := a.touch.ReadTouch(touchSamples, touchTolerance); raw != nil {
		x, y := a.Calib().Map(*raw, LCD_WIDTH, LCD_HEIGHT)
		a.screens.HandleTouch(x, y)
	}
}

func heartbeat() {
	for {
		data := []byte(strconv.FormatInt(time.Now().Unix(), 10))
		if err := os.WriteFile(HEARTBEAT_FILE, data, 0644); err != nil {
			log.Printf("[Heartbeat] write failed: %v", err)
		}
		time.Sleep(HEARTBEAT_INTERVAL)
	}
}

// monitorPowerKey cycles the brightness profile on the power button.
func monitorPowerKey(a *App) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		log.Printf("[Input] ListDevicePaths error: %v", err)
		return
	}

	var devPath string
	for _, ip := range paths {
		if strings.Contains(strings.ToLower(ip.Name), "pwr") ||
			strings.Contains(strings.ToLower(ip.Name), "power") {
			devPath = ip.Path
			break
		}
	}
	if devPath == "" {
		log.Println("[Input] no power key device found")
		return
	}

	keyboard, err := evdev.Open(devPath)
	if err != nil {
		log.Printf("[Input] Open(%s) error: %v", devPath, err)
		return
	}

	name, _ := keyboard.Name()
	log.Printf("[Input] using input device: %s (%s)", devPath, name)

	for {
		ev, err := keyboard.ReadOne()
		if err != nil {
			log.Printf("[Input] read error: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if ev.Type == evdev.EV_KEY && ev.Code == evdev.KEY_POWER && ev.Value == 1 {
			log.Println("[Input] POWER pressed")
			a.CycleBrightness()
		}
	}
}
