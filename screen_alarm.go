package main

import (
	"fmt"
	"image"
	"strconv"
	"time"
)

// AlarmScreen edits conf/alarm.conf: timed wake-up plus the anytime
// incremental mode. Numeric fields open the keyboard and validate on submit.
type AlarmScreen struct {
	baseScreen
	bg          *image.RGBA
	inactiveImg *image.RGBA

	active          bool
	activeAnytime   bool
	hour            string
	minute          string
	triggeredSnow   string
	incrementalSnow string

	errorMessage string
	errorTime    time.Time
}

func newAlarmScreen(a *App) *AlarmScreen {
	w, h := a.presenter.Size()
	s := &AlarmScreen{bg: loadBackground("images/misc.png", w, h)}

	if img, _, _, err := loadImage("images/InactiveButtonSmall.png"); err == nil {
		s.inactiveImg = img
	}

	s.loadConfig()

	s.AddButton(&Button{X1: 214, Y1: 149, X2: 253, Y2: 167, Label: "Active", OnPress: func() {
		s.active = !s.active
		s.saveFromFields()
	}})
	s.AddButton(&Button{X1: 214, Y1: 183, X2: 252, Y2: 204, Label: "Active Anytime", OnPress: func() {
		s.activeAnytime = !s.activeAnytime
		s.saveFromFields()
	}})
	s.AddButton(&Button{X1: 68, Y1: 135, X2: 118, Y2: 172, Label: "Hour", OnPress: func() {
		s.openKeyboard(a, "Enter Hour", s.setHour)
	}})
	s.AddButton(&Button{X1: 120, Y1: 135, X2: 170, Y2: 172, Label: "Minute", OnPress: func() {
		s.openKeyboard(a, "Enter Minute", s.setMinute)
	}})
	s.AddButton(&Button{X1: 172, Y1: 135, X2: 210, Y2: 172, Label: "Triggered Snow", OnPress: func() {
		s.openKeyboard(a, "Triggered Snowfall Amount", s.setTriggeredSnow)
	}})
	s.AddButton(&Button{X1: 273, Y1: 109, X2: 299, Y2: 135, Label: "Incr Snow", OnPress: func() {
		s.triggeredSnow = strconv.Itoa(safeInt(s.triggeredSnow) + 1)
		s.saveFromFields()
	}})
	s.AddButton(&Button{X1: 273, Y1: 139, X2: 299, Y2: 166, Label: "Decr Snow", OnPress: func() {
		if cur := safeInt(s.triggeredSnow); cur > 1 {
			s.triggeredSnow = strconv.Itoa(cur - 1)
			s.saveFromFields()
		}
	}})
	s.AddButton(&Button{X1: 68, Y1: 208, X2: 245, Y2: 230, Label: "Snow Increments", OnPress: func() {
		s.openKeyboard(a, "Incremental Snowfall Amount", s.setIncrementalSnow)
	}})
	s.AddButton(&Button{X1: 270, Y1: 190, X2: 310, Y2: 225, Label: "Back", OnPress: func() {
		a.screens.SetScreen(newImageScreen(a, "images/config.png"))
	}})
	return s
}

func (s *AlarmScreen) Name() string { return "Alarm" }

func (s *AlarmScreen) loadConfig() {
	cfg := loadAlarmCfg(ALARM_CONF_FILE)
	s.active = cfg.Active
	s.activeAnytime = cfg.ActiveAnytime
	s.hour = cfg.Hour
	s.minute = cfg.Minute
	s.triggeredSnow = cfg.TriggeredSnow
	s.incrementalSnow = cfg.IncrementalSnow
}

func (s *AlarmScreen) saveFromFields() {
	cfg := loadAlarmCfg(ALARM_CONF_FILE)
	cfg.Active = s.active
	cfg.ActiveAnytime = s.activeAnytime
	cfg.Hour = s.hour
	cfg.Minute = s.minute
	cfg.TriggeredSnow = s.triggeredSnow
	cfg.IncrementalSnow = s.incrementalSnow
	saveAlarmCfg(ALARM_CONF_FILE, cfg)
}

func (s *AlarmScreen) showError(msg string) {
	s.errorMessage = msg
	s.errorTime = time.Now()
}

func (s *AlarmScreen) openKeyboard(a *App, prompt string, set func(string)) {
	a.screens.rememberCurrent()
	a.screens.SetScreen(newKeyboardScreen(a, prompt, set))
}

func (s *AlarmScreen) setHour(text string) {
	if v, err := strconv.Atoi(text); err == nil && v >= 0 && v <= 23 {
		s.hour = text
		s.saveFromFields()
	} else {
		s.showError("Hour must be 0-23")
	}
}

func (s *AlarmScreen) setMinute(text string) {
	if v, err := strconv.Atoi(text); err == nil && v >= 0 && v <= 59 {
		s.minute = text
		s.saveFromFields()
	} else {
		s.showError("Minute must be 0-59")
	}
}

func (s *AlarmScreen) setTriggeredSnow(text string) {
	if v, err := strconv.Atoi(text); err == nil && v >= 1 && v <= 100 {
		s.triggeredSnow = text
		s.saveFromFields()
	} else {
		s.showError("Triggered snow must be 1-100")
	}
}

func (s *AlarmScreen) setIncrementalSnow(text string) {
	if v, err := strconv.Atoi(text); err == nil && v >= 1 && v <= 20 {
		s.incrementalSnow = text
		s.saveFromFields()
	} else {
		s.showError("Incremental snow must be 1-20")
	}
}

func (s *AlarmScreen) Draw(a *App) *image.RGBA {
	frame := cloneFrame(s.bg)
	face18 := getFontFace("reg")
	face32 := getFontFace("big")
	face16 := getFontFace("line")

	drawText(frame, "Alarm Settings", 68, 110, face18, SNOW_WHITE, false)
	drawText(frame, s.hour, 68, 135, face32, SNOW_WHITE, false)
	drawText(frame, s.minute, 120, 135, face32, SNOW_WHITE, false)
	drawText(frame, "@", 172, 145, face18, SNOW_WHITE, false)
	drawText(frame, s.triggeredSnow, 188, 139, face16, SNOW_WHITE, false)
	drawText(frame, "cm", 187, 154, face16, SNOW_WHITE, false)
	drawText(frame, "Always On:", 68, 182, face18, SNOW_WHITE, false)
	drawText(frame, fmt.Sprintf("Every +%s cm", s.incrementalSnow), 68, 204, face18, SNOW_WHITE, false)

	if s.errorMessage != "" && time.Since(s.errorTime) < 3*time.Second {
		drawText(frame, s.errorMessage, 10, 220, face18, SNOW_RED, false)
	}

	if !s.active && s.inactiveImg != nil {
		copyImageToImageAt(frame, s.inactiveImg, 214, 149)
	}
	if !s.activeAnytime && s.inactiveImg != nil {
		copyImageToImageAt(frame, s.inactiveImg, 214, 185)
	}

	s.drawButtons(frame)
	return frame
}
