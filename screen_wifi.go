package main

import (
	"image"
	"log"
)

// ConfigWiFiScreen picks an SSID from a live scan and collects a password via
// the keyboard. The credentials are handed to the application's WiFi callback;
// writing supplicant config and reassociating happen outside the kiosk.
type ConfigWiFiScreen struct {
	baseScreen
	bg           *image.RGBA
	ssidList     []string
	currentIndex int
	password     string
}

func newConfigWiFiScreen(a *App) *ConfigWiFiScreen {
	w, h := a.presenter.Size()
	s := &ConfigWiFiScreen{
		bg:       loadBackground("images/config_wifi.png", w, h),
		ssidList: getAvailableSSIDs(),
	}

	s.AddButton(&Button{X1: 272, Y1: 108, X2: 298, Y2: 135, Label: "SSID_UP", OnPress: func() {
		if s.currentIndex > 0 {
			s.currentIndex--
			log.Printf("[WiFi] SSID changed to %s", s.ssidList[s.currentIndex])
		}
	}})
	s.AddButton(&Button{X1: 272, Y1: 140, X2: 298, Y2: 165, Label: "SSID_DOWN", OnPress: func() {
		if s.currentIndex < len(s.ssidList)-1 {
			s.currentIndex++
			log.Printf("[WiFi] SSID changed to %s", s.ssidList[s.currentIndex])
		}
	}})
	s.AddButton(&Button{X1: 60, Y1: 210, X2: 260, Y2: 230, Label: "PASSWORD", OnPress: func() {
		a.screens.rememberCurrent()
		a.screens.SetScreen(newKeyboardScreen(a, "Enter PASSWORD", func(text string) {
			s.password = text
			log.Println("[WiFi] password set")
		}))
	}})
	s.AddButton(&Button{X1: 270, Y1: 190, X2: 310, Y2: 220, Label: "Back", OnPress: func() {
		s.saveAndExit(a)
	}})
	return s
}

func (s *ConfigWiFiScreen) saveAndExit(a *App) {
	if a.applyWifi != nil && s.ssid() != "" {
		ssid, pass := s.ssid(), s.password
		go a.applyWifi(ssid, pass)
	}
	a.screens.SetScreen(newImageScreen(a, "images/config.png"))
}

func (s *ConfigWiFiScreen) ssid() string {
	if len(s.ssidList) == 0 {
		return ""
	}
	return s.ssidList[s.currentIndex]
}

func (s *ConfigWiFiScreen) Name() string { return "ConfigWiFi" }

func (s *ConfigWiFiScreen) Draw(a *App) *image.RGBA {
	frame := cloneFrame(s.bg)
	face := getFontFace("reg")

	drawText(frame, "Wifi SSID", 73, 105, face, SNOW_WHITE, false)
	if ssid := s.ssid(); ssid != "" {
		if len(ssid) > 14 {
			ssid = ssid[:14]
		}
		drawText(frame, ssid, 73, 140, face, SNOW_WHITE, false)
	}
	drawText(frame, "PASSWORD", 73, 175, face, SNOW_WHITE, false)
	drawText(frame, s.password, 73, 207, face, SNOW_WHITE, false)

	s.drawButtons(frame)
	return frame
}
