package main

import (
	"image"
	"log"
	"os"
	"strings"
)

// MainMenuScreen is the entry page. Labels are baked into the background
// image; the buttons are invisible hitboxes over them.
type MainMenuScreen struct {
	baseScreen
	bg *image.RGBA
}

func newMainMenuScreen(a *App) *MainMenuScreen {
	w, h := a.presenter.Size()
	s := &MainMenuScreen{bg: loadBackground("images/mainmenu.png", w, h)}

	s.AddButton(&Button{X1: 60, Y1: 100, X2: 260, Y2: 130, Label: "Mountain Report", OnPress: func() {
		a.screens.SetScreen(newSnowReportScreen(a))
	}})
	s.AddButton(&Button{X1: 60, Y1: 140, X2: 260, Y2: 165, Label: "Avy Conditions", OnPress: func() {
		a.screens.SetScreen(newImageScreen(a, "images/aconditions.png"))
	}})
	s.AddButton(&Button{X1: 60, Y1: 175, X2: 260, Y2: 200, Label: "Config", OnPress: func() {
		a.screens.SetScreen(newImageScreen(a, "images/config.png"))
	}})
	s.AddButton(&Button{X1: 60, Y1: 210, X2: 260, Y2: 230, Label: "Update", OnPress: func() {
		a.screens.SetScreen(newUpdateScreen(a))
	}})
	return s
}

func (s *MainMenuScreen) Name() string { return "MainMenu" }

func (s *MainMenuScreen) Draw(a *App) *image.RGBA {
	frame := cloneFrame(s.bg)
	s.drawButtons(frame)
	return frame
}

// ImageScreen shows a static background. The config menu is one of these
// with its entry hitboxes and text labels layered on.
type ImageScreen struct {
	baseScreen
	imageFile string
	bg        *image.RGBA
}

func newImageScreen(a *App, imageFile string) *ImageScreen {
	w, h := a.presenter.Size()
	s := &ImageScreen{
		imageFile: imageFile,
		bg:        loadBackground(imageFile, w, h),
	}

	s.AddButton(&Button{X1: 270, Y1: 190, X2: 300, Y2: 220, Label: "Back", OnPress: func() {
		a.screens.SetScreen(newMainMenuScreen(a))
	}})

	if s.isConfigMenu() {
		s.AddButton(&Button{X1: 60, Y1: 100, X2: 260, Y2: 130, Label: "Brightness", OnPress: func() {
			a.CycleBrightness()
		}})
		s.AddButton(&Button{X1: 60, Y1: 140, X2: 260, Y2: 165, Label: "Select Resort", OnPress: func() {
			a.screens.SetScreen(newSelectResortScreen(a))
		}})
		s.AddButton(&Button{X1: 60, Y1: 175, X2: 260, Y2: 200, Label: "Config WiFi", OnPress: func() {
			a.screens.SetScreen(newConfigWiFiScreen(a))
		}})
		s.AddButton(&Button{X1: 60, Y1: 210, X2: 260, Y2: 230, Label: "Set Alarm", OnPress: func() {
			a.screens.SetScreen(newAlarmScreen(a))
		}})
		s.AddButton(&Button{X1: 272, Y1: 108, X2: 298, Y2: 135, Label: "Calibrate", OnPress: func() {
			go func() {
				if err := runCalibration(a); err != nil {
					log.Printf("[Calib] calibration aborted: %v", err)
				}
				a.screens.Redraw()
			}()
		}})
	}
	return s
}

func (s *ImageScreen) isConfigMenu() bool {
	return strings.HasSuffix(s.imageFile, "config.png")
}

func (s *ImageScreen) Name() string { return "Image:" + s.imageFile }

func (s *ImageScreen) Draw(a *App) *image.RGBA {
	frame := cloneFrame(s.bg)

	if s.isConfigMenu() {
		face := getFontFace("reg")
		drawText(frame, "Configuration", 73, 105, face, SNOW_WHITE, false)
		drawText(frame, "Select Resort", 73, 140, face, SNOW_WHITE, false)
		drawText(frame, "Config Wifi", 73, 175, face, SNOW_WHITE, false)
		drawText(frame, "Set Alarm", 73, 207, face, SNOW_WHITE, false)
		drawText(frame, a.BrightnessName(), 225, 105, getFontFace("small"), SNOW_CYAN, false)
	}

	s.drawButtons(frame)
	return frame
}

// UpdateScreen shows the installed and latest release versions. The actual
// update is orchestrated externally; the button only leaves a request marker.
type UpdateScreen struct {
	baseScreen
	bg         *image.RGBA
	currentVer string
	latestVer  string
}

func newUpdateScreen(a *App) *UpdateScreen {
	w, h := a.presenter.Size()
	s := &UpdateScreen{
		bg:         loadBackground("images/update.png", w, h),
		currentVer: getLocalVersion(),
		latestVer:  a.LatestVersion(),
	}
	if s.latestVer == "" {
		s.latestVer = s.currentVer
	}
	log.Printf("[Update] current version: %s", s.currentVer)
	log.Printf("[Update] latest version: %s", s.latestVer)

	s.AddButton(&Button{X1: 43, Y1: 205, X2: 280, Y2: 235, Label: "UPDATE", OnPress: func() {
		if s.latestVer == s.currentVer {
			log.Println("[Update] currently installed version is up to date")
			return
		}
		if err := writeFileAtomic("update.requested", []byte(s.latestVer)); err != nil {
			log.Printf("[Update] could not record request: %v", err)
			return
		}
		log.Printf("[Update] requested update to %s", s.latestVer)
	}})
	s.AddButton(&Button{X1: 290, Y1: 210, X2: 316, Y2: 237, Label: "Back", OnPress: func() {
		a.screens.SetScreen(newMainMenuScreen(a))
	}})
	return s
}

func (s *UpdateScreen) Name() string { return "Update" }

func (s *UpdateScreen) Draw(a *App) *image.RGBA {
	frame := cloneFrame(s.bg)
	face := getFontFace("big")
	drawText(frame, s.currentVer, 125, 123, face, SNOW_WHITE, false)
	drawText(frame, s.latestVer, 125, 168, face, SNOW_WHITE, false)
	s.drawButtons(frame)
	return frame
}

func getLocalVersion() string {
	raw, err := os.ReadFile(VERSION_FILE)
	if err != nil {
		return "0.0.0"
	}
	v := strings.TrimSpace(string(raw))
	if v == "" {
		return "0.0.0"
	}
	return v
}
