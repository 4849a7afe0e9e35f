package main

import (
	"image"
	"log"
)

// SelectResortScreen scrolls through the resort list and persists the choice.
type SelectResortScreen struct {
	baseScreen
	bg           *image.RGBA
	currentIndex int
}

func newSelectResortScreen(a *App) *SelectResortScreen {
	w, h := a.presenter.Size()
	s := &SelectResortScreen{
		bg:           loadBackground("images/select_resort.png", w, h),
		currentIndex: readSelectedResortIndex(RESORT_CONF_FILE),
	}
	if s.currentIndex > len(resortNames)-1 {
		s.currentIndex = 0
	}

	s.AddButton(&Button{X1: 270, Y1: 190, X2: 300, Y2: 220, Label: "Back", OnPress: func() {
		a.screens.SetScreen(newImageScreen(a, "images/config.png"))
	}})
	s.AddButton(&Button{X1: 272, Y1: 108, X2: 298, Y2: 135, Label: "Up", OnPress: func() {
		if s.currentIndex > 0 {
			s.currentIndex--
		}
		log.Printf("[SelectResort] scrolled to index %d", s.currentIndex)
	}})
	s.AddButton(&Button{X1: 272, Y1: 140, X2: 298, Y2: 165, Label: "Down", OnPress: func() {
		if s.currentIndex < len(resortNames)-1 {
			s.currentIndex++
		}
		log.Printf("[SelectResort] scrolled to index %d", s.currentIndex)
	}})
	s.AddButton(&Button{X1: 60, Y1: 175, X2: 260, Y2: 200, Label: "SelectCurrent", OnPress: func() {
		s.confirmSelection(a)
	}})
	return s
}

func (s *SelectResortScreen) confirmSelection(a *App) {
	selected := resortNames[s.currentIndex]
	if err := saveSelectedResortIndex(RESORT_CONF_FILE, s.currentIndex); err != nil {
		log.Printf("[SelectResort] failed to write %s: %v", RESORT_CONF_FILE, err)
	} else {
		log.Printf("[SelectResort] selected %q (index %d)", selected, s.currentIndex)
		a.ReloadHill()
	}
	a.screens.SetScreen(newImageScreen(a, "images/config.png"))
}

func (s *SelectResortScreen) Name() string { return "SelectResort" }

func (s *SelectResortScreen) Draw(a *App) *image.RGBA {
	frame := cloneFrame(s.bg)
	face := getFontFace("reg")

	drawText(frame, "Select Resort", 73, 105, face, SNOW_WHITE, false)
	if s.currentIndex > 0 {
		drawText(frame, resortNames[s.currentIndex-1], 73, 140, face, SNOW_GREY, false)
	}
	drawText(frame, resortNames[s.currentIndex], 73, 175, face, SNOW_WHITE, false)
	if s.currentIndex < len(resortNames)-1 {
		drawText(frame, resortNames[s.currentIndex+1], 73, 207, face, SNOW_GREY, false)
	}

	s.drawButtons(frame)
	return frame
}
