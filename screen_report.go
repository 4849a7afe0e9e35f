package main

import (
	"fmt"
	"image"
)

// SnowReportScreen shows the selected hill's numbers and hosts the snowfall
// overlay: entering binds the overlay to the presenter, leaving idles it,
// and every redraw hands the fresh base frame to the compositor.
type SnowReportScreen struct {
	baseScreen
	bg *image.RGBA
}

func newSnowReportScreen(a *App) *SnowReportScreen {
	w, h := a.presenter.Size()
	s := &SnowReportScreen{bg: loadBackground("images/mreport.png", w, h)}

	s.AddButton(&Button{X1: 270, Y1: 190, X2: 300, Y2: 220, Label: "Back", OnPress: func() {
		a.screens.SetScreen(newMainMenuScreen(a))
	}})
	s.AddButton(&Button{X1: 10, Y1: 190, X2: 60, Y2: 220, Label: "History", OnPress: func() {
		a.screens.SetScreen(newSnowChartScreen(a))
	}})
	return s
}

func (s *SnowReportScreen) Name() string { return "SnowReport" }

func (s *SnowReportScreen) OnActivate(a *App) {
	a.overlay.OnEnter(a.presenter.Present)
}

func (s *SnowReportScreen) OnDeactivate(a *App) {
	a.overlay.OnExit()
}

func (s *SnowReportScreen) Draw(a *App) *image.RGBA {
	frame := cloneFrame(s.bg)
	hill := a.Hill()

	drawText(frame, hill.Name, 55, 55, getFontFace("title"), SNOW_WHITE, false)

	face := getFontFace("line")
	drawText(frame, fmt.Sprintf("24hr Snow: %dcm", hill.NewSnow), 55, 115, face, SNOW_WHITE, false)
	drawText(frame, fmt.Sprintf("Week Snow: %dcm", hill.WeekSnow), 55, 144, face, SNOW_WHITE, false)
	drawText(frame, fmt.Sprintf("Base Snow: %dcm", hill.BaseSnow), 55, 173, face, SNOW_WHITE, false)

	drawCpuTempBadge(frame, 8, 6)
	drawSignalStrength(frame, frame.Bounds().Dx()-32, 8, a.net.Strength())

	s.drawButtons(frame)
	return frame
}
