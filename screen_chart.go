package main

import (
	"fmt"
	"image"

	"github.com/llgcode/draw2d/draw2dimg"
)

const chartDays = 30

// SnowChartScreen plots the last month of daily 24h snowfall from the
// history log as a bar chart.
type SnowChartScreen struct {
	baseScreen
	history []SnowReading
	hill    string
}

func newSnowChartScreen(a *App) *SnowChartScreen {
	hill := a.Hill()
	history := loadSnowHistory(SNOW_LOG_FILE, hill.Name)
	if len(history) > chartDays {
		history = history[len(history)-chartDays:]
	}
	s := &SnowChartScreen{history: history, hill: hill.Name}

	s.AddButton(&Button{X1: 270, Y1: 190, X2: 300, Y2: 220, Label: "Back", OnPress: func() {
		a.screens.SetScreen(newSnowReportScreen(a))
	}})
	return s
}

func (s *SnowChartScreen) Name() string { return "SnowChart" }

func (s *SnowChartScreen) Draw(a *App) *image.RGBA {
	w, h := a.presenter.Size()
	frame := newBlackFrame(w, h)

	drawText(frame, s.hill+" - 24h snow", w/2, 8, getFontFace("line"), SNOW_WHITE, true)

	left, right := 20.0, float64(w-20)
	top, bottom := 40.0, float64(h-50)

	gc := draw2dimg.NewGraphicContext(frame)
	gc.SetStrokeColor(SNOW_GREY)
	gc.SetLineWidth(1)
	gc.MoveTo(left, top)
	gc.LineTo(left, bottom)
	gc.LineTo(right, bottom)
	gc.Stroke()

	if len(s.history) == 0 {
		drawText(frame, "no history yet", w/2, h/2, getFontFace("reg"), SNOW_GREY, true)
		s.drawButtons(frame)
		return frame
	}

	maxVal := 1
	for _, r := range s.history {
		if r.NewSnow > maxVal {
			maxVal = r.NewSnow
		}
	}

	slot := (right - left) / float64(len(s.history))
	barW := slot * 0.7
	gc.SetFillColor(SNOW_CYAN)
	for i, r := range s.history {
		bh := (bottom - top) * float64(r.NewSnow) / float64(maxVal)
		x := left + float64(i)*slot + (slot-barW)/2
		gc.MoveTo(x, bottom)
		gc.LineTo(x, bottom-bh)
		gc.LineTo(x+barW, bottom-bh)
		gc.LineTo(x+barW, bottom)
		gc.Close()
		gc.Fill()
	}

	small := getFontFace("small")
	drawText(frame, fmt.Sprintf("%dcm", maxVal), 2, int(top)-6, small, SNOW_GREY, false)
	drawText(frame, s.history[0].Date, int(left), int(bottom)+6, small, SNOW_GREY, false)
	drawText(frame, s.history[len(s.history)-1].Date, w-90, int(bottom)+6, small, SNOW_GREY, false)

	s.drawButtons(frame)
	return frame
}
