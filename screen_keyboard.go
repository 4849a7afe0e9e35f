package main

import (
	"image"
	"log"
	"strings"

	"golang.org/x/image/font/basicfont"
)

// KeyboardScreen is the on-screen keyboard. It hands the typed text to
// onSubmit and returns to the screen that opened it.
type KeyboardScreen struct {
	baseScreen
	prompt    string
	onSubmit  func(text string)
	inputText string
	symbols   bool
	shift     bool
	app       *App
}

func newKeyboardScreen(a *App, prompt string, onSubmit func(text string)) *KeyboardScreen {
	s := &KeyboardScreen{prompt: prompt, onSubmit: onSubmit, app: a}
	s.buildKeys()
	return s
}

func (s *KeyboardScreen) Name() string { return "Keyboard" }

func (s *KeyboardScreen) buildKeys() {
	s.buttons = s.buttons[:0]

	var rows []string
	if s.symbols {
		rows = []string{"1234567890", "!@#$%^&*()", "-_=+.,?/"}
	} else {
		rows = []string{"QWERTYUIOP", "ASDFGHJKL", "ZXCVBNM"}
	}

	const xStart, yStart = 10, 60
	const keyW, keyH, spacing = 28, 28, 4

	for rowIdx, row := range rows {
		for colIdx, ch := range row {
			label := string(ch)
			if s.shift {
				label = strings.ToUpper(label)
			} else {
				label = strings.ToLower(label)
			}
			x := xStart + colIdx*(keyW+spacing)
			y := yStart + rowIdx*(keyH+spacing)
			key := label
			s.AddButton(&Button{X1: x, Y1: y, X2: x + keyW, Y2: y + keyH, Label: key, Visible: true, OnPress: func() {
				s.appendChar(key)
			}})
		}
	}

	toggleLabel := "[123]"
	if s.symbols {
		toggleLabel = "[ABC]"
	}
	s.AddButton(&Button{X1: 10, Y1: 160, X2: 65, Y2: 190, Label: toggleLabel, Visible: true, OnPress: func() {
		s.symbols = !s.symbols
		s.buildKeys()
	}})

	shiftLabel := "[^]"
	if s.shift {
		shiftLabel = "[v]"
	}
	s.AddButton(&Button{X1: 70, Y1: 160, X2: 125, Y2: 190, Label: shiftLabel, Visible: true, OnPress: func() {
		s.shift = !s.shift
		s.buildKeys()
	}})

	s.AddButton(&Button{X1: 130, Y1: 160, X2: 220, Y2: 190, Label: "Space", Visible: true, OnPress: func() {
		s.appendChar(" ")
	}})
	s.AddButton(&Button{X1: 225, Y1: 160, X2: 270, Y2: 190, Label: "<-", Visible: true, OnPress: func() {
		if len(s.inputText) > 0 {
			s.inputText = s.inputText[:len(s.inputText)-1]
		}
	}})
	s.AddButton(&Button{X1: 275, Y1: 160, X2: 310, Y2: 190, Label: "Enter", Visible: true, OnPress: func() {
		if s.onSubmit != nil {
			s.onSubmit(s.inputText)
		}
		s.app.screens.restorePrevious()
	}})
}

func (s *KeyboardScreen) appendChar(c string) {
	s.inputText += c
	log.Printf("[Keyboard] input now: %q", s.inputText)
}

func (s *KeyboardScreen) Draw(a *App) *image.RGBA {
	w, h := a.presenter.Size()
	frame := newBlackFrame(w, h)
	drawText(frame, s.prompt+":", 10, 10, getFontFace("reg"), SNOW_WHITE, false)
	drawText(frame, s.inputText, 10, 40, basicfont.Face7x13, SNOW_CYAN, false)
	s.drawButtons(frame)
	return frame
}
