package main

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/llgcode/draw2d/draw2dimg"
)

// getCpuTemp returns the SoC temperature in millidegrees from
// /sys/class/thermal/thermal_zone0/temp.
func getCpuTemp() (float64, error) {
	content, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(content)), 64)
}

// drawCpuTempBadge paints a small rounded badge with the SoC temperature.
// Silently draws nothing off-device.
func drawCpuTempBadge(frame *image.RGBA, x0, y0 int) {
	milli, err := getCpuTemp()
	if err != nil {
		return
	}
	label := fmt.Sprintf("%.1fC", milli/1000)

	gc := draw2dimg.NewGraphicContext(frame)
	gc.SetFillColor(SNOW_BLACK)
	gc.SetStrokeColor(SNOW_GREY)
	gc.SetLineWidth(1)
	drawRoundedRect(gc, float64(x0), float64(y0), 46, 16, 4)
	gc.FillStroke()

	drawText(frame, label, x0+4, y0+2, getFontFace("small"), SNOW_WHITE, false)
}

// drawSignalStrength renders the 4-bar Wi-Fi badge. Each distinct bar count
// is rasterized from a generated SVG once and cached in /tmp.
func drawSignalStrength(frame *image.RGBA, x0, y0 int, strength float64) {
	xBarSize := 5
	yBarSize := 12
	barSpace := 1
	numBars := 4
	yMinHeight := 3
	strengthInt := int(math.Ceil(strength * 4))
	fn := "/tmp/strength-" + strconv.Itoa(strengthInt) + ".svg"

	if _, err := os.Stat(fn); err != nil {
		var buf bytes.Buffer
		canvas := svg.New(&buf)
		canvas.Start(xBarSize*numBars+barSpace*(numBars-1), yBarSize+yMinHeight)
		for i := 0; i < numBars; i++ {
			fill := "fill:white"
			if i >= strengthInt {
				fill = fmt.Sprintf("fill:#%02X%02X%02X", SNOW_GREY.R, SNOW_GREY.G, SNOW_GREY.B)
			}
			canvas.Roundrect(i*xBarSize+i*barSpace, yBarSize/4*(4-i), xBarSize, yBarSize/4*i+yMinHeight, 2, 2, fill)
		}
		canvas.End()

		if err := os.WriteFile(fn, buf.Bytes(), 0644); err != nil {
			log.Printf("[HUD] could not cache %s: %v", fn, err)
			return
		}
	}

	img, _, _, err := loadImage(fn)
	if err != nil {
		log.Printf("[HUD] signal badge load failed: %v", err)
		return
	}
	copyImageToImageAt(frame, img, x0, y0)
}
