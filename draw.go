package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	xdraw "golang.org/x/image/draw"
)

var (
	SNOW_WHITE = color.RGBA{255, 255, 255, 255}
	SNOW_BLACK = color.RGBA{0, 0, 0, 255}
	SNOW_GREY  = color.RGBA{120, 120, 120, 255}
	SNOW_CYAN  = color.RGBA{0, 229, 255, 255}
	SNOW_RED   = color.RGBA{255, 80, 80, 255}

	imageCacheMu sync.Mutex
	imageCache   = make(map[string]*image.RGBA)

	faceCacheMu sync.Mutex
	faceCache   = make(map[string]font.Face)
)

// FontConfig holds parameters for a font.
type FontConfig struct {
	FontPath string
	FontSize float64
}

var fonts = map[string]FontConfig{
	"title": {FontPath: "assets/fonts/superpixel.ttf", FontSize: 30},
	"line":  {FontPath: "assets/fonts/ponderosa.ttf", FontSize: 16},
	"reg":   {FontPath: "assets/fonts/pixem.otf", FontSize: 18},
	"big":   {FontPath: "assets/fonts/pixem.otf", FontSize: 32},
	"small": {FontPath: "assets/fonts/pixem.otf", FontSize: 12},
}

// getFontFace loads and caches a font face. A missing or unparsable font
// file falls back to the built-in bitmap face so headless runs still render.
func getFontFace(fontName string) font.Face {
	faceCacheMu.Lock()
	defer faceCacheMu.Unlock()
	if face, ok := faceCache[fontName]; ok {
		return face
	}

	cfg, ok := fonts[fontName]
	if !ok {
		return basicfont.Face7x13
	}
	fontBytes, err := os.ReadFile(cfg.FontPath)
	if err != nil {
		log.Printf("[Font] %s not found, using default face", cfg.FontPath)
		faceCache[fontName] = basicfont.Face7x13
		return basicfont.Face7x13
	}
	parsed, err := opentype.Parse(fontBytes)
	if err != nil {
		log.Printf("[Font] error parsing %s: %v", cfg.FontPath, err)
		faceCache[fontName] = basicfont.Face7x13
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    cfg.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		faceCache[fontName] = basicfont.Face7x13
		return basicfont.Face7x13
	}
	faceCache[fontName] = face
	return face
}

// drawText draws a string onto an *image.RGBA at (x,y) using the specified
// font face and color. posY is the top of the text area, not the baseline.
func drawText(img *image.RGBA, text string, posX, posY int, face font.Face, clr color.Color, center bool) (finishX, finishY int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: face,
	}

	metrics := face.Metrics()

	x := posX
	if center {
		textWidth := d.MeasureString(text).Round()
		x = posX - textWidth/2
	}
	y := posY + metrics.Ascent.Round()

	d.Dot = fixed.P(x, y)
	d.DrawString(text)

	textWidth := d.MeasureString(text).Round()
	textHeight := metrics.Ascent.Round() + metrics.Descent.Round()

	finishX = x + textWidth
	if center {
		finishY = (y - metrics.Ascent.Round()) + textHeight
	} else {
		finishY = posY + textHeight
	}
	return
}

func clearFrame(frame *image.RGBA) {
	pix := frame.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = 0
		pix[i+1] = 0
		pix[i+2] = 0
		pix[i+3] = 255
	}
}

// clearOverlay resets a frame to fully transparent.
func clearOverlay(frame *image.RGBA) {
	pix := frame.Pix
	for i := range pix {
		pix[i] = 0
	}
}

func newBlackFrame(w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	clearFrame(frame)
	return frame
}

func drawRect(img *image.RGBA, x0, y0, width, height int, c color.Color) {
	r, g, b, a := c.RGBA()
	col := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}

	for x := x0; x < x0+width; x++ {
		for y := y0; y < y0+height; y++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// copyImageToImageAt alpha-composites img onto frame at the given offset.
// Fully transparent source pixels are skipped; partially transparent ones
// are blended with the over operator.
func copyImageToImageAt(frame *image.RGBA, img *image.RGBA, x0, y0 int) error {
	if frame == nil || img == nil {
		return fmt.Errorf("nil image provided")
	}
	if x0 < 0 || y0 < 0 {
		return fmt.Errorf("x, y is negative: %d,%d", x0, y0)
	}

	targetWidth := img.Bounds().Dx()
	targetHeight := img.Bounds().Dy()

	for y := 0; y < targetHeight; y++ {
		for x := 0; x < targetWidth; x++ {
			sample := img.RGBAAt(x, y)
			if sample.A == 0 {
				continue
			}

			dst := frame.RGBAAt(x0+x, y0+y)
			if sample.A == 255 {
				frame.SetRGBA(x0+x, y0+y, sample)
			} else {
				a := uint16(sample.A)
				invA := uint16(255 - sample.A)
				outR := (uint16(sample.R)*a + uint16(dst.R)*invA) / 255
				outG := (uint16(sample.G)*a + uint16(dst.G)*invA) / 255
				outB := (uint16(sample.B)*a + uint16(dst.B)*invA) / 255
				outA := uint8(uint16(sample.A) + (uint16(dst.A)*invA)/255)
				frame.SetRGBA(x0+x, y0+y, color.RGBA{R: uint8(outR), G: uint8(outG), B: uint8(outB), A: outA})
			}
		}
	}
	return nil
}

// loadImage reads and caches a PNG/JPEG/SVG file as *image.RGBA.
func loadImage(filePath string) (*image.RGBA, int, int, error) {
	imageCacheMu.Lock()
	if cached, ok := imageCache[filePath]; ok {
		imageCacheMu.Unlock()
		bounds := cached.Bounds()
		return cached, bounds.Dx(), bounds.Dy(), nil
	}
	imageCacheMu.Unlock()

	ext := strings.ToLower(filepath.Ext(filePath))

	f, err := os.Open(filePath)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	var img image.Image

	switch ext {
	case ".png":
		img, err = png.Decode(f)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".svg":
		svgData, rerr := os.ReadFile(filePath)
		if rerr != nil {
			return nil, 0, 0, rerr
		}
		icon, ierr := oksvg.ReadIconStream(bytes.NewReader(svgData))
		if ierr != nil {
			return nil, 0, 0, ierr
		}
		w := int(icon.ViewBox.W)
		h := int(icon.ViewBox.H)
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		icon.SetTarget(0, 0, float64(w), float64(h))
		scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
		dasher := rasterx.NewDasher(w, h, scanner)
		icon.Draw(dasher, 1.0)
		imageCacheMu.Lock()
		imageCache[filePath] = rgba
		imageCacheMu.Unlock()
		return rgba, w, h, nil
	default:
		return nil, 0, 0, fmt.Errorf("unsupported image format: %s", ext)
	}
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	imageCacheMu.Lock()
	imageCache[filePath] = rgba
	imageCacheMu.Unlock()
	return rgba, bounds.Dx(), bounds.Dy(), nil
}

// loadBackground loads an image and scales it to the panel size. A missing
// file yields a plain black background so screens always have a canvas.
func loadBackground(filePath string, w, h int) *image.RGBA {
	bg := image.NewRGBA(image.Rect(0, 0, w, h))
	clearFrame(bg)

	src, sw, sh, err := loadImage(filePath)
	if err != nil {
		log.Printf("[Image] %s not found, using black background", filePath)
		return bg
	}
	if sw == w && sh == h {
		copy(bg.Pix, src.Pix)
		return bg
	}
	xdraw.ApproxBiLinear.Scale(bg, bg.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return bg
}

func drawRoundedRect(gc *draw2dimg.GraphicContext, x, y, w, h, r float64) {
	gc.MoveTo(x+r, y)
	gc.LineTo(x+w-r, y)
	gc.ArcTo(x+w-r, y+r, r, r, -90, 90)
	gc.LineTo(x+w, y+h-r)
	gc.ArcTo(x+w-r, y+h-r, r, r, 0, 90)
	gc.LineTo(x+r, y+h)
	gc.ArcTo(x+r, y+h-r, r, r, 90, 90)
	gc.LineTo(x, y+r)
	gc.ArcTo(x+r, y+r, r, r, 180, 90)
	gc.Close()
}

// strokeRoundedRect draws an outlined rounded rectangle directly on a frame.
func strokeRoundedRect(frame *image.RGBA, x, y, w, h float64, outline color.RGBA) {
	gc := draw2dimg.NewGraphicContext(frame)
	gc.SetStrokeColor(outline)
	gc.SetLineWidth(1.5)
	drawRoundedRect(gc, x, y, w, h, 4)
	gc.Stroke()
}

// drawCrosshair paints a calibration target: a small circle with cross lines.
func drawCrosshair(frame *image.RGBA, cx, cy int, clr color.RGBA) {
	gc := draw2dimg.NewGraphicContext(frame)
	gc.SetStrokeColor(clr)
	gc.SetLineWidth(1.5)

	x := float64(cx)
	y := float64(cy)
	gc.MoveTo(x-10, y)
	gc.LineTo(x+10, y)
	gc.MoveTo(x, y-10)
	gc.LineTo(x, y+10)
	gc.Stroke()

	gc.SetFillColor(clr)
	gc.MoveTo(x+4, y)
	gc.ArcTo(x, y, 4, 4, 0, 360)
	gc.Fill()
}

func saveFrameToPng(frame *image.RGBA, filename string) error {
	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer outFile.Close()
	return png.Encode(outFile, frame)
}
