package main

import (
	"image"
	"log"

	gc9307 "github.com/photonicat/periph.io-gc9307"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// FrameSink is the hardware-facing display contract: accept a full raster
// frame sized to the panel and show it. A no-op implementation exists for
// headless/dev operation.
type FrameSink interface {
	Size() (width, height int)
	Display(frame *image.RGBA) error
}

// noopSink swallows frames. Used on dev boxes and after a hardware failure.
type noopSink struct {
	width  int
	height int
}

func (s *noopSink) Size() (int, int)              { return s.width, s.height }
func (s *noopSink) Display(_ *image.RGBA) error   { return nil }

// panelSink drives the physical LCD over SPI.
type panelSink struct {
	display gc9307.Device
	port    spi.PortCloser
	width   int
	height  int
}

func (s *panelSink) Size() (int, int) { return s.width, s.height }

func (s *panelSink) Display(frame *image.RGBA) error {
	return s.display.FillRectangleWithImage(0, 0, int16(s.width), int16(s.height), frame)
}

func (s *panelSink) Close() {
	if s.port != nil {
		s.port.Close()
	}
}

// openPanel sets up the SPI connection and the panel driver. Callers fall
// back to a noopSink when this fails; display loss must not stop the kiosk.
func openPanel() (*panelSink, error) {
	spiPort, err := spireg.Open(LCD_SPI_PORT)
	if err != nil {
		return nil, err
	}

	conn, err := spiPort.Connect(40000*physic.KiloHertz, spi.Mode0, 8)
	if err != nil {
		spiPort.Close()
		return nil, err
	}

	display := gc9307.New(conn,
		gpioreg.ByName(RST_PIN),
		gpioreg.ByName(DC_PIN),
		gpioreg.ByName(CS_PIN),
		gpioreg.ByName(BL_PIN))
	display.Configure(gc9307.Config{
		Width:        LCD_WIDTH,
		Height:       LCD_HEIGHT,
		Rotation:     gc9307.NO_ROTATION,
		RowOffset:    0,
		ColumnOffset: 0,
		FrameRate:    gc9307.FRAMERATE_60,
		VSyncLines:   gc9307.MAX_VSYNC_SCANLINES,
		UseCS:        false,
	})
	display.EnableBacklight(true)

	log.Println("[Display] panel initialized on", LCD_SPI_PORT)
	return &panelSink{display: display, port: spiPort, width: LCD_WIDTH, height: LCD_HEIGHT}, nil
}
