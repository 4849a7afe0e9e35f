package main

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// XPT2046 command bytes: 12-bit differential conversions.
const (
	xptCmdY = 0xD0
	xptCmdX = 0x90

	// Readings at the ADC rails mean no contact; only this band is plausible.
	touchBandLow  = 100
	touchBandHigh = 4000

	touchSamples   = 5
	touchTolerance = 50
)

// RawSample is an unprocessed 12-bit coordinate pair from the touch sensor.
type RawSample struct {
	X uint16
	Y uint16
}

// TouchReader reports a stable raw sample or nil for "no touch".
type TouchReader interface {
	ReadTouch(samples, tolerance int) *RawSample
}

// XPT2046 reads the resistive touch controller on its own SPI chip select.
// An optional pen-interrupt pin is consulted as a fast path; when absent the
// reader fails open and always attempts a read.
type XPT2046 struct {
	conn spi.Conn
	port spi.PortCloser
	irq  gpio.PinIn
}

func newXPT2046() (*XPT2046, error) {
	spiPort, err := spireg.Open(TOUCH_SPI_PORT)
	if err != nil {
		return nil, err
	}
	conn, err := spiPort.Connect(500*physic.KiloHertz, spi.Mode0, 8)
	if err != nil {
		spiPort.Close()
		return nil, err
	}
	return &XPT2046{
		conn: conn,
		port: spiPort,
		irq:  gpioreg.ByName(TOUCH_IRQ_PIN),
	}, nil
}

func (t *XPT2046) readChannel(cmd byte) (uint16, error) {
	rx := make([]byte, 3)
	if err := t.conn.Tx([]byte{cmd, 0x00, 0x00}, rx); err != nil {
		return 0, err
	}
	return (uint16(rx[1])<<8 | uint16(rx[2])) >> 4, nil
}

// ReadTouch takes a batch of raw readings spaced a few milliseconds apart
// and returns their average, or nil when nothing stable is touching.
func (t *XPT2046) ReadTouch(samples, tolerance int) *RawSample {
	// Pen IRQ is active low; high means nothing is touching.
	if t.irq != nil && t.irq.Read() == gpio.High {
		return nil
	}

	readings := make([]RawSample, 0, samples)
	for i := 0; i < samples; i++ {
		rawY, err := t.readChannel(xptCmdY)
		if err != nil {
			return nil
		}
		rawX, err := t.readChannel(xptCmdX)
		if err != nil {
			return nil
		}
		s := RawSample{X: rawX, Y: rawY}
		if plausibleSample(s) {
			readings = append(readings, s)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return filterTouchBatch(readings, 3, tolerance)
}

func (t *XPT2046) Close() {
	if t.port != nil {
		t.port.Close()
	}
}

// plausibleSample rejects near-rail values that indicate no contact.
func plausibleSample(s RawSample) bool {
	return touchBandLow < s.X && s.X < touchBandHigh &&
		touchBandLow < s.Y && s.Y < touchBandHigh
}

// filterTouchBatch averages a batch of plausible readings. The whole batch
// is rejected when fewer than minNeeded survive or when the spread on either
// axis exceeds tolerance (a finger still in motion).
func filterTouchBatch(readings []RawSample, minNeeded, tolerance int) *RawSample {
	if len(readings) < minNeeded {
		return nil
	}

	minX, maxX := readings[0].X, readings[0].X
	minY, maxY := readings[0].Y, readings[0].Y
	var sumX, sumY int
	for _, r := range readings {
		if r.X < minX {
			minX = r.X
		}
		if r.X > maxX {
			maxX = r.X
		}
		if r.Y < minY {
			minY = r.Y
		}
		if r.Y > maxY {
			maxY = r.Y
		}
		sumX += int(r.X)
		sumY += int(r.Y)
	}
	if int(maxX-minX) > tolerance || int(maxY-minY) > tolerance {
		return nil
	}

	return &RawSample{
		X: uint16(sumX / len(readings)),
		Y: uint16(sumY / len(readings)),
	}
}
