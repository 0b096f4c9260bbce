package codecs_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/codecs"
)

func TestCRWDecompressAllZeroDiffsHoldsBasePredictor(t *testing.T) {
	c := qt.New(t)
	view := bbuf.New([]byte{0x00, 0x00, 0x00, 0x00}, bbuf.BigEndian)
	dec, err := codecs.NewCRW(view, codecs.CRWParams{Width: 2, Height: 2})
	c.Assert(err, qt.IsNil)

	plane, err := dec.Decompress(0)
	c.Assert(err, qt.IsNil)
	c.Assert(plane.Width, qt.Equals, 2)
	c.Assert(plane.Height, qt.Equals, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			c.Assert(plane.Get(x, y, 0), qt.Equals, uint16(512))
		}
	}
}

func TestCRWDecompressRejectsZeroDimensions(t *testing.T) {
	c := qt.New(t)
	view := bbuf.New([]byte{0x00}, bbuf.BigEndian)
	dec, err := codecs.NewCRW(view, codecs.CRWParams{Width: 0, Height: 0})
	c.Assert(err, qt.IsNil)
	_, err = dec.Decompress(0)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestCRWAppliesLowBitsPlane(t *testing.T) {
	c := qt.New(t)
	// 4 pixels -> 1 low-bits byte, 2 bits per pixel: 0b11_10_01_00 so
	// pixel 0 gets lo=00, pixel 1 lo=01, pixel 2 lo=10, pixel 3 lo=11
	// (low bits are packed least-significant pixel first per shift k%4*2).
	lowBitsByte := byte(0b11_10_01_00)
	data := []byte{lowBitsByte, 0x00, 0x00, 0x00, 0x00}
	view := bbuf.New(data, bbuf.BigEndian)
	dec, err := codecs.NewCRW(view, codecs.CRWParams{
		Width: 2, Height: 2, LowBits: true, LowBitsOffset: 0,
	})
	c.Assert(err, qt.IsNil)

	plane, err := dec.Decompress(1)
	c.Assert(err, qt.IsNil)
	c.Assert(plane.Get(0, 0, 0), qt.Equals, uint16(128<<2|0))
	c.Assert(plane.Get(1, 0, 0), qt.Equals, uint16(128<<2|1))
	c.Assert(plane.Get(0, 1, 0), qt.Equals, uint16(128<<2|2))
	c.Assert(plane.Get(1, 1, 0), qt.Equals, uint16(128<<2|3))
}
