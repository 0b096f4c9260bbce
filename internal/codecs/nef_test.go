package codecs_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/codecs"
)

func TestNEFDecompressIdentityCurveWithZeroDiffs(t *testing.T) {
	c := qt.New(t)
	view := bbuf.New([]byte{0x00, 0x00}, bbuf.BigEndian)
	dec, err := codecs.NewNEF(view, codecs.NEFParams{Width: 2, Height: 1, TableIndex: 0})
	c.Assert(err, qt.IsNil)

	plane, err := dec.Decompress(0)
	c.Assert(err, qt.IsNil)
	c.Assert(plane.Get(0, 0, 0), qt.Equals, uint16(0))
	c.Assert(plane.Get(1, 0, 0), qt.Equals, uint16(0))
}

func TestNEFRejectsTableIndexOutOfRange(t *testing.T) {
	c := qt.New(t)
	view := bbuf.New([]byte{0x00}, bbuf.BigEndian)
	_, err := codecs.NewNEF(view, codecs.NEFParams{Width: 2, Height: 1, TableIndex: 99})
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestNEFCurveInterpolatesBetweenKnots(t *testing.T) {
	c := qt.New(t)
	// Bits 00 00 0101 00: both row seeds decode 0, then the column pair
	// decodes +1 ("010" plus diff bit "1") and 0. Knots {0, 100} at step
	// 2 give curve[1] = 0 + (100-0)*1/2 = 50 and curve[0] = 0.
	view := bbuf.New([]byte{0x05, 0x00}, bbuf.BigEndian)
	dec, err := codecs.NewNEF(view, codecs.NEFParams{
		Width: 2, Height: 1, TableIndex: 0,
		CurveKnots: []uint16{0, 100},
		CurveStep:  2,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(dec, qt.Not(qt.IsNil))

	plane, err := dec.Decompress(0)
	c.Assert(err, qt.IsNil)
	c.Assert(plane.Get(0, 0, 0), qt.Equals, uint16(50))
	c.Assert(plane.Get(1, 0, 0), qt.Equals, uint16(0))
}

func TestNEFRejectsZeroDimensions(t *testing.T) {
	c := qt.New(t)
	view := bbuf.New([]byte{0x00}, bbuf.BigEndian)
	dec, err := codecs.NewNEF(view, codecs.NEFParams{Width: 0, Height: 0, TableIndex: 0})
	c.Assert(err, qt.IsNil)
	_, err = dec.Decompress(0)
	c.Assert(err, qt.Not(qt.IsNil))
}
