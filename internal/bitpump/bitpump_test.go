package bitpump_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
)

func view(b ...byte) *bbuf.View { return bbuf.New(b, bbuf.LittleEndian) }

func TestMSBReadsHighBitFirst(t *testing.T) {
	c := qt.New(t)
	p := bitpump.New(view(0b10110000), 0, bitpump.MSB)
	c.Assert(p.GetBits(1), qt.Equals, uint32(1))
	c.Assert(p.GetBits(1), qt.Equals, uint32(0))
	c.Assert(p.GetBits(2), qt.Equals, uint32(0b11))
}

func TestLSBReadsLowBitFirst(t *testing.T) {
	c := qt.New(t)
	p := bitpump.New(view(0b00000101), 0, bitpump.LSB)
	c.Assert(p.GetBits(1), qt.Equals, uint32(1))
	c.Assert(p.GetBits(1), qt.Equals, uint32(0))
	c.Assert(p.GetBits(1), qt.Equals, uint32(1))
}

func TestMSB32ReadsWholeWordBigEndian(t *testing.T) {
	c := qt.New(t)
	p := bitpump.New(view(0x12, 0x34, 0x56, 0x78), 0, bitpump.MSB32)
	c.Assert(p.GetBits(32), qt.Equals, uint32(0x12345678))
}

func TestJPEGByteStuffingUnescapes(t *testing.T) {
	c := qt.New(t)
	// 0xFF 0x00 must decode as a logical 0xFF data byte.
	p := bitpump.New(view(0xFF, 0x00, 0xAB), 0, bitpump.JPEG)
	c.Assert(p.GetBits(8), qt.Equals, uint32(0xFF))
	c.Assert(p.GetBits(8), qt.Equals, uint32(0xAB))
	c.Assert(p.AtMarker(), qt.IsFalse)
}

func TestJPEGMarkerStopsStream(t *testing.T) {
	c := qt.New(t)
	p := bitpump.New(view(0x00, 0xFF, 0xD9), 0, bitpump.JPEG)
	c.Assert(p.GetBits(8), qt.Equals, uint32(0))
	// Next fill hits the marker and can't supply 8 more bits: depleted,
	// synthesized zero, and AtMarker becomes true.
	got := p.GetBits(8)
	c.Assert(got, qt.Equals, uint32(0))
	c.Assert(p.AtMarker(), qt.IsTrue)
	c.Assert(p.BytePos(), qt.Equals, uint(1))
}

func TestDepletedStreamSynthesizesZeros(t *testing.T) {
	c := qt.New(t)
	p := bitpump.New(view(0xFF), 0, bitpump.MSB)
	c.Assert(p.GetBits(8), qt.Equals, uint32(0xFF))
	c.Assert(p.Depleted(), qt.IsFalse)
	c.Assert(p.GetBits(8), qt.Equals, uint32(0))
	c.Assert(p.Depleted(), qt.IsTrue)
}

func TestResetDiscardsCache(t *testing.T) {
	c := qt.New(t)
	p := bitpump.New(view(0xFF, 0x00), 0, bitpump.MSB)
	p.GetBits(4)
	p.Reset(1)
	c.Assert(p.GetBits(8), qt.Equals, uint32(0x00))
	c.Assert(p.BytePos(), qt.Equals, uint(2))
}

func TestByteAlignDropsPartialByte(t *testing.T) {
	c := qt.New(t)
	p := bitpump.New(view(0b11110000, 0b10101010), 0, bitpump.MSB)
	p.GetBits(3)
	p.Fill(8)
	p.ByteAlign()
	c.Assert(p.GetBits(8), qt.Equals, uint32(0b10101010))
}

func TestFillThenNoFillFastPath(t *testing.T) {
	c := qt.New(t)
	p := bitpump.New(view(0b10100000), 0, bitpump.MSB)
	p.Fill(3)
	c.Assert(p.PeekBitsNoFill(3), qt.Equals, uint32(0b101))
	p.SkipBitsNoFill(3)
	c.Assert(p.GetBitsNoFill(0), qt.Equals, uint32(0))
}

func TestKindString(t *testing.T) {
	c := qt.New(t)
	c.Assert(bitpump.MSB.String(), qt.Equals, "MSB")
	c.Assert(bitpump.MSB32.String(), qt.Equals, "MSB32")
	c.Assert(bitpump.LSB.String(), qt.Equals, "LSB")
	c.Assert(bitpump.JPEG.String(), qt.Equals, "JPEG")
}
