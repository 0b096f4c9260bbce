package ljpeg_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/ljpeg"
)

// a2x2OneComponent builds a minimal SOI/DHT/SOF3/SOS bytestream for a
// single-component 2x2 8-bit frame with predictor mode 1 and a trivial
// one-code Huffman table (symbol 0, zero diff bits), so every decoded
// difference is 0 and every output sample equals the initial predictor
// value (1 << (precision-Pt-1) = 128).
func a2x2OneComponent() []byte {
	var b []byte
	b = append(b, 0xFF, 0xD8) // SOI

	b = append(b, 0xFF, 0xC4) // DHT
	b = append(b, 0x00, 0x14) // length = 20
	b = append(b, 0x00)       // class 0 (DC), id 0
	counts := make([]byte, 16)
	counts[0] = 1 // one code of length 1
	b = append(b, counts...)
	b = append(b, 0x00) // alphabet symbol 0

	b = append(b, 0xFF, 0xC3) // SOF3
	b = append(b, 0x00, 0x0B) // length = 11
	b = append(b, 0x08)       // precision
	b = append(b, 0x00, 0x02) // height
	b = append(b, 0x00, 0x02) // width
	b = append(b, 0x01)       // 1 component
	b = append(b, 0x01, 0x11, 0x00)

	b = append(b, 0xFF, 0xDA) // SOS
	b = append(b, 0x00, 0x08) // length = 8
	b = append(b, 0x01)       // 1 scan component
	b = append(b, 0x01, 0x00) // selector 1, DC table 0
	b = append(b, 0x01)       // predictor mode 1
	b = append(b, 0x00)       // Se
	b = append(b, 0x00)       // Ah/Pt

	b = append(b, 0x00) // entropy data: four 1-bit zero codes, padded
	b = append(b, 0xFF, 0xD9) // EOI
	return b
}

func TestParseHeadersAndDecodeScan(t *testing.T) {
	c := qt.New(t)
	data := a2x2OneComponent()
	dec := ljpeg.New(bbuf.New(data, bbuf.BigEndian), ljpeg.Options{})

	frame, scan, scanStart, err := dec.ParseHeaders()
	c.Assert(err, qt.IsNil)
	c.Assert(frame.Width, qt.Equals, 2)
	c.Assert(frame.Height, qt.Equals, 2)
	c.Assert(frame.Precision, qt.Equals, 8)
	c.Assert(scan.Predictor, qt.Equals, 1)

	plane, err := dec.DecodeScan(frame, scan, scanStart)
	c.Assert(err, qt.IsNil)
	c.Assert(plane.Width, qt.Equals, 2)
	c.Assert(plane.Height, qt.Equals, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			c.Assert(plane.Get(x, y, 0), qt.Equals, uint16(128))
		}
	}
}

func TestParseHeadersAtNonZeroOffset(t *testing.T) {
	c := qt.New(t)
	prefix := []byte{0xAB, 0xCD, 0xEF}
	data := append(append([]byte{}, prefix...), a2x2OneComponent()...)
	dec := ljpeg.New(bbuf.New(data, bbuf.BigEndian), ljpeg.Options{})

	frame, scan, scanStart, err := dec.ParseHeadersAt(uint(len(prefix)))
	c.Assert(err, qt.IsNil)
	c.Assert(frame.Width, qt.Equals, 2)
	c.Assert(scan.Predictor, qt.Equals, 1)

	plane, err := dec.DecodeScan(frame, scan, scanStart)
	c.Assert(err, qt.IsNil)
	c.Assert(plane.Get(0, 0, 0), qt.Equals, uint16(128))
}

func TestParseHeadersRejectsMissingSOI(t *testing.T) {
	c := qt.New(t)
	dec := ljpeg.New(bbuf.New([]byte{0x00, 0x00}, bbuf.BigEndian), ljpeg.Options{})
	_, _, _, err := dec.ParseHeaders()
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestParseHeadersRejectsSOSBeforeSOF(t *testing.T) {
	c := qt.New(t)
	var b []byte
	b = append(b, 0xFF, 0xD8)
	b = append(b, 0xFF, 0xDA)
	b = append(b, 0x00, 0x08)
	b = append(b, 0x01)
	b = append(b, 0x01, 0x00)
	b = append(b, 0x01, 0x00, 0x00)
	dec := ljpeg.New(bbuf.New(b, bbuf.BigEndian), ljpeg.Options{})
	_, _, _, err := dec.ParseHeaders()
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestFrameNilBeforeParseHeaders(t *testing.T) {
	c := qt.New(t)
	dec := ljpeg.New(bbuf.New(a2x2OneComponent(), bbuf.BigEndian), ljpeg.Options{})
	c.Assert(dec.Frame(), qt.IsNil)
}
