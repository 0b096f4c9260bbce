package rawspeed_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	rawspeed "github.com/jrm-1535/rawspeed"
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/tiff"
)

type fakeField struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte // element-size-aware payload, e.g. ASCII bytes or 4*count raw LE bytes
}

func fu16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }
func fu32(v uint32) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }

// buildSingleIFD lays out one little-endian TIFF with a single primary
// IFD holding the given fields, spilling any field whose payload exceeds
// 4 bytes into the data area that follows the directory.
func buildSingleIFD(fields []fakeField) []byte {
	var buf []byte
	buf = append(buf, 'I', 'I')
	buf = append(buf, fu16(42)...)
	buf = append(buf, fu32(8)...)

	ifdOffset := uint32(len(buf))
	n := uint32(len(fields))
	headerSize := 2 + 12*n + 4
	dataStart := ifdOffset + headerSize

	offsets := make([]uint32, len(fields))
	cursor := dataStart
	for i, f := range fields {
		if len(f.data) > 4 {
			offsets[i] = cursor
			cursor += uint32(len(f.data))
		}
	}

	buf = append(buf, fu16(uint16(n))...)
	for i, f := range fields {
		buf = append(buf, fu16(f.tag)...)
		buf = append(buf, fu16(f.typ)...)
		buf = append(buf, fu32(f.count)...)
		v := make([]byte, 4)
		if len(f.data) > 4 {
			copy(v, fu32(offsets[i]))
		} else {
			copy(v, f.data)
		}
		buf = append(buf, v...)
	}
	buf = append(buf, fu32(0)...) // no next IFD

	for _, f := range fields {
		if len(f.data) > 4 {
			buf = append(buf, f.data...)
		}
	}
	return buf
}

func asciiField(tag uint16, s string) fakeField {
	b := append([]byte(s), 0)
	return fakeField{tag: tag, typ: 2, count: uint32(len(b)), data: b}
}

func shortField(tag uint16, v uint16) fakeField {
	return fakeField{tag: tag, typ: 3, count: 1, data: fu32(uint32(v))}
}

func parseFixture(t *testing.T, fields []fakeField) rawspeed.Format {
	t.Helper()
	p, err := tiff.Parse(bbuf.New(buildSingleIFD(fields), bbuf.LittleEndian))
	if err != nil {
		t.Fatalf("tiff.Parse: %v", err)
	}
	f, err := rawspeed.SelectFormat(p)
	if err != nil {
		t.Fatalf("SelectFormat: %v", err)
	}
	return f
}

func TestSelectFormatDNGVersionTakesPriority(t *testing.T) {
	c := qt.New(t)
	fields := []fakeField{
		asciiField(0x010F, "Canon"),
		{tag: 0xC612, typ: 1, count: 4, data: []byte{1, 4, 0, 0}},
	}
	p, err := tiff.Parse(bbuf.New(buildSingleIFD(fields), bbuf.LittleEndian))
	c.Assert(err, qt.IsNil)
	f, err := rawspeed.SelectFormat(p)
	c.Assert(err, qt.IsNil)
	c.Assert(f, qt.Equals, rawspeed.FormatDNG)
	c.Assert(f.String(), qt.Equals, "DNG")
}

func TestSelectFormatRejectsDNGMajorVersionAboveOne(t *testing.T) {
	c := qt.New(t)
	fields := []fakeField{
		{tag: 0xC612, typ: 1, count: 4, data: []byte{2, 0, 0, 0}},
	}
	p, err := tiff.Parse(bbuf.New(buildSingleIFD(fields), bbuf.LittleEndian))
	c.Assert(err, qt.IsNil)
	_, err = rawspeed.SelectFormat(p)
	c.Assert(err, qt.Not(qt.IsNil))
	var uf *rawspeed.UnsupportedFormatError
	c.Assert(errors.As(err, &uf), qt.IsTrue)
}

func TestSelectFormatCanonWithoutJPEGInterchangeIsCRW(t *testing.T) {
	c := qt.New(t)
	f := parseFixture(t, []fakeField{asciiField(0x010F, "Canon")})
	c.Assert(f, qt.Equals, rawspeed.FormatCRW)
}

func TestSelectFormatCanonWithJPEGInterchangeIsCR2(t *testing.T) {
	c := qt.New(t)
	f := parseFixture(t, []fakeField{
		asciiField(0x010F, "Canon"),
		shortField(0x0201, 100),
	})
	c.Assert(f, qt.Equals, rawspeed.FormatCR2)
}

func TestSelectFormatNikonIsNEF(t *testing.T) {
	c := qt.New(t)
	f := parseFixture(t, []fakeField{asciiField(0x010F, "NIKON CORPORATION")})
	c.Assert(f, qt.Equals, rawspeed.FormatNEF)
}

func TestSelectFormatSonyCompressionSelectsARW2(t *testing.T) {
	c := qt.New(t)
	f := parseFixture(t, []fakeField{
		asciiField(0x010F, "SONY"),
		shortField(0x0103, 32767),
	})
	c.Assert(f, qt.Equals, rawspeed.FormatARW2)
}

func TestSelectFormatSonyWithoutSpecialCompressionIsARW1(t *testing.T) {
	c := qt.New(t)
	f := parseFixture(t, []fakeField{
		asciiField(0x010F, "SONY"),
		shortField(0x0103, 1),
	})
	c.Assert(f, qt.Equals, rawspeed.FormatARW1)
}

func TestSelectFormatSamsungVariantsKeyOffModel(t *testing.T) {
	c := qt.New(t)
	nx1 := parseFixture(t, []fakeField{asciiField(0x010F, "SAMSUNG"), asciiField(0x0110, "NX1")})
	c.Assert(nx1, qt.Equals, rawspeed.FormatNX1)

	nx3000 := parseFixture(t, []fakeField{asciiField(0x010F, "SAMSUNG"), asciiField(0x0110, "NX3000")})
	c.Assert(nx3000, qt.Equals, rawspeed.FormatNX3000)

	nx300 := parseFixture(t, []fakeField{asciiField(0x010F, "SAMSUNG"), asciiField(0x0110, "NX300")})
	c.Assert(nx300, qt.Equals, rawspeed.FormatSRW2)

	other := parseFixture(t, []fakeField{asciiField(0x010F, "SAMSUNG"), asciiField(0x0110, "GX20")})
	c.Assert(other, qt.Equals, rawspeed.FormatSRW)
}

func TestSelectFormatUnknownMakeIsUnsupported(t *testing.T) {
	c := qt.New(t)
	p, err := tiff.Parse(bbuf.New(buildSingleIFD([]fakeField{asciiField(0x010F, "Acme")}), bbuf.LittleEndian))
	c.Assert(err, qt.IsNil)
	_, err = rawspeed.SelectFormat(p)
	c.Assert(err, qt.Not(qt.IsNil))
	var uf *rawspeed.UnsupportedFormatError
	c.Assert(errors.As(err, &uf), qt.IsTrue)
}
