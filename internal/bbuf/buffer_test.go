package bbuf_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jrm-1535/rawspeed/internal/bbuf"
)

func TestU16Endianness(t *testing.T) {
	c := qt.New(t)
	data := []byte{0x01, 0x02, 0x03, 0x04}

	le := bbuf.New(data, bbuf.LittleEndian)
	v, err := le.U16(0)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint16(0x0201))

	be := bbuf.New(data, bbuf.BigEndian)
	v, err = be.U16(0)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint16(0x0102))
}

func TestU32Endianness(t *testing.T) {
	c := qt.New(t)
	data := []byte{0x01, 0x02, 0x03, 0x04}

	le := bbuf.New(data, bbuf.LittleEndian)
	v, err := le.U32(0)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(0x04030201))

	be := bbuf.New(data, bbuf.BigEndian)
	v, err = be.U32(0)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(0x01020304))
}

func TestU64RoundTrip(t *testing.T) {
	c := qt.New(t)
	data := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	be := bbuf.New(data, bbuf.BigEndian)
	v, err := be.U64(0)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(1))

	le := bbuf.New(data, bbuf.LittleEndian)
	v, err = le.U64(0)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(1)<<56)
}

func TestF32UsesIEEE754Bits(t *testing.T) {
	c := qt.New(t)
	// 1.5f little-endian: 0x3FC00000
	data := []byte{0x00, 0x00, 0xC0, 0x3F}
	v := bbuf.New(data, bbuf.LittleEndian)
	f, err := v.F32(0)
	c.Assert(err, qt.IsNil)
	c.Assert(f, qt.Equals, float32(1.5))
}

func TestOutOfBufferErrors(t *testing.T) {
	c := qt.New(t)
	v := bbuf.New([]byte{1, 2, 3}, bbuf.LittleEndian)

	_, err := v.U32(0)
	c.Assert(err, qt.Not(qt.IsNil))

	var oobErr *bbuf.OutOfBufferError
	c.Assert(err, qt.ErrorAs, &oobErr)
}

func TestPeekAtDoesNotCopy(t *testing.T) {
	c := qt.New(t)
	data := []byte{1, 2, 3, 4, 5}
	v := bbuf.New(data, bbuf.LittleEndian)

	sub, err := v.PeekAt(1, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(sub.Len(), qt.Equals, uint(2))

	b, err := sub.U8(0)
	c.Assert(err, qt.IsNil)
	c.Assert(b, qt.Equals, byte(2))

	data[1] = 99
	b, err = sub.U8(0)
	c.Assert(err, qt.IsNil)
	c.Assert(b, qt.Equals, byte(99))
}

func TestSkipBytesBounds(t *testing.T) {
	c := qt.New(t)
	v := bbuf.New([]byte{1, 2, 3}, bbuf.LittleEndian)
	c.Assert(v.SkipBytes(3), qt.IsNil)
	c.Assert(v.Pos(), qt.Equals, uint(3))
	c.Assert(v.SkipBytes(1), qt.Not(qt.IsNil))
}

func TestSetOrderOverridesDeclaredOrder(t *testing.T) {
	c := qt.New(t)
	v := bbuf.New([]byte{0x00, 0x01}, bbuf.LittleEndian)
	v.SetOrder(bbuf.BigEndian)
	got, err := v.U16(0)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, uint16(1))
}
