// Package bitpump implements the four bit-ordering variants shared by
// every entropy decoder in rawspeed-go: MSB-first byte-at-a-time, MSB-first
// 32-bit-word-at-a-time, LSB-first, and JPEG-style MSB with 0xFF byte
// stuffing. All four share the cached-read contract described in spec.md
// §4.B: a 64-bit cache, a byte cursor into the underlying view, and a
// depleted flag once the view has been exhausted and reads start
// synthesizing zeros instead of erroring.
package bitpump

import (
	"fmt"

	"github.com/jrm-1535/rawspeed/internal/bbuf"
)

// Kind selects one of the four bit orderings.
type Kind int

const (
	MSB Kind = iota
	MSB32
	LSB
	JPEG
)

// Pump is a bit-level cursor over a bbuf.View. The zero value is not
// usable; construct with New.
type Pump struct {
	data        *bbuf.View
	pos         uint // byte cursor within data
	cache       uint64
	bitsInCache uint
	kind        Kind
	depleted    bool // true once data is exhausted and fills synthesize 0
	jpegAtMark  bool // JPEG variant: true once an 0xFF marker was found
}

// New creates a Pump of the given kind reading from data starting at byte
// offset start.
func New(data *bbuf.View, start uint, kind Kind) *Pump {
	return &Pump{data: data, pos: start, kind: kind}
}

// Depleted reports whether the pump has run out of underlying bytes and is
// now synthesizing zero bits.
func (p *Pump) Depleted() bool { return p.depleted }

// AtMarker reports whether the JPEG variant pump has stopped at an 0xFF
// marker byte (0xFF followed by a non-zero, non-stuffed byte).
func (p *Pump) AtMarker() bool { return p.jpegAtMark }

// BytePos returns the pump's current byte cursor into the underlying view.
// For the JPEG variant this points at the 0xFF of the terminating marker
// once AtMarker is true.
func (p *Pump) BytePos() uint { return p.pos }

func (p *Pump) nextByte() (b byte, ok bool) {
	if p.pos >= p.data.Len() {
		return 0, false
	}
	v, err := p.data.U8(p.pos)
	if err != nil {
		return 0, false
	}
	p.pos++
	return v, true
}

// fillCache ensures at least n bits are available, or marks the pump
// depleted and pads with zeros if the underlying view is exhausted.
func (p *Pump) fillCache(n uint) {
	switch p.kind {
	case MSB, JPEG:
		for p.bitsInCache < n && p.bitsInCache <= 56 {
			b, ok := p.nextJPEGorPlainByte()
			if !ok {
				p.depleted = true
				return
			}
			p.cache = p.cache<<8 | uint64(b)
			p.bitsInCache += 8
		}
	case MSB32:
		for p.bitsInCache < n && p.bitsInCache <= 32 {
			b0, ok0 := p.nextByte()
			b1, ok1 := p.nextByte()
			b2, ok2 := p.nextByte()
			b3, ok3 := p.nextByte()
			if !ok0 || !ok1 || !ok2 || !ok3 {
				p.depleted = true
				return
			}
			word := uint64(b0)<<24 | uint64(b1)<<16 | uint64(b2)<<8 | uint64(b3)
			p.cache = p.cache<<32 | word
			p.bitsInCache += 32
		}
	case LSB:
		for p.bitsInCache < n && p.bitsInCache <= 56 {
			b, ok := p.nextByte()
			if !ok {
				p.depleted = true
				return
			}
			p.cache |= uint64(b) << p.bitsInCache
			p.bitsInCache += 8
		}
	}
}

// nextJPEGorPlainByte implements the byte-stuffing rule for the JPEG
// variant (0xFF 0x00 -> logical 0xFF, 0xFF <non-zero> -> end of stream),
// and otherwise behaves like nextByte.
func (p *Pump) nextJPEGorPlainByte() (byte, bool) {
	if p.kind != JPEG {
		return p.nextByte()
	}
	if p.jpegAtMark {
		return 0, false
	}
	b, ok := p.nextByte()
	if !ok {
		return 0, false
	}
	if b != 0xFF {
		return b, true
	}
	b2, ok2 := p.nextByte()
	if !ok2 {
		// 0xFF at EOF: treat as marker, rewind so BytePos points at it.
		p.pos--
		p.jpegAtMark = true
		return 0, false
	}
	if b2 == 0x00 {
		return 0xFF, true
	}
	// marker reached: rewind both bytes so BytePos points at the 0xFF.
	p.pos -= 2
	p.jpegAtMark = true
	return 0, false
}

// PeekBits returns the top/bottom n bits of the cache (per variant)
// without consuming them, filling first if necessary.
func (p *Pump) PeekBits(n uint) uint32 {
	p.fillCache(n)
	return p.peekBitsNoFill(n)
}

func (p *Pump) peekBitsNoFill(n uint) uint32 {
	if n == 0 {
		return 0
	}
	if p.bitsInCache < n {
		// depleted: synthesize zeros in the missing low/high bits.
		switch p.kind {
		case LSB:
			mask := uint64(1)<<p.bitsInCache - 1
			return uint32(p.cache & mask)
		default:
			avail := p.cache & (uint64(1)<<p.bitsInCache - 1)
			return uint32(avail << (n - p.bitsInCache))
		}
	}
	switch p.kind {
	case LSB:
		return uint32(p.cache & (uint64(1)<<n - 1))
	default: // MSB, MSB32, JPEG: consume from the high end
		return uint32((p.cache >> (p.bitsInCache - n)) & (uint64(1)<<n - 1))
	}
}

// SkipBits consumes n bits, refilling first if the cache is short.
func (p *Pump) SkipBits(n uint) {
	p.fillCache(n)
	p.skipBitsNoFill(n)
}

func (p *Pump) skipBitsNoFill(n uint) {
	if n > p.bitsInCache {
		n = p.bitsInCache
	}
	switch p.kind {
	case LSB:
		p.cache >>= n
	default:
		// high bits already returned by peek; just shrink bitsInCache,
		// masking off the consumed high bits so stale data can't leak
		// back in on the next peek at a larger n.
		p.cache &= uint64(1)<<(p.bitsInCache-n) - 1
	}
	p.bitsInCache -= n
}

// GetBits is PeekBits followed by SkipBits.
func (p *Pump) GetBits(n uint) uint32 {
	v := p.PeekBits(n)
	p.SkipBits(n)
	return v
}

// Fill is the explicit prefetch used before the NoFill fast path: it
// guarantees at least n bits are cached (or the pump is depleted).
func (p *Pump) Fill(n uint) { p.fillCache(n) }

// PeekBitsNoFill / GetBitsNoFill / SkipBitsNoFill assume the caller already
// called Fill(n) (or a prior Peek/Get/Skip with n' >= n) and perform no
// bounds work of their own.
func (p *Pump) PeekBitsNoFill(n uint) uint32 { return p.peekBitsNoFill(n) }
func (p *Pump) GetBitsNoFill(n uint) uint32 {
	v := p.peekBitsNoFill(n)
	p.skipBitsNoFill(n)
	return v
}
func (p *Pump) SkipBitsNoFill(n uint) { p.skipBitsNoFill(n) }

// Reset repositions the pump at a fresh byte offset, discarding the cache,
// for independently-coded rows/slices that realign to byte boundaries.
// No codec in this module calls it; only the package tests do.
func (p *Pump) Reset(offset uint) {
	p.pos = offset
	p.cache = 0
	p.bitsInCache = 0
	p.depleted = false
	p.jpegAtMark = false
}

// ByteAlign discards any partial byte left in the cache, rounding the
// effective stream position up to the next byte boundary (for MSB32,
// up to the next 32-bit word boundary).
func (p *Pump) ByteAlign() {
	switch p.kind {
	case MSB32:
		p.bitsInCache -= p.bitsInCache % 32
	case LSB:
		// LSB consumes from the low end of the cache, so the partial
		// byte sits in the low bits.
		n := p.bitsInCache % 8
		p.cache >>= n
		p.bitsInCache -= n
	default:
		p.bitsInCache -= p.bitsInCache % 8
	}
}

func (k Kind) String() string {
	switch k {
	case MSB:
		return "MSB"
	case MSB32:
		return "MSB32"
	case LSB:
		return "LSB"
	case JPEG:
		return "JPEG"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}
