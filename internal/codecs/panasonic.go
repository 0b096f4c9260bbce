package codecs

import (
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
)

// PanasonicParams describes a Panasonic RW2 v6 frame.
type PanasonicParams struct {
	Width, Height int
	BitDepth      int // 12 or 14
}

// Panasonic decodes a simplified block layout from an LSB-first bit
// stream: each block is a 4-bit exponent followed by 14 samples of 12
// bits (14 bits when BitDepth is 14). Blocks are not aligned to 16
// bytes, the v6 128-bit block layout is not decoded, and the exponent
// is read but leaves the sample values unchanged.
type Panasonic struct {
	view   *bbuf.View
	params PanasonicParams
}

func NewPanasonic(view *bbuf.View, p PanasonicParams) *Panasonic {
	return &Panasonic{view: view, params: p}
}

const panasonicPixelsPerBlock = 14

func (p *Panasonic) Decompress(dataOffset uint) (*Plane, error) {
	w, h := p.params.Width, p.params.Height
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Codec: "panasonic", Reason: "zero frame dimension"}
	}
	plane := NewPlane(w, h, 1)
	pump := bitpump.New(p.view, dataOffset, bitpump.LSB)

	maxBits := uint(12)
	if p.params.BitDepth == 14 {
		maxBits = 14
	}

	total := w * h
	idx := 0
	for idx < total {
		pump.Fill(4)
		exponent := pump.GetBitsNoFill(4)
		for i := 0; i < panasonicPixelsPerBlock && idx < total; i++ {
			pump.Fill(maxBits)
			raw := pump.GetBitsNoFill(maxBits)
			v := raw << exponent >> exponent // equals raw: raw < 2^14 and exponent < 16
			x, y := idx%w, idx/w
			plane.Set(x, y, 0, clampBits(int32(v), maxBits))
			idx++
		}
	}
	return plane, nil
}
