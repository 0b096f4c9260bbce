package codecs

import (
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
	"github.com/jrm-1535/rawspeed/internal/huffman"
)

// KodakParams describes a Kodak DCR frame.
type KodakParams struct {
	Width, Height int
}

// Kodak decodes the 256-pixel segmented codec: 4 bits of length per
// pixel (two per byte), then a sum of length-bit values sign-extended
// and accumulated into two independent even/odd-column predictors
// clamped to 10 bits. No initial 16-bit bit buffer is read.
type Kodak struct {
	view   *bbuf.View
	params KodakParams
}

func NewKodak(view *bbuf.View, p KodakParams) *Kodak { return &Kodak{view: view, params: p} }

const kodakSegmentPixels = 256

func (k *Kodak) Decompress(dataOffset uint) (*Plane, error) {
	w, h := k.params.Width, k.params.Height
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Codec: "kodak", Reason: "zero frame dimension"}
	}
	plane := NewPlane(w, h, 1)
	pump := bitpump.New(k.view, dataOffset, bitpump.MSB)

	var pred [2]int32
	total := w * h
	idx := 0
	for idx < total {
		segLen := kodakSegmentPixels
		if idx+segLen > total {
			segLen = total - idx
		}
		lengths := make([]uint, segLen)
		for i := 0; i < segLen; i++ {
			pump.Fill(4)
			lengths[i] = uint(pump.GetBitsNoFill(4))
		}
		for i := 0; i < segLen; i++ {
			l := lengths[i]
			pump.Fill(l)
			raw := int32(pump.GetBitsNoFill(l))
			diff := huffman.Extend(raw, l)
			parity := idx % 2
			pred[parity] += diff
			x, y := idx%w, idx/w
			plane.Set(x, y, 0, clampBits(pred[parity], 10))
			idx++
		}
	}
	return plane, nil
}
