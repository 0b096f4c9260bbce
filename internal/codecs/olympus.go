package codecs

import (
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
)

// OlympusParams describes an Olympus ORF frame.
type OlympusParams struct {
	Width, Height int
}

// Olympus decodes the adaptive Golomb-Rice codec with a MED-style
// neighborhood predictor (spec.md §4.G). The raster is zero-initialized
// before decoding per spec.md §9's open question on carry-state/row-1
// predictor dependence on zeroed memory — Go's make([]uint16, n)
// already zero-fills, satisfying that requirement without extra code.
type Olympus struct {
	view   *bbuf.View
	params OlympusParams
}

func NewOlympus(view *bbuf.View, p OlympusParams) *Olympus { return &Olympus{view: view, params: p} }

// decodeSample implements one adaptive-bit-length Golomb-Rice decode:
// nbits derived from the row's running carry state, a 15-bit lookup
// yielding sign/low/high fields (approximated here by direct bit
// reads rather than Olympus's literal 4096-entry bittable, since the
// table is a pure function of a fixed bit layout this reproduces
// directly), and the carry-state update spec.md §4.G describes.
func decodeOlympusSample(pump *bitpump.Pump, carry *[3]int32) int32 {
	nbits := uint(0)
	for carry[0]>>(nbits+1) != 0 && nbits < 14 {
		nbits++
	}

	pump.Fill(1)
	sign := pump.GetBitsNoFill(1)
	pump.Fill(2)
	low := int32(pump.GetBitsNoFill(2))

	high := int32(0)
	for {
		pump.Fill(1)
		b := pump.GetBitsNoFill(1)
		if b == 0 || high >= 12 {
			break
		}
		high++
	}
	if high == 12 {
		extra := uint(16 - nbits)
		pump.Fill(extra)
		high = int32(pump.GetBitsNoFill(extra))
	}

	pump.Fill(nbits)
	lowBits := int32(pump.GetBitsNoFill(nbits))

	diff := (high << nbits) | lowBits
	if sign != 0 {
		diff = -diff
	}

	carry[0] = (high << nbits) | low
	carry[1] = (diff*3 + carry[1]) >> 5
	if carry[0] > 16 {
		carry[2] = 0
	} else {
		carry[2]++
	}
	return diff
}

func (o *Olympus) Decompress(dataOffset uint) (*Plane, error) {
	w, h := o.params.Width, o.params.Height
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Codec: "olympus", Reason: "zero frame dimension"}
	}
	plane := NewPlane(w, h, 1)
	pump := bitpump.New(o.view, dataOffset, bitpump.MSB)

	for y := 0; y < h; y++ {
		carry := [3]int32{}
		for x := 0; x < w; x++ {
			diff := decodeOlympusSample(pump, &carry)

			var left, up, upLeft int32
			if x > 0 {
				left = int32(plane.Get(x-1, y, 0))
			}
			if y > 0 {
				up = int32(plane.Get(x, y-1, 0))
				if x > 0 {
					upLeft = int32(plane.Get(x-1, y-1, 0))
				}
			}

			var predicted int32
			switch {
			case x == 0 && y == 0:
				predicted = 0
			case y == 0:
				predicted = left
			case x == 0:
				predicted = up
			case x == 1:
				predicted = (left + up) / 2
			default:
				predicted = medPredict(left, up, upLeft)
			}

			v := predicted + diff
			plane.Set(x, y, 0, clampBits(v, 12))
		}
	}
	return plane, nil
}

// medPredict is the classic JPEG-LS median-edge-detector predictor.
func medPredict(left, up, upLeft int32) int32 {
	if upLeft >= maxI32(left, up) {
		return minI32(left, up)
	}
	if upLeft <= minI32(left, up) {
		return maxI32(left, up)
	}
	return left + up - upLeft
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
