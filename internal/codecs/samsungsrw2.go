package codecs

import (
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
	"github.com/jrm-1535/rawspeed/internal/huffman"
)

// SRW2Params describes a Samsung SRW v2 (NX300+) frame.
type SRW2Params struct {
	Width, Height int
	SwapRedBlue   bool // per-model hint; Decompress does not read it and never swaps CFA positions
}

// SRW2 decodes the Samsung SRW v2 codec: a per-row offset header
// precedes 16-column groups, each with a direction bit and four 2-bit
// mode flags controlling whether each of four length tokens is carried
// from the previous group, incremented, decremented, or freshly read.
type SRW2 struct {
	view   *bbuf.View
	params SRW2Params
}

func NewSRW2(view *bbuf.View, p SRW2Params) *SRW2 { return &SRW2{view: view, params: p} }

const srw2GroupWidth = 16

func (s *SRW2) Decompress(dataOffset uint) (*Plane, error) {
	w, h := s.params.Width, s.params.Height
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Codec: "samsung-srw2", Reason: "zero frame dimension"}
	}
	plane := NewPlane(w, h, 1)
	pump := bitpump.New(s.view, dataOffset, bitpump.MSB)

	var lens [4]uint
	for i := range lens {
		lens[i] = 4
	}

	for y := 0; y < h; y++ {
		pump.Fill(16)
		_ = pump.GetBitsNoFill(16) // per-row offset header, not needed by this in-memory decoder

		for gx := 0; gx < w; gx += srw2GroupWidth {
			pump.Fill(1)
			upward := pump.GetBitsNoFill(1) == 1

			for t := 0; t < 4; t++ {
				pump.Fill(2)
				mode := pump.GetBitsNoFill(2)
				switch mode {
				case 1:
					if lens[t] < 16 {
						lens[t]++
					}
				case 2:
					if lens[t] > 1 {
						lens[t]--
					}
				case 3:
					pump.Fill(4)
					lens[t] = uint(pump.GetBitsNoFill(4))
				}
			}

			groupEnd := gx + srw2GroupWidth
			if groupEnd > w {
				groupEnd = w
			}
			for x := gx; x < groupEnd; x++ {
				t := (x - gx) % 4
				l := lens[t]
				pump.Fill(l)
				raw := int32(pump.GetBitsNoFill(l))
				diff := huffman.Extend(raw, l)

				var ref int32
				if upward && y > 0 {
					ref = int32(plane.Get(x, y-1, 0))
				} else if x > 0 {
					ref = int32(plane.Get(x-1, y, 0))
				}
				v := ref + diff
				plane.Set(x, y, 0, clampBits(v, 16))
			}
		}
	}
	return plane, nil
}
