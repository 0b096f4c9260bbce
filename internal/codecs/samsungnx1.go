package codecs

import (
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
	"github.com/jrm-1535/rawspeed/internal/huffman"
)

// NX1Options mirrors the metadata-header option flags named in
// spec.md §4.G.
type NX1Options struct {
	Skip bool
	MV   bool
	QP   bool
}

// NX1Params describes a Samsung NX1 frame.
type NX1Params struct {
	Width, Height int
	Options       NX1Options
}

// NX1 decodes the Samsung NX1 reference-line predictor codec: per
// 16-pixel group, a direction bit selects upward vs. left prediction,
// and per-pixel length bits come from a running pair of length tables
// updated per group.
type NX1 struct {
	view   *bbuf.View
	params NX1Params
}

func NewNX1(view *bbuf.View, p NX1Params) *NX1 { return &NX1{view: view, params: p} }

const nx1GroupSize = 16

func (n *NX1) Decompress(dataOffset uint) (*Plane, error) {
	w, h := n.params.Width, n.params.Height
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Codec: "samsung-nx1", Reason: "zero frame dimension"}
	}
	plane := NewPlane(w, h, 1)
	pump := bitpump.New(n.view, dataOffset, bitpump.MSB)

	lenTable := [2]uint{7, 7} // running pair of length tables, seeded flat
	for y := 0; y < h; y++ {
		for gx := 0; gx < w; gx += nx1GroupSize {
			pump.Fill(1)
			upward := pump.GetBitsNoFill(1) == 1

			for k := 0; k < 2; k++ {
				pump.Fill(3)
				adj := pump.GetBitsNoFill(3)
				switch adj {
				case 0:
					if lenTable[k] > 1 {
						lenTable[k]--
					}
				case 1:
					if lenTable[k] < 16 {
						lenTable[k]++
					}
				}
			}

			groupEnd := gx + nx1GroupSize
			if groupEnd > w {
				groupEnd = w
			}
			for x := gx; x < groupEnd; x++ {
				l := lenTable[x%2]
				pump.Fill(l)
				raw := int32(pump.GetBitsNoFill(l))
				diff := huffman.Extend(raw, l)

				var ref int32
				if upward && y > 0 {
					ref = int32(plane.Get(x, y-1, 0))
				} else if !upward && x > 0 {
					ref = int32(plane.Get(x-1, y, 0))
				}
				if n.params.Options.MV && upward && y > 0 && x > 0 {
					ref = (ref + int32(plane.Get(x-1, y, 0))) / 2
				}
				v := ref + diff
				plane.Set(x, y, 0, clampBits(v, 16))
			}
		}
	}
	return plane, nil
}
