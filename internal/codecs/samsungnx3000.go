package codecs

import (
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
	"github.com/jrm-1535/rawspeed/internal/huffman"
)

// samsungNX3000Table is NX3000's variant layout of the same (encLen,
// diffLen) idea as NX v1, per spec.md §4.G ("similar to v1 with a
// slightly different table layout").
var samsungNX3000Table = [14][2]int{
	{2, 1}, {2, 2}, {3, 3}, {3, 4}, {4, 5}, {4, 6}, {5, 7},
	{5, 8}, {6, 9}, {6, 10}, {7, 11}, {8, 12}, {9, 13}, {10, 14},
}

// NX3000Params describes a Samsung NX3000 frame.
type NX3000Params struct {
	Width, Height int
}

// NX3000 decodes the Samsung NX3000 gradient codec.
type NX3000 struct {
	view   *bbuf.View
	params NX3000Params
}

func NewNX3000(view *bbuf.View, p NX3000Params) *NX3000 { return &NX3000{view: view, params: p} }

func decodeNX3000One(pump *bitpump.Pump) int32 {
	pump.Fill(10)
	bits := pump.PeekBitsNoFill(10)
	idx := int(bits >> 6)
	if idx >= len(samsungNX3000Table) {
		idx = len(samsungNX3000Table) - 1
	}
	pair := samsungNX3000Table[idx]
	pump.SkipBitsNoFill(uint(pair[0]))
	pump.Fill(uint(pair[1]))
	raw := int32(pump.GetBitsNoFill(uint(pair[1])))
	return huffman.Extend(raw, uint(pair[1]))
}

func (n *NX3000) Decompress(dataOffset uint) (*Plane, error) {
	w, h := n.params.Width, n.params.Height
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Codec: "samsung-nx3000", Reason: "zero frame dimension"}
	}
	plane := NewPlane(w, h, 1)
	pump := bitpump.New(n.view, dataOffset, bitpump.MSB)

	gradient := make([]int32, w)
	for y := 0; y < h; y++ {
		pred := int32(0)
		for x := 0; x < w; x++ {
			diff := decodeNX3000One(pump)
			v := gradient[x] + pred + diff
			plane.Set(x, y, 0, clampBits(v, 16))
			gradient[x] = v - pred
			pred = v
		}
	}
	return plane, nil
}
