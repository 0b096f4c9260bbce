package codecs

import (
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
	"github.com/jrm-1535/rawspeed/internal/huffman"
)

// HasselbladParams describes a Hasselblad 3FR frame.
type HasselbladParams struct {
	Width, Height int
}

// Hasselblad decodes the MSB32 paired-Huffman codec: two independent
// predictors p1/p2, each seeded at 0x8000, stepping two columns at a
// time.
type Hasselblad struct {
	view   *bbuf.View
	params HasselbladParams
	lenTbl *huffman.Table
}

const hasselbladInitPred = 0x8000

var hasselbladLenCounts = [17]int{0, 0, 1, 2, 2, 2, 2, 2, 2, 1, 0, 0, 0, 0, 0, 0, 0}
var hasselbladLenValues = []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}

func NewHasselblad(view *bbuf.View, p HasselbladParams) (*Hasselblad, error) {
	tbl, err := huffman.Build(huffman.BuildParams{
		NCodesPerLength: hasselbladLenCounts,
		CodeValues:      hasselbladLenValues,
		Mode:            huffman.LengthOnly,
	})
	if err != nil {
		return nil, &DecodeError{Codec: "hasselblad", Reason: "building table: " + err.Error()}
	}
	return &Hasselblad{view: view, params: p, lenTbl: tbl}, nil
}

func (hb *Hasselblad) decodeDiff(pump *bitpump.Pump) (int32, error) {
	length, err := hb.lenTbl.DecodeLength(pump)
	if err != nil {
		return 0, err
	}
	pump.Fill(uint(length))
	raw := int32(pump.GetBitsNoFill(uint(length)))
	if raw == 65535 {
		return -32768, nil
	}
	return huffman.Extend(raw, uint(length)), nil
}

func (hb *Hasselblad) Decompress(dataOffset uint) (*Plane, error) {
	w, h := hb.params.Width, hb.params.Height
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Codec: "hasselblad", Reason: "zero frame dimension"}
	}
	plane := NewPlane(w, h, 1)
	pump := bitpump.New(hb.view, dataOffset, bitpump.MSB32)

	for y := 0; y < h; y++ {
		p1 := int32(hasselbladInitPred)
		p2 := int32(hasselbladInitPred)
		for x := 0; x < w; x += 2 {
			diff1, err := hb.decodeDiff(pump)
			if err != nil {
				return nil, &DecodeError{Codec: "hasselblad", Reason: "decode: " + err.Error()}
			}
			diff2, err := hb.decodeDiff(pump)
			if err != nil {
				return nil, &DecodeError{Codec: "hasselblad", Reason: "decode: " + err.Error()}
			}
			p1 += diff1
			p2 += diff2
			plane.Set(x, y, 0, clampBits(p1, 16))
			if x+1 < w {
				plane.Set(x+1, y, 0, clampBits(p2, 16))
			}
		}
	}
	return plane, nil
}
