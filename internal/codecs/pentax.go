package codecs

import (
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
	"github.com/jrm-1535/rawspeed/internal/huffman"
)

// pentaxFallbackCounts/Values is the 13-entry fallback table used when
// the camera does not supply one in its 0x220 maker-note sub-field,
// per spec.md §4.G.
var pentaxFallbackCounts = [17]int{0, 0, 2, 3, 1, 1, 1, 1, 1, 1, 2, 0, 0, 0, 0, 0, 0}
var pentaxFallbackValues = []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

// PentaxParams describes a Pentax PEF frame. TableCodes/TableLengths,
// when both non-nil, select the camera's embedded table from its 0x220
// maker-note sub-field; nil selects the fallback table. Only
// TableLengths is used: codes are assigned canonically from the count
// of each length, with symbols 0..n-1 in index order. The values in
// TableCodes are not read.
type PentaxParams struct {
	Width, Height int
	TableCodes    []uint16
	TableLengths  []uint8
}

// Pentax decodes the PEF codec: LJPEG-shaped 2-component left
// predictor where odd and even columns have independent predictors.
type Pentax struct {
	view   *bbuf.View
	params PentaxParams
	table  *huffman.Table
}

func NewPentax(view *bbuf.View, p PentaxParams) (*Pentax, error) {
	var counts [17]int
	var values []uint8
	if p.TableCodes != nil && p.TableLengths != nil {
		for _, l := range p.TableLengths {
			if l >= 1 && l <= 16 {
				counts[l]++
			}
		}
		values = make([]uint8, len(p.TableLengths))
		for i := range values {
			values[i] = uint8(i)
		}
	} else {
		counts = pentaxFallbackCounts
		values = pentaxFallbackValues
	}
	tbl, err := huffman.Build(huffman.BuildParams{NCodesPerLength: counts, CodeValues: values, Mode: huffman.FullDecode})
	if err != nil {
		return nil, &DecodeError{Codec: "pentax", Reason: "building table: " + err.Error()}
	}
	return &Pentax{view: view, params: p, table: tbl}, nil
}

func (px *Pentax) Decompress(dataOffset uint) (*Plane, error) {
	w, h := px.params.Width, px.params.Height
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Codec: "pentax", Reason: "zero frame dimension"}
	}
	plane := NewPlane(w, h, 1)
	pump := bitpump.New(px.view, dataOffset, bitpump.JPEG)

	var pUp1, pUp2 [2]int32
	for y := 0; y < h; y++ {
		d1, err := px.table.Decode(pump)
		if err != nil {
			return nil, &DecodeError{Codec: "pentax", Reason: "row seed decode: " + err.Error()}
		}
		pUp1[y&1] += d1
		d2, err := px.table.Decode(pump)
		if err != nil {
			return nil, &DecodeError{Codec: "pentax", Reason: "row seed decode: " + err.Error()}
		}
		pUp2[y&1] += d2

		pred1, pred2 := pUp1[y&1], pUp2[y&1]
		for x := 0; x < w; x += 2 {
			d, err := px.table.Decode(pump)
			if err != nil {
				return nil, &DecodeError{Codec: "pentax", Reason: "decode: " + err.Error()}
			}
			pred1 += d
			plane.Set(x, y, 0, clampBits(pred1, 16))
			if x+1 < w {
				d, err := px.table.Decode(pump)
				if err != nil {
					return nil, &DecodeError{Codec: "pentax", Reason: "decode: " + err.Error()}
				}
				pred2 += d
				plane.Set(x+1, y, 0, clampBits(pred2, 16))
			}
		}
	}
	return plane, nil
}
