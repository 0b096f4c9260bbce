package codecs

import (
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/bitpump"
	"github.com/jrm-1535/rawspeed/internal/huffman"
)

// crwDCCounts/crwDCValues is the single hard-coded Canon CRW Huffman
// table. It is used for every table id (TableID is not consulted) and
// for every difference in a 64-pixel block; there is no separate AC
// table. Counts/values follow the canonical layout spec.md §4.G
// describes generically ("three hard-coded count/value pairs").
var crwDCCounts = [17]int{0, 0, 1, 5, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
var crwDCValues = []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8}

// CRWParams describes a Canon CRW frame.
type CRWParams struct {
	Width, Height int
	TableID       int // 0, 1, or 2
	LowBits       bool
	LowBitsOffset uint
}

// CRW decodes the Canon old-CR2/CRW codec: 64-pixel blocks, each
// yielding 64 Huffman-decoded differences that are paired and
// accumulated into two running predictors reset at each row boundary,
// plus an optional 2-bit low-bits plane.
type CRW struct {
	view   *bbuf.View
	params CRWParams
	table  *huffman.Table
}

func NewCRW(view *bbuf.View, p CRWParams) (*CRW, error) {
	tbl, err := huffman.Build(huffman.BuildParams{
		NCodesPerLength: crwDCCounts,
		CodeValues:      crwDCValues,
		Mode:            huffman.FullDecode,
	})
	if err != nil {
		return nil, &DecodeError{Codec: "crw", Reason: "building table: " + err.Error()}
	}
	return &CRW{view: view, params: p, table: tbl}, nil
}

func (c *CRW) Decompress(dataOffset uint) (*Plane, error) {
	w, h := c.params.Width, c.params.Height
	if w <= 0 || h <= 0 {
		return nil, &DecodeError{Codec: "crw", Reason: "zero frame dimension"}
	}
	plane := NewPlane(w, h, 1)
	pump := bitpump.New(c.view, dataOffset, bitpump.JPEG)

	var lowBits []byte
	if c.params.LowBits {
		n := (w * h) / 4
		b, err := c.view.Bytes(c.params.LowBitsOffset, uint(n))
		if err != nil {
			return nil, &DecodeError{Codec: "crw", Reason: "reading low-bits plane: " + err.Error()}
		}
		lowBits = b
	}

	// The predictor tracks the final 10-bit sample directly when there is
	// no low-bits plane; with one, it tracks only the upper bits that
	// get combined with 2 low bits into the final sample, so its base
	// must start at the same mid-gray point shifted down accordingly.
	hiBase := int32(512)
	if c.params.LowBits {
		hiBase = 512 >> 2
	}
	base := [2]int32{hiBase, hiBase}
	blockPixels := 64
	total := w * h
	idx := 0
	for idx < total {
		for i := 0; i < blockPixels && idx < total; i += 2 {
			for k := 0; k < 2 && idx+k < total; k++ {
				if (idx+k)%w == 0 {
					base = [2]int32{hiBase, hiBase}
				}
				diff, err := c.table.Decode(pump)
				if err != nil {
					return nil, &DecodeError{Codec: "crw", Reason: "decoding block: " + err.Error()}
				}
				base[k] += diff
				hi := base[k]
				var v int32
				if lowBits != nil {
					byteIdx := (idx + k) / 4
					shift := uint(((idx + k) % 4) * 2)
					lo := int32((lowBits[byteIdx] >> shift) & 0x3)
					v = (hi << 2) | lo
				} else {
					v = hi
				}
				if v < 0 || v > 1023 {
					return nil, &DecodeError{Codec: "crw", Reason: "pixel value exceeds 10 bits"}
				}
				x, y := (idx+k)%w, (idx+k)/w
				plane.Set(x, y, 0, uint16(v))
			}
			idx += 2
		}
	}
	return plane, nil
}
