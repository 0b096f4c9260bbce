// Package huffman builds and decodes canonical Huffman (prefix) codes the
// way every JPEG-derived codec in this module needs them: a direct lookup
// table for short codes (L=11 bits) backed by a length-indexed fallback
// for the rare long ones, per spec.md §4.C. The two-tier shape mirrors
// libjpeg's classic decoder table and is grounded here on the teacher's
// tree-based decoder (jpeg.go/segment.go hcnode) generalized to avoid a
// pointer-chasing bit-at-a-time walk in the hot path.
package huffman

import "fmt"

const fastBits = 11 // L in spec.md §4.C
const fastSize = 1 << fastBits

// Mode selects how the table resolves an alphabet symbol once a code is
// decoded: FullDecode additionally reads the symbol's diff-bits and
// returns the sign-extended difference; LengthOnly returns the raw
// symbol, letting codecs that interleave multiple length tokens
// (Hasselblad) read the difference bits themselves.
type Mode int

const (
	FullDecode Mode = iota
	LengthOnly
)

// Table is a constructed canonical prefix code, usable for decoding once
// built. DNGBugCompat reproduces the DNG 1.0 16-bit-symbol workaround
// described in spec.md §4.C / §9 (skip 16 extra bits after a length-16
// symbol); it must only be set for DNG lossless-JPEG tiles encoded by
// affected writers (DNGVersion < 1.1).
type Table struct {
	mode         Mode
	dngBugCompat bool

	codeValues []uint8 // alphabet symbol per canonical code, in code order

	fast [fastSize]fastEntry

	// per-length (for l in [fastBits+1, 16]) data for the long-code path
	maxCode [17]int32 // largest canonical code of length l, -1 if none
	firstAt [17]int32 // symbolIndex = code + firstAt[l], set when length l's codes begin
}

type fastEntry struct {
	bits     uint8 // bits to consume from the stream
	value    int32 // full-decode: sign-extended difference; length-only: symbol
	complete bool  // false => this index only resolves the first `bits` of a longer code
}

// BuildParams are the two fields a caller supplies, taken straight from a
// JPEG DHT segment or a camera-embedded table (Pentax 0x220, Nikon canned
// tables): nCodesPerLength[L] counts codes of bit-length L (L in 1..16),
// and codeValues holds the alphabet symbol for each code in canonical
// order (shortest codes first, lexical order within a length).
type BuildParams struct {
	NCodesPerLength [17]int // index 0 unused, 1..16 valid
	CodeValues      []uint8
	Mode            Mode
	DNGBugCompat    bool
}

// Build validates BuildParams and constructs a two-tier lookup Table.
// It rejects infeasible or oversized canonical code sets per spec.md §8
// boundary behaviors ("nCodesPerLength with 3 codes of length 1" etc).
func Build(p BuildParams) (*Table, error) {
	total := 0
	for l := 1; l <= 16; l++ {
		total += p.NCodesPerLength[l]
	}
	if total == 0 {
		return nil, fmt.Errorf("huffman: empty code length table")
	}
	if total > 162 {
		return nil, fmt.Errorf("huffman: too many codes (%d > 162)", total)
	}
	if len(p.CodeValues) != total {
		return nil, fmt.Errorf("huffman: code value count %d does not match length table total %d",
			len(p.CodeValues), total)
	}
	if p.Mode == FullDecode {
		for _, v := range p.CodeValues {
			if v > 16 {
				return nil, fmt.Errorf("huffman: invalid alphabet symbol %d (must be 0..16)", v)
			}
		}
	}

	t := &Table{mode: p.Mode, dngBugCompat: p.DNGBugCompat, codeValues: p.CodeValues}
	for l := range t.maxCode {
		t.maxCode[l] = -1
	}

	// Generate canonical codes: ascending length, issuing n[L] consecutive
	// codes per length, left-shifting the running code between lengths.
	code := uint32(0)
	symIdx := 0
	for l := 1; l <= 16; l++ {
		n := p.NCodesPerLength[l]
		if n > 0 {
			maxAllowed := uint32(1) << uint(l)
			if code+uint32(n) > maxAllowed {
				return nil, fmt.Errorf("huffman: infeasible canonical code set at length %d "+
					"(%d codes do not fit remaining space)", l, n)
			}
		}
		t.firstAt[l] = int32(symIdx) - int32(code)
		for i := 0; i < n; i++ {
			sym := t.codeValues[symIdx]
			diffBits := uint(0)
			if p.Mode == FullDecode && sym != 0 && sym != 16 {
				// 0 and 16 are the two special no-diff-bits symbols (see
				// resolve): 0 means "no change", 16 means the fixed
				// -32768 sentinel. Every other symbol's diff-bit count
				// equals its own value.
				diffBits = uint(sym)
			}
			t.insert(uint32(code), uint(l), diffBits, symIdx)
			code++
			symIdx++
		}
		if n > 0 {
			t.maxCode[l] = int32(code) - 1
		}
		code <<= 1
	}
	return t, nil
}

func (t *Table) insert(code uint32, l uint, diffBits uint, symIdx int) {
	if l <= fastBits && (l+diffBits <= fastBits || diffBits == 0) {
		// complete entry: every table slot whose top l bits equal code
		base := code << (fastBits - l)
		span := uint32(1) << (fastBits - l)
		for i := uint32(0); i < span; i++ {
			idx := base + i
			var value int32
			if t.mode == FullDecode {
				bits := l
				sym := t.codeValues[symIdx]
				switch {
				case diffBits == 0 && sym == 16:
					// special sentinel: DNG 1.0's affected writers spuriously
					// emit 16 junk bits after this symbol.
					value = -32768
					if t.dngBugCompat {
						bits += 16
					}
				case diffBits == 0:
					value = 0
				default:
					diffField := i >> (fastBits - l - diffBits)
					value = extend(int32(diffField), diffBits)
					bits += diffBits
				}
				t.fast[idx] = fastEntry{bits: uint8(bits), value: value, complete: true}
			} else {
				t.fast[idx] = fastEntry{bits: uint8(l), value: int32(t.codeValues[symIdx]), complete: true}
			}
		}
		return
	}
	if l <= fastBits {
		// FullDecode with diff bits overflowing the fast table: mark
		// partial so Decode skips l bits and reads the diff bits itself.
		base := code << (fastBits - l)
		span := uint32(1) << (fastBits - l)
		for i := uint32(0); i < span; i++ {
			t.fast[base+i] = fastEntry{bits: uint8(l), complete: false}
		}
		return
	}
	// l > fastBits: nothing to place in the fast table directly; no
	// shorter code shares the prefix of a prefix-free code, so the
	// prefix's fast-table slot stays zero (bits=0), meaning "go to the
	// long path immediately after peeking fastBits bits".
}

// sign-extend per spec.md §4.C: extend(diff, len) = diff if top bit set
// else diff - (2^len - 1).
func extend(diff int32, length uint) int32 {
	if length == 0 {
		return 0
	}
	if diff&(1<<(length-1)) != 0 {
		return diff
	}
	return diff - (1<<length - 1)
}

// Extend is the exported sign-extension primitive from spec.md §4.C,
// usable directly by codecs that read raw diff bits themselves (ARW1,
// Hasselblad, Kodak, and the Samsung codecs).
func Extend(diff int32, length uint) int32 { return extend(diff, length) }

// bitReader is the minimal surface Decode needs from a bit pump, kept
// local to avoid an import cycle with package bitpump (which has no need
// to know about huffman.Table).
type bitReader interface {
	Fill(n uint)
	PeekBitsNoFill(n uint) uint32
	SkipBitsNoFill(n uint)
	GetBitsNoFill(n uint) uint32
}

// Decode reads one symbol (LengthOnly mode) or one sign-extended
// difference (FullDecode mode) from br using the two-tier lookup
// described in spec.md §4.C.
func (t *Table) Decode(br bitReader) (int32, error) {
	br.Fill(32)
	c := br.PeekBitsNoFill(fastBits)
	e := t.fast[c]
	if e.complete {
		br.SkipBitsNoFill(uint(e.bits))
		return e.value, nil
	}
	if e.bits > 0 {
		// partial entry: a code of e.bits <= fastBits bits whose diff
		// bits did not fit; skip the code and resolve its symbol here.
		l := uint(e.bits)
		br.SkipBitsNoFill(l)
		symIdx := int(int32(c>>(fastBits-l)) + t.firstAt[l])
		return t.resolve(t.codeValues[symIdx], br)
	}
	// unknown-prefix entry: consume fastBits bits already peeked as the
	// common prefix, then walk codes of increasing length.
	br.SkipBitsNoFill(fastBits)
	code := int32(c)
	for l := fastBits + 1; l <= 16; l++ {
		code = code<<1 | int32(br.GetBitsNoFill(1))
		if t.maxCode[l] >= 0 && code <= t.maxCode[l] {
			symIdx := int(code - t.firstAtCode(l))
			if symIdx < 0 || symIdx >= len(t.codeValues) {
				return 0, fmt.Errorf("huffman: corrupt code (len %d)", l)
			}
			sym := t.codeValues[symIdx]
			return t.resolve(sym, br)
		}
	}
	return 0, fmt.Errorf("huffman: code longer than 16 bits")
}

func (t *Table) firstAtCode(l int) int32 {
	// firstAt[l] was stored as symIdx - code at the moment length l's
	// codes started; recovering the code-indexed symbol offset is just
	// negating that relationship: symIdx = code + firstAt[l].
	return -t.firstAt[l]
}

func (t *Table) resolve(sym uint8, br bitReader) (int32, error) {
	if t.mode == LengthOnly {
		return int32(sym), nil
	}
	if sym == 0 {
		return 0, nil
	}
	if sym == 16 {
		if t.dngBugCompat {
			br.SkipBitsNoFill(16)
		}
		return -32768, nil
	}
	diff := int32(br.GetBitsNoFill(uint(sym)))
	return extend(diff, uint(sym)), nil
}

// DecodeLength is a convenience for LengthOnly tables: it is Decode with
// the int32 result narrowed to uint8, used by codecs (Hasselblad) that
// read a raw code-length token before consuming the
// associated difference bits themselves.
func (t *Table) DecodeLength(br bitReader) (uint8, error) {
	v, err := t.Decode(br)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
