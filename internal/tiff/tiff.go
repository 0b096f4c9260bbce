// Package tiff walks a TIFF/EXIF-shaped IFD graph: byte-order and magic
// detection, recursive IFD/sub-IFD/EXIF/GPS/Interop traversal (maker
// notes are not descended into), and typed tag
// value accessors. It is grounded on the teacher's inline exif.go (the
// checkIFD recursive walk and the checkTiff* typed accessor family) and
// on two RAW-specific reference parsers retrieved for this spec:
// jeremytorres-rawparser's processIfd (linked-list IFD entries, typed
// tag dispatch) and garyhouston-tiff66's FieldType model (byte size
// per TIFF type). The teacher's exif.go was written against EXIF/JPEG
// constraints; this package generalizes it to the IFD graphs RAW files
// embed (recursive sub-IFDs) per spec.md's component D.
package tiff

import (
	"fmt"

	"github.com/jrm-1535/rawspeed/internal/bbuf"
)

// Type is a TIFF field type tag (TIFF 6.0 §2, plus the BigTIFF/DNG
// additions used by some camera makers).
type Type uint16

const (
	TypeByte      Type = 1
	TypeASCII     Type = 2
	TypeShort     Type = 3
	TypeLong      Type = 4
	TypeRational  Type = 5
	TypeSByte     Type = 6
	TypeUndefined Type = 7
	TypeSShort    Type = 8
	TypeSLong     Type = 9
	TypeSRational Type = 10
	TypeFloat     Type = 11
	TypeDouble    Type = 12
)

type typeInfo struct {
	size uint
	name string
}

var typeInfos = map[Type]typeInfo{
	TypeByte:      {1, "BYTE"},
	TypeASCII:     {1, "ASCII"},
	TypeShort:     {2, "SHORT"},
	TypeLong:      {4, "LONG"},
	TypeRational:  {8, "RATIONAL"},
	TypeSByte:     {1, "SBYTE"},
	TypeUndefined: {1, "UNDEFINED"},
	TypeSShort:    {2, "SSHORT"},
	TypeSLong:     {4, "SLONG"},
	TypeSRational: {8, "SRATIONAL"},
	TypeFloat:     {4, "FLOAT"},
	TypeDouble:    {8, "DOUBLE"},
}

func (t Type) info() typeInfo {
	if ti, ok := typeInfos[t]; ok {
		return ti
	}
	return typeInfo{1, fmt.Sprintf("TYPE(%d)", uint16(t))}
}

// ElementSize returns the byte size of one value of this type, or 1 for
// an unrecognized type (its values are then read as raw bytes).
func (t Type) ElementSize() uint { return t.info().size }

func (t Type) String() string { return t.info().name }

// IFD namespaces, mirroring the teacher's _PRIMARY/_THUMBNAIL/_EXIF/_GPS
// distinction in exif.go, generalized with a maker-note namespace for
// the maker-defined IFD RAW files nest under 0x927C. Parse does not walk
// maker notes, so no parsed IFD carries the MakerNote namespace.
type Namespace int

const (
	Primary Namespace = iota
	SubIFD
	Exif
	GPS
	Interop
	MakerNote
)

// Rational is a numerator/denominator pair as stored by TypeRational /
// TypeSRational.
type Rational struct{ Num, Den int64 }

// Float returns n/d as a float64; a zero denominator yields 0 rather
// than panicking, since malformed RATIONAL(x,0) tags appear in the
// wild (notably some Kodak DCR files).
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Entry is one decoded IFD directory entry: its tag, declared type and
// count, and the raw value bytes (either the inline 4-byte slot or the
// bytes at the offset it points to), resolved eagerly at parse time so
// later accessors never need the view again.
type Entry struct {
	Tag   uint16
	Type  Type
	Count uint32
	raw   []byte
	order bbuf.Order
}

// IFD is one parsed directory: an ordered slice of entries (order as
// stored, following jeremytorres-rawparser's processIfd) plus the
// namespace it was read under and its own byte offset (used for error
// messages and for detecting self-referential IFD loops).
type IFD struct {
	NS      Namespace
	Offset  uint32
	Entries []Entry
	byTag   map[uint16]int
}

// Find returns the entry for tag, if present.
func (d *IFD) Find(tag uint16) (Entry, bool) {
	i, ok := d.byTag[tag]
	if !ok {
		return Entry{}, false
	}
	return d.Entries[i], true
}

// Has reports whether tag is present in this directory.
func (d *IFD) Has(tag uint16) bool {
	_, ok := d.byTag[tag]
	return ok
}

const maxRecursionDepth = 8

// Parser holds the byte-order-resolved view and the flattened set of
// IFDs discovered by a recursive walk starting at the header-declared
// offset.
type Parser struct {
	view *bbuf.View
	ifds []*IFD
}

// Header describes the detected byte order and magic variant. Most TIFF
// files use magic 42; Olympus ORF files use 0x4F52 ('OR') or 0x5352
// ('SR') in their place, which Parse recognizes without rejecting them.
type Header struct {
	Order      bbuf.Order
	Magic      uint16
	FirstIFD   uint32
	OlympusORF bool
}

// ParseHeader reads the 8-byte TIFF header (byte-order mark, magic,
// first-IFD offset) from the start of view.
func ParseHeader(view *bbuf.View) (Header, error) {
	b0, err := view.U8(0)
	if err != nil {
		return Header{}, &IoError{Op: "read byte-order mark", Cause: err}
	}
	b1, err := view.U8(1)
	if err != nil {
		return Header{}, &IoError{Op: "read byte-order mark", Cause: err}
	}
	var order bbuf.Order
	switch {
	case b0 == 'I' && b1 == 'I':
		order = bbuf.LittleEndian
	case b0 == 'M' && b1 == 'M':
		order = bbuf.BigEndian
	default:
		return Header{}, &ParseError{Op: "byte-order mark", Reason: fmt.Sprintf("unrecognized mark %c%c", b0, b1)}
	}
	view.SetOrder(order)
	magic, err := view.U16(2)
	if err != nil {
		return Header{}, &IoError{Op: "read magic", Cause: err}
	}
	olympus := false
	switch magic {
	case 42:
	case 0x4F52, 0x5352: // 'OR', 'SR' - Olympus ORF variants
		olympus = true
	default:
		return Header{}, &ParseError{Op: "magic", Reason: fmt.Sprintf("unrecognized magic 0x%04x", magic)}
	}
	first, err := view.U32(4)
	if err != nil {
		return Header{}, &IoError{Op: "read first IFD offset", Cause: err}
	}
	return Header{Order: order, Magic: magic, FirstIFD: first, OlympusORF: olympus}, nil
}

// Parse reads the full header and recursively walks every IFD reachable
// from the first-IFD offset: sub-IFDs (tag 0x014A), EXIF IFD (0x8769),
// GPS IFD (0x8825) and Interop IFD (0xA005) are all flattened into the
// returned Parser's ifds slice so callers can query any of them without
// re-walking. A maker note (0x927C) stays an ordinary entry; its
// contents are not parsed as an IFD.
func Parse(view *bbuf.View) (*Parser, error) {
	hdr, err := ParseHeader(view)
	if err != nil {
		return nil, err
	}
	p := &Parser{view: view}
	if err := p.walk(hdr.FirstIFD, Primary, 0); err != nil {
		return nil, err
	}
	return p, nil
}

// IFDs returns every directory discovered during the walk, in discovery
// order (primary chain first, then sub-IFDs depth-first).
func (p *Parser) IFDs() []*IFD { return p.ifds }

// IFDsWithTag returns every discovered directory that contains tag,
// generalizing the teacher's single-namespace lookups to RAW files where
// a tag of interest (e.g. StripOffsets) may appear in more than one
// sub-IFD (DNG previews vs. the main raw IFD).
func (p *Parser) IFDsWithTag(tag uint16) []*IFD {
	var out []*IFD
	for _, ifd := range p.ifds {
		if ifd.Has(tag) {
			out = append(out, ifd)
		}
	}
	return out
}

// HasEntryRecursive reports whether any discovered IFD contains tag.
func (p *Parser) HasEntryRecursive(tag uint16) bool {
	return len(p.IFDsWithTag(tag)) > 0
}

func (p *Parser) walk(offset uint32, ns Namespace, depth int) error {
	if depth > maxRecursionDepth {
		return &ParseError{Op: "IFD walk", Reason: "recursion depth exceeded (possible cyclic IFD chain)"}
	}
	for offset != 0 {
		for _, seen := range p.ifds {
			if seen.Offset == offset {
				return &ParseError{Op: "IFD walk", Reason: fmt.Sprintf("cyclic IFD chain at 0x%X", offset)}
			}
		}
		ifd, next, err := p.readOneIFD(offset, ns, depth)
		if err != nil {
			return err
		}
		p.ifds = append(p.ifds, ifd)
		if e, ok := ifd.Find(tagSubIFDs); ok {
			offs, err := e.AsLongs()
			if err == nil {
				for _, o := range offs {
					if err := p.walk(o, SubIFD, depth+1); err != nil {
						return err
					}
				}
			}
		}
		if e, ok := ifd.Find(tagExifIFD); ok {
			if o, err := e.AsLong(); err == nil {
				if err := p.walk(o, Exif, depth+1); err != nil {
					return err
				}
			}
		}
		if e, ok := ifd.Find(tagGPSIFD); ok {
			if o, err := e.AsLong(); err == nil {
				if err := p.walk(o, GPS, depth+1); err != nil {
					return err
				}
			}
		}
		if e, ok := ifd.Find(tagInteropIFD); ok {
			if o, err := e.AsLong(); err == nil {
				if err := p.walk(o, Interop, depth+1); err != nil {
					return err
				}
			}
		}
		offset = next
	}
	return nil
}

const (
	tagSubIFDs    = 0x014A
	tagExifIFD    = 0x8769
	tagGPSIFD     = 0x8825
	tagInteropIFD = 0xA005
)

func (p *Parser) readOneIFD(offset uint32, ns Namespace, depth int) (*IFD, uint32, error) {
	count, err := p.view.U16(uint(offset))
	if err != nil {
		return nil, 0, &IoError{Op: "read IFD entry count", Cause: err}
	}
	ifd := &IFD{NS: ns, Offset: offset, byTag: make(map[uint16]int, count)}
	base := uint(offset) + 2
	for i := uint16(0); i < count; i++ {
		entryOff := base + uint(i)*12
		tag, err := p.view.U16(entryOff)
		if err != nil {
			return nil, 0, &IoError{Op: "read entry tag", Cause: err}
		}
		rawType, err := p.view.U16(entryOff + 2)
		if err != nil {
			return nil, 0, &IoError{Op: "read entry type", Cause: err}
		}
		n, err := p.view.U32(entryOff + 4)
		if err != nil {
			return nil, 0, &IoError{Op: "read entry count", Cause: err}
		}
		t := Type(rawType)
		size := t.ElementSize()
		total := size * uint(n)
		var valueBytes []byte
		if total <= 4 {
			valueBytes, err = p.view.Bytes(entryOff+8, 4)
		} else {
			var valOff uint32
			valOff, err = p.view.U32(entryOff + 8)
			if err == nil {
				valueBytes, err = p.view.Bytes(uint(valOff), total)
			}
		}
		if err != nil {
			return nil, 0, &IoError{Op: fmt.Sprintf("read value for tag 0x%04X", tag), Cause: err}
		}
		e := Entry{Tag: tag, Type: t, Count: n, raw: valueBytes, order: p.view.Order()}
		ifd.Entries = append(ifd.Entries, e)
		ifd.byTag[tag] = len(ifd.Entries) - 1
	}
	nextOff := base + uint(count)*12
	next, err := p.view.U32(nextOff)
	if err != nil {
		return nil, 0, &IoError{Op: "read next IFD offset", Cause: err}
	}
	_ = depth
	return ifd, next, nil
}
