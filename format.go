package rawspeed

import (
	"strings"

	"github.com/jrm-1535/rawspeed/internal/tiff"
)

// Format is the camera format the container/format selector (spec.md
// §4.J) dispatched to. This file replaces the teacher's JFIF/APP0
// format-segment printer (FormatSegments/GetImageInfo) with the
// analogous concern for this domain: picking the right decompressor
// from a parsed TIFF root.
type Format int

const (
	FormatUnknown Format = iota
	FormatDNG
	FormatCR2
	FormatCRW
	FormatNEF
	FormatARW1
	FormatARW2
	FormatRW2
	FormatPEF
	FormatSRW
	FormatSRW2
	FormatNX1
	FormatNX3000
	FormatORF
	Format3FR
	FormatSTI
	FormatDCR
)

func (f Format) String() string {
	switch f {
	case FormatDNG:
		return "DNG"
	case FormatCR2:
		return "CR2"
	case FormatCRW:
		return "CRW"
	case FormatNEF:
		return "NEF"
	case FormatARW1:
		return "ARW1"
	case FormatARW2:
		return "ARW2"
	case FormatRW2:
		return "RW2"
	case FormatPEF:
		return "PEF"
	case FormatSRW:
		return "SRW"
	case FormatSRW2:
		return "SRW2"
	case FormatNX1:
		return "NX1"
	case FormatNX3000:
		return "NX3000"
	case FormatORF:
		return "ORF"
	case Format3FR:
		return "3FR"
	case FormatSTI:
		return "STI"
	case FormatDCR:
		return "DCR"
	default:
		return "Unknown"
	}
}

const tagDNGVersion = 0xC612

// SelectFormat walks the parsed root IFD per spec.md §4.J: DNGVersion
// present selects DNG (rejecting major versions > 1); otherwise Make is
// inspected across all discovered IFDs. The selector returns
// UnsupportedFormatError when no rule matches.
func SelectFormat(p *tiff.Parser) (Format, error) {
	for _, ifd := range p.IFDs() {
		if e, ok := ifd.Find(tagDNGVersion); ok {
			major, err := dngMajorVersion(e)
			if err != nil {
				return FormatUnknown, err
			}
			if major > 1 {
				return FormatUnknown, &UnsupportedFormatError{Reason: "DNG major version > 1"}
			}
			return FormatDNG, nil
		}
	}

	var make string
	for _, ifd := range p.IFDs() {
		if e, ok := ifd.Find(0x010F); ok { // Make
			if s, err := e.AsASCIIString(); err == nil {
				make = s
				break
			}
		}
	}
	upper := strings.ToUpper(strings.TrimSpace(make))
	switch {
	case strings.HasPrefix(upper, "CANON"):
		if isCR2(p) {
			return FormatCR2, nil
		}
		return FormatCRW, nil
	case strings.HasPrefix(upper, "NIKON"):
		return FormatNEF, nil
	case strings.HasPrefix(upper, "SONY"):
		if isARW2(p) {
			return FormatARW2, nil
		}
		return FormatARW1, nil
	case strings.HasPrefix(upper, "PENTAX"), strings.HasPrefix(upper, "RICOH IMAGING"):
		return FormatPEF, nil
	case strings.HasPrefix(upper, "OLYMPUS"):
		return FormatORF, nil
	case strings.HasPrefix(upper, "SAMSUNG"):
		return selectSamsungVariant(p), nil
	case strings.HasPrefix(upper, "PANASONIC"):
		return FormatRW2, nil
	case strings.HasPrefix(upper, "HASSELBLAD"):
		return Format3FR, nil
	case strings.HasPrefix(upper, "SINAR"):
		return FormatSTI, nil
	case strings.HasPrefix(upper, "KODAK"):
		return FormatDCR, nil
	}
	return FormatUnknown, &UnsupportedFormatError{Reason: "no Make/DNGVersion rule matched: " + make}
}

// dngMajorVersion reads the first byte of the DNGVersion BYTE[4] tag
// (major, minor, 0, 0 per the DNG spec); a single-element read is
// sufficient since only the major version gates support here.
func dngMajorVersion(e tiff.Entry) (int, error) {
	b, err := e.AsByte()
	if err != nil {
		return 0, err
	}
	return int(b), nil
}

const tagJPEGInterchange = 0x0201

func isCR2(p *tiff.Parser) bool {
	for _, ifd := range p.IFDs() {
		if ifd.Has(tagJPEGInterchange) {
			return true
		}
	}
	return false
}

func isARW2(p *tiff.Parser) bool {
	for _, ifd := range p.IFDs() {
		if c, ok := ifd.Compression(); ok && c == 32767 {
			return true
		}
	}
	return false
}

func selectSamsungVariant(p *tiff.Parser) Format {
	model, _ := p.CameraModel()
	switch {
	case strings.Contains(model, "NX1"):
		return FormatNX1
	case strings.Contains(model, "NX3000"):
		return FormatNX3000
	case strings.Contains(model, "NX300"):
		return FormatSRW2
	default:
		return FormatSRW
	}
}
