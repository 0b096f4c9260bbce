package tiff

import "strconv"

const (
	tagOrientation       = 0x0112
	tagDateTimeOriginal  = 0x9003
	tagDateTimeOriginal2 = 0x0132 // ModifyDate, used as a fallback
	tagCompression       = 0x0103
	tagMake              = 0x010F
	tagModel             = 0x0110
)

// Orientation reports the TIFF orientation tag (1-8) for the first IFD
// that declares one, defaulting to 1 (normal) when absent. Consumers
// still perform no pixel rotation themselves per spec.md §1 Non-goals;
// this only exposes the declared value, following jeremytorres-
// rawparser's nefparser.go / cr2parser.go, which both read tag 0x0112
// alongside the raw tile location rather than treating it as a
// separate concern.
func (p *Parser) Orientation() int {
	for _, ifd := range p.ifds {
		if e, ok := ifd.Find(tagOrientation); ok {
			if v, err := e.AsShort(); err == nil && v >= 1 && v <= 8 {
				return int(v)
			}
		}
	}
	return 1
}

// DateTimeOriginal returns the EXIF DateTimeOriginal (0x9003) string if
// present, falling back to ModifyDate (0x0132), following the same
// reference parsers' processASCIIEntry/parseDateTime tag choice. The
// raw "YYYY:MM:DD HH:MM:SS" ASCII form is returned unparsed since date
// parsing belongs to a caller's metadata layer, not this container
// reader.
func (p *Parser) DateTimeOriginal() (string, bool) {
	for _, ifd := range p.ifds {
		if e, ok := ifd.Find(tagDateTimeOriginal); ok {
			if s, err := e.AsASCIIString(); err == nil && s != "" {
				return s, true
			}
		}
	}
	for _, ifd := range p.ifds {
		if e, ok := ifd.Find(tagDateTimeOriginal2); ok {
			if s, err := e.AsASCIIString(); err == nil && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// CameraMake and CameraModel expose tags 0x010F/0x0110 from the primary
// IFD, the two fields a camera-database lookup keys on (spec.md's
// out-of-scope "camera database").
func (p *Parser) CameraMake() (string, bool) {
	return p.primaryASCII(tagMake)
}

func (p *Parser) CameraModel() (string, bool) {
	return p.primaryASCII(tagModel)
}

func (p *Parser) primaryASCII(tag uint16) (string, bool) {
	for _, ifd := range p.ifds {
		if ifd.NS != Primary {
			continue
		}
		if e, ok := ifd.Find(tag); ok {
			if s, err := e.AsASCIIString(); err == nil {
				return s, true
			}
		}
	}
	return "", false
}

// Compression returns this IFD's Compression tag (0x0103) value; codes
// outside the TIFF 6.0 table are returned as-is rather than rejected,
// since RAW makers commonly use private compression codes (e.g.
// Nikon's 34713). ok is false when the tag is absent or not a SHORT.
func (d *IFD) Compression() (int, bool) {
	e, ok := d.Find(tagCompression)
	if !ok {
		return 0, false
	}
	v, err := e.AsShort()
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func (d *IFD) String() string {
	return "IFD@0x" + strconv.FormatUint(uint64(d.Offset), 16)
}
