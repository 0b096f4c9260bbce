package rawspeed

import (
	"log/slog"

	"github.com/jrm-1535/rawspeed/camera"
	"github.com/jrm-1535/rawspeed/internal/bbuf"
	"github.com/jrm-1535/rawspeed/internal/codecs"
	"github.com/jrm-1535/rawspeed/internal/ljpeg"
	"github.com/jrm-1535/rawspeed/internal/tiff"
	"github.com/jrm-1535/rawspeed/internal/tiledispatch"
	"github.com/jrm-1535/rawspeed/rlog"
)

// Common baseline TIFF tags every format-specific path consults to
// locate and dimension its raw tile, per spec.md §3/§4.J.
const (
	tagImageWidth      = 0x0100
	tagImageLength     = 0x0101
	tagBitsPerSample   = 0x0102
	tagStripOffsets    = 0x0111
	tagSamplesPerPixel = 0x0115
	tagRowsPerStrip    = 0x0116
	tagTileWidth       = 0x0142
	tagTileLength      = 0x0143
	tagTileOffsets     = 0x0144
	tagTileByteCounts  = 0x0145
	tagCR2SliceInfo    = 0xC640
)

// DecodeOptions customizes a decode call: an optional logger (defaults
// to rlog.Default()), a worker-count override for multi-tile formats
// (0 means hardware parallelism), and the DNG 1.0 Huffman-table
// compatibility toggle (spec.md §9).
type DecodeOptions struct {
	Logger       *slog.Logger
	Workers      int
	DNGBugCompat bool
}

// Decoder is returned by TiffParser once the container has been parsed
// and a format selected; it exposes the library surface named in
// spec.md §6.
type Decoder struct {
	view   *bbuf.View
	tiff   *tiff.Parser
	format Format
}

// TiffParser parses data as a TIFF-family container (any of the
// formats in spec.md §1) and selects a decoder, mirroring the
// `TiffParser(byteBuffer).getDecoder()` factory named in spec.md §6.
func TiffParser(data []byte) (*Decoder, error) {
	view := bbuf.New(data, bbuf.LittleEndian)
	parser, err := tiff.Parse(view)
	if err != nil {
		return nil, err
	}
	format, err := SelectFormat(parser)
	if err != nil {
		return nil, err
	}
	return &Decoder{view: view, tiff: parser, format: format}, nil
}

// Format returns the format selected for this container.
func (d *Decoder) Format() Format { return d.format }

// CheckSupport reports whether db recognizes this file's (make, model)
// pair and declares it supported, per spec.md §6's checkSupport(
// cameraDatabase).
func (d *Decoder) CheckSupport(db camera.Database) (bool, error) {
	make, _ := d.tiff.CameraMake()
	model, _ := d.tiff.CameraModel()
	profile, found := db.Get(make, model, d.format.String())
	if !found {
		return false, nil
	}
	return profile.Supported, nil
}

// DecodeMetaData looks up this file's camera profile in db, per
// spec.md §6's decodeMetaData(cameraDatabase).
func (d *Decoder) DecodeMetaData(db camera.Database) (camera.Profile, bool) {
	make, _ := d.tiff.CameraMake()
	model, _ := d.tiff.CameraModel()
	return db.Get(make, model, d.format.String())
}

// rawIFD returns the IFD that carries the raw tile location: the first
// discovered IFD declaring either StripOffsets or TileOffsets.
func (d *Decoder) rawIFD() (*tiff.IFD, error) {
	for _, ifd := range d.tiff.IFDs() {
		if ifd.Has(tagStripOffsets) || ifd.Has(tagTileOffsets) {
			return ifd, nil
		}
	}
	return nil, &ParseError{Op: "locate raw IFD", Reason: "no IFD declares StripOffsets or TileOffsets"}
}

func dims(ifd *tiff.IFD) (int, int, error) {
	we, ok := ifd.Find(tagImageWidth)
	if !ok {
		return 0, 0, &ParseError{Op: "dims", Reason: "missing ImageWidth"}
	}
	he, ok := ifd.Find(tagImageLength)
	if !ok {
		return 0, 0, &ParseError{Op: "dims", Reason: "missing ImageLength"}
	}
	w, err := we.AsLong()
	if err != nil {
		return 0, 0, err
	}
	h, err := he.AsLong()
	if err != nil {
		return 0, 0, err
	}
	if w == 0 || h == 0 {
		return 0, 0, &ParseError{Op: "dims", Reason: "zero frame dimension"}
	}
	return int(w), int(h), nil
}

// DecodeRaw decodes the raw pixel plane for this file's format and
// returns an Image, per spec.md §6's decodeRaw(byteBuffer).
func (d *Decoder) DecodeRaw(opts DecodeOptions) (*Image, error) {
	logger := rlog.OrDefault(opts.Logger)
	ifd, err := d.rawIFD()
	if err != nil {
		return nil, err
	}
	w, h, err := dims(ifd)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoding raw tile", "format", d.format.String(), "width", w, "height", h)

	switch d.format {
	case FormatDNG:
		return d.decodeDNG(ifd, w, h, opts)
	case FormatCR2:
		return d.decodeCR2(ifd, w, h, opts)
	case FormatCRW:
		return d.decodeCRW(ifd, w, h)
	case FormatNEF:
		return d.decodeNEF(ifd, w, h)
	case FormatARW1:
		return d.decodeARW1(ifd, w, h)
	case FormatARW2:
		return d.decodeARW2(ifd, w, h)
	case FormatRW2:
		return d.decodeRW2(ifd, w, h)
	case FormatPEF:
		return d.decodePEF(ifd, w, h)
	case FormatSRW:
		return d.decodeSRW(ifd, w, h)
	case FormatSRW2:
		return d.decodeSRW2(ifd, w, h)
	case FormatNX1:
		return d.decodeNX1(ifd, w, h)
	case FormatNX3000:
		return d.decodeNX3000(ifd, w, h)
	case FormatORF:
		return d.decodeORF(ifd, w, h)
	case Format3FR:
		return d.decode3FR(ifd, w, h)
	case FormatDCR:
		return d.decodeDCR(ifd, w, h)
	default:
		return nil, &UnsupportedFormatError{Reason: "no decode path for " + d.format.String()}
	}
}

func firstOffset(ifd *tiff.IFD, tag uint16) (uint, error) {
	e, ok := ifd.Find(tag)
	if !ok {
		return 0, &ParseError{Op: "offsets", Reason: "missing tag"}
	}
	offs, err := e.AsLongs()
	if err != nil || len(offs) == 0 {
		return 0, &ParseError{Op: "offsets", Reason: "empty offset list"}
	}
	return uint(offs[0]), nil
}

func planeToImage(p *ljpeg.Plane) *Image {
	img := NewImage(uint(p.Width), uint(p.Height), 2, uint(p.Components), Sample16)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			for c := 0; c < p.Components; c++ {
				img.Set16(uint(x), uint(y), uint(c), p.Get(x, y, c))
			}
		}
	}
	return img
}

func codecsPlaneToImage(p *codecs.Plane) *Image {
	img := NewImage(uint(p.Width), uint(p.Height), 2, uint(p.Components), Sample16)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			for c := 0; c < p.Components; c++ {
				img.Set16(uint(x), uint(y), uint(c), p.Get(x, y, c))
			}
		}
	}
	return img
}

// decodeDNG runs one lossless-JPEG instance per tile or strip (each
// independent, per spec.md §4.G's "DNG lossless-JPEG tiles"), using
// the tile dispatcher for parallelism when there is more than one.
func (d *Decoder) decodeDNG(ifd *tiff.IFD, w, h int, opts DecodeOptions) (*Image, error) {
	bugCompat := opts.DNGBugCompat || dngNeedsBugCompat(d.tiff)
	img := NewImage(uint(w), uint(h), 2, 1, Sample16)

	if ifd.Has(tagTileOffsets) {
		return d.decodeDNGTiled(ifd, img, bugCompat, opts)
	}
	return d.decodeDNGStripped(ifd, img, bugCompat, opts)
}

func dngNeedsBugCompat(p *tiff.Parser) bool {
	for _, ifd := range p.IFDs() {
		if e, ok := ifd.Find(tagDNGVersion); ok {
			if b, err := e.AsByte(); err == nil && b < 1 {
				return true
			}
		}
	}
	return false
}

func (d *Decoder) decodeDNGTiled(ifd *tiff.IFD, img *Image, bugCompat bool, opts DecodeOptions) (*Image, error) {
	twE, _ := ifd.Find(tagTileWidth)
	tlE, _ := ifd.Find(tagTileLength)
	offE, _ := ifd.Find(tagTileOffsets)
	tw, _ := twE.AsLong()
	tl, _ := tlE.AsLong()
	offs, err := offE.AsLongs()
	if err != nil {
		return nil, err
	}
	if tw == 0 || tl == 0 {
		return nil, &ParseError{Op: "DNG tiles", Reason: "zero tile dimension"}
	}

	tilesPerRow := (img.Width + uint(tw) - 1) / uint(tw)
	tiles := make([]tiledispatch.Tile, len(offs))
	for i, off := range offs {
		i, off := i, off
		tx := uint(i) % tilesPerRow
		ty := uint(i) / tilesPerRow
		tiles[i] = tiledispatch.Tile{Index: i, Run: func() error {
			dec := ljpeg.New(d.view, ljpeg.Options{DNGBugCompat: bugCompat})
			frame, scan, scanStart, err := decodeHeadersAt(dec, uint(off))
			if err != nil {
				return err
			}
			plane, err := dec.DecodeScan(frame, scan, scanStart)
			if err != nil {
				return err
			}
			copyTileIntoImage(img, plane, tx*uint(tw), ty*uint(tl))
			return nil
		}}
	}
	results := tiledispatch.Run(tiles, opts.Workers)
	for _, r := range results {
		img.AddError(&DecodeError{Op: "DNG tile", Reason: r.Err.Error()})
	}
	return img, nil
}

func (d *Decoder) decodeDNGStripped(ifd *tiff.IFD, img *Image, bugCompat bool, opts DecodeOptions) (*Image, error) {
	rpsE, _ := ifd.Find(tagRowsPerStrip)
	rps, _ := rpsE.AsLong()
	if rps == 0 {
		rps = uint32(img.Height)
	}
	offE, _ := ifd.Find(tagStripOffsets)
	offs, err := offE.AsLongs()
	if err != nil {
		return nil, err
	}

	tiles := make([]tiledispatch.Tile, len(offs))
	for i, off := range offs {
		i, off := i, off
		y0 := uint(i) * uint(rps)
		tiles[i] = tiledispatch.Tile{Index: i, Run: func() error {
			dec := ljpeg.New(d.view, ljpeg.Options{DNGBugCompat: bugCompat})
			frame, scan, scanStart, err := decodeHeadersAt(dec, uint(off))
			if err != nil {
				return err
			}
			plane, err := dec.DecodeScan(frame, scan, scanStart)
			if err != nil {
				return err
			}
			copyTileIntoImage(img, plane, 0, y0)
			return nil
		}}
	}
	results := tiledispatch.Run(tiles, opts.Workers)
	for _, r := range results {
		img.AddError(&DecodeError{Op: "DNG strip", Reason: r.Err.Error()})
	}
	return img, nil
}

func decodeHeadersAt(dec *ljpeg.Decoder, off uint) (*ljpeg.Frame, *ljpeg.Scan, uint, error) {
	// ParseHeaders always starts at byte 0 of the view passed to New;
	// DNG tiles/strips instead start their own SOI at an arbitrary
	// offset, so ParseHeadersAt reads the headers at that absolute
	// offset of the same view and returns an absolute scan start; no
	// translation is needed.
	return dec.ParseHeadersAt(off)
}

func copyTileIntoImage(img *Image, plane *ljpeg.Plane, x0, y0 uint) {
	for y := 0; y < plane.Height; y++ {
		for x := 0; x < plane.Width; x++ {
			for c := 0; c < plane.Components; c++ {
				dx, dy := x0+uint(x), y0+uint(y)
				if dx < img.Width && dy < img.Height && uint(c) < img.Components {
					img.Set16(dx, dy, uint(c), plane.Get(x, y, c))
				}
			}
		}
	}
}

// decodeCR2 runs the Cr2 slicing variant of the lossless-JPEG engine
// (spec.md §4.F), reading slice geometry from the Canon CR2SliceInfo
// tag when present.
func (d *Decoder) decodeCR2(ifd *tiff.IFD, w, h int, opts DecodeOptions) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	numSlices, sliceWidth, lastWidth := 1, w, w
	if e, ok := ifd.Find(tagCR2SliceInfo); ok {
		if shorts, err := e.AsShorts(); err == nil && len(shorts) >= 3 {
			numSlices = int(shorts[0]) + 1
			sliceWidth = int(shorts[1])
			lastWidth = int(shorts[2])
		}
	}
	dec := ljpeg.New(d.view, ljpeg.Options{
		NumSlices:      numSlices,
		SliceWidth:     sliceWidth,
		LastSliceWidth: lastWidth,
	})
	frame, scan, scanStart, err := dec.ParseHeadersAt(off)
	if err != nil {
		return nil, err
	}
	plane, err := dec.DecodeScan(frame, scan, scanStart)
	if err != nil {
		return nil, err
	}
	return planeToImage(plane), nil
}

func (d *Decoder) decodeCRW(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c, err := codecs.NewCRW(d.view, codecs.CRWParams{Width: w, Height: h})
	if err != nil {
		return nil, err
	}
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeNEF(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c, err := codecs.NewNEF(d.view, codecs.NEFParams{Width: w, Height: h})
	if err != nil {
		return nil, err
	}
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeARW1(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c := codecs.NewARW1(d.view, codecs.ARW1Params{Width: w, Height: h})
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeARW2(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	bps := 8
	if e, ok := ifd.Find(tagBitsPerSample); ok {
		if v, err := e.AsShort(); err == nil {
			bps = int(v)
		}
	}
	c := codecs.NewARW2(d.view, codecs.ARW2Params{Width: w, Height: h, BitDepth: bps})
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeRW2(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	bps := 12
	if e, ok := ifd.Find(tagBitsPerSample); ok {
		if v, err := e.AsShort(); err == nil {
			bps = int(v)
		}
	}
	c := codecs.NewPanasonic(d.view, codecs.PanasonicParams{Width: w, Height: h, BitDepth: bps})
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodePEF(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c, err := codecs.NewPentax(d.view, codecs.PentaxParams{Width: w, Height: h})
	if err != nil {
		return nil, err
	}
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeSRW(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c := codecs.NewNX(d.view, codecs.NXParams{Width: w, Height: h})
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeSRW2(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c := codecs.NewSRW2(d.view, codecs.SRW2Params{Width: w, Height: h})
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeNX1(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c := codecs.NewNX1(d.view, codecs.NX1Params{Width: w, Height: h})
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeNX3000(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c := codecs.NewNX3000(d.view, codecs.NX3000Params{Width: w, Height: h})
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeORF(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c := codecs.NewOlympus(d.view, codecs.OlympusParams{Width: w, Height: h})
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decode3FR(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c, err := codecs.NewHasselblad(d.view, codecs.HasselbladParams{Width: w, Height: h})
	if err != nil {
		return nil, err
	}
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}

func (d *Decoder) decodeDCR(ifd *tiff.IFD, w, h int) (*Image, error) {
	off, err := firstOffset(ifd, tagStripOffsets)
	if err != nil {
		return nil, err
	}
	c := codecs.NewKodak(d.view, codecs.KodakParams{Width: w, Height: h})
	p, err := c.Decompress(off)
	if err != nil {
		return nil, err
	}
	return codecsPlaneToImage(p), nil
}
