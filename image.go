// Package rawspeed decodes camera RAW image files into a uniform
// unpacked pixel buffer. The entry point is TiffParser, which inspects
// a byte buffer and returns a Decoder for whichever camera format the
// container declares.
package rawspeed

import "fmt"

// CFAColor enumerates the colors a color-filter-array cell can hold.
type CFAColor int

const (
	CFAUnknown CFAColor = iota
	CFARed
	CFAGreen
	CFABlue
	CFAGreen2
	CFACyan
	CFAMagenta
	CFAYellow
	CFAWhite
)

func (c CFAColor) String() string {
	switch c {
	case CFARed:
		return "RED"
	case CFAGreen:
		return "GREEN"
	case CFABlue:
		return "BLUE"
	case CFAGreen2:
		return "GREEN2"
	case CFACyan:
		return "CYAN"
	case CFAMagenta:
		return "MAGENTA"
	case CFAYellow:
		return "YELLOW"
	case CFAWhite:
		return "WHITE"
	default:
		return "UNKNOWN"
	}
}

// CFA is a small 2-D tile of filter colors, repeated to cover the full
// sensor. Most cameras use a 2x2 Bayer tile; some (Fuji X-Trans,
// absent from this spec's camera list) would need larger tiles, so the
// type itself is not limited to 2x2.
type CFA struct {
	Width, Height uint
	Colors        []CFAColor // row-major, len == Width*Height
}

// At returns the filter color at (x, y) in the full, un-shifted CFA,
// wrapping on the tile dimensions.
func (c *CFA) At(x, y uint) CFAColor {
	if c.Width == 0 || c.Height == 0 {
		return CFAUnknown
	}
	return c.Colors[(y%c.Height)*c.Width+(x%c.Width)]
}

// ShiftedAt returns the color at (x,y) of this CFA shifted left by
// shiftX and up by shiftY — i.e. the invariant from spec.md §8.6:
// shifted.At(x,y) == original.At(x+shiftX, y+shiftY).
func (c *CFA) ShiftedAt(x, y, shiftX, shiftY uint) CFAColor {
	return c.At(x+shiftX, y+shiftY)
}

// Rect is an axis-aligned pixel rectangle, used for both the crop
// window and DNG tile placement.
type Rect struct{ X, Y, W, H uint }

// SampleType is the element type of a decoded plane: integer decoders write
// 16-bit samples, float decoders (none in the initial format set, but
// the buffer stays generic per spec.md §3) write 32-bit float.
type SampleType int

const (
	Sample16 SampleType = iota
	SampleFloat32
)

const alignment = 16

// Image owns a 16-byte-aligned pixel plane in uncropped coordinates,
// together with the CFA geometry, calibration constants, and the
// accumulated per-tile error list described in spec.md §3 ("Raw
// image"). Reference counting from the original C++ design (spec.md §9)
// is dropped in favor of normal Go garbage collection: the decompressor
// allocates an *Image and returns it by value (pointer), and it lives
// as long as any caller holds the pointer.
type Image struct {
	Width, Height uint
	BytesPerPixel uint
	Components    uint // components per pixel: 1 for CFA data, 3 for interpolated sRaw
	SampleKind    SampleType
	Pitch         uint // bytes per row, rounded up to a multiple of 16
	Pixels        []byte

	Crop Rect
	CFA  *CFA

	BlackLevel  [4]int32
	WhitePoint  int32
	WBCoeffs    [4]float64 // 0 => coefficient not set
	HasWBCoeffs bool

	Errors []error
}

// NewImage allocates a zeroed plane of the given dimensions. bpp is
// bytes-per-sample (2 for Sample16, 4 for SampleFloat32); cpp is
// components per pixel.
func NewImage(w, h, bpp, cpp uint, kind SampleType) *Image {
	rowBytes := w * bpp * cpp
	pitch := (rowBytes + alignment - 1) &^ (alignment - 1)
	return &Image{
		Width:         w,
		Height:        h,
		BytesPerPixel: bpp,
		Components:    cpp,
		SampleKind:    kind,
		Pitch:         pitch,
		Pixels:        make([]byte, pitch*h),
		Crop:          Rect{0, 0, w, h},
		WhitePoint:    (1 << 16) - 1,
	}
}

// RowOffset returns the byte offset of the start of row y.
func (img *Image) RowOffset(y uint) uint { return y * img.Pitch }

// Set16 writes a single 16-bit sample at (x, y, component c).
func (img *Image) Set16(x, y, c uint, v uint16) {
	off := img.RowOffset(y) + (x*img.Components+c)*2
	img.Pixels[off] = byte(v)
	img.Pixels[off+1] = byte(v >> 8)
}

// Get16 reads a single 16-bit sample at (x, y, component c).
func (img *Image) Get16(x, y, c uint) uint16 {
	off := img.RowOffset(y) + (x*img.Components+c)*2
	return uint16(img.Pixels[off]) | uint16(img.Pixels[off+1])<<8
}

// AddError records a non-fatal, per-tile decode failure without
// aborting the rest of the image, per spec.md §7's DecodeError policy
// for multi-tile images.
func (img *Image) AddError(err error) {
	img.Errors = append(img.Errors, err)
}

func (img *Image) String() string {
	return fmt.Sprintf("Image(%dx%d, %d bpp, %d cpp, pitch=%d)",
		img.Width, img.Height, img.BytesPerPixel, img.Components, img.Pitch)
}
