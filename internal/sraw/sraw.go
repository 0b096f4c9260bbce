// Package sraw implements the Canon sRaw YCbCr->RGB interpolator
// (spec.md §4.H): reconstructing missing chroma samples from a
// sub-sampled LJPEG-decoded plane, then applying one of three
// camera-generation-keyed integer YCbCr->RGB matrices. Grounded on the
// teacher's YCbCr->RGB conversion in decode.go/jpeg.go (writeYCbCr),
// generalized from 4:2:0/4:2:2 DCT-block chroma upsampling to the
// single-plane packed layout Cr2's sub-sampled LJPEG scan produces.
package sraw

// SubSampling selects the Cr2 sub-sampled mode.
type SubSampling int

const (
	S422 SubSampling = iota // sRaw2: 2 Y per Cb/Cr
	S420                    // sRaw1/mRaw: 4 Y per Cb/Cr
)

// Plane is the minimal surface this package needs from ljpeg.Plane,
// kept local to avoid depending on package ljpeg for a single-struct
// shape.
type Plane struct {
	Width, Height int
	Get           func(x, y, c int) int32
}

// RGBImage is the 3-plane output at full (un-sub-sampled) resolution.
type RGBImage struct {
	Width, Height int
	R, G, B       []int32
}

func newRGBImage(w, h int) *RGBImage {
	return &RGBImage{Width: w, Height: h, R: make([]int32, w*h), G: make([]int32, w*h), B: make([]int32, w*h)}
}

func (img *RGBImage) set(x, y int, r, g, b int32) {
	i := y*img.Width + x
	img.R[i], img.G[i], img.B[i] = r, g, b
}

// Coeffs holds the per-channel white-balance multipliers and camera-
// generation hue offset used by the YCbCr->RGB matrices.
type Coeffs struct {
	WB      [3]float64
	Hue     int32
	Version int // 0, 1, or 2
}

// Interpolate reconstructs full-resolution Y/Cb/Cr at every pixel from
// a packed sub-sampled plane, then converts to RGB.
//
// For 4:2:2 (mode S422), the plane holds, per MCU of 2 luma samples,
// (Y0, Y1, Cb, Cr); missing Cb/Cr at odd columns are the mean of the
// two horizontally-adjacent chroma samples. For 4:2:0 (mode S420), per
// MCU of 4 luma samples, (Y0..Y3, Cb, Cr); missing chroma at the other
// three positions in the 2x2 block use the mean of the horizontally or
// vertically adjacent chroma samples (edge) or all four neighbors
// (interior), per the raster figure referenced in spec.md §4.H.
func Interpolate(p Plane, mode SubSampling, c Coeffs) *RGBImage {
	switch mode {
	case S422:
		return interpolate422(p, c)
	default:
		return interpolate420(p, c)
	}
}

func interpolate422(p Plane, c Coeffs) *RGBImage {
	// The sub-sampled plane is laid out per-MCU: index 0 = Y0, 1 = Y1,
	// 2 = Cb, 3 = Cr, repeated every 4 entries along a row of
	// p.Width/2 MCUs; p.Width itself is declared in MCU units by the
	// LJPEG frame header (sRaw2 halves the column count), so the full
	// luma width is 2*p.Width.
	fullW := p.Width * 2
	img := newRGBImage(fullW, p.Height)
	for y := 0; y < p.Height; y++ {
		for mx := 0; mx < p.Width; mx++ {
			y0 := p.Get(mx, y, 0)
			y1 := p.Get(mx, y, 1)
			cb := p.Get(mx, y, 2)
			cr := p.Get(mx, y, 3)
			x0 := mx * 2
			cb1, cr1 := cb, cr
			if mx+1 < p.Width {
				cb1 = (cb + p.Get(mx+1, y, 2)) / 2
				cr1 = (cr + p.Get(mx+1, y, 3)) / 2
			}
			writeYCbCr(img, x0, y, y0, cb, cr, c)
			writeYCbCr(img, x0+1, y, y1, cb1, cr1, c)
		}
	}
	return img
}

func interpolate420(p Plane, c Coeffs) *RGBImage {
	fullW := p.Width * 2
	fullH := p.Height * 2
	img := newRGBImage(fullW, fullH)
	for y := 0; y < p.Height; y++ {
		for mx := 0; mx < p.Width; mx++ {
			y00 := p.Get(mx, y, 0)
			y10 := p.Get(mx, y, 1)
			y01 := p.Get(mx, y, 2)
			y11 := p.Get(mx, y, 3)
			cb := p.Get(mx, y, 4)
			cr := p.Get(mx, y, 5)
			x0, y0 := mx*2, y*2
			chroma := func(nx, ny int) (int32, int32) { // clamped to the last MCU
				nx, ny = min(nx, p.Width-1), min(ny, p.Height-1)
				return p.Get(nx, ny, 4), p.Get(nx, ny, 5)
			}
			cbR, crR := chroma(mx+1, y)
			cbD, crD := chroma(mx, y+1)
			cbRD, crRD := chroma(mx+1, y+1)
			writeYCbCr(img, x0, y0, y00, cb, cr, c)
			writeYCbCr(img, x0+1, y0, y10, (cb+cbR)/2, (cr+crR)/2, c)
			writeYCbCr(img, x0, y0+1, y01, (cb+cbD)/2, (cr+crD)/2, c)
			writeYCbCr(img, x0+1, y0+1, y11, (cb+cbR+cbD+cbRD)/4, (cr+crR+crD+crRD)/4, c)
		}
	}
	return img
}

// writeYCbCr sign-extends Cb/Cr, applies the hue offset, and runs the
// version-keyed integer matrix described in spec.md §4.H.
func writeYCbCr(img *RGBImage, x, y int, yv, cbv, crv int32, c Coeffs) {
	cb := cbv - 16384 + c.Hue
	cr := crv - 16384 + c.Hue

	var r, g, b int64
	switch c.Version {
	case 0:
		r = int64(yv) + int64(cr)*359/256
		g = int64(yv) - int64(cb)*88/256 - int64(cr)*183/256
		b = int64(yv) + int64(cb)*454/256
	case 1:
		r = int64(yv) + int64(cr)*409/256
		g = int64(yv) - int64(cb)*100/256 - int64(cr)*208/256
		b = int64(yv) + int64(cb)*516/256
	default: // version 2
		r = int64(yv) + int64(cr)*1
		g = int64(yv) - int64(cb)/4 - int64(cr)/2
		b = int64(yv) + int64(cb)*2
	}

	r = int64(float64(r) * c.WB[0])
	g = int64(float64(g) * c.WB[1])
	b = int64(float64(b) * c.WB[2])

	r >>= 8
	g >>= 8
	b >>= 8

	img.set(x, y, clamp16(r), clamp16(g), clamp16(b))
}

func clamp16(v int64) int32 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return int32(v)
}
