package crt

import (
	"image"
	"math"
)

// Warp applies a barrel (CRT curvature) distortion and returns a new image
// with the same bounds.
//
// It is an inverse mapping: each destination pixel (px, py) is measured
// from the image center, normalized by the half extents to (x, y), and
// scaled by factor = 1 + distortion*(x²+y²). The source location
// center + (p-center)*factor is clamped to the image and sampled
// bilinearly, so every output pixel is written exactly once. A distortion
// of 0 is an exact identity.
func Warp(src *image.NRGBA, distortion float64) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(b)
	if w <= 0 || h <= 0 {
		return dst
	}

	cx := float64(w) / 2
	cy := float64(h) / 2
	maxX := float64(w - 1)
	maxY := float64(h - 1)

	for py := 0; py < h; py++ {
		dy := float64(py) - cy
		ny := dy / cy
		off := dst.PixOffset(b.Min.X, b.Min.Y+py)
		row := dst.Pix[off : off+w*4]
		for px := 0; px < w; px++ {
			dx := float64(px) - cx
			nx := dx / cx
			factor := 1 + distortion*(nx*nx+ny*ny)
			sx := clampF(cx+dx*factor, 0, maxX)
			sy := clampF(cy+dy*factor, 0, maxY)
			sampleBilinear(src, sx, sy, row[px*4:px*4+4])
		}
	}
	return dst
}

// sampleBilinear writes the bilinear interpolation of src at (sx, sy) into
// out. Coordinates are relative to src.Bounds().Min and must already be
// clamped to [0, w-1] × [0, h-1].
func sampleBilinear(src *image.NRGBA, sx, sy float64, out []uint8) {
	b := src.Bounds()
	x0, y0 := int(sx), int(sy)
	x1, y1 := x0+1, y0+1
	if x1 > b.Dx()-1 {
		x1 = b.Dx() - 1
	}
	if y1 > b.Dy()-1 {
		y1 = b.Dy() - 1
	}
	fx := sx - float64(x0)
	fy := sy - float64(y0)

	p00 := src.Pix[src.PixOffset(b.Min.X+x0, b.Min.Y+y0):]
	p10 := src.Pix[src.PixOffset(b.Min.X+x1, b.Min.Y+y0):]
	p01 := src.Pix[src.PixOffset(b.Min.X+x0, b.Min.Y+y1):]
	p11 := src.Pix[src.PixOffset(b.Min.X+x1, b.Min.Y+y1):]

	for c := 0; c < 4; c++ {
		top := float64(p00[c])*(1-fx) + float64(p10[c])*fx
		bot := float64(p01[c])*(1-fx) + float64(p11[c])*fx
		out[c] = uint8(math.Round(top*(1-fy) + bot*fy))
	}
}
