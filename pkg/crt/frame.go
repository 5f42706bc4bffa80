// Package crt implements the retro CRT effects pipeline: glyph drawing with
// a phosphor glow, barrel warp, scanlines and noise, and the composer that
// chains them into a displayable frame.
//
// Frames are *image.NRGBA with every pixel opaque. A stage may mutate the
// frame it is handed; ownership passes to the next stage and the previous
// holder must not keep a reference.
package crt

import (
	"image"
	"image/color"
	"image/draw"
)

// Black is the canvas background.
var Black = color.NRGBA{A: 255}

// NewFrame allocates a w×h frame cleared to opaque black. Non-positive
// dimensions produce an empty frame.
func NewFrame(w, h int) *image.NRGBA {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{Black}, image.Point{}, draw.Src)
	return img
}

// EffectParameters are the per-session effect settings. They are built
// once from configuration and never mutated.
type EffectParameters struct {
	// WarpDistortion is the barrel coefficient in [0, 1). 0 disables warp.
	WarpDistortion float64
	// ScanlineIntensity darkens even rows by this fraction, in [0, 1].
	ScanlineIntensity float64
	// NoiseSigma is the Gaussian noise standard deviation in normalized
	// channel space. 0 disables noise.
	NoiseSigma float64
	// GlowIntensity is the maximum halo offset in pixels. 0 disables glow.
	GlowIntensity int
	// GlowColor is the text color; its alpha drives the halo opacity.
	GlowColor color.NRGBA
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
