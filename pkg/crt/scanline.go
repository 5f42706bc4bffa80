package crt

import (
	"image"
	"math"
	"math/rand/v2"
)

// ApplyScanlinesWithNoise darkens every even row (0-based) by intensity,
// adds per-channel Gaussian noise with standard deviation sigma to every
// pixel, and clamps the result. Channels are handled in normalized [0, 1]
// space; the clamp saturates and never wraps. Alpha is left untouched.
//
// The image is modified in place and returned. Noise is skipped when sigma
// is not positive or rng is nil, which makes the pass fully deterministic.
func ApplyScanlinesWithNoise(img *image.NRGBA, intensity, sigma float64, rng *rand.Rand) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	keep := 1 - intensity
	noisy := sigma > 0 && rng != nil

	for y := 0; y < h; y++ {
		dark := y%2 == 0
		if !dark && !noisy {
			continue
		}
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[off : off+w*4]
		for i := 0; i < len(row); i += 4 {
			for c := 0; c < 3; c++ {
				v := float64(row[i+c]) / 255
				if dark {
					v *= keep
				}
				if noisy {
					v += rng.NormFloat64() * sigma
				}
				row[i+c] = uint8(math.Round(clampF(v, 0, 1) * 255))
			}
		}
	}
	return img
}

// NewRand returns a PCG-backed generator. The same seed always yields the
// same noise sequence.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
