package crt

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
)

func makeUniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func TestScanlinesOnWhite(t *testing.T) {
	for _, intensity := range []float64{0, 0.3, 0.5, 1} {
		img := makeUniform(16, 9, color.NRGBA{255, 255, 255, 255})
		out := ApplyScanlinesWithNoise(img, intensity, 0, nil)

		keep := 1 - intensity
		dark := uint8(math.Round(keep * 255))
		for y := 0; y < 9; y++ {
			want := uint8(255)
			if y%2 == 0 {
				want = dark
			}
			for x := 0; x < 16; x++ {
				p := out.NRGBAAt(x, y)
				if p.R != want || p.G != want || p.B != want {
					t.Fatalf("intensity %.1f (%d,%d) = %v, want %d", intensity, x, y, p, want)
				}
				if p.A != 255 {
					t.Fatalf("alpha changed to %d", p.A)
				}
			}
		}
	}
}

func TestScanlinesDeterministicWithoutNoise(t *testing.T) {
	a := ApplyScanlinesWithNoise(makeGradientImage(20, 20), 0.3, 0, nil)
	b := ApplyScanlinesWithNoise(makeGradientImage(20, 20), 0.3, 0.5, nil)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("nil rng must disable noise")
		}
	}
}

func TestScanlinesModifyInPlace(t *testing.T) {
	img := makeUniform(4, 4, color.NRGBA{100, 100, 100, 255})
	out := ApplyScanlinesWithNoise(img, 0.5, 0, nil)
	if out != img {
		t.Error("expected the same image to be returned")
	}
	if img.NRGBAAt(0, 0).R != 50 {
		t.Errorf("row 0 = %d, want 50", img.NRGBAAt(0, 0).R)
	}
	if img.NRGBAAt(0, 1).R != 100 {
		t.Errorf("row 1 = %d, want 100", img.NRGBAAt(0, 1).R)
	}
}

func TestNoiseBounded(t *testing.T) {
	for _, sigma := range []float64{0.01, 0.3, 5, 100} {
		for _, base := range []color.NRGBA{{0, 0, 0, 255}, {255, 255, 255, 255}, {128, 3, 250, 255}} {
			img := makeUniform(32, 32, base)
			ApplyScanlinesWithNoise(img, 0.3, sigma, NewRand(7))
			// uint8 cannot leave [0, 255]; check the clamp saturates rather
			// than wraps by looking for both extremes under huge sigma.
			if sigma >= 5 {
				var lo, hi bool
				for _, v := range img.Pix {
					lo = lo || v == 0
					hi = hi || v == 255
				}
				if !lo || !hi {
					t.Errorf("sigma %.2f: expected saturation at both ends", sigma)
				}
			}
		}
	}
}

func TestNoiseAffectsAllRows(t *testing.T) {
	img := makeUniform(64, 4, color.NRGBA{128, 128, 128, 255})
	ApplyScanlinesWithNoise(img, 0, 0.1, NewRand(1))
	for y := 0; y < 4; y++ {
		changed := false
		for x := 0; x < 64; x++ {
			if img.NRGBAAt(x, y).R != 128 {
				changed = true
				break
			}
		}
		if !changed {
			t.Errorf("row %d untouched by noise", y)
		}
	}
}

func TestNoiseReproducibleWithSeed(t *testing.T) {
	a := ApplyScanlinesWithNoise(makeGradientImage(24, 24), 0.3, 0.05, NewRand(42))
	b := ApplyScanlinesWithNoise(makeGradientImage(24, 24), 0.3, 0.05, NewRand(42))
	c := ApplyScanlinesWithNoise(makeGradientImage(24, 24), 0.3, 0.05, NewRand(43))

	same := true
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("same seed produced different noise")
		}
		if a.Pix[i] != c.Pix[i] {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical noise")
	}
}

func TestNoiseMeanNearZero(t *testing.T) {
	img := makeUniform(200, 201, color.NRGBA{128, 128, 128, 255})
	ApplyScanlinesWithNoise(img, 0, 0.05, NewRand(99))
	var sum float64
	var n int
	for i := 0; i < len(img.Pix); i += 4 {
		sum += float64(img.Pix[i])
		n++
	}
	mean := sum / float64(n)
	if math.Abs(mean-128) > 1 {
		t.Errorf("mean = %.2f, want about 128", mean)
	}
}

func TestScanlinesDegenerate(t *testing.T) {
	ApplyScanlinesWithNoise(image.NewNRGBA(image.Rect(0, 0, 1, 1)), 0.3, 0.1, NewRand(1))
	ApplyScanlinesWithNoise(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 0.3, 0.1, NewRand(1))
}
