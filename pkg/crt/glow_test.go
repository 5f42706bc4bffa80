package crt

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
	"unicode/utf8"

	"github.com/disintegration/imaging"
)

// boxFace draws every rune as a solid box so pixel positions are exact.
type boxFace struct {
	advance int
	size    float64
	height  int
}

func newBoxFace() *boxFace { return &boxFace{advance: 8, size: 10, height: 12} }

func (f *boxFace) Size() float64 { return f.size }

func (f *boxFace) Height() int { return f.height }

func (f *boxFace) Measure(s string) int { return utf8.RuneCountInString(s) * f.advance }

func (f *boxFace) Draw(dst draw.Image, s string, pt image.Point, c color.Color) {
	x := pt.X
	for _, r := range s {
		if r != ' ' {
			box := image.Rect(x+1, pt.Y+2, x+f.advance-1, pt.Y+f.height)
			draw.Draw(dst, box, image.NewUniform(c), image.Point{}, draw.Over)
		}
		x += f.advance
	}
}

var green = color.NRGBA{0, 255, 0, 255}

func TestGlowZeroIntensityIsSharpOnly(t *testing.T) {
	face := newBoxFace()
	got := DrawGlowText(NewFrame(120, 60), "AB\nC", image.Pt(20, 10), face, green, 0, 15)

	want := NewFrame(120, 60)
	face.Draw(want, "AB", image.Pt(20, 10), green)
	face.Draw(want, "C", image.Pt(20, 25), green)

	for i := range want.Pix {
		if got.Pix[i] != want.Pix[i] {
			t.Fatalf("byte %d = %d, want %d", i, got.Pix[i], want.Pix[i])
		}
	}
}

func TestGlowProducesHalo(t *testing.T) {
	face := newBoxFace()
	frame := DrawGlowText(NewFrame(200, 100), "X", image.Pt(80, 40), face, green, 3, 15)

	// Glyph box is x 81..86, y 42..51.
	if p := frame.NRGBAAt(83, 46); p != green {
		t.Errorf("glyph pixel = %v, want %v", p, green)
	}
	if p := frame.NRGBAAt(78, 46); p.G == 0 {
		t.Error("expected halo left of the glyph")
	}
	if p := frame.NRGBAAt(84, 39); p.G == 0 {
		t.Error("expected halo above the glyph")
	}
	if p := frame.NRGBAAt(10, 10); p != Black {
		t.Errorf("far pixel = %v, want black", p)
	}
	if p := frame.NRGBAAt(78, 46); p.R != 0 || p.B != 0 {
		t.Errorf("halo tinted wrong: %v", p)
	}
}

func TestGlowKeepsFrameOpaque(t *testing.T) {
	frame := DrawGlowText(NewFrame(100, 50), "HELLO", image.Pt(5, 5), newBoxFace(),
		color.NRGBA{0, 255, 0, 128}, 4, 15)
	for i := 3; i < len(frame.Pix); i += 4 {
		if frame.Pix[i] != 255 {
			t.Fatalf("alpha at byte %d = %d", i, frame.Pix[i])
		}
	}
}

func TestGlowHalfAlphaIsFainter(t *testing.T) {
	face := newBoxFace()
	full := DrawGlowText(NewFrame(200, 100), "X", image.Pt(80, 40), face, green, 3, 15)
	half := DrawGlowText(NewFrame(200, 100), "X", image.Pt(80, 40), face,
		color.NRGBA{0, 255, 0, 128}, 3, 15)

	if half.NRGBAAt(78, 46).G >= full.NRGBAAt(78, 46).G {
		t.Errorf("half alpha halo %d not fainter than %d", half.NRGBAAt(78, 46).G, full.NRGBAAt(78, 46).G)
	}
	// The sharp pass is always opaque.
	if half.NRGBAAt(83, 46) != green {
		t.Errorf("sharp pixel = %v, want %v", half.NRGBAAt(83, 46), green)
	}
}

func TestGlowRegionMatchesFullBlur(t *testing.T) {
	face := newBoxFace()
	const w, h = 160, 90
	text := "AB\nCDE"
	pos := image.Pt(40, 20)
	lines := []string{"AB", "CDE"}

	got := DrawGlowText(NewFrame(w, h), text, pos, face, green, 2, 15)

	overlay := image.NewNRGBA(image.Rect(0, 0, w, h))
	for d := 1; d <= 2; d++ {
		for _, off := range []image.Point{{-d, 0}, {d, 0}, {0, -d}, {0, d}} {
			drawLines(overlay, lines, pos.Add(off), face, green, 15)
		}
	}
	want := NewFrame(w, h)
	draw.Draw(want, want.Bounds(), imaging.Blur(overlay, glowBlurSigma), image.Point{}, draw.Over)
	drawLines(want, lines, pos, face, green, 15)

	for i := range want.Pix {
		if got.Pix[i] != want.Pix[i] {
			t.Fatalf("byte %d = %d, want %d", i, got.Pix[i], want.Pix[i])
		}
	}
}

func TestGlowBlankText(t *testing.T) {
	frame := DrawGlowText(NewFrame(40, 20), "   \n", image.Pt(0, 0), newBoxFace(), green, 3, 15)
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if frame.NRGBAAt(x, y) != Black {
				t.Fatalf("(%d,%d) = %v, want black", x, y, frame.NRGBAAt(x, y))
			}
		}
	}
}

func TestGlowNearEdgeDoesNotPanic(t *testing.T) {
	DrawGlowText(NewFrame(30, 20), "WIDE TEXT PAST THE EDGE", image.Pt(-5, -3), newBoxFace(), green, 5, 15)
	DrawGlowText(NewFrame(1, 1), "X", image.Pt(0, 0), newBoxFace(), green, 3, 15)
}

func TestGlowCoversTallGlyphs(t *testing.T) {
	// Descenders reach far below 1.5×size and below the line spacing.
	face := &boxFace{advance: 8, size: 4, height: 40}
	frame := DrawGlowText(NewFrame(100, 120), "Y", image.Pt(40, 10), face, green, 1, 6)

	// Glyph box is x 41..46, y 12..49.
	if p := frame.NRGBAAt(43, 48); p != green {
		t.Errorf("glyph bottom = %v, want %v", p, green)
	}
	if p := frame.NRGBAAt(43, 51); p.G == 0 {
		t.Error("expected halo below the glyph bottom")
	}
	if p := frame.NRGBAAt(38, 45); p.G == 0 {
		t.Error("expected halo beside the lower part of the glyph")
	}
}

func TestTextBoundsUsesLineBox(t *testing.T) {
	lines := []string{"AB", "C"}
	tall := &boxFace{advance: 8, size: 4, height: 40}
	if got, want := textBounds(lines, image.Pt(10, 20), tall, 6), image.Rect(10, 20, 26, 66); got != want {
		t.Errorf("tall face: textBounds = %v, want %v", got, want)
	}
	if got, want := textBounds(lines, image.Pt(10, 20), newBoxFace(), 15), image.Rect(10, 20, 26, 50); got != want {
		t.Errorf("spaced lines: textBounds = %v, want %v", got, want)
	}
}
