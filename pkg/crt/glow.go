package crt

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// glowBlurSigma is the Gaussian sigma used to soften the halo.
const glowBlurSigma = 2.0

// glowBlurRadius matches the kernel radius imaging derives from the sigma.
var glowBlurRadius = int(math.Ceil(glowBlurSigma * 3))

// DrawGlowText draws text onto frame with a phosphor halo and returns
// frame.
//
// For every offset d in 1..intensity the text is stamped at (x±d, y) and
// (x, y±d) in glow, alpha included, onto a transparent overlay. The overlay
// is blurred and composited over the frame using its own alpha, then the
// sharp glyphs are drawn on top in glow's RGB at full opacity. An intensity
// of 0 draws only the sharp glyphs.
//
// Text containing newlines is drawn one line at a time, pos.Y advancing by
// lineHeight. The horizontal position is the caller's concern.
func DrawGlowText(frame *image.NRGBA, text string, pos image.Point, face TextRenderer, glow color.NRGBA, intensity, lineHeight int) *image.NRGBA {
	lines := strings.Split(text, "\n")

	if intensity > 0 && strings.TrimSpace(text) != "" {
		overlay := image.NewNRGBA(frame.Bounds())
		for d := 1; d <= intensity; d++ {
			offsets := [4]image.Point{{-d, 0}, {d, 0}, {0, -d}, {0, d}}
			for _, off := range offsets {
				drawLines(overlay, lines, pos.Add(off), face, glow, lineHeight)
			}
		}

		// Only the region around the glyphs can hold halo pixels. The
		// margin keeps the blur result identical to a full-frame blur.
		region := textBounds(lines, pos, face, lineHeight).
			Inset(-(intensity + 2*glowBlurRadius + 1)).
			Intersect(frame.Bounds())
		if !region.Empty() {
			blurred := imaging.Blur(overlay.SubImage(region), glowBlurSigma)
			draw.Draw(frame, region, blurred, image.Point{}, draw.Over)
		}
	}

	sharp := color.NRGBA{R: glow.R, G: glow.G, B: glow.B, A: 255}
	drawLines(frame, lines, pos, face, sharp, lineHeight)
	return frame
}

func drawLines(dst draw.Image, lines []string, pos image.Point, face TextRenderer, c color.Color, lineHeight int) {
	y := pos.Y
	for _, line := range lines {
		if line != "" {
			face.Draw(dst, line, image.Pt(pos.X, y), c)
		}
		y += lineHeight
	}
}

// textBounds is the pixel footprint of lines drawn at pos. The last line
// extends a full line box below its top, which may exceed lineHeight.
func textBounds(lines []string, pos image.Point, face TextRenderer, lineHeight int) image.Rectangle {
	maxW := 0
	for _, line := range lines {
		if w := face.Measure(line); w > maxW {
			maxW = w
		}
	}
	lineBox := max(face.Height(), lineHeight, 1)
	h := (len(lines)-1)*lineHeight + lineBox
	return image.Rect(pos.X, pos.Y, pos.X+maxW, pos.Y+h)
}
