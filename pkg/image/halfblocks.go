package image

import (
	"image"
	"strings"

	"github.com/muesli/termenv"
)

const (
	upperHalf = "▀"
	resetSeq  = termenv.CSI + termenv.ResetSeq + "m"
)

// asciiRamp is used when the terminal reports no color support at all.
const asciiRamp = " .:-=+*#%@"

// encodeHalfblocks renders img as rows of U+2580 cells: the upper pixel is
// the foreground, the lower the background. Pixels are composited over
// black. An odd last row gets a black lower half. Rows are separated by
// "\n" and each ends with a reset.
func encodeHalfblocks(img *image.NRGBA, profile termenv.Profile) string {
	b := img.Bounds()
	if b.Empty() {
		return ""
	}
	if profile == termenv.Ascii {
		return encodeASCII(img)
	}

	seqs := make(map[uint32]string)
	seq := func(rgb uint32, bg bool) string {
		key := rgb
		if bg {
			key |= 1 << 24
		}
		if s, ok := seqs[key]; ok {
			return s
		}
		s := profile.Color(hexRGB(rgb)).Sequence(bg)
		seqs[key] = s
		return s
	}

	var sb strings.Builder
	sb.Grow(b.Dx() * ((b.Dy() + 1) / 2) * 24)

	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		lastFg, lastBg := uint32(1<<31), uint32(1<<31)
		for x := b.Min.X; x < b.Max.X; x++ {
			top := blackOver(img, x, y)
			bot := uint32(0)
			if y+1 < b.Max.Y {
				bot = blackOver(img, x, y+1)
			}

			var attrs []string
			if top != lastFg {
				attrs = append(attrs, seq(top, false))
				lastFg = top
			}
			if bot != lastBg {
				attrs = append(attrs, seq(bot, true))
				lastBg = bot
			}
			if len(attrs) > 0 {
				sb.WriteString(termenv.CSI)
				sb.WriteString(strings.Join(attrs, ";"))
				sb.WriteByte('m')
			}
			sb.WriteString(upperHalf)
		}
		sb.WriteString(resetSeq)
	}
	return sb.String()
}

// encodeASCII maps the luminance of each cell's pixel pair onto asciiRamp.
func encodeASCII(img *image.NRGBA) string {
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			l := luma(blackOver(img, x, y))
			if y+1 < b.Max.Y {
				l = (l + luma(blackOver(img, x, y+1))) / 2
			} else {
				l /= 2
			}
			sb.WriteByte(asciiRamp[l*(len(asciiRamp)-1)/255])
		}
	}
	return sb.String()
}

// blackOver returns the pixel at (x, y) composited over black, packed as
// 0xRRGGBB.
func blackOver(img *image.NRGBA, x, y int) uint32 {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	a := uint32(p[3])
	r := uint32(p[0]) * a / 255
	g := uint32(p[1]) * a / 255
	bl := uint32(p[2]) * a / 255
	return r<<16 | g<<8 | bl
}

func luma(rgb uint32) int {
	r := int(rgb >> 16 & 0xff)
	g := int(rgb >> 8 & 0xff)
	b := int(rgb & 0xff)
	return (299*r + 587*g + 114*b) / 1000
}

func hexRGB(rgb uint32) string {
	const digits = "0123456789abcdef"
	var buf [7]byte
	buf[0] = '#'
	for i := 6; i >= 1; i-- {
		buf[i] = digits[rgb&0xf]
		rgb >>= 4
	}
	return string(buf[:])
}
