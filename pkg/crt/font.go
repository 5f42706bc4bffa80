package crt

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextRenderer is the text rasterization primitive used by the glow
// compositor and for horizontal centering.
type TextRenderer interface {
	// Measure returns the advance width of s in pixels.
	Measure(s string) int
	// Draw fills the glyph pixels of s in c. pt is the top-left corner of
	// the line box, not the baseline.
	Draw(dst draw.Image, s string, pt image.Point, c color.Color)
	// Size returns the nominal font size in pixels.
	Size() float64
	// Height returns the line box height in pixels, ascent plus descent.
	// Draw does not paint below pt.Y+Height.
	Height() int
}

// Face adapts a golang.org/x/image/font.Face to TextRenderer. A Face is not
// safe for concurrent use.
type Face struct {
	face   font.Face
	size   float64
	ascent int
	height int
	name   string
}

// NewFace wraps f. size is reported by Size and used for line spacing.
func NewFace(f font.Face, size float64, name string) *Face {
	m := f.Metrics()
	ascent := m.Ascent.Ceil()
	return &Face{
		face:   f,
		size:   size,
		ascent: ascent,
		height: ascent + m.Descent.Ceil(),
		name:   name,
	}
}

// LoadFace parses a TrueType/OpenType font file at the given pixel size.
func LoadFace(path string, size float64) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("crt: read font %s: %w", path, err)
	}
	return parseFace(data, size, path)
}

// DefaultFace returns the built-in Go Mono face at size. If that cannot be
// parsed the fixed 7x13 bitmap face is returned.
func DefaultFace(size float64) *Face {
	f, err := parseFace(gomono.TTF, size, "gomono")
	if err != nil {
		return NewFace(basicfont.Face7x13, 13, "basic7x13")
	}
	return f
}

// LoadFaceOrDefault loads path, falling back to DefaultFace. The fallback
// is logged once here; callers keep the returned face for the session.
func LoadFaceOrDefault(path string, size float64, logger *slog.Logger) *Face {
	if logger == nil {
		logger = slog.Default()
	}
	if path != "" {
		f, err := LoadFace(path, size)
		if err == nil {
			return f
		}
		logger.Warn("font not available, using built-in default", "path", path, "error", err)
	}
	return DefaultFace(size)
}

func parseFace(data []byte, size float64, name string) (*Face, error) {
	if size <= 0 {
		size = 13
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("crt: parse font %s: %w", name, err)
	}
	f, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("crt: create face %s: %w", name, err)
	}
	return NewFace(f, size, name), nil
}

// Name identifies the font source ("gomono", a file path, ...).
func (f *Face) Name() string { return f.name }

// Size returns the nominal font size in pixels.
func (f *Face) Size() float64 { return f.size }

// Height returns the ascent plus descent, each rounded up.
func (f *Face) Height() int { return f.height }

// Measure returns the advance width of s in pixels, rounded up.
func (f *Face) Measure(s string) int {
	return font.MeasureString(f.face, s).Ceil()
}

// Draw renders s with its line box's top-left corner at pt.
func (f *Face) Draw(dst draw.Image, s string, pt image.Point, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: f.face,
		Dot:  fixed.P(pt.X, pt.Y+f.ascent),
	}
	d.DrawString(s)
}
