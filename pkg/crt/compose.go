package crt

import (
	"image"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"gitlab.com/tinyland/lab/phosphor/pkg/lru"
	"gitlab.com/tinyland/lab/phosphor/pkg/reveal"
)

// DefaultCursor is the glyph appended to the last line when the cursor is
// visible.
const DefaultCursor = "█"

// defaultLayerCacheBytes bounds the warped-layer cache. Four 1080p layers.
const defaultLayerCacheBytes = 4 * 1920 * 1080 * 4

// Align selects how lines are positioned horizontally.
type Align int

const (
	// AlignBlock starts every line at the column that centers the widest
	// line of the full text.
	AlignBlock Align = iota
	// AlignLine centers each line on its own full-text width.
	AlignLine
	// AlignLeft starts every line at the left padding.
	AlignLeft
)

// ParseAlign maps a configuration string to an Align. Unknown values fall
// back to AlignBlock.
func ParseAlign(s string) Align {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "line", "center-line":
		return AlignLine
	case "left":
		return AlignLeft
	default:
		return AlignBlock
	}
}

// String returns the configuration name of the alignment.
func (a Align) String() string {
	switch a {
	case AlignLine:
		return "line"
	case AlignLeft:
		return "left"
	default:
		return "block"
	}
}

// Layout is the frame geometry.
type Layout struct {
	Align     Align
	TopMargin int
	PaddingX  int
	// LineHeight is the vertical advance between lines. Zero derives it
	// from the font size as 1.5×size.
	LineHeight int
}

// ComposerOptions configures a Composer.
type ComposerOptions struct {
	Width, Height int
	Face          TextRenderer
	Effects       EffectParameters
	Layout        Layout

	// Text is the full text that will eventually be revealed. Line offsets
	// are measured against it so that lines do not shift while typing.
	Text string

	// Cursor defaults to DefaultCursor.
	Cursor string

	// Rand drives the noise. Nil seeds a generator from the clock.
	Rand *rand.Rand

	// LayerCacheBytes bounds the warped-layer cache; 0 uses the default,
	// negative disables caching.
	LayerCacheBytes int64

	Logger *slog.Logger
}

// Composer turns a reveal.TextState into a finished frame: glyphs with
// glow on a black canvas, barrel warp, then scanlines and noise.
//
// Glow and warp are deterministic for a given TextState, so the warped
// layer is cached and only the scanline/noise pass runs on a hit. A
// Composer is not safe for concurrent use.
type Composer struct {
	width, height int
	face          TextRenderer
	effects       EffectParameters
	layout        Layout
	lineHeight    int
	cursor        string
	offsets       []int
	rng           *rand.Rand
	layers        *lru.Cache[reveal.TextState, *image.NRGBA]
	logger        *slog.Logger
}

// NewComposer builds a Composer. A nil Face uses DefaultFace(16).
func NewComposer(opts ComposerOptions) *Composer {
	if opts.Face == nil {
		opts.Face = DefaultFace(16)
	}
	if opts.Width < 1 {
		opts.Width = 1
	}
	if opts.Height < 1 {
		opts.Height = 1
	}
	if opts.Cursor == "" {
		opts.Cursor = DefaultCursor
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = NewRand(seed)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	lineHeight := opts.Layout.LineHeight
	if lineHeight <= 0 {
		lineHeight = int(math.Round(opts.Face.Size() * 1.5))
	}
	if lineHeight < 1 {
		lineHeight = 1
	}

	c := &Composer{
		width:      opts.Width,
		height:     opts.Height,
		face:       opts.Face,
		effects:    opts.Effects,
		layout:     opts.Layout,
		lineHeight: lineHeight,
		cursor:     opts.Cursor,
		rng:        opts.Rand,
		logger:     opts.Logger,
	}
	c.offsets = c.lineOffsets(opts.Text)

	if opts.LayerCacheBytes >= 0 {
		limit := opts.LayerCacheBytes
		if limit == 0 {
			limit = defaultLayerCacheBytes
		}
		c.layers = lru.New[reveal.TextState, *image.NRGBA](limit, func(img *image.NRGBA) int64 {
			return int64(len(img.Pix))
		})
	}
	return c
}

// LineHeight returns the vertical advance between lines in pixels.
func (c *Composer) LineHeight() int { return c.lineHeight }

// LineX returns the left edge of line i. Lines beyond the measured text
// reuse the block offset.
func (c *Composer) LineX(i int) int {
	if i >= 0 && i < len(c.offsets) {
		return c.offsets[i]
	}
	return c.blockX()
}

// CacheStats reports warped-layer cache usage.
func (c *Composer) CacheStats() lru.Stats {
	if c.layers == nil {
		return lru.Stats{}
	}
	return c.layers.Stats()
}

// Compose produces a new frame for state. The caller owns the result.
func (c *Composer) Compose(state reveal.TextState) *image.NRGBA {
	var layer *image.NRGBA
	if c.layers != nil {
		if cached, ok := c.layers.Get(state); ok {
			layer = cached
		}
	}
	if layer == nil {
		layer = c.renderLayer(state)
		if c.layers != nil {
			c.layers.Put(state, layer)
		}
	}

	frame := imaging.Clone(layer)
	return ApplyScanlinesWithNoise(frame, c.effects.ScanlineIntensity, c.effects.NoiseSigma, c.rng)
}

// renderLayer draws the glyphs with glow and warps the result.
func (c *Composer) renderLayer(state reveal.TextState) *image.NRGBA {
	canvas := NewFrame(c.width, c.height)

	lines := strings.Split(state.Prefix, "\n")
	if state.CursorVisible {
		lines[len(lines)-1] += c.cursor
	}

	y := c.layout.TopMargin
	for i, line := range lines {
		if line != "" {
			DrawGlowText(canvas, line, image.Pt(c.LineX(i), y), c.face,
				c.effects.GlowColor, c.effects.GlowIntensity, c.lineHeight)
		}
		y += c.lineHeight
	}

	return Warp(canvas, c.effects.WarpDistortion)
}

// lineOffsets measures every line of the full text once.
func (c *Composer) lineOffsets(text string) []int {
	lines := strings.Split(text, "\n")
	widths := make([]int, len(lines))
	for i, line := range lines {
		widths[i] = c.face.Measure(line)
	}

	offsets := make([]int, len(lines))
	switch c.layout.Align {
	case AlignLeft:
		for i := range offsets {
			offsets[i] = c.layout.PaddingX
		}
	case AlignLine:
		for i, w := range widths {
			offsets[i] = c.centered(w)
		}
	default:
		widest := 0
		for _, w := range widths {
			widest = max(widest, w)
		}
		for i := range offsets {
			offsets[i] = c.centered(widest)
		}
	}
	return offsets
}

func (c *Composer) blockX() int {
	if c.layout.Align == AlignLeft {
		return c.layout.PaddingX
	}
	if len(c.offsets) > 0 && c.layout.Align == AlignBlock {
		return c.offsets[0]
	}
	return c.layout.PaddingX
}

// centered returns the x that centers a span of width w, never left of the
// padding.
func (c *Composer) centered(w int) int {
	x := (c.width - w) / 2
	if x < c.layout.PaddingX {
		x = c.layout.PaddingX
	}
	return x
}
