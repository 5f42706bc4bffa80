// Package image encodes finished frames as terminal output: halfblock
// cells for any color terminal, or the Kitty, iTerm2 and Sixel graphics
// protocols through go-termimg.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/blacktop/go-termimg"
	"github.com/muesli/termenv"

	"gitlab.com/tinyland/lab/phosphor/pkg/cache"
	"gitlab.com/tinyland/lab/phosphor/pkg/lru"
	"gitlab.com/tinyland/lab/phosphor/pkg/terminal"
)

// defaultCacheBytes bounds the encoded-frame cache.
const defaultCacheBytes = 16 << 20

// defaultSharpen is the unsharp sigma applied after downscaling for pixel
// protocols. Halfblocks have too few pixels to benefit.
const defaultSharpen = 0.5

// ErrNilImage is returned by Render for a nil image.
var ErrNilImage = errors.New("image: nil image")

// Options tunes a Renderer.
type Options struct {
	// CacheBytes bounds the encoded-frame cache. 0 uses 16 MiB, negative
	// disables caching.
	CacheBytes int64
	// Sharpen overrides the post-resize unsharp sigma. Negative disables
	// it, 0 uses the default for the protocol.
	Sharpen float64
}

// Renderer turns frames into terminal escape strings for one terminal.
//
// With noise enabled every frame differs, so the cache mostly pays off for
// noiseless effect settings, where the blinking tail repeats two frames.
type Renderer struct {
	protocol terminal.GraphicsProtocol
	profile  termenv.Profile
	cellW    int
	cellH    int
	sharpen  float64
	cache    *lru.Cache[string, string]
}

// NewRenderer creates a Renderer for the protocol, color profile and cell
// geometry in caps.
func NewRenderer(caps terminal.Capabilities, opts Options) *Renderer {
	cellW, cellH := caps.Size.CellSize()
	if cellW <= 0 || cellH <= 0 {
		cellW, cellH = defaultCellW, defaultCellH
	}

	sharpen := opts.Sharpen
	switch {
	case sharpen < 0:
		sharpen = 0
	case sharpen == 0 && caps.Protocol != terminal.ProtocolHalfblocks:
		sharpen = defaultSharpen
	}

	r := &Renderer{
		protocol: caps.Protocol,
		profile:  caps.Profile,
		cellW:    cellW,
		cellH:    cellH,
		sharpen:  sharpen,
	}
	if opts.CacheBytes >= 0 {
		limit := opts.CacheBytes
		if limit == 0 {
			limit = defaultCacheBytes
		}
		r.cache = lru.New[string, string](limit, func(s string) int64 { return int64(len(s)) })
	}
	return r
}

// Protocol returns the active encoding.
func (r *Renderer) Protocol() terminal.GraphicsProtocol {
	return r.protocol
}

// CacheStats reports encoded-frame cache usage.
func (r *Renderer) CacheStats() lru.Stats {
	if r.cache == nil {
		return lru.Stats{}
	}
	return r.cache.Stats()
}

// Render encodes img to fit within cols×rows cells.
func (r *Renderer) Render(img image.Image, cols, rows int) (string, error) {
	if img == nil {
		return "", ErrNilImage
	}
	cols = max(cols, 1)
	rows = max(rows, 1)

	var resized *image.NRGBA
	if r.protocol == terminal.ProtocolHalfblocks {
		// One cell holds a 1×2 block of pixels.
		resized = ImageToNRGBA(ResizeToFit(img, cols, rows, 1, 2, r.sharpen))
	} else {
		resized = ImageToNRGBA(ResizeToFit(img, cols, rows, r.cellW, r.cellH, r.sharpen))
	}

	key := fmt.Sprintf("%s:%dx%d:%s", r.protocol, cols, rows, hashImage(resized))
	if r.cache != nil {
		if s, ok := r.cache.Get(key); ok {
			return s, nil
		}
	}

	out, err := r.encode(resized, cols, rows)
	if err != nil {
		return "", fmt.Errorf("image: encode %s: %w", r.protocol, err)
	}
	if r.cache != nil {
		r.cache.Put(key, out)
	}
	return out, nil
}

func (r *Renderer) encode(img *image.NRGBA, cols, rows int) (string, error) {
	switch r.protocol {
	case terminal.ProtocolKitty:
		return renderTermimg(img, termimg.Kitty, cols, rows)
	case terminal.ProtocolITerm2:
		return renderTermimg(img, termimg.ITerm2, cols, rows)
	case terminal.ProtocolSixel:
		return renderTermimg(img, termimg.Sixel, cols, rows)
	default:
		return encodeHalfblocks(img, r.profile), nil
	}
}

func renderTermimg(img image.Image, proto termimg.Protocol, cols, rows int) (string, error) {
	ti := termimg.New(img)
	if ti == nil {
		return "", errors.New("go-termimg: failed to wrap image")
	}
	return ti.Protocol(proto).Size(cols, rows).Scale(termimg.ScaleFit).Render()
}

// hashImage keys an image by its dimensions and pixels.
func hashImage(img *image.NRGBA) string {
	b := img.Bounds()
	buf := make([]byte, 8, 8+len(img.Pix))
	binary.LittleEndian.PutUint32(buf[:4], uint32(b.Dx()))
	binary.LittleEndian.PutUint32(buf[4:], uint32(b.Dy()))
	switch {
	case b.Empty():
	case img.Stride == 4*b.Dx():
		buf = append(buf, img.Pix[img.PixOffset(b.Min.X, b.Min.Y):][:4*b.Dx()*b.Dy()]...)
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := img.PixOffset(b.Min.X, y)
			buf = append(buf, img.Pix[i:i+4*b.Dx()]...)
		}
	}
	return cache.HashBytes(buf)
}
