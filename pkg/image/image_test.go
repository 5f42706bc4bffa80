package image

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"gitlab.com/tinyland/lab/phosphor/pkg/terminal"
)

// --- helpers ---------------------------------------------------------------

// makeImage creates a solid-colored NRGBA test image.
func makeImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// makeGradientImage creates a gradient image for testing uniqueness.
func makeGradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// makeCaps builds terminal.Capabilities for an 80x24 terminal with 8x16
// cells.
func makeCaps(proto terminal.GraphicsProtocol, profile termenv.Profile) terminal.Capabilities {
	return terminal.Capabilities{
		Term:     terminal.TermGhostty,
		Protocol: proto,
		Profile:  profile,
		Size: terminal.Size{
			Cols:   80,
			Rows:   24,
			PixelW: 640,
			PixelH: 384,
		},
	}
}

func halfblockRenderer() *Renderer {
	return NewRenderer(makeCaps(terminal.ProtocolHalfblocks, termenv.TrueColor), Options{})
}

// --- Resize tests ----------------------------------------------------------

func TestResizeToFitMaintainsAspectRatio(t *testing.T) {
	// 200x100 image into 10x10 cells (80x160 pixels).
	resized := ResizeToFit(makeImage(200, 100, color.White), 10, 10, 8, 16, 0)

	w, h := resized.Bounds().Dx(), resized.Bounds().Dy()
	if w != 80 || h != 40 {
		t.Errorf("got %dx%d, want 80x40", w, h)
	}
}

func TestResizeToFitBounds(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		cols, rows int
	}{
		{"landscape", 400, 100, 20, 10},
		{"portrait", 100, 400, 20, 10},
		{"square", 300, 300, 10, 10},
		{"frame", 1920, 1080, 80, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resized := ResizeToFit(makeImage(tt.w, tt.h, color.White), tt.cols, tt.rows, 8, 16, 0)
			b := resized.Bounds()
			if b.Dx() > tt.cols*8 {
				t.Errorf("width %d exceeds %d", b.Dx(), tt.cols*8)
			}
			if b.Dy() > tt.rows*16 {
				t.Errorf("height %d exceeds %d", b.Dy(), tt.rows*16)
			}
			if b.Dx() != tt.cols*8 && b.Dy() != tt.rows*16 {
				t.Errorf("%dx%d touches neither limit", b.Dx(), b.Dy())
			}
		})
	}
}

func TestResizeToFitSmallImageNoUpscale(t *testing.T) {
	img := makeImage(4, 4, color.White)
	resized := ResizeToFit(img, 100, 100, 8, 16, 0)
	if resized != img {
		t.Errorf("small image should be returned unmodified, got %v", resized.Bounds())
	}
}

func TestResizeToFitExactFit(t *testing.T) {
	img := makeImage(80, 160, color.White)
	if ResizeToFit(img, 10, 10, 8, 16, 0.5) != img {
		t.Error("image that fits exactly should be returned unmodified")
	}
}

func TestResizeToFitNilImage(t *testing.T) {
	if ResizeToFit(nil, 10, 10, 8, 16, 0) != nil {
		t.Error("nil input should return nil")
	}
}

func TestResizeToFitClampsArguments(t *testing.T) {
	img := makeImage(100, 100, color.White)

	if w := ResizeToFit(img, 0, 10, 8, 16, 0).Bounds().Dx(); w > 8 {
		t.Errorf("zero cols: width %d, want <= 8", w)
	}
	if h := ResizeToFit(img, 10, 0, 8, 16, 0).Bounds().Dy(); h > 16 {
		t.Errorf("zero rows: height %d, want <= 16", h)
	}

	b := ResizeToFit(img, 10, 5, 0, 0, 0).Bounds()
	if b.Dx() > 80 || b.Dy() > 80 {
		t.Errorf("default cell size: got %v, want within 80x80", b)
	}
}

func TestResizeToFitSharpenKeepsSize(t *testing.T) {
	img := makeGradientImage(300, 200)
	plain := ResizeToFit(img, 10, 10, 8, 16, 0)
	sharp := ResizeToFit(img, 10, 10, 8, 16, 1)
	if plain.Bounds() != sharp.Bounds() {
		t.Errorf("sharpen changed bounds: %v vs %v", plain.Bounds(), sharp.Bounds())
	}
}

func TestResizeToFitUniformStaysUniform(t *testing.T) {
	resized := ImageToNRGBA(ResizeToFit(makeImage(640, 480, color.NRGBA{0, 255, 0, 255}), 20, 10, 1, 2, 0))
	for y := 0; y < resized.Bounds().Dy(); y++ {
		for x := 0; x < resized.Bounds().Dx(); x++ {
			p := resized.NRGBAAt(x, y)
			if p.R > 1 || p.G < 254 || p.B > 1 || p.A < 254 {
				t.Fatalf("(%d,%d) = %v, want green", x, y, p)
			}
		}
	}
}

// --- FitCells tests --------------------------------------------------------

func TestFitCells(t *testing.T) {
	tests := []struct {
		name               string
		imgW, imgH         int
		cellW, cellH       int
		maxCols, maxRows   int
		wantCols, wantRows int
	}{
		{"16:9 in wide terminal", 1920, 1080, 8, 16, 200, 50, 178, 50},
		{"16:9 in narrow terminal", 1920, 1080, 8, 16, 100, 50, 100, 28},
		{"square cells", 100, 100, 10, 10, 20, 30, 20, 20},
		{"upscales", 10, 10, 10, 10, 20, 20, 20, 20},
		{"unknown cell size", 1920, 1080, 0, 0, 100, 50, 100, 28},
		{"degenerate image", 0, 0, 8, 16, 80, 24, 80, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows := FitCells(tt.imgW, tt.imgH, tt.cellW, tt.cellH, tt.maxCols, tt.maxRows)
			if cols != tt.wantCols || rows != tt.wantRows {
				t.Errorf("FitCells = %dx%d, want %dx%d", cols, rows, tt.wantCols, tt.wantRows)
			}
		})
	}
}

// --- Halfblocks tests ------------------------------------------------------

func TestRenderHalfblocksSolidColor(t *testing.T) {
	out, err := halfblockRenderer().Render(makeImage(4, 4, color.NRGBA{R: 255, A: 255}), 10, 10)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d rows, want 2", len(lines))
	}
	want := "\x1b[38;2;255;0;0;48;2;255;0;0m▀▀▀▀\x1b[0m"
	for i, line := range lines {
		if line != want {
			t.Errorf("row %d = %q, want %q", i, line, want)
		}
	}
}

func TestRenderHalfblocksOddHeight(t *testing.T) {
	out, err := halfblockRenderer().Render(makeImage(2, 3, color.White), 10, 10)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d rows, want 2", len(lines))
	}
	if !strings.Contains(lines[1], "48;2;0;0;0") {
		t.Errorf("odd last row should have a black lower half: %q", lines[1])
	}
}

func TestRenderHalfblocksTransparentIsBlack(t *testing.T) {
	out, err := halfblockRenderer().Render(makeImage(2, 2, color.NRGBA{255, 255, 255, 0}), 10, 10)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "\x1b[38;2;0;0;0;48;2;0;0;0m") {
		t.Errorf("transparent pixels should render black, got %q", out)
	}
}

func TestRenderHalfblocksOnlyEmitsChanges(t *testing.T) {
	img := makeImage(3, 2, color.White)
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 255})

	out := encodeHalfblocks(img, termenv.TrueColor)
	want := "\x1b[38;2;255;255;255;48;2;255;255;255m▀" +
		"\x1b[38;2;0;0;0m▀" +
		"\x1b[38;2;255;255;255m▀" +
		"\x1b[0m"
	if out != want {
		t.Errorf("got  %q\nwant %q", out, want)
	}
}

func TestRenderHalfblocksDownscalesToCells(t *testing.T) {
	out, err := halfblockRenderer().Render(makeGradientImage(1920, 1080), 80, 24)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) > 24 {
		t.Errorf("got %d rows, want at most 24", len(lines))
	}
	for i, line := range lines {
		if n := strings.Count(line, upperHalf); n > 80 {
			t.Fatalf("row %d has %d cells, want at most 80", i, n)
		}
	}
	if n := strings.Count(lines[0], upperHalf); n != 80 {
		t.Errorf("a 16:9 frame should span the width, got %d cells", n)
	}
}

func TestRenderHalfblocksANSI256(t *testing.T) {
	r := NewRenderer(makeCaps(terminal.ProtocolHalfblocks, termenv.ANSI256), Options{})
	out, err := r.Render(makeImage(2, 2, color.NRGBA{0, 255, 0, 255}), 10, 10)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "38;5;") || !strings.Contains(out, "48;5;") {
		t.Errorf("expected 256-color sequences, got %q", out)
	}
	if strings.Contains(out, "38;2;") {
		t.Errorf("unexpected truecolor sequence in %q", out)
	}
}

func TestRenderASCII(t *testing.T) {
	r := NewRenderer(makeCaps(terminal.ProtocolHalfblocks, termenv.Ascii), Options{})

	img := makeImage(3, 2, color.White)
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 255})
	img.SetNRGBA(1, 1, color.NRGBA{0, 0, 0, 255})

	out, err := r.Render(img, 10, 10)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "@ @" {
		t.Errorf("got %q, want %q", out, "@ @")
	}
}

// --- Renderer tests --------------------------------------------------------

func TestRendererProtocolFromCaps(t *testing.T) {
	for _, p := range []terminal.GraphicsProtocol{
		terminal.ProtocolHalfblocks, terminal.ProtocolKitty, terminal.ProtocolITerm2, terminal.ProtocolSixel,
	} {
		r := NewRenderer(makeCaps(p, termenv.TrueColor), Options{})
		if r.Protocol() != p {
			t.Errorf("Protocol() = %v, want %v", r.Protocol(), p)
		}
	}
}

func TestRenderNilImage(t *testing.T) {
	_, err := halfblockRenderer().Render(nil, 10, 10)
	if !errors.Is(err, ErrNilImage) {
		t.Errorf("err = %v, want ErrNilImage", err)
	}
}

func TestRenderCachedOnSecondCall(t *testing.T) {
	r := halfblockRenderer()
	img := makeGradientImage(64, 48)

	first, err := r.Render(img, 20, 15)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := r.Render(makeGradientImage(64, 48), 20, 15)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if first != second {
		t.Error("identical frames encoded differently")
	}

	s := r.CacheStats()
	if s.Hits != 1 || s.Misses != 1 || s.Entries != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss, 1 entry", s)
	}
}

func TestRenderDifferentSizesAreDifferentEntries(t *testing.T) {
	r := halfblockRenderer()
	img := makeImage(4, 4, color.White)
	for _, size := range [][2]int{{10, 10}, {20, 10}} {
		if _, err := r.Render(img, size[0], size[1]); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if s := r.CacheStats(); s.Misses != 2 || s.Entries != 2 {
		t.Errorf("stats = %+v, want 2 misses, 2 entries", s)
	}
}

func TestRenderCacheDisabled(t *testing.T) {
	r := NewRenderer(makeCaps(terminal.ProtocolHalfblocks, termenv.TrueColor), Options{CacheBytes: -1})
	img := makeImage(4, 4, color.White)
	for i := 0; i < 2; i++ {
		if _, err := r.Render(img, 10, 10); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if s := r.CacheStats(); s.Hits != 0 || s.Misses != 0 || s.Entries != 0 {
		t.Errorf("disabled cache reported %+v", s)
	}
}

// --- hashing ---------------------------------------------------------------

func TestImageHashStability(t *testing.T) {
	if hashImage(makeGradientImage(32, 32)) != hashImage(makeGradientImage(32, 32)) {
		t.Error("identical images hashed differently")
	}
}

func TestImageHashDistinguishes(t *testing.T) {
	a := hashImage(makeImage(8, 8, color.White))
	if a == hashImage(makeImage(8, 8, color.Black)) {
		t.Error("different pixels produced the same hash")
	}
	if hashImage(makeImage(4, 16, color.White)) == hashImage(makeImage(16, 4, color.White)) {
		t.Error("different shapes with equal pixel data produced the same hash")
	}
}

func TestImageHashSubImage(t *testing.T) {
	full := makeGradientImage(40, 40)
	sub := full.SubImage(image.Rect(10, 10, 20, 30)).(*image.NRGBA)

	cp := image.NewNRGBA(image.Rect(0, 0, 10, 20))
	draw.Draw(cp, cp.Bounds(), sub, sub.Bounds().Min, draw.Src)

	if hashImage(sub) != hashImage(cp) {
		t.Error("sub-image and its copy hashed differently")
	}
	if hashImage(image.NewNRGBA(image.Rectangle{})) == "" {
		t.Error("empty image should still hash")
	}
}

// --- misc ------------------------------------------------------------------

func TestImageToNRGBA(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 10, 10))
	draw.Draw(rgba, rgba.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	result := ImageToNRGBA(rgba)
	if result.Bounds() != rgba.Bounds() {
		t.Error("bounds should match")
	}
	if result.NRGBAAt(3, 3) != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("pixel = %v", result.NRGBAAt(3, 3))
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	if ImageToNRGBA(nrgba) != nrgba {
		t.Error("NRGBA input should return same pointer")
	}
}

func TestHexRGB(t *testing.T) {
	for rgb, want := range map[uint32]string{
		0x000000: "#000000",
		0x00ff00: "#00ff00",
		0xffb000: "#ffb000",
		0x123abc: "#123abc",
	} {
		if got := hexRGB(rgb); got != want {
			t.Errorf("hexRGB(%06x) = %q, want %q", rgb, got, want)
		}
	}
}
