package image

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Fallback cell size in pixels when the terminal does not report one.
const (
	defaultCellW = 8
	defaultCellH = 16
)

// ResizeToFit scales img down to fit within maxCols×maxRows cells of
// cellW×cellH pixels, preserving aspect ratio. Images that already fit are
// returned unmodified; there is no upscaling. Non-positive cell sizes use
// 8×16 and non-positive cell counts are treated as 1. A nil image returns
// nil.
//
// sharpen is the sigma of an unsharp pass after downscaling, restoring the
// scanline edges the resample softens. 0 skips it.
func ResizeToFit(img image.Image, maxCols, maxRows, cellW, cellH int, sharpen float64) image.Image {
	if img == nil {
		return nil
	}
	if cellW <= 0 {
		cellW = defaultCellW
	}
	if cellH <= 0 {
		cellH = defaultCellH
	}
	maxCols = max(maxCols, 1)
	maxRows = max(maxRows, 1)

	maxW := maxCols * cellW
	maxH := maxRows * cellH

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return img
	}
	if srcW <= maxW && srcH <= maxH {
		return img
	}

	scale := math.Min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))
	dstW := max(int(math.Round(float64(srcW)*scale)), 1)
	dstH := max(int(math.Round(float64(srcH)*scale)), 1)

	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)

	if sharpen > 0 && dstW >= 3 && dstH >= 3 {
		return imaging.Sharpen(dst, sharpen)
	}
	return dst
}

// FitCells returns the cell grid that shows an imgW×imgH image as large as
// possible within maxCols×maxRows without distorting it. Unlike
// ResizeToFit it may grow the image; it answers "where will the frame
// land", which the terminal sink uses to center it.
func FitCells(imgW, imgH, cellW, cellH, maxCols, maxRows int) (cols, rows int) {
	maxCols = max(maxCols, 1)
	maxRows = max(maxRows, 1)
	if imgW <= 0 || imgH <= 0 {
		return maxCols, maxRows
	}
	if cellW <= 0 {
		cellW = defaultCellW
	}
	if cellH <= 0 {
		cellH = defaultCellH
	}

	aspect := float64(imgW) / float64(imgH)

	cols = maxCols
	rows = int(math.Round(float64(cols*cellW) / aspect / float64(cellH)))
	if rows > maxRows {
		rows = maxRows
		cols = int(math.Round(float64(rows*cellH) * aspect / float64(cellW)))
	}
	return min(max(cols, 1), maxCols), min(max(rows, 1), maxRows)
}

// ImageToNRGBA converts any image.Image to *image.NRGBA for direct pixel
// access. NRGBA input is returned as is.
func ImageToNRGBA(src image.Image) *image.NRGBA {
	if nrgba, ok := src.(*image.NRGBA); ok {
		return nrgba
	}
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
