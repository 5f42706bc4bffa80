package terminal

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Size is the terminal size in cells and, when the kernel reports it,
// pixels.
type Size struct {
	Cols   int
	Rows   int
	PixelW int // 0 if unknown
	PixelH int // 0 if unknown
}

// CellSize returns the pixel size of one cell, or 0,0 if unknown.
func (s Size) CellSize() (w, h int) {
	if s.PixelW <= 0 || s.PixelH <= 0 || s.Cols <= 0 || s.Rows <= 0 {
		return 0, 0
	}
	return s.PixelW / s.Cols, s.PixelH / s.Rows
}

// GetSize queries stdout, then stderr, with TIOCGWINSZ and falls back to
// COLUMNS/LINES and finally 80x24.
func GetSize() Size {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		if s, ok := sizeFromIoctl(f.Fd()); ok {
			return s
		}
	}
	return sizeFromEnv(os.Getenv)
}

// GetSizeFromFd is GetSize for a specific descriptor.
func GetSizeFromFd(fd uintptr) Size {
	if s, ok := sizeFromIoctl(fd); ok {
		return s
	}
	return sizeFromEnv(os.Getenv)
}

func sizeFromIoctl(fd uintptr) (Size, bool) {
	ws, err := unix.IoctlGetWinsize(int(fd), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return Size{}, false
	}
	return Size{
		Cols:   int(ws.Col),
		Rows:   int(ws.Row),
		PixelW: int(ws.Xpixel),
		PixelH: int(ws.Ypixel),
	}, true
}

func sizeFromEnv(env Env) Size {
	return Size{
		Cols: envInt(env, "COLUMNS", 80),
		Rows: envInt(env, "LINES", 24),
	}
}

// envInt returns the positive integer in name, or fallback.
func envInt(env Env, name string, fallback int) int {
	n, err := strconv.Atoi(env(name))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
