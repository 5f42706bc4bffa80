package crt

import (
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultFaceMonospace(t *testing.T) {
	f := DefaultFace(20)
	if f.Size() != 20 {
		t.Errorf("Size = %v, want 20", f.Size())
	}
	if f.Measure("") != 0 {
		t.Errorf("Measure(\"\") = %d", f.Measure(""))
	}
	one := f.Measure("M")
	if one <= 0 {
		t.Fatalf("Measure(M) = %d", one)
	}
	if got := f.Measure("i"); got != one {
		t.Errorf("Measure(i) = %d, want %d", got, one)
	}
	if got := f.Measure("MMMM"); got < 4*one-4 || got > 4*one {
		t.Errorf("Measure(MMMM) = %d, want about %d", got, 4*one)
	}
}

func TestFaceDrawStaysInLineBox(t *testing.T) {
	f := DefaultFace(16)
	frame := NewFrame(100, 60)
	pt := image.Pt(10, 20)
	f.Draw(frame, "Hg", pt, green)

	if h := f.Height(); h < 16 || h > 24 {
		t.Fatalf("Height() = %d, want between 16 and 24", h)
	}
	box := image.Rect(pt.X, pt.Y, pt.X+f.Measure("Hg")+1, pt.Y+f.Height())
	drawn := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 100; x++ {
			if frame.NRGBAAt(x, y).G == 0 {
				continue
			}
			drawn++
			if !image.Pt(x, y).In(box) {
				t.Fatalf("pixel (%d,%d) outside line box %v", x, y, box)
			}
		}
	}
	if drawn == 0 {
		t.Error("nothing drawn")
	}
}

func TestLoadFaceErrors(t *testing.T) {
	if _, err := LoadFace(filepath.Join(t.TempDir(), "missing.ttf"), 16); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFace(bad, 16)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.HasPrefix(err.Error(), "crt: parse font") {
		t.Errorf("error = %q", err)
	}
}

func TestLoadFaceOrDefault(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := LoadFaceOrDefault(filepath.Join(t.TempDir(), "FSEX302.ttf"), 30, logger)
	if f.Name() != "gomono" {
		t.Errorf("Name = %q, want gomono", f.Name())
	}
	if f.Size() != 30 {
		t.Errorf("Size = %v, want 30", f.Size())
	}

	if f := LoadFaceOrDefault("", 12, nil); f.Name() != "gomono" {
		t.Errorf("empty path: Name = %q", f.Name())
	}
}
