package crt

import (
	"testing"

	"gitlab.com/tinyland/lab/phosphor/pkg/reveal"
)

const benchText = `******** ARCH LINUX ********


    COPYRIGHT 2075 ROBCO(R)
    6.9.1-ARCH1-1
    EXEC VERSION 5.2.26(1)-RELEASE
    32000M RAM SYSTEM
    SESSION: HYPRLAND, WM: WAYLAND
    NO HOLOTAPE FOUND
    LOAD ROM(1): DEITRIX 303`

var benchEffects = EffectParameters{
	WarpDistortion:    0.15,
	ScanlineIntensity: 0.3,
	NoiseSigma:        0.03,
	GlowIntensity:     3,
	GlowColor:         green,
}

func benchComposer(cacheBytes int64) *Composer {
	return NewComposer(ComposerOptions{
		Width:           960,
		Height:          540,
		Face:            DefaultFace(15),
		Effects:         benchEffects,
		Text:            benchText,
		Rand:            NewRand(1),
		LayerCacheBytes: cacheBytes,
	})
}

// BenchmarkComposeTyping renders a new prefix every iteration, so every
// frame runs glow and warp.
func BenchmarkComposeTyping(b *testing.B) {
	c := benchComposer(-1)
	runes := []rune(benchText)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := i%len(runes) + 1
		_ = c.Compose(reveal.TextState{Prefix: string(runes[:n]), CursorVisible: i%2 == 0})
	}
}

// BenchmarkComposeBlinking alternates the two blink states, which hit the
// warped-layer cache after the first two frames.
func BenchmarkComposeBlinking(b *testing.B) {
	c := benchComposer(0)
	states := [2]reveal.TextState{
		{Prefix: benchText, CursorVisible: true},
		{Prefix: benchText},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Compose(states[i%2])
	}
}

func BenchmarkWarp(b *testing.B) {
	src := NewFrame(960, 540)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Warp(src, 0.15)
	}
}

func BenchmarkScanlinesWithNoise(b *testing.B) {
	img := NewFrame(960, 540)
	rng := NewRand(1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ApplyScanlinesWithNoise(img, 0.3, 0.03, rng)
	}
}
