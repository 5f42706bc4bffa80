package config

import (
	"fmt"
	"sort"
)

// Preset is a named bundle of effect settings and text color.
type Preset struct {
	Name    string
	Color   string
	Effects EffectsConfig
}

var presets = map[string]Preset{
	// classic matches the defaults.
	"classic": {
		Name:    "classic",
		Color:   "#00FF00",
		Effects: EffectsConfig{Warp: 0.15, Scanline: 0.3, Noise: 0.03, Glow: 3, GlowAlpha: 255},
	},
	// amber is a P3 phosphor monitor.
	"amber": {
		Name:    "amber",
		Color:   "#FFB000",
		Effects: EffectsConfig{Warp: 0.12, Scanline: 0.25, Noise: 0.02, Glow: 4, GlowAlpha: 200},
	},
	// worn is an old tube: more curvature, heavier lines and noise.
	"worn": {
		Name:    "worn",
		Color:   "#33FF66",
		Effects: EffectsConfig{Warp: 0.25, Scanline: 0.45, Noise: 0.08, Glow: 5, GlowAlpha: 255},
	},
	// flat disables every effect.
	"flat": {
		Name:    "flat",
		Color:   "#00FF00",
		Effects: EffectsConfig{GlowAlpha: 255},
	},
}

// PresetNames returns the known preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// ApplyPreset replaces the effect settings and font color with the named
// preset. The noise seed is kept.
func (c *Config) ApplyPreset(name string) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("config: unknown preset %q (known: %v)", name, PresetNames())
	}
	seed := c.Effects.Seed
	c.Effects = p.Effects
	c.Effects.Seed = seed
	c.Font.Color = p.Color
	return nil
}
