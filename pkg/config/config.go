package config

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/phosphor/pkg/crt"
	"gitlab.com/tinyland/lab/phosphor/pkg/reveal"
)

// Config is the full phosphor configuration. Field tags are shared by the
// TOML and YAML encodings.
type Config struct {
	General   GeneralConfig   `toml:"general" yaml:"general"`
	Display   DisplayConfig   `toml:"display" yaml:"display"`
	Font      FontConfig      `toml:"font" yaml:"font"`
	Animation AnimationConfig `toml:"animation" yaml:"animation"`
	Layout    LayoutConfig    `toml:"layout" yaml:"layout"`
	Effects   EffectsConfig   `toml:"effects" yaml:"effects"`
	Overrides OverridesConfig `toml:"overrides" yaml:"overrides"`
}

// GeneralConfig holds process-level settings.
type GeneralConfig struct {
	LogLevel string   `toml:"log_level" yaml:"log_level"`
	LogFile  string   `toml:"log_file" yaml:"log_file"`
	CacheDir string   `toml:"cache_dir" yaml:"cache_dir"`
	FactsTTL Duration `toml:"facts_ttl" yaml:"facts_ttl"`
}

// DisplayConfig selects the frame size and the output sink.
type DisplayConfig struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
	// Sink is "auto", "terminal" or "tui".
	Sink string `toml:"sink" yaml:"sink"`
	// Protocol is "auto", "kitty", "iterm2", "sixel" or "halfblocks".
	Protocol      string `toml:"protocol" yaml:"protocol"`
	HoldLastFrame bool   `toml:"hold_last_frame" yaml:"hold_last_frame"`
}

// FontConfig describes the text face and color.
type FontConfig struct {
	Path string  `toml:"path" yaml:"path"`
	Size float64 `toml:"size" yaml:"size"`
	// Color is "#RRGGBB" or "R,G,B".
	Color  string `toml:"color" yaml:"color"`
	Cursor string `toml:"cursor" yaml:"cursor"`
}

// AnimationConfig controls the reveal and blink timing and the text source.
type AnimationConfig struct {
	FPS            int      `toml:"fps" yaml:"fps"`
	RevealDuration Duration `toml:"reveal_duration" yaml:"reveal_duration"`
	BlinkDuration  Duration `toml:"blink_duration" yaml:"blink_duration"`
	Tab            bool     `toml:"tab" yaml:"tab"`
	TabLength      int      `toml:"tab_length" yaml:"tab_length"`
	// TextFile replaces the boot banner with the file's contents.
	TextFile string `toml:"text_file" yaml:"text_file"`
}

// LayoutConfig positions the text block on the frame.
type LayoutConfig struct {
	// Align is "block", "line" or "left".
	Align       string  `toml:"align" yaml:"align"`
	TopMargin   int     `toml:"top_margin" yaml:"top_margin"`
	PaddingX    int     `toml:"padding_x" yaml:"padding_x"`
	LineSpacing float64 `toml:"line_spacing" yaml:"line_spacing"`
}

// EffectsConfig holds the CRT effect strengths.
type EffectsConfig struct {
	Warp      float64 `toml:"warp" yaml:"warp"`
	Scanline  float64 `toml:"scanline" yaml:"scanline"`
	Noise     float64 `toml:"noise" yaml:"noise"`
	Glow      int     `toml:"glow" yaml:"glow"`
	GlowAlpha int     `toml:"glow_alpha" yaml:"glow_alpha"`
	// Seed fixes the noise sequence. 0 seeds from the clock.
	Seed uint64 `toml:"seed" yaml:"seed"`
}

// OverridesConfig replaces collected system facts when non-empty.
type OverridesConfig struct {
	OS      string `toml:"os" yaml:"os"`
	Kernel  string `toml:"kernel" yaml:"kernel"`
	Desktop string `toml:"desktop" yaml:"desktop"`
	Shell   string `toml:"shell" yaml:"shell"`
	Memory  string `toml:"memory" yaml:"memory"`
}

// Valid enumerated values.
var (
	validSinks     = []string{"auto", "terminal", "tui"}
	validProtocols = []string{"auto", "kitty", "iterm2", "sixel", "halfblocks"}
	validAligns    = []string{"block", "line", "left"}
	validLevels    = []string{"debug", "info", "warn", "error"}
)

// Limits applied by Normalize.
const (
	maxDimension  = 7680
	maxFPS        = 240
	maxGlow       = 32
	maxTabLength  = 16
	maxWarp       = 0.99
	maxNoise      = 1.0
	minFontSize   = 4.0
	maxFontSize   = 512.0
	minLineFactor = 0.5
	maxLineFactor = 5.0
)

// Normalize clamps out-of-range values in place and returns one warning per
// adjustment.
func (c *Config) Normalize() []string {
	var warns []string
	warnf := func(format string, args ...any) {
		warns = append(warns, fmt.Sprintf(format, args...))
	}
	d := DefaultConfig()

	clampInt := func(name string, v *int, lo, hi int) {
		if *v < lo || *v > hi {
			nv := min(max(*v, lo), hi)
			warnf("%s %d out of range [%d, %d], using %d", name, *v, lo, hi, nv)
			*v = nv
		}
	}
	clampFloat := func(name string, v *float64, lo, hi float64) {
		if math.IsNaN(*v) {
			warnf("%s is NaN, using %g", name, lo)
			*v = lo
			return
		}
		if *v < lo || *v > hi {
			nv := math.Min(math.Max(*v, lo), hi)
			warnf("%s %g out of range [%g, %g], using %g", name, *v, lo, hi, nv)
			*v = nv
		}
	}
	oneOf := func(name string, v *string, valid []string, def string) {
		s := strings.ToLower(strings.TrimSpace(*v))
		for _, ok := range valid {
			if s == ok {
				*v = s
				return
			}
		}
		warnf("%s %q not recognized, using %q", name, *v, def)
		*v = def
	}

	oneOf("general.log_level", &c.General.LogLevel, validLevels, d.General.LogLevel)

	clampInt("display.width", &c.Display.Width, 1, maxDimension)
	clampInt("display.height", &c.Display.Height, 1, maxDimension)
	oneOf("display.sink", &c.Display.Sink, validSinks, d.Display.Sink)
	oneOf("display.protocol", &c.Display.Protocol, validProtocols, d.Display.Protocol)

	clampFloat("font.size", &c.Font.Size, minFontSize, maxFontSize)
	if _, err := ParseColor(c.Font.Color); err != nil {
		warnf("font.color: %v, using %q", err, d.Font.Color)
		c.Font.Color = d.Font.Color
	}
	if c.Font.Cursor == "" {
		c.Font.Cursor = d.Font.Cursor
	}

	clampInt("animation.fps", &c.Animation.FPS, 1, maxFPS)
	clampInt("animation.tab_length", &c.Animation.TabLength, 0, maxTabLength)

	oneOf("layout.align", &c.Layout.Align, validAligns, d.Layout.Align)
	clampInt("layout.top_margin", &c.Layout.TopMargin, 0, maxDimension)
	clampInt("layout.padding_x", &c.Layout.PaddingX, 0, maxDimension)
	clampFloat("layout.line_spacing", &c.Layout.LineSpacing, minLineFactor, maxLineFactor)

	clampFloat("effects.warp", &c.Effects.Warp, 0, maxWarp)
	clampFloat("effects.scanline", &c.Effects.Scanline, 0, 1)
	clampFloat("effects.noise", &c.Effects.Noise, 0, maxNoise)
	clampInt("effects.glow", &c.Effects.Glow, 0, maxGlow)
	clampInt("effects.glow_alpha", &c.Effects.GlowAlpha, 0, 255)

	return warns
}

// ParseColor accepts "#RRGGBB", "RRGGBB" or "R,G,B" and returns an opaque
// color.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
		}
		var rgb [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
			}
			rgb[i] = uint8(v)
		}
		return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// EffectParams converts the effect settings for the crt package. The font color
// is the glow color; glow_alpha becomes its alpha.
func (c *Config) EffectParams() crt.EffectParameters {
	glow, err := ParseColor(c.Font.Color)
	if err != nil {
		glow, _ = ParseColor(DefaultConfig().Font.Color)
	}
	glow.A = uint8(min(max(c.Effects.GlowAlpha, 0), 255))
	return crt.EffectParameters{
		WarpDistortion:    c.Effects.Warp,
		ScanlineIntensity: c.Effects.Scanline,
		NoiseSigma:        c.Effects.Noise,
		GlowIntensity:     c.Effects.Glow,
		GlowColor:         glow,
	}
}

// Timing converts the animation settings for the reveal package.
func (c *Config) Timing() reveal.Timing {
	return reveal.Timing{
		FPS:    c.Animation.FPS,
		Reveal: c.Animation.RevealDuration.Duration,
		Blink:  c.Animation.BlinkDuration.Duration,
	}
}

// FrameLayout converts the layout settings for the crt package. Line
// height is font size times line_spacing.
func (c *Config) FrameLayout() crt.Layout {
	return crt.Layout{
		Align:      crt.ParseAlign(c.Layout.Align),
		TopMargin:  c.Layout.TopMargin,
		PaddingX:   c.Layout.PaddingX,
		LineHeight: int(math.Round(c.Font.Size * c.Layout.LineSpacing)),
	}
}

// FactOverrides returns the non-empty overrides keyed by fact name.
func (c *Config) FactOverrides() map[string]string {
	m := make(map[string]string, 5)
	for k, v := range map[string]string{
		"os":      c.Overrides.OS,
		"kernel":  c.Overrides.Kernel,
		"desktop": c.Overrides.Desktop,
		"shell":   c.Overrides.Shell,
		"memory":  c.Overrides.Memory,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}
