package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a configuration document encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatFor picks the encoding from the file extension. Anything other than
// .yaml or .yml is TOML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Result describes what Load did besides decoding.
type Result struct {
	Path string
	// Created is true when the file did not exist and defaults were written.
	Created bool
	// Merged lists the keys that were missing and filled from defaults. The
	// file was rewritten when it is non-empty.
	Merged []string
}

// Load reads the configuration at path, or at DefaultPath when path is
// empty. A missing file is created with the defaults. A file missing some
// keys gets them from the defaults and is written back. Environment
// overrides are applied last and never persisted.
func Load(path string) (*Config, Result, error) {
	if path == "" {
		path = DefaultPath()
	}
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return nil, res, err
		}
		res.Created = true
		applyEnvOverrides(cfg)
		return cfg, res, nil
	}
	if err != nil {
		return nil, res, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, missing, err := decode(data, FormatFor(path))
	if err != nil {
		return nil, res, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if len(missing) > 0 {
		if err := Save(path, cfg); err != nil {
			return nil, res, err
		}
		res.Merged = missing
	}

	applyEnvOverrides(cfg)
	return cfg, res, nil
}

// LoadBytes decodes a document over the defaults without touching disk.
func LoadBytes(data []byte, format Format) (*Config, error) {
	cfg, _, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode fills a default Config from data and reports which known keys the
// document did not define.
func decode(data []byte, format Format) (*Config, []string, error) {
	cfg := DefaultConfig()
	var missing []string

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, nil, err
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, err
		}
		for _, key := range KeyPaths() {
			if !yamlDefined(doc, key) {
				missing = append(missing, strings.Join(key, "."))
			}
		}
	default:
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, nil, err
		}
		for _, key := range KeyPaths() {
			if !meta.IsDefined(key...) {
				missing = append(missing, strings.Join(key, "."))
			}
		}
	}
	return cfg, missing, nil
}

func yamlDefined(doc map[string]any, key []string) bool {
	var cur any = doc
	for _, k := range key {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		if cur, ok = m[k]; !ok {
			return false
		}
	}
	return true
}

// KeyPaths lists every leaf key of the document as section/key pairs, in
// field order.
func KeyPaths() [][]string {
	var out [][]string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		name := tagName(section)
		for j := 0; j < section.Type.NumField(); j++ {
			out = append(out, []string{name, tagName(section.Type.Field(j))})
		}
	}
	return out
}

func tagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

// Encode serializes cfg in the given format.
func Encode(cfg *Config, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path atomically, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := Encode(cfg, FormatFor(path))
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: rename: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			LogFile:  filepath.Join(xdgStateHome(home), "phosphor", "phosphor.log"),
			CacheDir: filepath.Join(xdgCacheHome(home), "phosphor"),
			FactsTTL: Duration{time.Hour},
		},
		Display: DisplayConfig{
			Width:    1920,
			Height:   1080,
			Sink:     "auto",
			Protocol: "auto",
		},
		Font: FontConfig{
			Path:   "FSEX302.ttf",
			Size:   30,
			Color:  "#00FF00",
			Cursor: "█",
		},
		Animation: AnimationConfig{
			FPS:            30,
			RevealDuration: Duration{2 * time.Second},
			BlinkDuration:  Duration{2 * time.Second},
			Tab:            true,
			TabLength:      4,
		},
		Layout: LayoutConfig{
			Align:       "block",
			TopMargin:   50,
			PaddingX:    50,
			LineSpacing: 1.5,
		},
		Effects: EffectsConfig{
			Warp:      0.15,
			Scanline:  0.3,
			Noise:     0.03,
			Glow:      3,
			GlowAlpha: 255,
		},
	}
}

// applyEnvOverrides checks environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PHOSPHOR_PROTOCOL"); v != "" {
		cfg.Display.Protocol = v
	}
	if v := os.Getenv("PHOSPHOR_SINK"); v != "" {
		cfg.Display.Sink = v
	}
	if v := os.Getenv("PHOSPHOR_FONT"); v != "" {
		cfg.Font.Path = v
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/phosphor/config.toml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(xdgConfigHome(home), "phosphor", "config.toml")
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// xdgCacheHome returns XDG_CACHE_HOME or ~/.cache as fallback.
func xdgCacheHome(home string) string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".cache")
}

// xdgStateHome returns XDG_STATE_HOME or ~/.local/state as fallback.
func xdgStateHome(home string) string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".local", "state")
}
