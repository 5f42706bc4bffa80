package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gitlab.com/tinyland/lab/phosphor/pkg/config"
	"gitlab.com/tinyland/lab/phosphor/pkg/sysinfo"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D1D5DB"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

func newFactsCmd(opts *rootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Print the system facts shown in the boot banner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console := consoleLogger(parseLevel("", opts.verbose))
			cfg, _, err := loadConfig(cmd, opts, console)
			if err != nil {
				return err
			}

			store := factsStore(cfg, console)
			if refresh {
				store = nil
			}
			facts, hit := sysinfo.CollectCached(cmd.Context(), store, cfg.FactOverrides())
			console.Debug("system facts", "cached", hit)

			fmt.Fprintln(cmd.OutOrStdout(), renderFacts(facts))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Collect facts again instead of reading the cache")
	return cmd
}

// renderFacts formats facts as an aligned key/value list.
func renderFacts(facts sysinfo.Facts) string {
	width := 0
	for _, k := range sysinfo.Keys {
		width = max(width, len(k))
	}

	var b strings.Builder
	for i, k := range sysinfo.Keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := fmt.Sprintf("%-*s", width, string(k))
		v := facts.Get(k)
		style := valueStyle
		if v == sysinfo.Unknown {
			style = dimStyle
		}
		b.WriteString(labelStyle.Render(label) + "  " + style.Render(v))
	}
	return b.String()
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, environment overrides and
clamping have been applied. The file is created with defaults when it
does not exist yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console := consoleLogger(parseLevel("", opts.verbose))
			cfg, res, err := loadConfig(cmd, opts, console)
			if err != nil {
				return err
			}

			f := config.FormatFor(res.Path)
			switch strings.ToLower(format) {
			case "":
			case "toml":
				f = config.FormatTOML
			case "yaml", "yml":
				f = config.FormatYAML
			default:
				return fmt.Errorf("unknown format %q (supported: toml, yaml)", format)
			}

			data, err := config.Encode(cfg, f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: toml or yaml (default: the file's format)")

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			path := opts.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "presets",
		Short: "List the effect presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), renderPresets())
		},
	})

	return cmd
}

// renderPresets lists every preset with a swatch in its color.
func renderPresets() string {
	var b strings.Builder
	for i, name := range config.PresetNames() {
		p, _ := config.LookupPreset(name)
		if i > 0 {
			b.WriteByte('\n')
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("██")
		fmt.Fprintf(&b, "%s %s %s", swatch, labelStyle.Render(fmt.Sprintf("%-8s", name)),
			dimStyle.Render(fmt.Sprintf("warp %.2f  scanline %.2f  noise %.2f  glow %d",
				p.Effects.Warp, p.Effects.Scanline, p.Effects.Noise, p.Effects.Glow)))
	}
	return b.String()
}
