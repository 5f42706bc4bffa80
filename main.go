// phosphor plays a retro CRT boot screen in the terminal.
//
// A block of text, by default a boot banner built from host facts, is
// typed out with a blinking cursor. Every frame goes through barrel warp,
// scanlines, noise and phosphor glow before it is streamed to the
// terminal as inline graphics (Kitty, iTerm2, Sixel) or halfblocks.
//
// Usage:
//
//	phosphor [flags]
//	phosphor facts
//	phosphor config [path|presets]
//	phosphor version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// rootOptions holds the flags shared by every command. Flags only
// override the loaded configuration when they were set explicitly.
type rootOptions struct {
	configPath string
	verbose    bool

	preset   string
	sink     string
	protocol string
	seed     uint64
	textFile string
	hold     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "phosphor:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "phosphor [flags]",
		Short: "Retro CRT boot screen for the terminal",
		Long: `phosphor types out a boot banner on a simulated CRT: barrel warp,
scanlines, noise and phosphor glow, streamed to the terminal as inline
graphics. Press Esc, q or Ctrl-C to stop.`,
		Example: `  # Play the boot screen with the configured settings
  phosphor

  # Amber monitor, reproducible noise
  phosphor --preset amber --seed 7

  # Type out a file inside the bubbletea frame
  phosphor --text-file motd.txt --sink tui`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnimation(cmd.Context(), cmd, &opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (default: $XDG_CONFIG_HOME/phosphor/config.toml)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	f := cmd.Flags()
	f.StringVar(&opts.preset, "preset", "", "Effect preset (classic, amber, worn, flat)")
	f.StringVar(&opts.sink, "sink", "", "Output sink: auto, terminal or tui")
	f.StringVar(&opts.protocol, "protocol", "", "Graphics protocol: auto, kitty, iterm2, sixel or halfblocks")
	f.Uint64Var(&opts.seed, "seed", 0, "Noise seed (0 = seed from the clock)")
	f.StringVar(&opts.textFile, "text-file", "", "Type out this file instead of the boot banner")
	f.BoolVar(&opts.hold, "hold", false, "Keep the last frame until a key is pressed")

	cmd.AddCommand(newFactsCmd(&opts))
	cmd.AddCommand(newConfigCmd(&opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "phosphor %s (%s) built %s\n", version, commit, date)
		},
	}
}
