package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"gitlab.com/tinyland/lab/phosphor/pkg/animate"
	"gitlab.com/tinyland/lab/phosphor/pkg/banner"
	"gitlab.com/tinyland/lab/phosphor/pkg/cache"
	"gitlab.com/tinyland/lab/phosphor/pkg/config"
	"gitlab.com/tinyland/lab/phosphor/pkg/crt"
	"gitlab.com/tinyland/lab/phosphor/pkg/display"
	"gitlab.com/tinyland/lab/phosphor/pkg/reveal"
	"gitlab.com/tinyland/lab/phosphor/pkg/sysinfo"
	"gitlab.com/tinyland/lab/phosphor/pkg/terminal"
	"gitlab.com/tinyland/lab/phosphor/pkg/tui"
)

const (
	sinkTerminal = "terminal"
	sinkTUI      = "tui"
)

// frameSink is what both display sinks provide beyond animate.Sink.
type frameSink interface {
	animate.Sink
	Done() <-chan struct{}
	WaitKey(ctx context.Context) error
	Close() error
}

// loadConfig loads the configuration, applies explicitly set flags and
// clamps the result. Problems are reported on console.
func loadConfig(cmd *cobra.Command, opts *rootOptions, console *slog.Logger) (*config.Config, config.Result, error) {
	cfg, res, err := config.Load(opts.configPath)
	if err != nil {
		return nil, res, err
	}
	if res.Created {
		console.Info("wrote default configuration", "path", res.Path)
	}
	if len(res.Merged) > 0 {
		console.Info("added missing configuration keys", "path", res.Path, "keys", strings.Join(res.Merged, ", "))
	}

	flags := cmd.Flags()
	if flags.Changed("preset") {
		if err := cfg.ApplyPreset(opts.preset); err != nil {
			return nil, res, err
		}
	}
	if flags.Changed("sink") {
		cfg.Display.Sink = opts.sink
	}
	if flags.Changed("protocol") {
		cfg.Display.Protocol = opts.protocol
	}
	if flags.Changed("seed") {
		cfg.Effects.Seed = opts.seed
	}
	if flags.Changed("text-file") {
		cfg.Animation.TextFile = opts.textFile
	}
	if flags.Changed("hold") {
		cfg.Display.HoldLastFrame = opts.hold
	}

	for _, w := range cfg.Normalize() {
		console.Warn("configuration adjusted", "detail", w)
	}
	return cfg, res, nil
}

// factsStore opens the facts cache. A zero TTL or an unusable directory
// disables caching.
func factsStore(cfg *config.Config, logger *slog.Logger) *cache.Store {
	ttl := cfg.General.FactsTTL.Duration
	if ttl <= 0 || cfg.General.CacheDir == "" {
		return nil
	}
	store, err := cache.NewStore(cache.StoreConfig{Dir: cfg.General.CacheDir, DefaultTTL: ttl})
	if err != nil {
		logger.Warn("facts cache unavailable", "dir", cfg.General.CacheDir, "error", err)
		return nil
	}
	return store
}

// bootText returns the text to type out: the configured file, or the boot
// banner for the collected facts.
func bootText(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, error) {
	if cfg.Animation.TextFile != "" {
		return banner.LoadText(cfg.Animation.TextFile, cfg.Animation.TabLength)
	}
	facts, hit := sysinfo.CollectCached(ctx, factsStore(cfg, logger), cfg.FactOverrides())
	logger.Debug("system facts", "cached", hit, "os", facts.OS, "kernel", facts.Kernel)
	return banner.Compose(facts, banner.Options{
		Tab:       cfg.Animation.Tab,
		TabLength: cfg.Animation.TabLength,
	}), nil
}

// textColumns is how many cells of face fit between the side paddings.
// 0 means unknown.
func textColumns(cfg *config.Config, face crt.TextRenderer) int {
	adv := face.Measure("M")
	avail := cfg.Display.Width - 2*cfg.Layout.PaddingX
	if adv <= 0 || avail <= 0 {
		return 0
	}
	return avail / adv
}

// sinkPlan is the resolved output choice.
type sinkPlan struct {
	kind     string
	protocol string
}

// planSink resolves display.sink. "auto" uses the terminal sink; when
// stdout is not a terminal the frames are written as halfblocks so the
// stream can be recorded and replayed with cat.
func planSink(sink, protocol string, stdoutTTY bool) sinkPlan {
	switch sink {
	case sinkTUI:
		return sinkPlan{kind: sinkTUI, protocol: protocol}
	case sinkTerminal:
		return sinkPlan{kind: sinkTerminal, protocol: protocol}
	}
	if !stdoutTTY {
		return sinkPlan{kind: sinkTerminal, protocol: terminal.ProtocolHalfblocks.String()}
	}
	return sinkPlan{kind: sinkTerminal, protocol: protocol}
}

func openSink(ctx context.Context, plan sinkPlan, logger *slog.Logger) (frameSink, error) {
	caps := terminal.Probe(plan.protocol)
	logger.Info("terminal",
		"term", caps.Term.String(),
		"protocol", caps.Protocol.String(),
		"cols", caps.Size.Cols,
		"rows", caps.Size.Rows,
		"ssh", caps.SSH,
		"mux", caps.Mux,
	)

	if plan.kind == sinkTUI {
		s, err := tui.NewSink(ctx, tui.Options{Caps: caps, Hint: "booting", Logger: logger})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	t, err := display.NewTerminal(display.Options{Caps: caps, Logger: logger})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// runAnimation is the root command: load settings, build the pipeline
// and play it on the selected sink.
func runAnimation(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (err error) {
	console := consoleLogger(parseLevel("", opts.verbose))
	cfg, _, err := loadConfig(cmd, opts, console)
	if err != nil {
		return err
	}

	level := parseLevel(cfg.General.LogLevel, opts.verbose)
	logger, logFile, err := fileLogger(cfg.General.LogFile, level)
	if err != nil {
		console.Warn("logging disabled", "path", cfg.General.LogFile, "error", err)
		logger, logFile, _ = fileLogger("", level)
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	logger.Info("starting phosphor", "version", version, "commit", commit)

	text, err := bootText(ctx, cfg, logger)
	if err != nil {
		return err
	}

	face := crt.LoadFaceOrDefault(cfg.Font.Path, cfg.Font.Size, logger)
	text = banner.Fit(text, textColumns(cfg, face))

	var rng *rand.Rand
	if cfg.Effects.Seed != 0 {
		rng = crt.NewRand(cfg.Effects.Seed)
	}
	composer := crt.NewComposer(crt.ComposerOptions{
		Width:   cfg.Display.Width,
		Height:  cfg.Display.Height,
		Face:    face,
		Effects: cfg.EffectParams(),
		Layout:  cfg.FrameLayout(),
		Text:    text,
		Cursor:  cfg.Font.Cursor,
		Rand:    rng,
		Logger:  logger,
	})
	machine := reveal.New(text, cfg.Timing())

	plan := planSink(cfg.Display.Sink, cfg.Display.Protocol, isatty.IsTerminal(os.Stdout.Fd()))
	sink, err := openSink(ctx, plan, logger)
	if err != nil {
		return fmt.Errorf("open %s sink: %w", plan.kind, err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	stats, err := animate.New(machine, composer, sink, animate.WithLogger(logger)).Run(ctx)
	if err != nil {
		return err
	}
	layers := composer.CacheStats()
	logger.Info("animation complete",
		"frames", stats.Frames,
		"fps", fmt.Sprintf("%.1f", stats.FPS()),
		"cancelled", stats.Cancelled,
		"elapsed", stats.Elapsed,
		"layer_hits", layers.Hits,
		"layer_misses", layers.Misses,
	)

	if !cfg.Display.HoldLastFrame || stats.Cancelled {
		return nil
	}
	if h, ok := sink.(interface{ SetHint(string) }); ok {
		h.SetHint("press any key")
	}
	if err := sink.WaitKey(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
