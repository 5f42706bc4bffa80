// Package tui presents frames inside a bubbletea program.
//
// Frames are encoded as halfblocks and pushed into the program with
// Program.Send; the program never ticks on its own. A footer shows the
// current hint and the quit keys.
package tui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	pimage "gitlab.com/tinyland/lab/phosphor/pkg/image"
	"gitlab.com/tinyland/lab/phosphor/pkg/terminal"
)

// ErrNotRunning is returned by Present after the program has exited.
var ErrNotRunning = errors.New("tui: program not running")

// Options configures a Sink.
type Options struct {
	// Caps supplies the color profile and the size used until the
	// program reports one.
	Caps terminal.Capabilities
	// Hint is the initial footer text.
	Hint string
	// Input and Output default to the process terminal.
	Input  io.Reader
	Output io.Writer
	Logger *slog.Logger
}

// Sink is an animate.Sink backed by a bubbletea program in the alternate
// screen.
type Sink struct {
	program  *tea.Program
	shared   *state
	renderer *pimage.Renderer
	logger   *slog.Logger

	cancelled  atomic.Bool
	done       chan struct{}
	cancelOnce sync.Once
	keys       chan struct{}

	exited  chan struct{}
	runErr  error
	running atomic.Bool
}

// NewSink starts the program and returns once it is ready.
func NewSink(ctx context.Context, opts Options) (*Sink, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	size := opts.Caps.Size
	if size.Cols <= 0 || size.Rows <= 0 {
		size = terminal.Size{Cols: 80, Rows: 24}
	}

	// Cell pixel geometry does not matter inside bubbletea; every frame is
	// encoded as halfblocks.
	caps := opts.Caps
	caps.Protocol = terminal.ProtocolHalfblocks

	s := &Sink{
		renderer: pimage.NewRenderer(caps, pimage.Options{}),
		logger:   opts.Logger,
		done:     make(chan struct{}),
		keys:     make(chan struct{}, 1),
		exited:   make(chan struct{}),
		shared: &state{
			width:  size.Cols,
			height: size.Rows,
			ready:  make(chan struct{}),
		},
	}
	s.shared.onQuit = s.cancel
	s.shared.onKey = func() {
		select {
		case s.keys <- struct{}{}:
		default:
		}
	}

	teaOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithoutSignalHandler()}
	if opts.Input != nil {
		teaOpts = append(teaOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		teaOpts = append(teaOpts, tea.WithOutput(opts.Output))
	}
	s.program = tea.NewProgram(newModel(s.shared, opts.Hint), teaOpts...)

	s.running.Store(true)
	go func() {
		_, err := s.program.Run()
		s.runErr = err
		s.running.Store(false)
		close(s.exited)
	}()

	select {
	case <-s.shared.ready:
		return s, nil
	case <-s.exited:
		if s.runErr != nil {
			return nil, fmt.Errorf("tui: start program: %w", s.runErr)
		}
		return nil, ErrNotRunning
	case <-ctx.Done():
		s.program.Kill()
		<-s.exited
		return nil, ctx.Err()
	}
}

func (s *Sink) cancel() {
	s.cancelOnce.Do(func() {
		s.cancelled.Store(true)
		close(s.done)
	})
}

// Cancelled reports whether the user quit.
func (s *Sink) Cancelled() bool {
	return s.cancelled.Load()
}

// Done is closed on cancellation.
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

// SetHint replaces the footer text.
func (s *Sink) SetHint(text string) {
	if s.running.Load() {
		s.program.Send(hintMsg{text: text})
	}
}

// Present encodes frame for the area above the footer and hands it to
// the program.
func (s *Sink) Present(ctx context.Context, frame *image.NRGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.running.Load() {
		return ErrNotRunning
	}

	w, h := s.shared.size()
	h -= footerHeight
	b := frame.Bounds()
	cols, rows := pimage.FitCells(b.Dx(), b.Dy(), 1, 2, w, h)

	view, err := s.renderer.Render(frame, cols, rows)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	s.program.Send(frameMsg{view: view})
	return nil
}

// WaitKey blocks until any key is pressed, the user quits, the program
// exits or ctx is done. Keys pressed before the call are ignored.
func (s *Sink) WaitKey(ctx context.Context) error {
	if s.Cancelled() || !s.running.Load() {
		return nil
	}
	select {
	case <-s.keys:
	default:
	}
	select {
	case <-s.keys:
		return nil
	case <-s.done:
		return nil
	case <-s.exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the program and waits for it to restore the terminal.
func (s *Sink) Close() error {
	s.program.Quit()
	<-s.exited

	st := s.renderer.CacheStats()
	s.logger.Debug("tui sink closed", "cache_hits", st.Hits, "cache_misses", st.Misses)

	if s.runErr != nil && !errors.Is(s.runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", s.runErr)
	}
	return nil
}
