// Package display presents frames directly on the controlling terminal.
//
// The terminal is switched to the alternate screen with the cursor hidden
// and, when stdin is a tty, raw mode. Esc, q or Ctrl-C cancel the
// animation. Close restores everything.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/muesli/termenv"

	pimage "gitlab.com/tinyland/lab/phosphor/pkg/image"
	"gitlab.com/tinyland/lab/phosphor/pkg/terminal"
)

// DEC private mode 2026 brackets a frame so the terminal paints it at once.
const (
	beginSync = termenv.CSI + "?2026h"
	endSync   = termenv.CSI + "?2026l"
)

// Keys that cancel the animation.
const (
	keyCtrlC = 0x03
	keyEsc   = 0x1b
)

// Options configures a Terminal.
type Options struct {
	// In supplies key presses. Nil uses os.Stdin. An *os.File is only read
	// when it is a terminal; it is then put into raw mode.
	In io.Reader
	// Out receives the frames. Nil uses os.Stdout.
	Out io.Writer
	// Caps describes the terminal. The zero value means truecolor
	// halfblocks on an 80x24 terminal.
	Caps terminal.Capabilities
	// Renderer encodes frames. Nil builds one from Caps.
	Renderer *pimage.Renderer
	Logger   *slog.Logger
}

// Terminal is an animate.Sink that draws on the terminal.
type Terminal struct {
	out      io.Writer
	output   *termenv.Output
	renderer *pimage.Renderer
	caps     terminal.Capabilities
	logger   *slog.Logger

	mu      sync.Mutex
	size    terminal.Size
	resized bool

	rawFd    uintptr
	rawState *term.State

	hasInput   bool
	keys       chan struct{}
	cancelled  atomic.Bool
	done       chan struct{}
	cancelOnce sync.Once

	stop       chan struct{}
	readerDone chan struct{}
	winch      chan os.Signal
	closeOnce  sync.Once
}

// NewTerminal takes over the terminal.
func NewTerminal(opts Options) (*Terminal, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Caps.Size.Cols <= 0 || opts.Caps.Size.Rows <= 0 {
		opts.Caps.Size = terminal.Size{Cols: 80, Rows: 24}
	}
	if opts.Renderer == nil {
		opts.Renderer = pimage.NewRenderer(opts.Caps, pimage.Options{})
	}

	t := &Terminal{
		out:        opts.Out,
		output:     termenv.NewOutput(opts.Out, termenv.WithProfile(opts.Caps.Profile)),
		renderer:   opts.Renderer,
		caps:       opts.Caps,
		logger:     opts.Logger,
		size:       opts.Caps.Size,
		keys:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		stop:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}

	input, err := t.openInput(opts.In)
	if err != nil {
		return nil, err
	}

	t.output.AltScreen()
	t.output.HideCursor()
	t.output.ClearScreen()

	if input != nil {
		t.hasInput = true
		go t.readKeys(input)
	} else {
		close(t.readerDone)
	}
	t.watchResize()

	t.logger.Debug("terminal sink ready",
		"term", t.caps.Term,
		"protocol", t.renderer.Protocol(),
		"cols", t.size.Cols,
		"rows", t.size.Rows,
		"raw", t.rawState != nil)
	return t, nil
}

// openInput decides where key presses come from and enables raw mode for
// a tty.
func (t *Terminal) openInput(in io.Reader) (io.Reader, error) {
	f, ok := in.(*os.File)
	if !ok {
		return in, nil
	}
	if !term.IsTerminal(f.Fd()) {
		return nil, nil
	}
	state, err := term.MakeRaw(f.Fd())
	if err != nil {
		return nil, fmt.Errorf("display: raw mode: %w", err)
	}
	t.rawFd = f.Fd()
	t.rawState = state
	return newPollReader(f), nil
}

// readKeys runs until Close or the input ends.
func (t *Terminal) readKeys(r io.Reader) {
	defer close(t.readerDone)
	buf := make([]byte, 64)
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			t.handleInput(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.logger.Debug("key reader stopped", "error", err)
			}
			return
		}
	}
}

func (t *Terminal) handleInput(b []byte) {
	for _, c := range b {
		if c == keyEsc || c == keyCtrlC || c == 'q' || c == 'Q' {
			t.cancel()
			break
		}
	}
	select {
	case t.keys <- struct{}{}:
	default:
	}
}

func (t *Terminal) cancel() {
	t.cancelOnce.Do(func() {
		t.cancelled.Store(true)
		close(t.done)
	})
}

// watchResize tracks SIGWINCH when the output is a terminal.
func (t *Terminal) watchResize() {
	f, ok := t.out.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return
	}
	t.winch = make(chan os.Signal, 1)
	signal.Notify(t.winch, syscall.SIGWINCH)
	go func() {
		for {
			select {
			case <-t.stop:
				return
			case <-t.winch:
				size := terminal.GetSizeFromFd(f.Fd())
				t.mu.Lock()
				t.size = size
				t.resized = true
				t.mu.Unlock()
			}
		}
	}()
}

// Cancelled reports whether the user asked to stop.
func (t *Terminal) Cancelled() bool {
	return t.cancelled.Load()
}

// Done is closed on cancellation.
func (t *Terminal) Done() <-chan struct{} {
	return t.done
}

// Size returns the current terminal size.
func (t *Terminal) Size() terminal.Size {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// Present draws frame centered on the screen.
func (t *Terminal) Present(ctx context.Context, frame *image.NRGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	size, redraw := t.size, t.resized
	t.resized = false
	t.mu.Unlock()

	cellW, cellH := size.CellSize()
	if t.renderer.Protocol() == terminal.ProtocolHalfblocks {
		cellW, cellH = 1, 2
	}
	b := frame.Bounds()
	cols, rows := pimage.FitCells(b.Dx(), b.Dy(), cellW, cellH, size.Cols, size.Rows)

	encoded, err := t.renderer.Render(frame, cols, rows)
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}

	top := (size.Rows-rows)/2 + 1
	left := (size.Cols-cols)/2 + 1

	var sb strings.Builder
	if t.caps.SyncOutput {
		sb.WriteString(beginSync)
	}
	if redraw {
		fmt.Fprintf(&sb, termenv.CSI+termenv.EraseDisplaySeq, 2)
	}
	if t.renderer.Protocol() == terminal.ProtocolHalfblocks {
		for i, line := range strings.Split(encoded, "\n") {
			fmt.Fprintf(&sb, termenv.CSI+termenv.CursorPositionSeq, top+i, left)
			sb.WriteString(line)
		}
	} else {
		fmt.Fprintf(&sb, termenv.CSI+termenv.CursorPositionSeq, top, left)
		sb.WriteString(encoded)
	}
	if t.caps.SyncOutput {
		sb.WriteString(endSync)
	}

	if _, err := io.WriteString(t.out, sb.String()); err != nil {
		return fmt.Errorf("display: write frame: %w", err)
	}
	return nil
}

// WaitKey blocks until a key is pressed, the sink is cancelled or ctx is
// done. Keys pressed before the call are ignored. Without key input it
// returns immediately.
func (t *Terminal) WaitKey(ctx context.Context) error {
	if !t.hasInput || t.Cancelled() {
		return nil
	}
	select {
	case <-t.keys:
	default:
	}
	select {
	case <-t.keys:
		return nil
	case <-t.done:
		return nil
	case <-t.readerDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close restores the terminal. It is safe to call more than once.
func (t *Terminal) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stop)
		if t.winch != nil {
			signal.Stop(t.winch)
		}
		if t.rawState != nil && inputPolls {
			// The poll reader wakes up within its timeout.
			<-t.readerDone
		}

		t.output.ShowCursor()
		t.output.ExitAltScreen()

		if t.rawState != nil {
			if rerr := term.Restore(t.rawFd, t.rawState); rerr != nil {
				err = fmt.Errorf("display: restore terminal: %w", rerr)
			}
		}

		s := t.renderer.CacheStats()
		t.logger.Debug("terminal sink closed",
			"cache_hits", s.Hits,
			"cache_misses", s.Misses)
	})
	return err
}
