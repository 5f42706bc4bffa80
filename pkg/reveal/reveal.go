// Package reveal drives the typewriter effect: which prefix of the text is
// visible on each tick and whether the cursor glyph is drawn.
//
// A Machine moves through three phases. During Typing the prefix grows by a
// fixed number of runes per tick and the cursor toggles every tick. During
// Blinking the full text is shown and the cursor follows the wall clock,
// visible for the first half of every second. Done is terminal.
package reveal

import (
	"math"
	"time"
)

// Phase identifies the machine's current state.
type Phase int

const (
	Typing Phase = iota
	Blinking
	Done
)

var phaseNames = [...]string{
	Typing:   "typing",
	Blinking: "blinking",
	Done:     "done",
}

// String returns the lower-case phase name.
func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// blinkPeriod is the length of one visible+hidden cursor cycle while
// blinking. The cursor is visible for the first half.
const blinkPeriod = time.Second

// TextState is the snapshot handed to the frame composer for one tick.
type TextState struct {
	Prefix        string
	CursorVisible bool
}

// Timing holds the animation cadence.
type Timing struct {
	FPS    int
	Reveal time.Duration
	Blink  time.Duration
}

// FrameCount returns the number of typing ticks for a text of textLen
// runes: round(FPS * Reveal), at least 1, and never more than textLen when
// the text is non-empty so that every tick reveals at least one rune.
func (t Timing) FrameCount(textLen int) int {
	n := int(math.Round(float64(t.FPS) * t.Reveal.Seconds()))
	if n < 1 {
		n = 1
	}
	if textLen > 0 && n > textLen {
		n = textLen
	}
	return n
}

// FrameInterval returns 1/FPS, or one second when FPS is not positive.
func (t Timing) FrameInterval() time.Duration {
	if t.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(t.FPS)
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces time.Now as the machine's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// Machine is the reveal/cursor state machine. It is not safe for
// concurrent use; the animation driver owns it.
type Machine struct {
	text       []rune
	timing     Timing
	frameCount int
	step       int

	phase      Phase
	tick       int
	blinkStart time.Time
	now        func() time.Time
}

// New creates a machine for text. Empty text skips Typing entirely.
func New(text string, timing Timing, opts ...Option) *Machine {
	runes := []rune(text)
	m := &Machine{
		text:   runes,
		timing: timing,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.frameCount = timing.FrameCount(len(runes))
	m.step = 1
	if len(runes) > 0 {
		m.step = (len(runes) + m.frameCount - 1) / m.frameCount
	} else {
		m.phase = Blinking
	}
	return m
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// FrameCount returns the number of typing ticks, zero for empty text.
func (m *Machine) FrameCount() int {
	if len(m.text) == 0 {
		return 0
	}
	return m.frameCount
}

// Interval is how long the driver should wait after presenting the frame
// produced by the latest Next call. Typing spreads the reveal duration
// evenly over its ticks; Blinking runs at the frame rate.
func (m *Machine) Interval() time.Duration {
	if m.phase == Typing && m.frameCount > 0 {
		return m.timing.Reveal / time.Duration(m.frameCount)
	}
	return m.timing.FrameInterval()
}

// Next advances one tick and returns the state to draw. The boolean is
// false once the machine is Done; the returned state is then zero.
func (m *Machine) Next() (TextState, bool) {
	if m.phase == Typing {
		if m.tick < m.frameCount {
			i := m.tick
			m.tick++
			end := (i + 1) * m.step
			if end > len(m.text) {
				end = len(m.text)
			}
			return TextState{
				Prefix:        string(m.text[:end]),
				CursorVisible: i%2 == 0,
			}, true
		}
		m.phase = Blinking
	}

	if m.phase == Blinking {
		now := m.now()
		if m.blinkStart.IsZero() {
			m.blinkStart = now
		}
		elapsed := now.Sub(m.blinkStart)
		if elapsed >= m.timing.Blink {
			m.phase = Done
			return TextState{}, false
		}
		return TextState{
			Prefix:        string(m.text),
			CursorVisible: elapsed%blinkPeriod < blinkPeriod/2,
		}, true
	}

	return TextState{}, false
}

// Stop forces the machine into Done from any phase.
func (m *Machine) Stop() {
	m.phase = Done
}
