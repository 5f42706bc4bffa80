// Package terminal identifies the terminal emulator, picks the graphics
// protocol used to show frames, and reports the terminal size. Detection
// only inspects environment variables and never writes query sequences,
// since the display sink owns the terminal once the animation starts.
package terminal

import (
	"os"
	"strings"
)

// Terminal identifies the terminal emulator in use.
type Terminal int

const (
	TermUnknown   Terminal = iota
	TermGhostty            // kitty graphics
	TermKitty              // kitty graphics
	TermWezTerm            // kitty graphics, sixel, iterm2 images
	TermITerm2             // iterm2 images
	TermFoot               // sixel
	TermMlterm             // sixel
	TermAlacritty          // true color only
	TermGNOME              // VTE
	TermTmux               // multiplexer
	TermScreen             // multiplexer
	TermVSCode             // integrated terminal
	TermGeneric
)

var terminalNames = [...]string{
	TermUnknown:   "unknown",
	TermGhostty:   "ghostty",
	TermKitty:     "kitty",
	TermWezTerm:   "wezterm",
	TermITerm2:    "iterm2",
	TermFoot:      "foot",
	TermMlterm:    "mlterm",
	TermAlacritty: "alacritty",
	TermGNOME:     "vte",
	TermTmux:      "tmux",
	TermScreen:    "screen",
	TermVSCode:    "vscode",
	TermGeneric:   "generic",
}

// String returns the human-readable name of the terminal.
func (t Terminal) String() string {
	if t >= 0 && int(t) < len(terminalNames) {
		return terminalNames[t]
	}
	return "unknown"
}

// SupportsKittyGraphics reports Kitty graphics protocol support.
func (t Terminal) SupportsKittyGraphics() bool {
	return t == TermGhostty || t == TermKitty || t == TermWezTerm
}

// SupportsSixel reports Sixel support.
func (t Terminal) SupportsSixel() bool {
	return t == TermWezTerm || t == TermFoot || t == TermMlterm
}

// SupportsITerm2Images reports iTerm2 inline image support.
func (t Terminal) SupportsITerm2Images() bool {
	return t == TermITerm2 || t == TermWezTerm
}

// SupportsTrueColor reports 24-bit color support.
func (t Terminal) SupportsTrueColor() bool {
	switch t {
	case TermGhostty, TermKitty, TermWezTerm, TermITerm2,
		TermFoot, TermAlacritty, TermGNOME, TermVSCode:
		return true
	default:
		return false
	}
}

// SupportsSyncOutput reports synchronized output (DEC mode 2026), which
// lets a whole frame be swapped in without tearing.
func (t Terminal) SupportsSyncOutput() bool {
	switch t {
	case TermGhostty, TermKitty, TermWezTerm, TermITerm2,
		TermFoot, TermAlacritty, TermGNOME:
		return true
	default:
		return false
	}
}

// Env looks up an environment variable. os.Getenv satisfies it.
type Env func(string) string

// Detect identifies the terminal emulator from the process environment.
func Detect() Terminal {
	return DetectEnv(os.Getenv)
}

// DetectEnv identifies the terminal from env. Signals are checked from
// most to least reliable: TERM_PROGRAM, TERM, emulator-specific
// variables, VTE, multiplexers.
func DetectEnv(env Env) Terminal {
	switch strings.ToLower(env("TERM_PROGRAM")) {
	case "ghostty":
		return TermGhostty
	case "kitty":
		return TermKitty
	case "wezterm":
		return TermWezTerm
	case "iterm.app":
		return TermITerm2
	case "vscode":
		return TermVSCode
	case "alacritty":
		return TermAlacritty
	case "tmux":
		return TermTmux
	}

	term := env("TERM")
	switch {
	case term == "xterm-ghostty":
		return TermGhostty
	case term == "xterm-kitty":
		return TermKitty
	case strings.HasPrefix(term, "foot"):
		return TermFoot
	case strings.HasPrefix(term, "mlterm"):
		return TermMlterm
	case strings.HasPrefix(term, "alacritty"):
		return TermAlacritty
	case strings.HasPrefix(term, "screen") && env("STY") != "":
		return TermScreen
	}

	switch {
	case env("KITTY_WINDOW_ID") != "":
		return TermKitty
	case env("ITERM_SESSION_ID") != "", env("LC_TERMINAL") == "iTerm2":
		return TermITerm2
	case env("WEZTERM_EXECUTABLE") != "":
		return TermWezTerm
	case env("VTE_VERSION") != "":
		return TermGNOME
	case env("TMUX") != "":
		return TermTmux
	case env("STY") != "":
		return TermScreen
	}
	return TermGeneric
}
