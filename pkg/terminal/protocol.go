package terminal

import (
	"strings"
)

// GraphicsProtocol identifies how frames are encoded for the terminal.
type GraphicsProtocol int

const (
	ProtocolHalfblocks GraphicsProtocol = iota // ▀ cells with fg/bg colors
	ProtocolKitty
	ProtocolITerm2
	ProtocolSixel
)

var protocolNames = [...]string{
	ProtocolHalfblocks: "halfblocks",
	ProtocolKitty:      "kitty",
	ProtocolITerm2:     "iterm2",
	ProtocolSixel:      "sixel",
}

// String returns the configuration name of the protocol.
func (p GraphicsProtocol) String() string {
	if p >= 0 && int(p) < len(protocolNames) {
		return protocolNames[p]
	}
	return "unknown"
}

// ParseProtocol maps a configuration value to a protocol. ok is false for
// "auto", the empty string and unknown names.
func ParseProtocol(s string) (p GraphicsProtocol, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kitty":
		return ProtocolKitty, true
	case "iterm2", "iterm":
		return ProtocolITerm2, true
	case "sixel":
		return ProtocolSixel, true
	case "halfblocks", "half-blocks", "unicode":
		return ProtocolHalfblocks, true
	}
	return ProtocolHalfblocks, false
}

// SelectProtocol picks the richest protocol term supports. Pixel
// protocols are unreliable through SSH and multiplexers, so those
// sessions use halfblocks.
func SelectProtocol(term Terminal, env Env) GraphicsProtocol {
	if isSSH(env) || env("TMUX") != "" || env("STY") != "" {
		return ProtocolHalfblocks
	}
	switch {
	case term.SupportsKittyGraphics():
		return ProtocolKitty
	case term.SupportsITerm2Images():
		return ProtocolITerm2
	case term.SupportsSixel():
		return ProtocolSixel
	default:
		return ProtocolHalfblocks
	}
}

// SelectProtocolWithOverride honours an explicit configuration value and
// falls back to SelectProtocol for "auto" or unknown values.
func SelectProtocolWithOverride(term Terminal, env Env, override string) GraphicsProtocol {
	if p, ok := ParseProtocol(override); ok {
		return p
	}
	return SelectProtocol(term, env)
}

func isSSH(env Env) bool {
	return env("SSH_TTY") != "" || env("SSH_CONNECTION") != "" || env("SSH_CLIENT") != ""
}
