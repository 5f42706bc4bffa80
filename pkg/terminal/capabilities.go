package terminal

import (
	"os"

	"github.com/muesli/termenv"
)

// Capabilities summarizes what the display sink needs to know about the
// terminal it is about to take over.
type Capabilities struct {
	Term     Terminal
	Protocol GraphicsProtocol
	Size     Size
	// Profile is the color depth used for halfblock output.
	Profile termenv.Profile
	SSH     bool
	Mux     bool
	// SyncOutput enables DEC 2026 frame bracketing.
	SyncOutput bool
}

// Probe detects the terminal from the process environment. protocol is
// the configured value ("auto", "kitty", ...).
func Probe(protocol string) Capabilities {
	c := probeEnv(os.Getenv, protocol)
	c.Size = GetSize()
	c.Profile = colorProfile(c.Term, os.Getenv)
	return c
}

// probeEnv is the environment-only part of Probe.
func probeEnv(env Env, protocol string) Capabilities {
	term := DetectEnv(env)
	mux := env("TMUX") != "" || env("STY") != ""
	return Capabilities{
		Term:       term,
		Protocol:   SelectProtocolWithOverride(term, env, protocol),
		SSH:        isSSH(env),
		Mux:        mux,
		SyncOutput: term.SupportsSyncOutput() && !mux,
	}
}

// colorProfile trusts termenv's environment inspection but upgrades to
// TrueColor for emulators known to support it, or when COLORTERM says so.
func colorProfile(term Terminal, env Env) termenv.Profile {
	ct := env("COLORTERM")
	if term.SupportsTrueColor() || ct == "truecolor" || ct == "24bit" {
		return termenv.TrueColor
	}
	return termenv.EnvColorProfile()
}
