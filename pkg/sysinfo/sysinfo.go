// Package sysinfo collects the host facts shown on the boot screen: OS
// name, kernel, desktop session, shell version and physical memory. Every
// fact degrades to Unknown instead of failing.
package sysinfo

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Unknown is reported for any fact that could not be determined.
const Unknown = "Unknown"

// Key names a fact.
type Key string

const (
	KeyOS      Key = "os"
	KeyKernel  Key = "kernel"
	KeyDesktop Key = "desktop"
	KeyShell   Key = "shell"
	KeyMemory  Key = "memory"
)

// Keys lists every fact in display order.
var Keys = []Key{KeyOS, KeyKernel, KeyDesktop, KeyShell, KeyMemory}

// shellTimeout bounds the `bash --version` call.
const shellTimeout = 2 * time.Second

// Facts holds the collected values. Fields are never empty after Collect.
type Facts struct {
	OS      string `json:"os"`
	Kernel  string `json:"kernel"`
	Desktop string `json:"desktop"`
	Shell   string `json:"shell"`
	Memory  string `json:"memory"`
}

// Get returns the value for k, or Unknown for an unrecognized key.
func (f Facts) Get(k Key) string {
	switch k {
	case KeyOS:
		return f.OS
	case KeyKernel:
		return f.Kernel
	case KeyDesktop:
		return f.Desktop
	case KeyShell:
		return f.Shell
	case KeyMemory:
		return f.Memory
	}
	return Unknown
}

// set stores v under k. Unknown keys are ignored.
func (f *Facts) set(k Key, v string) {
	switch k {
	case KeyOS:
		f.OS = v
	case KeyKernel:
		f.Kernel = v
	case KeyDesktop:
		f.Desktop = v
	case KeyShell:
		f.Shell = v
	case KeyMemory:
		f.Memory = v
	}
}

// WithOverrides returns a copy of f where every non-empty override replaces
// the collected value. Override keys are fact names ("os", "kernel", ...).
func (f Facts) WithOverrides(overrides map[string]string) Facts {
	for k, v := range overrides {
		if v = strings.TrimSpace(v); v != "" {
			f.set(Key(k), v)
		}
	}
	return f
}

// fill replaces empty fields with Unknown.
func (f Facts) fill() Facts {
	for _, k := range Keys {
		if strings.TrimSpace(f.Get(k)) == "" {
			f.set(k, Unknown)
		}
	}
	return f
}

// Collect gathers every fact from the host and applies overrides. Facts
// with a non-empty override are not collected.
func Collect(ctx context.Context, overrides map[string]string) Facts {
	var f Facts
	collect := func(k Key, fn func(context.Context) string) {
		if overrides[string(k)] != "" {
			return
		}
		f.set(k, fn(ctx))
	}

	collect(KeyOS, siOSName)
	collect(KeyKernel, siKernel)
	collect(KeyDesktop, func(context.Context) string { return siDesktop(os.Getenv) })
	collect(KeyShell, siShellVersion)
	collect(KeyMemory, siMemory)

	return f.WithOverrides(overrides).fill()
}

// siOSName prefers PRETTY_NAME from os-release and falls back to the
// gopsutil platform name.
func siOSName(ctx context.Context) string {
	for _, p := range []string{"/etc/os-release", "/usr/lib/os-release"} {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if name := siParseOSRelease(string(data)); name != "" {
			return name
		}
	}

	info, err := host.InfoWithContext(ctx)
	if err != nil || info.Platform == "" {
		return ""
	}
	return strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
}

// siParseOSRelease extracts PRETTY_NAME from os-release content.
func siParseOSRelease(content string) string {
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		v, ok := strings.CutPrefix(line, "PRETTY_NAME=")
		if !ok {
			continue
		}
		return strings.Trim(v, `"'`)
	}
	return ""
}

// siKernel asks gopsutil first and falls back to the platform source.
func siKernel(ctx context.Context) string {
	if v, err := host.KernelVersionWithContext(ctx); err == nil && v != "" {
		return v
	}
	return siKernelVersion()
}

// siDesktop formats the XDG session variables.
func siDesktop(getenv func(string) string) string {
	val := func(k string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return Unknown
	}
	return fmt.Sprintf("Session: %s, WM: %s", val("XDG_SESSION_DESKTOP"), val("XDG_SESSION_TYPE"))
}

// siShellVersion runs `bash --version` and returns the version token.
func siShellVersion(ctx context.Context) string {
	if runtime.GOOS == "windows" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "bash", "--version").Output()
	if err != nil {
		return ""
	}
	return siParseBashVersion(string(out))
}

// siParseBashVersion returns the fourth whitespace-separated token of the
// first `bash --version` line, e.g. "5.2.15(1)-release".
func siParseBashVersion(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return ""
	}
	return fields[3]
}

// siMemory reports total physical memory in MiB.
func siMemory(ctx context.Context) string {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil || vm.Total == 0 {
		return ""
	}
	return siFormatMemory(vm.Total)
}

// siFormatMemory renders a byte count as whole MiB with an "M" suffix.
func siFormatMemory(total uint64) string {
	return fmt.Sprintf("%dM", total/(1024*1024))
}
