package sysinfo

import (
	"os"
	"strings"
)

// procVersion is the Linux kernel banner. Tests point it elsewhere.
var procVersion = "/proc/version"

// siKernelVersion is the fallback when gopsutil has no answer: the
// platform release (sysctl on macOS), then the /proc banner.
func siKernelVersion() string {
	if v := siKernelRelease(); v != "" {
		return siParseKernelVersion(v)
	}
	return siParseKernelVersion(siReadBanner(procVersion))
}

// siReadBanner returns the contents of path, or "" when it is unreadable.
func siReadBanner(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// kernelBanners are the prefixes that precede the release in the long
// kernel descriptions.
var kernelBanners = []string{"Linux version ", "Darwin Kernel Version "}

// siParseKernelVersion turns "Linux version 6.1.0-27-amd64 (...) ..." into
// "6.1.0-27-amd64". Short inputs are only trimmed.
func siParseKernelVersion(raw string) string {
	s := strings.TrimSpace(raw)
	for _, p := range kernelBanners {
		rest, ok := strings.CutPrefix(s, p)
		if !ok {
			continue
		}
		if f := strings.Fields(rest); len(f) > 0 {
			return strings.TrimSuffix(f[0], ":")
		}
		return ""
	}
	return s
}
