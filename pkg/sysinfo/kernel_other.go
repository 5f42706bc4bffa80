//go:build !darwin

package sysinfo

// siKernelRelease has no direct source here; the /proc banner is used.
func siKernelRelease() string { return "" }
