//go:build darwin

package sysinfo

import "golang.org/x/sys/unix"

// siKernelRelease reads kern.osrelease ("23.4.0").
func siKernelRelease() string {
	rel, _ := unix.Sysctl("kern.osrelease")
	return rel
}
