//go:build unix

package display

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// pollTimeoutMs bounds how long Close waits for the key reader.
const pollTimeoutMs = 100

// inputPolls reports whether the key reader returns on its own after
// Close, so Close can wait for it before restoring the tty.
const inputPolls = true

// pollReader reads a tty without blocking indefinitely, so the key
// goroutine can notice Close. A timeout is a zero-length read.
type pollReader struct {
	fd int
}

func newPollReader(f *os.File) *pollReader {
	return &pollReader{fd: int(f.Fd())}
}

func (r *pollReader) Read(p []byte) (int, error) {
	fds := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, pollTimeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	rn, err := unix.Read(r.fd, p)
	if err != nil {
		if err == unix.EINTR || err == unix.EAGAIN {
			return 0, nil
		}
		return 0, err
	}
	if rn == 0 {
		return 0, io.EOF
	}
	return rn, nil
}
