//go:build !unix

package display

import (
	"io"
	"os"
)

// There is no poll(2) here, so the key reader blocks in Read until the
// next key press and Close does not wait for it.
const inputPolls = false

func newPollReader(f *os.File) io.Reader {
	return f
}
