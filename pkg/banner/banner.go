// Package banner builds the text the terminal types out: the ROBCO boot
// screen filled with host facts, or the contents of a user text file.
package banner

import (
	"fmt"
	"strings"

	"gitlab.com/tinyland/lab/phosphor/pkg/sysinfo"
)

// Options controls banner formatting.
type Options struct {
	// Tab indents every line after the header by TabLength spaces.
	Tab       bool
	TabLength int
}

// Compose renders the boot screen for facts. All values are upper-cased.
//
//	******** <OS> ********
//
//
//	COPYRIGHT 2075 ROBCO(R)
//	<KERNEL>
//	EXEC VERSION <SHELL>
//	<MEMORY> RAM SYSTEM
//	<DESKTOP>
//	NO HOLOTAPE FOUND
//	LOAD ROM(1): DEITRIX 303
func Compose(facts sysinfo.Facts, opts Options) string {
	up := func(k sysinfo.Key) string {
		return strings.ToUpper(facts.Get(k))
	}

	body := []string{
		"",
		"",
		"COPYRIGHT 2075 ROBCO(R)",
		up(sysinfo.KeyKernel),
		"EXEC VERSION " + up(sysinfo.KeyShell),
		up(sysinfo.KeyMemory) + " RAM SYSTEM",
		up(sysinfo.KeyDesktop),
		"NO HOLOTAPE FOUND",
		"LOAD ROM(1): DEITRIX 303",
	}

	indent := ""
	if opts.Tab && opts.TabLength > 0 {
		indent = strings.Repeat(" ", opts.TabLength)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "******** %s ********", up(sysinfo.KeyOS))
	for _, line := range body {
		b.WriteByte('\n')
		if line != "" {
			b.WriteString(indent)
			b.WriteString(line)
		}
	}
	return b.String()
}
