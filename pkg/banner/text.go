package banner

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// LoadText reads a text file to type out instead of the boot screen. Line
// endings are normalized, tabs are expanded to tabLength spaces and
// trailing blank lines are dropped.
func LoadText(path string, tabLength int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("banner: read text file: %w", err)
	}
	return Normalize(string(data), tabLength), nil
}

// Normalize prepares arbitrary text for the renderer. ANSI escape
// sequences are stripped since they would be drawn as glyphs.
func Normalize(s string, tabLength int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = ansi.Strip(s)
	s = ExpandTabs(s, tabLength)
	return strings.TrimRight(s, "\n \t")
}

// ExpandTabs replaces each tab with spaces up to the next multiple of
// tabLength. A non-positive tabLength removes tabs.
func ExpandTabs(s string, tabLength int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			if tabLength <= 0 {
				continue
			}
			n := tabLength - col%tabLength
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}

// Fit wraps every line to at most cols cells, breaking at spaces where it
// can and mid-word where it must. cols < 1 returns s unchanged.
func Fit(s string, cols int) string {
	if cols < 1 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if ansi.StringWidth(line) > cols {
			lines[i] = ansi.Wrap(line, cols, "")
		}
	}
	return strings.Join(lines, "\n")
}
