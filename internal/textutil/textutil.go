// Package textutil has ANSI-aware helpers for terminal rendering.
package textutil

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"
)

// WrapText soft-wraps text to the given width. Zero or negative widths
// return the text unchanged.
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// TruncateWithEllipsis shortens a line to fit width, ANSI sequences excluded
// from the count.
func TruncateWithEllipsis(line string, width int) string {
	lineWidth := ansi.StringWidth(line)
	if lineWidth <= width {
		return line
	}
	if width <= 3 {
		return strings.Repeat(".", width)
	}
	return ansi.Cut(line, 0, width-3) + "..."
}

// PadRight pads a line with spaces up to width, measured without ANSI
// sequences. Lines already at or past width are returned unchanged.
func PadRight(line string, width int) string {
	gap := width - ansi.StringWidth(line)
	if gap <= 0 {
		return line
	}
	return line + strings.Repeat(" ", gap)
}

// StringWidth is the printable cell width of s.
func StringWidth(s string) int {
	return ansi.StringWidth(s)
}

// MaxLineWidth returns the widest printable width among lines.
func MaxLineWidth(lines []string) int {
	maxWidth := 0
	for _, line := range lines {
		if w := ansi.StringWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}
