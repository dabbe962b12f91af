// Package liberty slices cell definition blocks out of Liberty (.lib) files.
package liberty

import (
	"regexp"
	"strings"

	"stacli/internal/verilog"
)

var cellHeaderRe = regexp.MustCompile(`^cell\s*\(\s*"?(\w+)"?\s*\)\s*\{`)

// Reduce returns only the complete definition blocks for the named cells,
// in library order, joined by a blank line. Blocks are captured verbatim by
// tracking nested brace depth from the header line; blocks for other cells
// are skipped without capture. Cells with no matching header are silently
// omitted.
func Reduce(library string, cells []string) string {
	target := make(map[string]struct{}, len(cells))
	for _, c := range cells {
		target[c] = struct{}{}
	}

	var blocks []string
	var current []string
	inside := false
	depth := 0

	for _, line := range strings.Split(library, "\n") {
		stripped := strings.TrimSpace(line)

		if !inside {
			if m := cellHeaderRe.FindStringSubmatch(stripped); m != nil {
				if _, ok := target[m[1]]; ok {
					inside = true
					depth = 1
					current = []string{line}
				}
			}
			continue
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		current = append(current, line)
		if depth == 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			inside = false
			current = nil
		}
	}

	return strings.Join(blocks, "\n\n")
}

// MinimalForDesign reduces the library to the cells the design instantiates.
func MinimalForDesign(design, library string) string {
	return Reduce(library, verilog.UsedCells(design))
}
