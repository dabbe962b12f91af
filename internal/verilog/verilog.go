// Package verilog provides the regex-level design scanning the workflow
// needs: instantiated cell types, top module detection, and instance diffs.
// It is not a Verilog parser and does not try to be one.
package verilog

import (
	"regexp"
	"sort"
	"strings"
)

var (
	instantiationRe = regexp.MustCompile(`(?m)^\s*(\w+)\s+\w+\s*\(`)
	moduleNameRe    = regexp.MustCompile(`module\s+(\w+)`)
)

// UsedCells returns the deduplicated, sorted set of cell types instantiated
// in the design. A line whose first two identifiers are followed by an open
// parenthesis is treated as "<cell-type> <instance> (". The "module" keyword
// itself matches that shape and is excluded.
func UsedCells(design string) []string {
	seen := make(map[string]struct{})
	for _, m := range instantiationRe.FindAllStringSubmatch(design, -1) {
		name := m[1]
		if strings.EqualFold(name, "module") {
			continue
		}
		seen[name] = struct{}{}
	}

	cells := make([]string, 0, len(seen))
	for name := range seen {
		cells = append(cells, name)
	}
	sort.Strings(cells)
	return cells
}

// TopModule returns the first declared module name, or "top_module" when the
// design declares none.
func TopModule(design string) string {
	if m := moduleNameRe.FindStringSubmatch(design); m != nil {
		return m[1]
	}
	return "top_module"
}
