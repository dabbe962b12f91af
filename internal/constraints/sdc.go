// Package constraints cleans generated SDC text and builds the OpenSTA run
// scripts that consume it.
package constraints

import (
	"regexp"
	"strings"
)

// Comment lines containing any of these read like generation scaffolding
// ("# Clock definition section") rather than real annotations.
var scaffoldMarkers = []string{"file for", "section", "definition", "delay", "load"}

var commandRe = regexp.MustCompile(`^(\w+)`)

// PostProcessSDC cleans generated constraint text: blank lines and scaffold
// comments go, commented-out commands go, duplicate statements keep their
// first occurrence, and drive/load statements survive only when the
// requirement text actually asks for them. Statement text is otherwise
// preserved verbatim, units included.
func PostProcessSDC(sdc, requirement string) string {
	reqLower := strings.ToLower(requirement)
	seen := make(map[string]struct{})
	var kept []string

	for _, line := range strings.Split(strings.TrimSpace(sdc), "\n") {
		stripped := strings.TrimSpace(line)

		if stripped == "" || (strings.HasPrefix(stripped, "#") && hasScaffoldMarker(stripped)) {
			continue
		}
		if strings.HasPrefix(stripped, "# set_") || strings.HasPrefix(stripped, "# create_") {
			continue
		}

		if m := commandRe.FindStringSubmatch(stripped); m != nil && !strings.HasPrefix(stripped, "#") {
			key := m[1] + ":" + stripped
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}

		if strings.Contains(stripped, "set_driving_cell") && !strings.Contains(reqLower, "drive") {
			continue
		}
		if strings.Contains(stripped, "set_load") && !strings.Contains(reqLower, "load") {
			continue
		}

		kept = append(kept, stripped)
	}

	return strings.Join(kept, "\n")
}

func hasScaffoldMarker(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range scaffoldMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
