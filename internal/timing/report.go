// Package timing parses OpenSTA report output into violation snapshots.
package timing

import (
	"regexp"
	"strconv"
	"strings"
)

// PathSlack records one violating timing path.
type PathSlack struct {
	Slack float64
}

// Snapshot is the parsed result of a single STA run. Worst slacks are nil
// when the report contained no section of that path type; a missing value is
// never the same thing as zero.
type Snapshot struct {
	WorstSetupSlack *float64
	WorstHoldSlack  *float64
	HasViolations   bool
	SetupPaths      []PathSlack
	HoldPaths       []PathSlack
}

const pathTypeMarker = "Path Type:"

var (
	violatedRe = regexp.MustCompile(`(-?\d+\.\d+)\s+slack\s+\(VIOLATED\)`)
	slackRe    = regexp.MustCompile(`(-?\d+\.\d+)\s+slack`)
)

// Parse scans an OpenSTA log for setup (max) and hold (min) path sections and
// their slack figures. Each section runs from its "Path Type:" header to the
// next header or end of text. Sections without a parseable slack are skipped.
// Any explicit "slack (VIOLATED)" marker flags the snapshot as violating even
// if no section parses.
func Parse(log string) Snapshot {
	var snap Snapshot

	if violatedRe.MatchString(log) {
		snap.HasViolations = true
	}

	snap.WorstSetupSlack, snap.SetupPaths = scanSections(log, "max", &snap.HasViolations)
	snap.WorstHoldSlack, snap.HoldPaths = scanSections(log, "min", &snap.HasViolations)

	return snap
}

func scanSections(log, pathType string, hasViolations *bool) (*float64, []PathSlack) {
	var worst *float64
	var paths []PathSlack

	for _, section := range sections(log, pathType) {
		slackMatch := slackRe.FindStringSubmatch(section)
		if slackMatch == nil {
			continue
		}
		slack, err := strconv.ParseFloat(slackMatch[1], 64)
		if err != nil {
			continue
		}

		if worst == nil || slack < *worst {
			v := slack
			worst = &v
		}
		if slack < 0 || strings.Contains(section, "VIOLATED") {
			*hasViolations = true
			paths = append(paths, PathSlack{Slack: slack})
		}
	}

	return worst, paths
}

// sections returns the body of every "Path Type: <pathType>" section, where a
// body extends to the next "Path Type:" header of either flavor or to the end
// of the log.
func sections(log, pathType string) []string {
	header := pathTypeMarker + " " + pathType
	var out []string

	pos := 0
	for {
		i := strings.Index(log[pos:], header)
		if i < 0 {
			break
		}
		start := pos + i + len(header)

		end := len(log)
		if j := strings.Index(log[start:], pathTypeMarker); j >= 0 {
			end = start + j
		}
		out = append(out, log[start:end])
		pos = end
	}

	return out
}
