package verilog

import (
	"fmt"
	"regexp"
	"strings"
)

// NoChangesDetected is returned when two designs have identical instance maps.
const NoChangesDetected = "No significant changes detected"

var drivenCellRe = regexp.MustCompile(`(\w+)_X(\d+)\s+(\w+)\s*\(`)

// Instance is a named cell instantiation with its drive-strength variant.
type Instance struct {
	Type     string
	Strength string
}

func (i Instance) String() string {
	return i.Type + "_X" + i.Strength
}

// instanceMap preserves first-match order so change reports read in source
// order.
type instanceMap struct {
	order  []string
	byName map[string]Instance
}

func extractInstances(design string) instanceMap {
	im := instanceMap{byName: make(map[string]Instance)}
	for _, m := range drivenCellRe.FindAllStringSubmatch(design, -1) {
		name := m[3]
		if _, ok := im.byName[name]; !ok {
			im.order = append(im.order, name)
		}
		im.byName[name] = Instance{Type: m[1], Strength: m[2]}
	}
	return im
}

// SummarizeChanges diffs two designs at instance granularity: instances whose
// cell type or drive strength changed, instances added, instances removed, in
// that order. Identical designs yield NoChangesDetected.
func SummarizeChanges(before, after string) string {
	prev := extractInstances(before)
	next := extractInstances(after)

	var changes []string

	for _, name := range prev.order {
		oldInst := prev.byName[name]
		newInst, ok := next.byName[name]
		if ok && oldInst != newInst {
			changes = append(changes, fmt.Sprintf("Changed %s from %s to %s", name, oldInst, newInst))
		}
	}
	for _, name := range next.order {
		if _, ok := prev.byName[name]; !ok {
			changes = append(changes, fmt.Sprintf("Added %s (%s)", name, next.byName[name]))
		}
	}
	for _, name := range prev.order {
		if _, ok := next.byName[name]; !ok {
			changes = append(changes, fmt.Sprintf("Removed %s", name))
		}
	}

	if len(changes) == 0 {
		return NoChangesDetected
	}
	return strings.Join(changes, "; ")
}
