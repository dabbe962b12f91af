package constraints

import (
	"fmt"
	"path/filepath"
	"strings"
)

// UsableTCL reports whether a model-produced run script is worth keeping.
// The only signal that survives contact with real model output is whether
// the script loads the library we actually gave it; anything else gets the
// default template.
func UsableTCL(tcl, libertyFile string) bool {
	return strings.Contains(tcl, libertyFile)
}

// DefaultTCL builds the fallback run script used when the model's script is
// missing or unusable. Command order matters to OpenSTA: liberty before
// design before link before constraints before reports.
func DefaultTCL(designFile, sdcFile, libertyFile, topModule string) string {
	return fmt.Sprintf(`
# Read liberty file
read_liberty %s

# Read the design file
read_verilog %s

# Link the design
link_design %s

# Read the SDC constraints
read_sdc %s

# Report timing checks
report_checks -path_delay max
report_checks -path_delay min

# Exit OpenSTA
exit
`, libertyFile, filepath.Base(designFile), topModule, filepath.Base(sdcFile))
}

// NormalizedTCL rewrites an accepted model script into the canonical labeled
// form. The model's own commands are discarded; referencing the right liberty
// file earns it the labeled report sections instead of the default template.
func NormalizedTCL(designFile, sdcFile, libertyFile, topModule string) string {
	return fmt.Sprintf(`
# Read liberty file
read_liberty %s

# Read the design file
read_verilog %s

# Link the design
link_design %s

# Read the SDC constraints
read_sdc %s

# Report setup path (max delay)
puts "\nSetup Path Analysis:"
report_checks -path_delay max

# Report hold path (min delay)
puts "\nHold Path Analysis:"
report_checks -path_delay min

# Exit OpenSTA
exit
`, libertyFile, filepath.Base(designFile), topModule, filepath.Base(sdcFile))
}
