// Package extract pulls code out of free-form LLM responses. Models wrap
// generated files in fenced or tagged blocks most of the time; each extractor
// walks a fixed fallback chain for its content kind and reports not-found
// rather than guessing when the chain is exhausted.
package extract

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNotFound means no embedded code block could be located in the response.
var ErrNotFound = errors.New("no embedded code block found")

var (
	verilogFenceRe = regexp.MustCompile("(?s)```verilog\\s*(.*?)\\s*```")
	verilogTagRe   = regexp.MustCompile(`(?s)<verilog>\s*(.*?)\s*</verilog>`)
	moduleSpanRe   = regexp.MustCompile(`(?s)(module\s+\w+.*?endmodule)`)

	sdcFenceRe = regexp.MustCompile("(?s)```sdc\\s*(.*?)\\s*```")
	sdcTagRe   = regexp.MustCompile(`(?s)<sdc>\s*(.*?)\s*</sdc>`)

	tclFenceRe = regexp.MustCompile("(?s)```tcl\\s*(.*?)\\s*```")
	tclTagRe   = regexp.MustCompile(`(?s)<tcl>\s*(.*?)\s*</tcl>`)

	anyFenceRe = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

func firstMatch(response string, res ...*regexp.Regexp) (string, bool) {
	for _, re := range res {
		if m := re.FindStringSubmatch(response); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Verilog extracts a design from a response: a ```verilog fence, then a
// <verilog> tag pair, then the smallest module..endmodule span. There is no
// whole-response fallback; callers must handle ErrNotFound explicitly.
func Verilog(response string) (string, error) {
	if body, ok := firstMatch(response, verilogFenceRe, verilogTagRe, moduleSpanRe); ok {
		return body, nil
	}
	return "", ErrNotFound
}

// SDC extracts constraint text: a ```sdc fence, then an <sdc> tag pair, then
// any fenced block, then the whole trimmed response. It always yields
// something; constraint responses are frequently unfenced.
func SDC(response string) string {
	if body, ok := firstMatch(response, sdcFenceRe, sdcTagRe, anyFenceRe); ok {
		return body
	}
	return strings.TrimSpace(response)
}

// TCL extracts a run script: a ```tcl fence, then a <tcl> tag pair, then any
// fenced block whose body contains read_verilog. Anything else is ErrNotFound
// so callers can fall back to the default script template.
func TCL(response string) (string, error) {
	if body, ok := firstMatch(response, tclFenceRe, tclTagRe); ok {
		return body, nil
	}
	if m := anyFenceRe.FindStringSubmatch(response); m != nil && strings.Contains(m[1], "read_verilog") {
		return m[1], nil
	}
	return "", ErrNotFound
}
