// Package workspace owns the on-disk layout of a design's run directory:
// copied inputs, generated constraint and script files, and the per-iteration
// artifacts of a remediation session. Partial artifacts are left in place on
// failure so a session can be inspected after the fact.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FixesDirName holds the per-iteration designs, logs, and transcripts.
const FixesDirName = "sta_violation_fixes"

// Run is the artifact directory for one design under the runs root.
type Run struct {
	root       string
	dir        string
	designName string
	designBase string
}

// NewRun derives the design name from the design file's basename and creates
// <root>/<design>/.
func NewRun(root, designFile string) (*Run, error) {
	base := filepath.Base(designFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return nil, fmt.Errorf("cannot derive design name from %q", designFile)
	}

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run directory %s: %w", dir, err)
	}

	return &Run{
		root:       root,
		dir:        dir,
		designName: name,
		designBase: base,
	}, nil
}

func (r *Run) Dir() string        { return r.dir }
func (r *Run) DesignName() string { return r.designName }

// DesignPath is the live design file OpenSTA reads; the remediation loop
// rewrites it each iteration.
func (r *Run) DesignPath() string { return filepath.Join(r.dir, r.designBase) }

func (r *Run) SDCPath() string { return filepath.Join(r.dir, r.designName+".sdc") }
func (r *Run) TCLPath() string { return filepath.Join(r.dir, r.designName+".tcl") }

func (r *Run) BestDesignPath() string {
	return filepath.Join(r.dir, r.designName+"_best_fixed_design.v")
}

// ImportDesign copies the source design into the run directory unless a copy
// already exists; an existing copy may hold a previous session's progress.
func (r *Run) ImportDesign(srcPath string) error {
	dst := r.DesignPath()
	if _, err := os.Stat(dst); err == nil {
		return nil
	}
	return copyFile(srcPath, dst)
}

// ImportLiberty copies the library into the run directory as <name>.lib,
// overwriting any previous copy. It returns the in-directory filename, which
// is what prompts and run scripts must reference: OpenSTA runs with the run
// directory as its working directory.
func (r *Run) ImportLiberty(srcPath string) (string, error) {
	base := filepath.Base(srcPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".lib"
	if err := copyFile(srcPath, filepath.Join(r.dir, name)); err != nil {
		return "", err
	}
	return name, nil
}

func (r *Run) WriteSDC(content string) error { return writeFile(r.SDCPath(), content) }
func (r *Run) WriteTCL(content string) error { return writeFile(r.TCLPath(), content) }

func (r *Run) WriteLiveDesign(content string) error {
	return writeFile(r.DesignPath(), content)
}

func (r *Run) WriteVerilogAnalysis(content string) (string, error) {
	path := filepath.Join(r.dir, r.designName+"_verilog_analysis.txt")
	return path, writeFile(path, content)
}

func (r *Run) WriteLibertyAnalysis(content string) (string, error) {
	path := filepath.Join(r.dir, r.designName+"_liberty_analysis.txt")
	return path, writeFile(path, content)
}

func (r *Run) WriteGenerationTranscript(content string) (string, error) {
	path := filepath.Join(r.dir, "sdc_tcl_response.txt")
	return path, writeFile(path, content)
}

func (r *Run) WriteShortenedLiberty(content string) (string, error) {
	path := filepath.Join(r.dir, "liberty_shortened.lib")
	return path, writeFile(path, content)
}

func (r *Run) WriteBestDesign(content string) (string, error) {
	path := r.BestDesignPath()
	return path, writeFile(path, content)
}

// FixesDir is the iteration artifact subdirectory.
func (r *Run) FixesDir() string { return filepath.Join(r.dir, FixesDirName) }

func (r *Run) IterationDesignPath(iteration int) string {
	return filepath.Join(r.FixesDir(), fmt.Sprintf("%s_design_iteration_%d.v", r.designName, iteration))
}

func (r *Run) IterationLogPath(iteration int) string {
	return filepath.Join(r.FixesDir(), fmt.Sprintf("%s_sta_log_iteration_%d.txt", r.designName, iteration))
}

func (r *Run) IterationResponsePath(iteration int) string {
	return filepath.Join(r.FixesDir(), fmt.Sprintf("%s_gemini_response_iteration_%d.txt", r.designName, iteration))
}

func (r *Run) WriteIterationDesign(iteration int, content string) (string, error) {
	path := r.IterationDesignPath(iteration)
	return path, writeFile(path, content)
}

func (r *Run) WriteProposal(iteration int, content string) (string, error) {
	path := r.IterationResponsePath(iteration)
	return path, writeFile(path, content)
}

// ScriptPath is what the STA runner executes.
func (r *Run) ScriptPath() string { return r.TCLPath() }

// HasGeneratedFiles reports whether both the SDC and TCL artifacts exist, in
// which case generation can be skipped.
func (r *Run) HasGeneratedFiles() bool {
	if _, err := os.Stat(r.SDCPath()); err != nil {
		return false
	}
	if _, err := os.Stat(r.TCLPath()); err != nil {
		return false
	}
	return true
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dst, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
