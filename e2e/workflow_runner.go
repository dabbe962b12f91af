// End-to-end harness: builds stacli, then drives the real binary through
// the whole workflow against a stubbed Gemini endpoint and a fake OpenSTA
// binary. Run with: go run ./e2e
package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	Reset = "\033[0m"
	Green = "\033[32m"
	Red   = "\033[31m"
	Blue  = "\033[34m"
)

var (
	cliBin   string
	tempDir  string
	workDir  string
	runsDir  string
	stateDir string
	staBin   string
	stubURL  string
)

const designFile = `module counter (clk, rst, count);
  input clk, rst;
  output [3:0] count;
  wire n1;
  DFF_X1 count_reg_0 (.CK(clk), .D(n1), .Q(count[0]));
  AND2_X1 u1 (.A1(count[0]), .A2(rst), .ZN(n1));
endmodule
`

const libertyFile = `library (fake) {
  time_unit : "1ns";
  cell (DFF_X1) {
    area : 4.0;
  }
  cell (AND2_X1) {
    area : 1.0;
  }
  cell (AND2_X2) {
    area : 1.5;
  }
  cell (INV_X1) {
    area : 0.5;
  }
}
`

// First STA run reports a setup violation, every later run is clean. The
// marker file lives next to the script so it survives across invocations.
const staScript = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "fake-opensta 2.4.0"
  exit 0
fi
marker="$(dirname "$0")/.sta_ran"
if [ ! -f "$marker" ]; then
  touch "$marker"
  cat <<'EOF'
Startpoint: count_reg_0 (rising edge-triggered flip-flop clocked by clk)
Endpoint: count_reg_0 (rising edge-triggered flip-flop clocked by clk)
Path Group: clk
Path Type: max

   2.42   data arrival time
   2.00   data required time
  -0.42   slack (VIOLATED)

Path Type: min

   0.31   slack (MET)
EOF
else
  cat <<'EOF'
Path Type: max

   0.18   slack (MET)

Path Type: min

   0.31   slack (MET)
EOF
fi
`

const constraintsReply = "Here are the constraints.\n" +
	"```sdc\ncreate_clock -name clk -period 2.0 [get_ports clk]\nset_input_delay 0.2 -clock clk [get_ports rst]\n```\n" +
	"```tcl\nread_liberty fake.lib\nread_verilog counter.v\nlink_design counter\nread_sdc counter.sdc\nreport_checks -path_delay max\nexit\n```\n"

const fixReply = "The AND gate on the critical path is undersized; upsizing it " +
	"reduces the data arrival time.\n" +
	"```verilog\nmodule counter (clk, rst, count);\n  input clk, rst;\n" +
	"  output [3:0] count;\n  wire n1;\n" +
	"  DFF_X1 count_reg_0 (.CK(clk), .D(n1), .Q(count[0]));\n" +
	"  AND2_X2 u1 (.A1(count[0]), .A2(rst), .ZN(n1));\nendmodule\n```\n"

const analysisReply = "The design is a 4-bit counter built from one DFF_X1 " +
	"flip-flop and an AND2_X1 gate. The critical path runs from count_reg_0/CK " +
	"through u1 back to count_reg_0/D."

func main() {
	fmt.Printf("%sStarting workflow e2e suite...%s\n", Blue, Reset)

	var err error
	tempDir, err = os.MkdirTemp("", "stacli-e2e")
	if err != nil {
		fatal("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	workDir = filepath.Join(tempDir, "work")
	runsDir = filepath.Join(tempDir, "runs")
	stateDir = filepath.Join(tempDir, "state")
	for _, dir := range []string{workDir, runsDir, stateDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fatal("Failed to create %s: %v", dir, err)
		}
	}

	staBin = filepath.Join(tempDir, "sta")
	if err := os.WriteFile(staBin, []byte(staScript), 0755); err != nil {
		fatal("Failed to write fake sta: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "counter.v"), []byte(designFile), 0644); err != nil {
		fatal("Failed to write design: %v", err)
	}
	if err := os.WriteFile(filepath.Join(workDir, "fake.lib"), []byte(libertyFile), 0644); err != nil {
		fatal("Failed to write liberty: %v", err)
	}

	shutdown := startGeminiStub()
	defer shutdown()

	cliBin = filepath.Join(tempDir, "stacli")
	fmt.Printf("Building stacli to %s...\n", cliBin)
	buildCmd := exec.Command("go", "build", "-o", cliBin, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		fatal("Build failed:\n%s", out)
	}

	testInitCommand()
	testDoctorCommand()
	testGenerateCommand()
	testFixCommand()
	testSessionsCommand()
	testStatsCommand()
	testExportCommand()

	fmt.Printf("\n%sAll workflow e2e tests passed!%s\n", Green, Reset)
}

// startGeminiStub serves the Gemini wire format on a loopback port,
// picking the canned reply by sniffing the prompt text.
func startGeminiStub() func() {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fatal("Failed to listen: %v", err)
	}
	stubURL = "http://" + ln.Addr().String()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		prompt := ""
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			prompt = req.Contents[0].Parts[0].Text
		}

		text := analysisReply
		switch {
		case strings.Contains(prompt, "fix timing violations"):
			text = fixReply
		case strings.Contains(prompt, "SDC file"):
			text = constraintsReply
		}

		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	return func() { srv.Close() }
}

func testInitCommand() {
	startTest("Init Command")
	out := runCLI("init")
	if !strings.Contains(out, "Wrote stacli.yaml") {
		fatal("Init didn't report writing the config:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(workDir, "stacli.yaml")); err != nil {
		fatal("Init didn't create stacli.yaml: %v", err)
	}
	passTest()
}

func testDoctorCommand() {
	startTest("Doctor Command")
	out := runCLI("doctor")
	if !strings.Contains(out, "stacli doctor") {
		fatal("Doctor banner missing:\n%s", out)
	}
	if !strings.Contains(out, "fake-opensta") {
		fatal("Doctor didn't report the STA version:\n%s", out)
	}
	if !strings.Contains(out, "passed") {
		fatal("Doctor summary missing:\n%s", out)
	}
	passTest()
}

func testGenerateCommand() {
	startTest("Generate Command")
	out := runCLI("generate", "counter.v", "fake.lib", "clock period 2ns")
	if !strings.Contains(out, "Wrote") {
		fatal("Generate didn't report written files:\n%s", out)
	}

	sdc, err := os.ReadFile(filepath.Join(runsDir, "counter", "counter.sdc"))
	if err != nil {
		fatal("SDC not written: %v", err)
	}
	if !strings.Contains(string(sdc), "create_clock") {
		fatal("SDC missing create_clock:\n%s", sdc)
	}

	tcl, err := os.ReadFile(filepath.Join(runsDir, "counter", "counter.tcl"))
	if err != nil {
		fatal("TCL not written: %v", err)
	}
	if !strings.Contains(string(tcl), "read_liberty fake.lib") {
		fatal("TCL missing liberty reference:\n%s", tcl)
	}
	passTest()
}

func testFixCommand() {
	startTest("Fix Command (violation then convergence)")
	out := runCLI("fix", "counter.v", "fake.lib", "clock period 2ns", "--iterations", "3")

	if !strings.Contains(out, "Timing clean") {
		fatal("Fix didn't converge:\n%s", out)
	}

	best, err := os.ReadFile(filepath.Join(runsDir, "counter", "counter_best_fixed_design.v"))
	if err != nil {
		fatal("Best design not written: %v", err)
	}
	if !strings.Contains(string(best), "AND2_X2") {
		fatal("Best design missing the upsized gate:\n%s", best)
	}
	passTest()
}

func testSessionsCommand() {
	startTest("Sessions Command")
	out := runCLI("sessions")
	if !strings.Contains(out, "counter") || !strings.Contains(out, "converged") {
		fatal("Sessions listing missing the fix session:\n%s", out)
	}
	passTest()
}

func testStatsCommand() {
	startTest("Stats Command")
	out := runCLI("stats")
	if !strings.Contains(out, "Convergence rate") {
		fatal("Stats missing convergence rate:\n%s", out)
	}
	passTest()
}

func testExportCommand() {
	startTest("Export Command")
	out := runCLI("export", "--format", "csv")
	if !strings.Contains(out, "id,design,status") {
		fatal("CSV export missing header:\n%s", out)
	}
	if !strings.Contains(out, "counter") {
		fatal("CSV export missing the session row:\n%s", out)
	}
	passTest()
}

func startTest(name string) {
	fmt.Printf("Testing %s... ", name)
}

func passTest() {
	fmt.Println(Green + "PASS" + Reset)
}

func fatal(format string, args ...interface{}) {
	fmt.Printf(Red+"FAIL: "+format+Reset+"\n", args...)
	os.Exit(1)
}

func runCLI(args ...string) string {
	cmd := exec.Command(cliBin, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"GEMINI_API_KEY=e2e-test-key",
		"STACLI_API_BASE_URL="+stubURL,
		"STACLI_STA_PATH="+staBin,
		"STACLI_RUNS_DIR="+runsDir,
		"STACLI_STATE_DIR="+stateDir,
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			fatal("Failed to run %v: %v", args, err)
		}
	}
	return string(out)
}
