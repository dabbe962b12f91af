package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stacli/internal/config"
	"stacli/internal/liberty"
	"stacli/internal/llm"
	"stacli/internal/prompt"
	"stacli/internal/sta"
	"stacli/internal/timing"
	"stacli/internal/verilog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// analysisCache persists across tool calls for the lifetime of the server
// process, so repeated analyze_design calls on the same design are free.
var analysisCache = llm.NewAnalysisCache(50)

// registerParseReportTool adds the parse_timing_report tool to the server.
func registerParseReportTool(s *server.MCPServer) {
	tool := mcp.NewTool("parse_timing_report",
		mcp.WithDescription("Parse an OpenSTA timing report into worst setup/hold slack and violation counts. Accepts raw report text or a path to a log file."),
		mcp.WithString("report",
			mcp.Description("Raw report text to parse"),
		),
		mcp.WithString("report_path",
			mcp.Description("Path to a report or log file (used when report is not given)"),
		),
	)

	s.AddTool(tool, parseReportHandler)
}

func parseReportHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	report := ""
	if r, ok := args["report"].(string); ok {
		report = r
	}
	if report == "" {
		if p, ok := args["report_path"].(string); ok && p != "" {
			data, err := os.ReadFile(p)
			if err != nil {
				return mcp.NewToolResultError("failed to read report: " + err.Error()), nil
			}
			report = string(data)
		}
	}
	if report == "" {
		return mcp.NewToolResultError("either report or report_path is required"), nil
	}

	snap := timing.Parse(report)

	result := map[string]interface{}{
		"worst_setup_slack": snap.WorstSetupSlack,
		"worst_hold_slack":  snap.WorstHoldSlack,
		"has_violations":    snap.HasViolations,
		"setup_violations":  len(snap.SetupPaths),
		"hold_violations":   len(snap.HoldPaths),
	}
	jsonResult, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

// registerReduceLibertyTool adds the reduce_liberty tool to the server.
func registerReduceLibertyTool(s *server.MCPServer) {
	tool := mcp.NewTool("reduce_liberty",
		mcp.WithDescription("Shrink a liberty library to the cells a Verilog design instantiates. Large libraries overwhelm LLM context windows; the reduced text keeps only the needed cell groups plus the library header."),
		mcp.WithString("liberty_path",
			mcp.Required(),
			mcp.Description("Path to the .lib file"),
		),
		mcp.WithString("design_path",
			mcp.Description("Path to the Verilog design whose cells should be kept"),
		),
		mcp.WithString("cells",
			mcp.Description("Comma-separated cell names to keep (used when design_path is not given)"),
		),
		mcp.WithString("output_path",
			mcp.Description("Write the reduced library here instead of returning it"),
		),
	)

	s.AddTool(tool, reduceLibertyHandler)
}

func reduceLibertyHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	libPath := ""
	if p, ok := args["liberty_path"].(string); ok {
		libPath = p
	}
	if libPath == "" {
		return mcp.NewToolResultError("liberty_path is required"), nil
	}

	libData, err := os.ReadFile(libPath)
	if err != nil {
		return mcp.NewToolResultError("failed to read liberty file: " + err.Error()), nil
	}
	library := string(libData)

	var reduced string
	switch {
	case hasString(args, "design_path"):
		designData, err := os.ReadFile(args["design_path"].(string))
		if err != nil {
			return mcp.NewToolResultError("failed to read design: " + err.Error()), nil
		}
		reduced = liberty.MinimalForDesign(string(designData), library)

	case hasString(args, "cells"):
		var cells []string
		for _, c := range strings.Split(args["cells"].(string), ",") {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}
		reduced = liberty.Reduce(library, cells)

	default:
		return mcp.NewToolResultError("either design_path or cells is required"), nil
	}

	if out, ok := args["output_path"].(string); ok && out != "" {
		if err := os.WriteFile(out, []byte(reduced), 0o644); err != nil {
			return mcp.NewToolResultError("failed to write reduced library: " + err.Error()), nil
		}
		result := map[string]interface{}{
			"output_path":    out,
			"original_bytes": len(library),
			"reduced_bytes":  len(reduced),
		}
		jsonResult, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(jsonResult)), nil
	}

	return mcp.NewToolResultText(reduced), nil
}

// registerDiffDesignsTool adds the diff_designs tool to the server.
func registerDiffDesignsTool(s *server.MCPServer) {
	tool := mcp.NewTool("diff_designs",
		mcp.WithDescription("Summarize cell-level differences between two Verilog netlists: drive strength changes, added and removed instances."),
		mcp.WithString("before_path",
			mcp.Required(),
			mcp.Description("Path to the original netlist"),
		),
		mcp.WithString("after_path",
			mcp.Required(),
			mcp.Description("Path to the modified netlist"),
		),
	)

	s.AddTool(tool, diffDesignsHandler)
}

func diffDesignsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	before, err := readStringArg(args, "before_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	after, err := readStringArg(args, "after_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary := verilog.SummarizeChanges(before, after)
	return mcp.NewToolResultText(summary), nil
}

// registerRunSTATool adds the run_sta tool to the server.
func registerRunSTATool(s *server.MCPServer) {
	tool := mcp.NewTool("run_sta",
		mcp.WithDescription("Run OpenSTA on a TCL script and return the exit code plus the parsed timing snapshot. The full log is written next to the script."),
		mcp.WithString("script_path",
			mcp.Required(),
			mcp.Description("Path to the TCL script; sta runs in its directory"),
		),
		mcp.WithNumber("timeout_seconds",
			mcp.Description("Run timeout in seconds (default: 120)"),
		),
	)

	s.AddTool(tool, runSTAHandler)
}

func runSTAHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	scriptPath := ""
	if p, ok := args["script_path"].(string); ok {
		scriptPath = p
	}
	if scriptPath == "" {
		return mcp.NewToolResultError("script_path is required"), nil
	}

	timeout := sta.DefaultTimeout
	if t, ok := args["timeout_seconds"].(float64); ok && t > 0 {
		timeout = time.Duration(t * float64(time.Second))
	}

	cfg, err := config.Load()
	if err != nil {
		return mcp.NewToolResultError("failed to load config: " + err.Error()), nil
	}

	runner := &sta.Runner{Path: cfg.STAPath, Timeout: timeout}
	logPath := strings.TrimSuffix(scriptPath, filepath.Ext(scriptPath)) + ".log"

	res, err := runner.Run(ctx, scriptPath, logPath)
	if err != nil {
		return mcp.NewToolResultError("sta run failed: " + err.Error()), nil
	}

	snap := timing.Parse(res.Log)
	result := map[string]interface{}{
		"exit_code":         res.ExitCode,
		"log_path":          logPath,
		"duration_ms":       res.Duration.Milliseconds(),
		"worst_setup_slack": snap.WorstSetupSlack,
		"worst_hold_slack":  snap.WorstHoldSlack,
		"has_violations":    snap.HasViolations,
		"log_tail":          tail(res.Log, 4000),
	}
	jsonResult, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonResult)), nil
}

// registerAnalyzeDesignTool adds the analyze_design tool to the server.
func registerAnalyzeDesignTool(s *server.MCPServer) {
	tool := mcp.NewTool("analyze_design",
		mcp.WithDescription("Ask the LLM for a timing-focused analysis of a Verilog design: critical path, clock inference, and optimization opportunities. Responses are cached per design."),
		mcp.WithString("design_path",
			mcp.Required(),
			mcp.Description("Path to the Verilog design"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Skip the cache and ask the model again"),
		),
	)

	s.AddTool(tool, analyzeDesignHandler)
}

func analyzeDesignHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	design, err := readStringArg(args, "design_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	refresh := false
	if r, ok := args["refresh"].(bool); ok {
		refresh = r
	}

	signature := llm.Signature("design-analysis", design)
	if !refresh {
		if cached := analysisCache.Get(signature); cached != nil {
			return mcp.NewToolResultText(cached.Response), nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return mcp.NewToolResultError("failed to load config: " + err.Error()), nil
	}
	client := llm.NewGeminiClient(cfg)
	if client == nil {
		return mcp.NewToolResultError("no API key configured; set GEMINI_API_KEY"), nil
	}

	response := client.Query(ctx, prompt.DesignAnalysis(design))
	if llm.IsErrorText(response) {
		return mcp.NewToolResultError(response), nil
	}

	analysisCache.Put(signature, response)
	return mcp.NewToolResultText(response), nil
}

func hasString(args map[string]interface{}, key string) bool {
	v, ok := args[key].(string)
	return ok && v != ""
}

func readStringArg(args map[string]interface{}, key string) (string, error) {
	path, ok := args[key].(string)
	if !ok || path == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %s", key, err)
	}
	return string(data), nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
