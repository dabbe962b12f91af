package cmd

import (
	"fmt"
	"os"

	"stacli/internal/mcp"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve timing tools over the Model Context Protocol",
	Long: `Start an MCP server on stdio that exposes the timing workflow to
MCP-compatible agents and editors.

Tools:
  - parse_timing_report   worst slacks and violations from an STA log
  - reduce_liberty        strip a library down to a design's cells
  - diff_designs          summarize changes between two netlists
  - run_sta               execute a run script through OpenSTA
  - analyze_design        cached LLM analysis of a netlist

Client configuration:
  {
    "mcpServers": {
      "stacli": {"command": "stacli", "args": ["mcp"]}
    }
  }`,
	Example: `  # Start the server (stdio transport)
  stacli mcp

  # Exercise it by hand
  echo '{"jsonrpc":"2.0","method":"tools/list","id":1}' | stacli mcp`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := mcp.Serve(); err != nil {
			fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
