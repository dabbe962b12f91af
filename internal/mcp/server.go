// Package mcp exposes the timing workflow to MCP clients: report parsing,
// library reduction, design diffing, STA runs, and cached LLM analysis.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewTimingServer creates an MCP server with every stacli tool registered.
func NewTimingServer() *server.MCPServer {
	s := server.NewMCPServer(
		"stacli-timing",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	registerParseReportTool(s)
	registerReduceLibertyTool(s)
	registerDiffDesignsTool(s)
	registerRunSTATool(s)
	registerAnalyzeDesignTool(s)

	return s
}

// Serve starts the MCP server on stdio transport.
func Serve() error {
	s := NewTimingServer()
	return server.ServeStdio(s)
}
