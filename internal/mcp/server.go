// Package mcp exposes the growth engine to MCP clients over stdio, so an
// agent can drive the analyze/execute pipeline as tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/sporefield/mycelium/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server around a growth engine.
type Server struct {
	engine *engine.Engine
	mcp    *server.MCPServer
}

// NewServer creates an MCP server exposing the given engine.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{engine: eng}

	s.mcp = server.NewMCPServer(
		"mycelium",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(submitInputTool, s.handleSubmitInput)
	s.mcp.AddTool(selectSuggestionTool, s.handleSelectSuggestion)
	s.mcp.AddTool(getStateTool, s.handleGetState)
	s.mcp.AddTool(getConversationTool, s.handleGetConversation)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
