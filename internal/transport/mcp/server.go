package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	promptsvc "github.com/mliu/prompthub/internal/service/prompt"
)

// Server wraps the mark3labs/mcp-go MCPServer and its StreamableHTTPServer.
// Tools are registered in tools.go; this file only owns the server lifecycle.
type Server struct {
	httpSrv *mcpserver.StreamableHTTPServer
}

// New creates the MCP transport server exposing the prompt library to
// agent tooling.
func New(promptSvc *promptsvc.Service) *Server {
	mcpSrv := mcpserver.NewMCPServer(
		"prompthub",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	RegisterTools(mcpSrv, promptSvc)

	return &Server{httpSrv: mcpserver.NewStreamableHTTPServer(mcpSrv)}
}

// Handler returns an http.Handler that serves the MCP endpoint.
func (s *Server) Handler() http.Handler {
	return s.httpSrv
}
