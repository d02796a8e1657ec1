// Package mcp provides an MCP (Model Context Protocol) server exposing hues
// color search as a tool.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/hues/pkg/collection"
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/utils"
)

type Config struct {
	// Manager owns the collections searched by the tools
	Manager *collection.Manager

	// Extractor fingerprints query images
	Extractor *extract.Extractor

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the color search tool.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "hues",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Manager == nil {
			return nil, errors.New("collection manager is required")
		}
		if c.Extractor == nil {
			return nil, errors.New("extractor is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        colorSearchToolName,
			Description: colorSearchDescription,
		}, s.handleColorSearch)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying MCP server, e.g. for in-memory transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}
