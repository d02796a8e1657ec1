package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apisearch "github.com/papercomputeco/hues/api/search"
)

var (
	colorSearchToolName    = "color_search"
	colorSearchDescription = "Find the images in a hues collection whose dominant colors are closest to a given color. Returns ranked image ids with their color fingerprints and distances (lower is closer)."
)

// ColorSearchInput represents the input arguments for the color_search tool.
type ColorSearchInput struct {
	Collection string `json:"collection" jsonschema:"name of the collection to search"`
	Color      string `json:"color" jsonschema:"query color as #rrggbb, #rgb or r,g,b"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5, negative for all)"`
}

// handleColorSearch processes a color_search request.
func (s *Server) handleColorSearch(ctx context.Context, _ *mcp.CallToolRequest, input ColorSearchInput) (*mcp.CallToolResult, apisearch.Output, error) {
	logger := s.config.Logger

	output, err := apisearch.Search(ctx, s.config.Manager, s.config.Extractor, apisearch.Input{
		Collection: input.Collection,
		Color:      input.Color,
		TopK:       input.TopK,
	}, logger)
	if err != nil {
		logger.Error("MCP color search failed", "error", err)
		return toolError(fmt.Sprintf("Color search failed: %v", err)), emptyOutput(input.Collection), nil
	}

	// Tools returning structured content also return the serialized JSON
	// in a TextContent block for older clients.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), emptyOutput(input.Collection), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *output, nil
}

// emptyOutput satisfies the tool's output schema alongside an error result.
func emptyOutput(collection string) apisearch.Output {
	return apisearch.Output{
		Collection: collection,
		Query:      []apisearch.Color{},
		Results:    []apisearch.Result{},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
