package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/txbooks/locator/internal/locate"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Locator *locate.Locator
}

// NewMCPServer creates an MCP server exposing the locate tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"locator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("locator — searches federal and Texas inmate records and merges the results."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("locate_by_id",
			mcp.WithDescription("Look up an inmate by ID across the configured record sources."),
			mcp.WithString("id", mcp.Description("Inmate number (federal register number or TDCJ number)"), mcp.Required()),
			mcp.WithArray("jurisdictions", mcp.Description("Optional subset of sources to query (Federal, Texas)")),
		),
		mcpLocateByID(deps),
	)

	s.AddTool(
		mcp.NewTool("locate_by_name",
			mcp.WithDescription("Look up inmates by name across the configured record sources."),
			mcp.WithString("first", mcp.Description("First name; empty acts as a wildcard")),
			mcp.WithString("last", mcp.Description("Last name; empty acts as a wildcard")),
			mcp.WithArray("jurisdictions", mcp.Description("Optional subset of sources to query (Federal, Texas)")),
		),
		mcpLocateByName(deps),
	)

	return s
}

func mcpLocateByID(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		opts := locate.QueryOptions{Jurisdictions: jurisdictionArgs(req)}
		result, err := deps.Locator.QueryByID(ctx, id, opts)
		if err != nil {
			return mcpQueryError(err), nil
		}
		return mcpResult(result)
	}
}

func mcpLocateByName(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		first := req.GetString("first", "")
		last := req.GetString("last", "")
		if first == "" && last == "" {
			return mcpError("at least one of first or last is required"), nil
		}

		opts := locate.QueryOptions{Jurisdictions: jurisdictionArgs(req)}
		result, err := deps.Locator.QueryByName(ctx, first, last, opts)
		if err != nil {
			return mcpQueryError(err), nil
		}
		return mcpResult(result)
	}
}

func jurisdictionArgs(req mcp.CallToolRequest) []locate.Jurisdiction {
	raw := req.GetStringSlice("jurisdictions", nil)
	out := make([]locate.Jurisdiction, len(raw))
	for i, j := range raw {
		out[i] = locate.Jurisdiction(j)
	}
	return out
}

func mcpQueryError(err error) *mcp.CallToolResult {
	if errors.Is(err, locate.ErrInvalidID) || errors.Is(err, locate.ErrUnknownJurisdiction) {
		return mcpError(err.Error())
	}
	return mcpError(fmt.Sprintf("query failed: %v", err))
}

func mcpResult(result locate.Result) (*mcp.CallToolResult, error) {
	if result.Records == nil {
		result.Records = []locate.Record{}
	}
	if result.Errors == nil {
		result.Errors = []locate.QueryError{}
	}
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
