package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallLocal invokes a registered tool in-process, bypassing the stdio
// transport. The CLI subcommands and the handler tests go through this
// path, so tool behavior is identical with and without a protocol client.
func (s *Server) CallLocal(ctx context.Context, toolName string, params map[string]interface{}) (string, bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal params: %w", err)
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      toolName,
			Arguments: paramsJSON,
		},
	}

	var result *mcp.CallToolResult
	switch toolName {
	case "list_directory":
		result, err = s.handleListDirectory(ctx, req)
	case "directory_tree":
		result, err = s.handleDirectoryTree(ctx, req)
	case "search_files":
		result, err = s.handleSearchFiles(ctx, req)
	case "read_file":
		result, err = s.handleReadFile(ctx, req)
	case "read_multiple_files":
		result, err = s.handleReadMultipleFiles(ctx, req)
	default:
		return "", false, fmt.Errorf("unknown tool: %s", toolName)
	}
	if err != nil {
		return "", false, err
	}

	if result != nil && len(result.Content) > 0 {
		if textContent, ok := result.Content[0].(*mcp.TextContent); ok {
			return textContent.Text, result.IsError, nil
		}
	}
	return "", false, nil
}
