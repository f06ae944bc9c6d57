package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	dferrors "github.com/feli0x/docfs/internal/errors"
	"github.com/feli0x/docfs/internal/reader"
	"github.com/feli0x/docfs/internal/sandbox"
	"github.com/feli0x/docfs/internal/types"
)

// ListDirectoryParams are the arguments for the list_directory tool.
type ListDirectoryParams struct {
	Path      string `json:"path,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Recursive bool   `json:"recursive,omitempty"`
	// Pointer so an explicit 0 (direct children only) is distinct from
	// omitted.
	MaxDepth      *int `json:"max_depth,omitempty"`
	IncludeHidden bool `json:"include_hidden,omitempty"`
}

// DirectoryTreeParams are the arguments for the directory_tree tool.
type DirectoryTreeParams struct {
	Path          string `json:"path,omitempty"`
	MaxDepth      *int   `json:"max_depth,omitempty"`
	IncludeHidden bool   `json:"include_hidden,omitempty"`
}

// SearchFilesParams are the arguments for the search_files tool.
type SearchFilesParams struct {
	Query         string `json:"query"`
	Path          string `json:"path,omitempty"`
	FilePattern   string `json:"file_pattern,omitempty"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
	WholeWord     bool   `json:"whole_word,omitempty"`
	// Pointers so an explicit 0 is distinct from omitted.
	ContextLines *int `json:"context_lines,omitempty"`
	MaxResults   int  `json:"max_results,omitempty"`
	MaxDepth     *int `json:"max_depth,omitempty"`
}

// ReadFileParams are the arguments for the read_file tool.
type ReadFileParams struct {
	Path        string `json:"path"`
	StartLine   int    `json:"start_line,omitempty"`
	EndLine     int    `json:"end_line,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
	MaxFileSize int64  `json:"max_file_size,omitempty"`
}

// ReadMultipleFilesParams are the arguments for the read_multiple_files tool.
type ReadMultipleFilesParams struct {
	Paths       []string `json:"paths"`
	Encoding    string   `json:"encoding,omitempty"`
	MaxFileSize int64    `json:"max_file_size,omitempty"`
}

// fileResult is one element of a read_multiple_files response. Exactly one
// of Content and Error is populated.
type fileResult struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// resolvePath maps a request path to a validated absolute path inside the
// sandbox. Relative paths are tried against each root in configuration
// order; absolute paths must canonicalize inside a root and exist.
func (s *Server) resolvePath(p string) (string, error) {
	return sandbox.ResolveRelative(p, s.cfg.Roots)
}

// listTargets resolves the optional path parameter for listing tools. An
// omitted path means every configured root.
func (s *Server) listTargets(p string) ([]string, error) {
	if p == "" {
		return s.cfg.Roots, nil
	}
	abs, err := s.resolvePath(p)
	if err != nil {
		return nil, err
	}
	return []string{abs}, nil
}

func (s *Server) handleListDirectory(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ListDirectoryParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("list_directory", fmt.Errorf("invalid parameters: %w", err))
	}

	targets, err := s.listTargets(params.Path)
	if err != nil {
		return createErrorResponse("list_directory", err)
	}

	opts := types.WalkOptions{
		Recursive:     params.Recursive,
		MaxDepth:      depthOrDefault(params.MaxDepth, s.cfg.Limits.MaxDepth),
		IncludeHidden: params.IncludeHidden,
		NamePattern:   params.Pattern,
	}

	entries := make([]types.FileEntry, 0)
	failures := make([]map[string]string, 0)
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			failures = append(failures, map[string]string{
				"path": target, "error": err.Error(),
			})
			continue
		}
		if !info.IsDir() {
			entries = append(entries, types.NewFileEntry(target, info))
			continue
		}
		found, err := s.walker.Walk(target, opts)
		if err != nil {
			failures = append(failures, map[string]string{
				"path": target, "error": err.Error(), "kind": string(dferrors.KindOf(err)),
			})
			continue
		}
		entries = append(entries, found...)
	}
	if len(entries) == 0 && len(failures) == len(targets) && len(targets) > 0 {
		return createErrorResponse("list_directory", dferrors.NewIo("list", targets[0], fmt.Errorf("%s", failures[0]["error"])))
	}
	types.SortEntries(entries)

	response := map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	}
	if len(failures) > 0 {
		response["errors"] = failures
	}
	return createJSONResponse(response)
}

func (s *Server) handleDirectoryTree(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params DirectoryTreeParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("directory_tree", fmt.Errorf("invalid parameters: %w", err))
	}

	targets, err := s.listTargets(params.Path)
	if err != nil {
		return createErrorResponse("directory_tree", err)
	}

	opts := types.TreeOptions{
		MaxDepth:      depthOrDefault(params.MaxDepth, s.cfg.Limits.MaxDepth),
		IncludeHidden: params.IncludeHidden,
	}

	// A multi-root call is a batch: one failing root is reported inline and
	// must not hide the healthy roots' trees.
	trees := make([]*types.DirTreeNode, 0, len(targets))
	failures := make([]map[string]string, 0)
	var firstErr error
	for _, target := range targets {
		node, err := s.walker.Tree(target, opts)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failures = append(failures, map[string]string{
				"path": target, "error": err.Error(), "kind": string(dferrors.KindOf(err)),
			})
			continue
		}
		trees = append(trees, node)
	}
	if len(trees) == 0 && firstErr != nil {
		return createErrorResponse("directory_tree", firstErr)
	}

	if len(trees) == 1 && params.Path != "" {
		return createJSONResponse(trees[0])
	}
	response := map[string]interface{}{"roots": trees}
	if len(failures) > 0 {
		response["errors"] = failures
	}
	return createJSONResponse(response)
}

func (s *Server) handleSearchFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SearchFilesParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("search_files", fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Query == "" {
		return createErrorResponse("search_files", fmt.Errorf("query is required"))
	}

	targets, err := s.listTargets(params.Path)
	if err != nil {
		return createErrorResponse("search_files", err)
	}

	contextLines := s.cfg.Limits.ContextLines
	if params.ContextLines != nil {
		contextLines = clampContextLines(*params.ContextLines, s.cfg.Limits.ContextLines)
	}
	opts := types.SearchOptions{
		Query:         params.Query,
		FilePattern:   params.FilePattern,
		CaseSensitive: params.CaseSensitive,
		WholeWord:     params.WholeWord,
		ContextLines:  contextLines,
		MaxResults:    clampMaxResults(params.MaxResults, s.cfg.Limits.MaxResults),
		MaxDepth:      depthOrDefault(params.MaxDepth, s.cfg.Limits.MaxDepth),
	}

	result, err := s.engine.Search(ctx, targets, opts)
	if err != nil {
		return createErrorResponse("search_files", err)
	}

	return createJSONResponse(map[string]interface{}{
		"matches":       result.Matches,
		"total_matches": result.TotalMatches,
		"showing":       len(result.Matches),
		"truncated":     result.Truncated,
	})
}

func (s *Server) handleReadFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ReadFileParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("read_file", fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Path == "" {
		return createErrorResponse("read_file", fmt.Errorf("path is required"))
	}

	start := floorLine(params.StartLine)
	end := floorLine(params.EndLine)
	if start > 0 && end > 0 && start > end {
		return createErrorResponse("read_file", dferrors.NewInvalidRange(start, end))
	}

	abs, err := s.resolvePath(params.Path)
	if err != nil {
		return createErrorResponse("read_file", err)
	}

	content, err := reader.Read(abs, types.ReadOptions{
		StartLine:   start,
		EndLine:     end,
		Encoding:    params.Encoding,
		MaxFileSize: floorFileSize(params.MaxFileSize, s.cfg.Limits.MaxFileSize),
	})
	if err != nil {
		return createErrorResponse("read_file", err)
	}

	response := map[string]interface{}{
		"path":    abs,
		"content": content,
	}
	if start > 0 || end > 0 {
		response["start_line"] = start
		response["end_line"] = end
	}
	return createJSONResponse(response)
}

func (s *Server) handleReadMultipleFiles(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ReadMultipleFilesParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("read_multiple_files", fmt.Errorf("invalid parameters: %w", err))
	}
	if len(params.Paths) == 0 {
		return createErrorResponse("read_multiple_files", fmt.Errorf("paths is required"))
	}

	opts := types.ReadOptions{
		Encoding:    params.Encoding,
		MaxFileSize: floorFileSize(params.MaxFileSize, s.cfg.Limits.MaxFileSize),
	}

	// Per-file failures are reported inline; one bad path never aborts the
	// batch.
	results := make([]fileResult, 0, len(params.Paths))
	succeeded := 0
	for _, p := range params.Paths {
		abs, err := s.resolvePath(p)
		if err != nil {
			results = append(results, fileResult{
				Path: p, Error: err.Error(), Kind: string(dferrors.KindOf(err)),
			})
			continue
		}
		content, err := reader.Read(abs, opts)
		if err != nil {
			results = append(results, fileResult{
				Path: p, Error: err.Error(), Kind: string(dferrors.KindOf(err)),
			})
			continue
		}
		results = append(results, fileResult{Path: filepath.Clean(abs), Content: content})
		succeeded++
	}

	return createJSONResponse(map[string]interface{}{
		"files":     results,
		"requested": len(params.Paths),
		"succeeded": succeeded,
	})
}
