// Package mcp exposes the sandboxed filesystem over the Model Context
// Protocol. Five read-only tools are registered: list_directory,
// directory_tree, search_files, read_file, read_multiple_files.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/feli0x/docfs/internal/cache"
	"github.com/feli0x/docfs/internal/config"
	"github.com/feli0x/docfs/internal/ignore"
	"github.com/feli0x/docfs/internal/search"
	"github.com/feli0x/docfs/internal/version"
	"github.com/feli0x/docfs/internal/walker"
)

// Server wires the filesystem core to the MCP transport.
type Server struct {
	cfg      *config.Config
	metadata *cache.MetadataCache
	ignores  *ignore.Registry
	walker   *walker.Walker
	engine   *search.Engine
	server   *mcp.Server
	diag     *DiagnosticLogger
}

// NewServer builds a server from a validated configuration. isMCP selects
// file-based diagnostics (stdio must stay clean) over stderr.
func NewServer(cfg *config.Config, isMCP bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("at least one root is required")
	}

	diag := NewDiagnosticLogger(isMCP)
	metadata := cache.New(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	ignores := ignore.NewRegistry()
	w := walker.New(metadata, ignores, diag)

	s := &Server{
		cfg:      cfg,
		metadata: metadata,
		ignores:  ignores,
		walker:   w,
		engine:   search.NewEngine(w, diag),
		diag:     diag,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "docfs",
		Version: version.Version,
	}, nil)
	s.registerTools()

	return s, nil
}

// Run serves MCP over stdio until the context is canceled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.diag.Printf("serving %d root(s): %v", len(s.cfg.Roots), s.cfg.Roots)
	defer s.diag.Printf("server stopped")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases the diagnostic log file.
func (s *Server) Close() error {
	return s.diag.Close()
}

// CacheStats exposes metadata cache counters for the CLI stats output.
func (s *Server) CacheStats() cache.Stats {
	return s.metadata.Stats()
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "list_directory",
		Description: "List files and directories under a sandboxed path. Omit path to list every configured root. Supports recursion, depth limits, hidden-file inclusion, and case-insensitive glob filtering of file names.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path":           {Type: "string", Description: "Absolute or root-relative directory path. Omit for all roots."},
				"pattern":        {Type: "string", Description: "Case-insensitive glob applied to file names, for example *.md. Directories are never filtered."},
				"recursive":      {Type: "boolean", Description: "Descend into subdirectories."},
				"max_depth":      {Type: "integer", Description: "Maximum recursion depth. 0 means direct children only."},
				"include_hidden": {Type: "boolean", Description: "Include dot-prefixed entries."},
			},
		},
	}, s.handleListDirectory)

	s.server.AddTool(&mcp.Tool{
		Name:        "directory_tree",
		Description: "Return a nested tree of directories and files under a sandboxed path, depth-limited and sorted with directories first.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path":           {Type: "string", Description: "Absolute or root-relative directory path. Omit for all roots."},
				"max_depth":      {Type: "integer", Description: "Maximum tree depth below the starting directory."},
				"include_hidden": {Type: "boolean", Description: "Include dot-prefixed entries."},
			},
		},
	}, s.handleDirectoryTree)

	s.server.AddTool(&mcp.Tool{
		Name:        "search_files",
		Description: "Search text file contents for a literal query with optional case sensitivity, whole-word matching, context lines, and a file name glob. Binary files and ignore-listed paths are skipped.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":          {Type: "string", Description: "Literal text to find. Regex metacharacters are matched literally."},
				"path":           {Type: "string", Description: "Restrict the search to this directory. Omit for all roots."},
				"file_pattern":   {Type: "string", Description: "Case-insensitive glob applied to file names, for example *.txt."},
				"case_sensitive": {Type: "boolean", Description: "Match case exactly. Default is case-insensitive."},
				"whole_word":     {Type: "boolean", Description: "Match only at word boundaries."},
				"context_lines":  {Type: "integer", Description: "Lines of context before and after each match, 0 to 10."},
				"max_results":    {Type: "integer", Description: "Maximum matches returned, 1 to 1000."},
				"max_depth":      {Type: "integer", Description: "Maximum directory recursion depth."},
			},
			Required: []string{"query"},
		},
	}, s.handleSearchFiles)

	s.server.AddTool(&mcp.Tool{
		Name:        "read_file",
		Description: "Read a text file inside the sandbox, whole or restricted to an inclusive 1-based line range, with optional character encoding and size limit.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path":          {Type: "string", Description: "Absolute or root-relative file path."},
				"start_line":    {Type: "integer", Description: "First line to return, 1-based inclusive."},
				"end_line":      {Type: "integer", Description: "Last line to return, 1-based inclusive."},
				"encoding":      {Type: "string", Description: "Character encoding name, for example utf-8 or latin1. Default utf-8."},
				"max_file_size": {Type: "integer", Description: "Reject files larger than this many bytes. Minimum 1024."},
			},
			Required: []string{"path"},
		},
	}, s.handleReadFile)

	s.server.AddTool(&mcp.Tool{
		Name:        "read_multiple_files",
		Description: "Read several files in one call. Each file succeeds or fails independently; failures are reported per file and never abort the batch.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"paths": {
					Type:        "array",
					Description: "Absolute or root-relative file paths.",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"encoding":      {Type: "string", Description: "Character encoding applied to every file. Default utf-8."},
				"max_file_size": {Type: "integer", Description: "Reject files larger than this many bytes. Minimum 1024."},
			},
			Required: []string{"paths"},
		},
	}, s.handleReadMultipleFiles)
}
