// Package config loads docfs configuration from a .docfs.kdl file with
// environment overrides for the cache tunables. Roots are validated once at
// load time and never change for the lifetime of the process.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/feli0x/docfs/internal/types"
)

// DefaultConfigName is the config file looked up when no path is given.
const DefaultConfigName = ".docfs.kdl"

// Environment variables read once at startup, overriding the file values.
const (
	EnvCacheMaxEntries = "DOCFS_CACHE_MAX_ENTRIES"
	EnvCacheTTLSeconds = "DOCFS_CACHE_TTL_SECONDS"
)

type Config struct {
	Version int
	Roots   []string
	Cache   Cache
	Limits  Limits
}

// Cache holds the two metadata-cache tunables.
type Cache struct {
	MaxEntries int
	TTLSeconds int
}

// Limits holds per-request defaults; requests may lower them but the
// boundary clamps keep them inside the ranges in the types package.
type Limits struct {
	MaxFileSize  int64
	MaxDepth     int
	MaxResults   int
	ContextLines int
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version: 1,
		Cache: Cache{
			MaxEntries: 1000,
			TTLSeconds: 300,
		},
		Limits: Limits{
			MaxFileSize:  types.DefaultMaxFileSize,
			MaxDepth:     types.DefaultMaxDepth,
			MaxResults:   types.DefaultMaxResults,
			ContextLines: types.DefaultContextLines,
		},
	}
}

// Load reads the config file at path (missing file yields defaults),
// applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigName
	}
	content, err := os.ReadFile(path)
	if err == nil {
		if cfg, err = parseKDL(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Validate normalizes the roots to absolute paths and checks that each one
// exists and is a directory. Called once at startup, after CLI overrides.
func (c *Config) Validate() error {
	if len(c.Roots) == 0 {
		return fmt.Errorf("no roots configured: set roots in %s or pass --root", DefaultConfigName)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache max_entries must be at least 1, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.TTLSeconds < 1 {
		return fmt.Errorf("cache ttl_seconds must be at least 1, got %d", c.Cache.TTLSeconds)
	}

	for i, root := range c.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("failed to resolve root %q: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("root %q is not accessible: %w", abs, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root %q is not a directory", abs)
		}
		c.Roots[i] = abs
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvCacheMaxEntries); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.MaxEntries = n
		}
	}
	if v := os.Getenv(EnvCacheTTLSeconds); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.TTLSeconds = n
		}
	}
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "roots":
			cfg.Roots = append(cfg.Roots, collectStringArgs(n)...)
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_entries":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.MaxEntries = v
					}
				case "ttl_seconds":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.TTLSeconds = v
					}
				}
			}
		case "limits":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.MaxFileSize = int64(v)
					} else if s, ok := firstStringArg(cn); ok {
						if size, err := parseSize(s); err == nil {
							cfg.Limits.MaxFileSize = size
						}
					}
				case "max_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.MaxDepth = v
					}
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.MaxResults = v
					}
				case "context_lines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Limits.ContextLines = v
					}
				}
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	// Block form: roots { "/data/docs"; "/data/notes" }
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// parseSize accepts human-friendly sizes like "10mb" or "512kb".
func parseSize(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "gb"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "gb")
	case strings.HasSuffix(s, "mb"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "mb")
	case strings.HasSuffix(s, "kb"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "kb")
	case strings.HasSuffix(s, "b"):
		s = strings.TrimSuffix(s, "b")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return n * multiplier, nil
}
