// Command docfs serves a sandboxed, read-only view of configured directory
// roots over the Model Context Protocol, and exposes the same operations as
// CLI subcommands for scripting and debugging.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/feli0x/docfs/internal/config"
	docmcp "github.com/feli0x/docfs/internal/mcp"
	"github.com/feli0x/docfs/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "docfs",
		Usage:   "sandboxed read-only filesystem access for AI assistants",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the .docfs.kdl configuration file",
			},
			&cli.StringSliceFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "sandbox root directory, repeatable, overrides the config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "serve MCP over stdio",
				Action: runServe,
			},
			{
				Name:      "list",
				Usage:     "list a directory",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "recursive", Usage: "descend into subdirectories"},
					&cli.IntFlag{Name: "max-depth", Usage: "maximum recursion depth"},
					&cli.BoolFlag{Name: "hidden", Usage: "include dot-prefixed entries"},
					&cli.StringFlag{Name: "pattern", Usage: "case-insensitive file name glob"},
				},
				Action: runList,
			},
			{
				Name:      "tree",
				Usage:     "print a directory tree",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-depth", Usage: "maximum tree depth"},
					&cli.BoolFlag{Name: "hidden", Usage: "include dot-prefixed entries"},
				},
				Action: runTree,
			},
			{
				Name:      "search",
				Usage:     "search file contents for a literal query",
				ArgsUsage: "<query> [path]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file-pattern", Usage: "case-insensitive file name glob"},
					&cli.BoolFlag{Name: "case-sensitive", Usage: "match case exactly"},
					&cli.BoolFlag{Name: "whole-word", Usage: "match at word boundaries only"},
					&cli.IntFlag{Name: "context", Value: 2, Usage: "context lines before and after"},
					&cli.IntFlag{Name: "max-results", Value: 100, Usage: "maximum matches"},
				},
				Action: runSearch,
			},
			{
				Name:      "read",
				Usage:     "print file content, optionally a line range",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "start", Usage: "first line, 1-based inclusive"},
					&cli.IntFlag{Name: "end", Usage: "last line, 1-based inclusive"},
					&cli.StringFlag{Name: "encoding", Usage: "character encoding, default utf-8"},
				},
				Action: runRead,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "docfs: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges the config file with --root overrides and validates.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if roots := c.StringSlice("root"); len(roots) > 0 {
		cfg.Roots = roots
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	srv, err := docmcp.NewServer(cfg, true)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

func runList(c *cli.Context) error {
	args := map[string]interface{}{
		"path":           c.Args().First(),
		"recursive":      c.Bool("recursive"),
		"include_hidden": c.Bool("hidden"),
		"pattern":        c.String("pattern"),
	}
	// Explicit 0 means direct children only; only forward the flag when the
	// user actually set it.
	if c.IsSet("max-depth") {
		args["max_depth"] = c.Int("max-depth")
	}
	return runTool(c, "list_directory", args)
}

func runTree(c *cli.Context) error {
	args := map[string]interface{}{
		"path":           c.Args().First(),
		"include_hidden": c.Bool("hidden"),
	}
	if c.IsSet("max-depth") {
		args["max_depth"] = c.Int("max-depth")
	}
	return runTool(c, "directory_tree", args)
}

func runSearch(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("usage: docfs search <query> [path]")
	}
	return runTool(c, "search_files", map[string]interface{}{
		"query":          c.Args().Get(0),
		"path":           c.Args().Get(1),
		"file_pattern":   c.String("file-pattern"),
		"case_sensitive": c.Bool("case-sensitive"),
		"whole_word":     c.Bool("whole-word"),
		"context_lines":  c.Int("context"),
		"max_results":    c.Int("max-results"),
	})
}

func runRead(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return fmt.Errorf("usage: docfs read <path>")
	}
	return runTool(c, "read_file", map[string]interface{}{
		"path":       c.Args().First(),
		"start_line": c.Int("start"),
		"end_line":   c.Int("end"),
		"encoding":   c.String("encoding"),
	})
}

// runTool executes one MCP tool in-process and prints its JSON payload.
// The CLI subcommands are thin shims over the same handlers the protocol
// uses, so their behavior cannot drift.
func runTool(c *cli.Context, name string, args map[string]interface{}) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	srv, err := docmcp.NewServer(cfg, false)
	if err != nil {
		return err
	}
	defer srv.Close()

	payload, isErr, err := srv.CallLocal(c.Context, name, args)
	if err != nil {
		return err
	}

	var pretty json.RawMessage = []byte(payload)
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		out = []byte(payload)
	}
	fmt.Println(string(out))
	if isErr {
		return cli.Exit("", 1)
	}
	return nil
}
