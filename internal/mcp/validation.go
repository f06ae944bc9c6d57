package mcp

import "github.com/feli0x/docfs/internal/types"

// Boundary clamps for request parameters. The core trusts these ranges, so
// every handler normalizes its inputs here before calling in.

// clampContextLines restricts context_lines to [0, 10]; negative or absent
// values take the configured default.
func clampContextLines(n int, fallback int) int {
	if n < types.MinContextLines {
		return fallback
	}
	if n > types.MaxContextLines {
		return types.MaxContextLines
	}
	return n
}

// clampMaxResults restricts max_results to [1, 1000]; zero or negative
// values take the configured default.
func clampMaxResults(n int, fallback int) int {
	if n < types.MinResults {
		return fallback
	}
	if n > types.MaxResults {
		return types.MaxResults
	}
	return n
}

// floorLine floors a provided 1-based line parameter at 1; zero means the
// parameter was omitted and is passed through.
func floorLine(n int) int {
	if n != 0 && n < 1 {
		return 1
	}
	return n
}

// floorFileSize floors max_file_size at 1024 bytes; zero or negative means
// omitted and takes the configured default.
func floorFileSize(n int64, fallback int64) int64 {
	if n <= 0 {
		return fallback
	}
	if n < types.MinFileSize {
		return types.MinFileSize
	}
	return n
}

// depthOrDefault substitutes the configured depth when the request omits
// max_depth entirely. An explicit 0 is meaningful: direct children only.
func depthOrDefault(n *int, fallback int) int {
	if n == nil {
		return fallback
	}
	if *n < 0 {
		return 0
	}
	return *n
}
