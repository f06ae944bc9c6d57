// Package version holds the single source of truth for the docfs version.
package version

// Version is the current docfs release version.
// Update here and nowhere else; cmd and MCP server both read it.
const Version = "0.2.1"
