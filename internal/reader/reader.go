// Package reader returns decoded file content, whole or restricted to an
// inclusive line range. The start>end validity check is a caller concern,
// performed at the request boundary before any content is read.
package reader

import (
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	dferrors "github.com/feli0x/docfs/internal/errors"
	"github.com/feli0x/docfs/internal/types"
)

// Read returns the file's decoded content. A size limit, when set, is
// enforced from the stat result before any bytes are read. With a line
// range, the content is split on line boundaries and the clamped slice
// [start, end) is rejoined with \n.
func Read(path string, opts types.ReadOptions) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", dferrors.NewNotFound(path, nil)
		}
		return "", dferrors.NewIo("stat", path, err)
	}
	if info.IsDir() {
		return "", dferrors.NewIsADirectory(path)
	}
	if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
		return "", dferrors.NewTooLarge(path, info.Size(), opts.MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", dferrors.NewIo("read", path, err)
	}

	content, err := decode(data, opts.Encoding)
	if err != nil {
		return "", dferrors.NewIo("decode", path, err)
	}

	if opts.StartLine > 0 || opts.EndLine > 0 {
		content = sliceLines(content, opts.StartLine, opts.EndLine)
	}
	return content, nil
}

// sliceLines clamps the 1-based inclusive range to the file's bounds:
// start = max(0, startLine-1), end = min(totalLines, endLine or totalLines).
func sliceLines(content string, startLine, endLine int) string {
	lines := strings.Split(content, "\n")

	start := startLine - 1
	if start < 0 {
		start = 0
	}
	end := endLine
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// decode converts raw bytes to a string in the requested encoding.
// UTF-8 (the default) passes through; anything else resolves through the
// IANA/WHATWG name index.
func decode(data []byte, name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		return string(data), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", err
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
