// Package errors defines the typed error taxonomy for the docfs core.
// Every error carries a Kind so transport layers can map failures to a
// stable wire identifier without string matching.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the failure class of a core error.
type Kind string

const (
	KindOutsideSandbox Kind = "outside_sandbox"
	KindNotFound       Kind = "not_found"
	KindIsADirectory   Kind = "is_a_directory"
	KindTooLarge       Kind = "too_large"
	KindInvalidRange   Kind = "invalid_range"
	KindIoFailure      Kind = "io_failure"
)

// OutsideSandboxError reports a path that escapes every configured root.
type OutsideSandboxError struct {
	Path string
}

func NewOutsideSandbox(path string) *OutsideSandboxError {
	return &OutsideSandboxError{Path: path}
}

func (e *OutsideSandboxError) Error() string {
	return fmt.Sprintf("path %s is outside the allowed roots", e.Path)
}

func (e *OutsideSandboxError) Kind() Kind { return KindOutsideSandbox }

// NotFoundError reports a path that could not be resolved. Roots lists the
// directories that were attempted when resolving a relative path.
type NotFoundError struct {
	Path  string
	Roots []string
}

func NewNotFound(path string, roots []string) *NotFoundError {
	return &NotFoundError{Path: path, Roots: roots}
}

func (e *NotFoundError) Error() string {
	if len(e.Roots) > 0 {
		return fmt.Sprintf("path %s not found in any root (tried: %s)", e.Path, strings.Join(e.Roots, ", "))
	}
	return fmt.Sprintf("path %s not found", e.Path)
}

func (e *NotFoundError) Kind() Kind { return KindNotFound }

// IsADirectoryError reports a file read attempted on a directory.
type IsADirectoryError struct {
	Path string
}

func NewIsADirectory(path string) *IsADirectoryError {
	return &IsADirectoryError{Path: path}
}

func (e *IsADirectoryError) Error() string {
	return fmt.Sprintf("%s is a directory, not a file", e.Path)
}

func (e *IsADirectoryError) Kind() Kind { return KindIsADirectory }

// TooLargeError reports a file whose size exceeds the configured maximum.
// Both sizes are reported so the caller can adjust the limit.
type TooLargeError struct {
	Path string
	Size int64
	Max  int64
}

func NewTooLarge(path string, size, max int64) *TooLargeError {
	return &TooLargeError{Path: path, Size: size, Max: max}
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file %s is %d bytes, exceeds maximum of %d bytes", e.Path, e.Size, e.Max)
}

func (e *TooLargeError) Kind() Kind { return KindTooLarge }

// InvalidRangeError reports a line range whose start exceeds its end.
// This is a caller-side check performed before any file content is read.
type InvalidRangeError struct {
	Start int
	End   int
}

func NewInvalidRange(start, end int) *InvalidRangeError {
	return &InvalidRangeError{Start: start, End: end}
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid line range: start %d exceeds end %d", e.Start, e.End)
}

func (e *InvalidRangeError) Kind() Kind { return KindInvalidRange }

// IoError wraps an underlying read/stat/enumeration failure with the
// operation and path for context.
type IoError struct {
	Op         string
	Path       string
	Underlying error
}

func NewIo(op, path string, err error) *IoError {
	return &IoError{Op: op, Path: path, Underlying: err}
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Path, e.Underlying)
}

func (e *IoError) Unwrap() error { return e.Underlying }

func (e *IoError) Kind() Kind { return KindIoFailure }

// kinder is implemented by every error type in this package.
type kinder interface {
	Kind() Kind
}

// KindOf extracts the Kind from an error, walking wrapped chains.
// Unknown errors report KindIoFailure, the catch-all class.
func KindOf(err error) Kind {
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindIoFailure
}

// Is reports whether err (or anything it wraps) has the given kind.
func Is(err error, kind Kind) bool {
	var k kinder
	return errors.As(err, &k) && k.Kind() == kind
}
