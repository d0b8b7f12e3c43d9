//go:build !cgo

package parser

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when parsing is unavailable because tree-sitter
// requires CGO.
var ErrNoCGO = errors.New("parsing requires CGO (tree-sitter)")

// TreeSitterParser is a stub for non-CGO builds.
type TreeSitterParser struct{}

// NewTreeSitterParser creates a stub parser for non-CGO builds.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{}
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return false
}

// Parse always fails on non-CGO builds. The pipeline records the failure in
// the per-file result; it never aborts a run.
func (p *TreeSitterParser) Parse(ctx context.Context, source []byte, lang Language) (*Tree, error) {
	return nil, ErrNoCGO
}
