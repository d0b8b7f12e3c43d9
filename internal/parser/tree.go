// Package parser defines the parse boundary: source bytes in, a neutral
// parse tree out. Fact extraction consumes these trees as pure functions, so
// the tree-sitter dependency stays confined to this package.
package parser

import "context"

// maxNodeTextBytes caps how much source text is copied onto a node.
// Extraction only needs identifiers, literals, and comments; large composite
// spans stay empty.
const maxNodeTextBytes = 512

// Node is one node of a language-neutral parse tree. Line numbers are
// 1-indexed.
type Node struct {
	Type      string  `json:"type"`
	Field     string  `json:"field,omitempty"` // grammar field name in the parent, if any
	StartLine int     `json:"startLine"`
	EndLine   int     `json:"endLine"`
	Text      string  `json:"text,omitempty"` // source text for short spans only
	Children  []*Node `json:"children,omitempty"`
}

// Tree is the parse result for one file.
type Tree struct {
	Language Language `json:"language"`
	Root     *Node    `json:"root"`
	HasError bool     `json:"hasError"` // the grammar recovered over malformed regions
}

// Parser converts source bytes into a Tree. Implementations must honor the
// context for cancellation.
type Parser interface {
	Parse(ctx context.Context, source []byte, lang Language) (*Tree, error)
}

// ChildByField returns the first child carrying the given grammar field name.
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// FirstChildOfType returns the first direct child of the given type.
func (n *Node) FirstChildOfType(nodeType string) *Node {
	for _, c := range n.Children {
		if c.Type == nodeType {
			return c
		}
	}
	return nil
}

// Walk visits n and all descendants depth-first. Returning false from fn
// prunes the subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FindAll returns every descendant (including n itself) whose type is in the
// given set, in depth-first order.
func (n *Node) FindAll(types map[string]bool) []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if types[node.Type] {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Lines returns the number of source lines the node spans.
func (n *Node) Lines() int {
	return n.EndLine - n.StartLine + 1
}
