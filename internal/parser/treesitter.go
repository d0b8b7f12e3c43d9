//go:build cgo

package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TreeSitterParser parses source files with tree-sitter grammars.
type TreeSitterParser struct{}

// NewTreeSitterParser creates a tree-sitter backed parser.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{}
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return true
}

// Parse parses source and converts the tree-sitter AST into the neutral
// Tree form. A fresh sitter parser is used per call; sitter parsers are not
// safe for concurrent use and the pipeline parses from many workers.
func (p *TreeSitterParser) Parse(ctx context.Context, source []byte, lang Language) (*Tree, error) {
	tsLang, err := sitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	sp := sitter.NewParser()
	sp.SetLanguage(tsLang)

	tree, err := sp.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}

	root := tree.RootNode()
	return &Tree{
		Language: lang,
		Root:     convertNode(root, "", source),
		HasError: root.HasError(),
	}, nil
}

// convertNode recursively converts a sitter node. All children are kept,
// including anonymous tokens, because keywords like "async" only appear as
// anonymous nodes.
func convertNode(n *sitter.Node, field string, source []byte) *Node {
	node := &Node{
		Type:      n.Type(),
		Field:     field,
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
	}

	if n.EndByte()-n.StartByte() <= maxNodeTextBytes {
		node.Text = n.Content(source)
	}

	count := int(n.ChildCount())
	if count > 0 {
		node.Children = make([]*Node, 0, count)
		for i := 0; i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			node.Children = append(node.Children, convertNode(child, n.FieldNameForChild(i), source))
		}
	}

	return node
}

func sitterLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangGo:
		return golang.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangTypeScript:
		return typescript.GetLanguage(), nil
	case LangTSX:
		return tsx.GetLanguage(), nil
	case LangPython:
		return python.GetLanguage(), nil
	case LangRust:
		return rust.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangKotlin:
		return kotlin.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}
