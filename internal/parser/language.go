package parser

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Language identifies a supported source language.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
	LangUnknown    Language = ""
)

// LanguageFromExtension returns the Language for a file extension.
func LanguageFromExtension(ext string) (Language, bool) {
	switch ext {
	case ".go":
		return LangGo, true
	case ".js", ".mjs", ".cjs", ".jsx":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	case ".py", ".pyw", ".ipynb":
		return LangPython, true
	case ".rs":
		return LangRust, true
	case ".java":
		return LangJava, true
	case ".kt", ".kts":
		return LangKotlin, true
	default:
		return LangUnknown, false
	}
}

// enry classifier names mapped to our language identifiers
var enryLanguages = map[string]Language{
	"Go":               LangGo,
	"JavaScript":       LangJavaScript,
	"TypeScript":       LangTypeScript,
	"TSX":              LangTSX,
	"Python":           LangPython,
	"Rust":             LangRust,
	"Java":             LangJava,
	"Kotlin":           LangKotlin,
	"Jupyter Notebook": LangPython,
}

// DetectLanguage identifies the language of a file, preferring content-based
// classification and falling back to the extension.
func DetectLanguage(path string, content []byte) (Language, bool) {
	if name := enry.GetLanguage(filepath.Base(path), content); name != "" {
		if lang, ok := enryLanguages[name]; ok {
			return lang, true
		}
	}
	return LanguageFromExtension(strings.ToLower(filepath.Ext(path)))
}

// IsNotebook reports whether the path is a Jupyter notebook.
func IsNotebook(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".ipynb"
}
