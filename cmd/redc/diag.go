package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/redlang/redc/ast"
	"github.com/redlang/redc/lexer"
	"github.com/redlang/redc/parser"
)

var (
	errColor  = color.New(color.FgRed)
	diagColor = color.New(color.FgYellow)
)

// reportf prints a stage-tagged, colorized failure to stderr. Every
// stage error (lexer.Error, parser.SyntaxError, semantic.Error) already
// carries its own `row:col:` prefix via Error(), so stage just labels
// which pass produced it.
func reportf(stage string, err error) {
	errColor.Fprintf(os.Stderr, "💥 %s: %v\n", stage, err)
}

// parseSource runs the lexer and parser over src, returning the AST or
// the first stage error encountered. It does not run semantic analysis:
// callers that need slot information call semantic.Analyze themselves.
func parseSource(src []byte) (*ast.Program, error) {
	return parser.New(lexer.New(src)).Parse()
}

func readSourceFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
