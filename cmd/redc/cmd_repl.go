package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/redlang/redc/codegen"
	"github.com/redlang/redc/lexer"
	"github.com/redlang/redc/semantic"
	"github.com/redlang/redc/token"
)

type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive session" }
func (*replCmd) Usage() string {
	return `repl:
  Accumulate statements across lines, wrap them in a synthetic main, and
  print the emitted instruction stream as each snippet completes.
`
}
func (*replCmd) SetFlags(*flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		errColor.Printf("💥 readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				buf.Reset()
				continue
			}
			if err == io.EOF {
				return subcommands.ExitSuccess
			}
			errColor.Printf("💥 %v\n", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buf.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		snippet := buf.String()

		tokens, lexErr := scanAll([]byte(snippet))
		if lexErr != nil {
			reportf("lex", lexErr)
			buf.Reset()
			continue
		}
		if !isInputReady(tokens) {
			continue
		}

		rl.SaveHistory(line)
		runSnippet(snippet)
		buf.Reset()
	}
}

// runSnippet wraps snippet as the body of a synthetic `main` and runs it
// through the full pipeline, printing the emitted instructions.
func runSnippet(snippet string) {
	wrapped := "fn main() { " + snippet + " }"

	prog, err := parseSource([]byte(wrapped))
	if err != nil {
		reportf("parse", err)
		return
	}
	scopes, err := semantic.Analyze(prog)
	if err != nil {
		reportf("semantic", err)
		return
	}
	sink := &memSink{}
	if err := codegen.Generate(prog, scopes, sink); err != nil {
		reportf("codegen", err)
		return
	}
	diagColor.Println("----- instructions -----")
	fmt.Print(string(sink.buf))
}

// memSink is a seekable in-memory codegen.Sink: the REPL never needs to
// persist output past the current snippet, but the generator still
// needs true overwrite-in-place to backpatch jump/call addresses, which
// an append-only io.Writer like bytes.Buffer can't provide.
type memSink struct {
	buf []byte
	pos int64
}

func (s *memSink) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *memSink) Tell() (int64, error) { return s.pos, nil }

func (s *memSink) Seek(offset int64) error {
	s.pos = offset
	return nil
}

func scanAll(src []byte) ([]token.Token, error) {
	lx := lexer.New(src)
	var toks []token.Token
	for {
		tok, ok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

// isInputReady reports whether the accumulated tokens form a complete
// snippet: braces balanced, and not ending on a token that obviously
// expects more input. Adapted from the teacher's isInputReady brace
// counting, narrowed to this language's token vocabulary.
func isInputReady(tokens []token.Token) bool {
	balance := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LBRACE:
			balance++
		case token.RBRACE:
			balance--
		}
	}
	if balance > 0 {
		return false
	}
	if len(tokens) == 0 {
		return true
	}

	switch tokens[len(tokens)-1].Type {
	case token.ASSIGN, token.ADD, token.SUB, token.MUL, token.DIV,
		token.EQ, token.NE, token.GT, token.GE, token.LT, token.LE,
		token.AND, token.OR, token.COMMA, token.COLON,
		token.LPAREN, token.LBRACE,
		token.IF, token.ELSE, token.FOR, token.FN, token.RETURN:
		return false
	}
	return true
}
