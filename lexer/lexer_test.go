package lexer

import (
	"testing"

	"github.com/redlang/redc/token"
)

func collectNext(t *testing.T, src string) []token.Token {
	t.Helper()
	lx := New([]byte(src))
	var got []token.Token
	for {
		tok, ok, err := lx.Next()
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, tok)
	}
	return got
}

func TestTokenSequence(t *testing.T) {
	src := "num1 = 324;\nnum2 =    345;\nnum3=4;\nnum3 = num1 == num2;\nfn some()"
	want := []token.Type{
		token.IDENT, token.ASSIGN, token.INT, token.SEMI,
		token.IDENT, token.ASSIGN, token.INT, token.SEMI,
		token.IDENT, token.ASSIGN, token.INT, token.SEMI,
		token.IDENT, token.ASSIGN, token.IDENT, token.EQ, token.IDENT, token.SEMI,
		token.FN, token.IDENT, token.LPAREN, token.RPAREN,
	}

	got := collectNext(t, src)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i, typ := range want {
		if got[i].Type != typ {
			t.Errorf("token %d: got %s, want %s", i, got[i].Type, typ)
		}
	}
}

func TestTwoCharOperatorsNeverSplit(t *testing.T) {
	got := collectNext(t, "==")
	if len(got) != 1 || got[0].Type != token.EQ {
		t.Fatalf("`==` must lex as one EQ token, got %v", got)
	}
}

func TestPeekIsIdempotent(t *testing.T) {
	lx := New([]byte("a b"))
	p1, ok1, err := lx.Peek()
	if err != nil || !ok1 {
		t.Fatalf("unexpected peek failure: %v", err)
	}
	p2, ok2, err := lx.Peek()
	if err != nil || !ok2 {
		t.Fatalf("unexpected peek failure: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("repeated Peek returned different tokens: %v != %v", p1, p2)
	}

	n1, _, err := lx.Next()
	if err != nil || n1 != p1 {
		t.Fatalf("Next() after Peek() must return the peeked token, got %v want %v", n1, p1)
	}

	n2, _, err := lx.Next()
	if err != nil {
		t.Fatalf("unexpected next failure: %v", err)
	}
	if n2 == n1 {
		t.Fatalf("Next() after consuming the peeked token must advance")
	}
}

func TestIntegerOverflowIsLexicalError(t *testing.T) {
	lx := New([]byte("123412341234123412341234"))
	if _, _, err := lx.Next(); err == nil {
		t.Fatal("expected a lexical error for an out-of-range integer literal")
	}
}

func TestUndefinedTokenIsLexicalError(t *testing.T) {
	lx := New([]byte("@"))
	if _, _, err := lx.Next(); err == nil {
		t.Fatal("expected a lexical error for an undefined token")
	}
}

func TestRawUntilSemicolon(t *testing.T) {
	lx := New([]byte(`cmd say hello world;`))
	ident, err := lx.ExpectIdent()
	if err != nil || ident != "cmd" {
		t.Fatalf("expected identifier `cmd`, got %q err=%v", ident, err)
	}
	raw, err := lx.RawUntilSemicolon()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != "say hello world" {
		t.Fatalf("got raw text %q", raw)
	}
	if err := lx.ExpectPunct(token.SEMI); err != nil {
		t.Fatalf("expected trailing semicolon to still be consumable: %v", err)
	}
}
