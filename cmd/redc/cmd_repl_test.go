package main

import (
	"testing"

	"github.com/redlang/redc/token"
)

func mustScan(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, err := scanAll([]byte(src))
	if err != nil {
		t.Fatalf("scanAll(%q) error: %v", src, err)
	}
	return toks
}

func TestIsInputReadyWaitsOnUnbalancedBrace(t *testing.T) {
	toks := mustScan(t, "if x == 1 {")
	if isInputReady(toks) {
		t.Fatal("expected not ready with an open brace")
	}
}

func TestIsInputReadyAcceptsBalancedSnippet(t *testing.T) {
	toks := mustScan(t, "x := 1;")
	if !isInputReady(toks) {
		t.Fatal("expected ready once the statement is complete")
	}
}

func TestIsInputReadyWaitsOnTrailingOperator(t *testing.T) {
	toks := mustScan(t, "x := 1 +")
	if isInputReady(toks) {
		t.Fatal("expected not ready after a trailing binary operator")
	}
}
