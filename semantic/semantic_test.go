package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redlang/redc/lexer"
	"github.com/redlang/redc/parser"
)

func analyzeSrc(t *testing.T, src string) ([]*FuncScope, error) {
	t.Helper()
	prog, err := parser.New(lexer.New([]byte(src))).Parse()
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return Analyze(prog)
}

func TestSlotAssignmentWithResultAndParams(t *testing.T) {
	scopes, err := analyzeSrc(t, "fn add(a, b) int { c := a + b; return c; }")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	scope := scopes[0]
	assert.Equal(t, LocalScope{"a": 1, "b": 2, "c": 3}, scope.Locals)
	assert.Equal(t, 4, scope.NumSlots)
}

func TestSlotAssignmentWithoutResult(t *testing.T) {
	scopes, err := analyzeSrc(t, "fn f(a, b) { c; }")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	scope := scopes[0]
	want := map[string]int{"a": 0, "b": 1, "c": 2}
	for name, slot := range want {
		if got := scope.Locals[name]; got != slot {
			t.Errorf("slot of %q: got %d, want %d", name, got, slot)
		}
	}
}

func TestMissingReturnValueIsRejected(t *testing.T) {
	_, err := analyzeSrc(t, "fn f() int { x := 1; }")
	if err == nil {
		t.Fatal("expected an error for a missing return value")
	}
}

func TestReturnValueInVoidFunctionIsRejected(t *testing.T) {
	_, err := analyzeSrc(t, "fn f() { return 1; }")
	if err == nil {
		t.Fatal("expected an error for an unexpected return value")
	}
}

func TestUndeclaredVariableIsRejected(t *testing.T) {
	_, err := analyzeSrc(t, "fn f() { x = 1; }")
	if err == nil {
		t.Fatal("expected an error for an undeclared variable")
	}
}

func TestRedeclaredVariableIsRejected(t *testing.T) {
	_, err := analyzeSrc(t, "fn f() { x := 1; x := 2; }")
	if err == nil {
		t.Fatal("expected an error for a redeclared variable")
	}
}

func TestInitializerCannotReferenceOwnName(t *testing.T) {
	_, err := analyzeSrc(t, "fn f() { x := x + 1; }")
	if err == nil {
		t.Fatal("expected an error: initializer must not see its own slot")
	}
}

func TestBreakContinueOutsideLoopAreRejected(t *testing.T) {
	t.Run("break", func(t *testing.T) {
		if _, err := analyzeSrc(t, "fn f() { break; }"); err == nil {
			t.Fatal("expected an error for break outside a loop")
		}
	})
	t.Run("continue", func(t *testing.T) {
		if _, err := analyzeSrc(t, "fn f() { continue; }"); err == nil {
			t.Fatal("expected an error for continue outside a loop")
		}
	})
}

func TestBreakContinueInsideLoopAreAccepted(t *testing.T) {
	_, err := analyzeSrc(t, "fn f() { for { break; continue; } }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCallArityMismatchIsRejected(t *testing.T) {
	_, err := analyzeSrc(t, "fn add(a, b) int { return a + b; } fn main() { x := add(1); }")
	if err == nil {
		t.Fatal("expected an error for an arity mismatch")
	}
}

func TestCallToVoidFunctionInExpressionIsRejected(t *testing.T) {
	_, err := analyzeSrc(t, "fn f() { } fn main() int { return f(); }")
	if err == nil {
		t.Fatal("expected an error: callee does not return a value")
	}
}

func TestCallToUndeclaredFunctionIsRejected(t *testing.T) {
	_, err := analyzeSrc(t, "fn main() { ghost(); }")
	if err == nil {
		t.Fatal("expected an error for an undeclared function")
	}
}

func TestFunctionRedeclarationIsRejected(t *testing.T) {
	_, err := analyzeSrc(t, "fn f() { } fn f() { }")
	if err == nil {
		t.Fatal("expected an error for a redeclared function")
	}
}

func TestForwardReferenceIsAccepted(t *testing.T) {
	_, err := analyzeSrc(t, "fn main() { helper(); } fn helper() { }")
	if err != nil {
		t.Fatalf("unexpected error for a forward call reference: %v", err)
	}
}

func TestLogOfUndeclaredVariableIsRejected(t *testing.T) {
	_, err := analyzeSrc(t, "fn f() { log ghost; }")
	if err == nil {
		t.Fatal("expected an error for logging an undeclared variable")
	}
}

func TestLogAndCmdAreAccepted(t *testing.T) {
	_, err := analyzeSrc(t, `fn f() { x := 1; log x; cmd say hi; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
