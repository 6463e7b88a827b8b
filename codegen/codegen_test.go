package codegen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/redlang/redc/lexer"
	"github.com/redlang/redc/parser"
	"github.com/redlang/redc/semantic"
)

// memSink is a seekable in-memory Sink, standing in for the datapack
// output file in tests: Write overwrites in place from the current
// cursor and extends the buffer when writing past its end, exactly
// like a file opened for read-write.
type memSink struct {
	buf []byte
	pos int64
}

func (m *memSink) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memSink) Tell() (int64, error) { return m.pos, nil }

func (m *memSink) Seek(offset int64) error {
	m.pos = offset
	return nil
}

func compileSrc(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.New(lexer.New([]byte(src))).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	scopes, err := semantic.Analyze(prog)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	sink := &memSink{}
	if err := Generate(prog, scopes, sink); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	return string(sink.buf)
}

func instructionLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "data modify storage redvm insts append value '") {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestNoPlaceholderDigitsSurvive(t *testing.T) {
	out := compileSrc(t, `
		fn add(a, b) int { return a + b; }
		fn main() int {
			x := 0;
			for x < 10 {
				x = x + 1;
			}
			if x == 10 {
				log x;
			} else if x == 0 {
				cmd say never;
			} else {
				return add(x, 1);
			}
			return x;
		}
	`)
	if strings.Contains(out, placeholderDigits) {
		t.Fatalf("unresolved placeholder left in output:\n%s", out)
	}
}

func TestHeaderIsCallMainThenHalt(t *testing.T) {
	out := compileSrc(t, "fn main() int { return 0; }")
	lines := instructionLines(out)
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 instruction lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "function redvm:insts/call") {
		t.Fatalf("first instruction should be a call, got: %s", lines[0])
	}
	wantHalt := fmt.Sprintf("scoreboard players set ip redvm.regs %010d", haltAddress)
	if !strings.Contains(lines[1], wantHalt) {
		t.Fatalf("second instruction should set ip to the halt address, got: %s", lines[1])
	}
}

func TestMinimalMainProducesExpectedInstructionShape(t *testing.T) {
	out := compileSrc(t, "fn main() int { return 0; }")
	lines := instructionLines(out)
	// header(2) + prologue(4) + const 0 + set_local 0 + jmp(return) + epilogue(3)
	want := 2 + 4 + 1 + 1 + 1 + 3
	if len(lines) != want {
		t.Fatalf("got %d instruction lines, want %d:\n%s", len(lines), want, out)
	}
	if !strings.Contains(lines[6], "const {_:0}") {
		t.Fatalf("expected a `const 0`, got: %s", lines[6])
	}
	if !strings.Contains(lines[7], "set_local {_:0}") {
		t.Fatalf("expected `set_local 0`, got: %s", lines[7])
	}
}

func TestCallLowersReserveAndArgPushAndDrop(t *testing.T) {
	out := compileSrc(t, `
		fn add(a, b) int { return a + b; }
		fn main() int { return add(2, 3); }
	`)
	if !strings.Contains(out, "scoreboard players add sp redvm.regs 1") {
		t.Fatalf("expected the caller-side return-slot reservation, got:\n%s", out)
	}
	if !strings.Contains(out, "const {_:2}") || !strings.Contains(out, "const {_:3}") {
		t.Fatalf("expected both argument pushes, got:\n%s", out)
	}
	if !strings.Contains(out, "scoreboard players remove sp redvm.regs 2") {
		t.Fatalf("expected the expression-context drop of exactly the arg count, got:\n%s", out)
	}
}

func TestStatementCallDropsExtraSlot(t *testing.T) {
	out := compileSrc(t, `
		fn f() { }
		fn main() int { f(); return 0; }
	`)
	if !strings.Contains(out, "scoreboard players remove sp redvm.regs 1") {
		t.Fatalf("expected the statement-context call to drop 1 (0 args + 1), got:\n%s", out)
	}
}

func TestNoInstructionLineCarriesAPlaceholderByItself(t *testing.T) {
	out := compileSrc(t, `fn main() int { if 1 == 1 { return 1; } else { return 2; } return 3; }`)
	for _, line := range instructionLines(out) {
		if strings.Contains(line, placeholderDigits) {
			t.Fatalf("line still carries an unresolved placeholder: %s", line)
		}
	}
}

func TestMissingMainIsRejected(t *testing.T) {
	prog, err := parser.New(lexer.New([]byte("fn helper() { }"))).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	scopes, err := semantic.Analyze(prog)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	err = Generate(prog, scopes, &memSink{})
	if _, ok := err.(Error); !ok {
		t.Fatalf("expected a codegen.Error for a missing main, got %T: %v", err, err)
	}
}
