// Package codegen linearizes a parsed, analyzed program into the flat
// stream of redvm datapack commands described in spec.md §4.4 and §6:
// one `data modify storage redvm insts append value '...'` line per
// instruction, with call and jump addresses backpatched in place once
// their targets are known.
package codegen

import (
	"fmt"
	"strconv"

	"github.com/redlang/redc/ast"
	"github.com/redlang/redc/semantic"
	"github.com/redlang/redc/token"
)

// placeholderDigits is the fixed-width address placeholder every
// forward reference is written as before its target ip is known
// (spec.md §4.4). Its width, 10 ASCII digits, must equal the width of
// the final zero-padded decimal address so the backpatch overwrites
// exactly the bytes it reserved.
const placeholderDigits = "0000000000"

// haltAddress is the fixed ip the VM treats as "fall off the end" /
// halt (spec.md §4.4 Entry sequence).
const haltAddress = 1000

// Error reports a codegen-stage failure that isn't an I/O failure: a
// program invariant the parser and analyzer can't by themselves rule
// out, such as a missing `main` or a call to a name with no recorded
// label. Unlike lexer.Error/parser.SyntaxError/semantic.Error these have
// no source Loc to point at, since they surface only after the whole
// program has already parsed and analyzed cleanly.
type Error struct {
	Message string
}

func (e Error) Error() string { return e.Message }

type callUsage struct {
	pos  int64
	name string
}

type jmpUsage struct {
	pos   int64
	label int
}

type loopLabels struct {
	start, end int
	active     bool
}

type generator struct {
	sink Sink
	ip   int

	callLabels  map[string]int
	callUsages  []callUsage
	jmpLabels   []int
	jmpUsages   []jmpUsage
	retLabel    int
}

// Generate compiles prog, using scopes (one per prog.Fns entry, as
// produced by semantic.Analyze), and writes the resulting instruction
// stream to sink. Call addresses are resolved once the whole program
// has been emitted; jump addresses are resolved, and their table
// cleared, at the end of each function (spec.md §4.4 Label mechanics).
func Generate(prog *ast.Program, scopes []*semantic.FuncScope, sink Sink) error {
	if len(prog.Fns) != len(scopes) {
		return Error{Message: "internal: scope count does not match function count"}
	}

	hasMain := false
	for _, fn := range prog.Fns {
		if fn.Name == "main" {
			hasMain = true
			break
		}
	}
	if !hasMain {
		return Error{Message: "main function is not defined"}
	}

	g := &generator{sink: sink, callLabels: make(map[string]int, len(prog.Fns))}

	if err := g.emitCallLabel("main"); err != nil {
		return err
	}
	if err := g.emitLine(fmt.Sprintf("scoreboard players set ip redvm.regs %010d", haltAddress)); err != nil {
		return err
	}

	for i, fn := range prog.Fns {
		if err := g.compileFunction(fn, scopes[i]); err != nil {
			return err
		}
	}

	return g.writeCallLabels()
}

func (g *generator) compileFunction(fn *ast.FnDecl, scope *semantic.FuncScope) error {
	if err := g.setCallLabel(fn.Name); err != nil {
		return err
	}

	g.retLabel = g.newJmpLabel()

	r := 0
	if fn.HasResult {
		r = 1
	}
	frameOffset := len(fn.Params) + r + 2
	localCount := scope.NumSlots - len(fn.Params)

	// prologue
	if err := g.emitOpcode("get_reg", "sp2"); err != nil {
		return err
	}
	if err := g.emitLine("scoreboard players operation sp2 redvm.regs = sp redvm.regs"); err != nil {
		return err
	}
	if err := g.emitLine(fmt.Sprintf("scoreboard players remove sp2 redvm.regs %d", frameOffset)); err != nil {
		return err
	}
	if err := g.emitLine(fmt.Sprintf("scoreboard players add sp redvm.regs %d", localCount)); err != nil {
		return err
	}

	if err := g.compileBlock(fn.Body, scope.Locals, loopLabels{}); err != nil {
		return err
	}

	// epilogue
	g.setJmpLabel(g.retLabel)
	if err := g.emitLine(fmt.Sprintf("scoreboard players remove sp redvm.regs %d", localCount)); err != nil {
		return err
	}
	if err := g.emitOpcode("set_reg", "sp2"); err != nil {
		return err
	}
	if err := g.emitOpcode("set_reg", "ip"); err != nil {
		return err
	}

	return g.writeJmpLabels()
}

func (g *generator) compileBlock(b ast.Block, locals semantic.LocalScope, lp loopLabels) error {
	for _, s := range b.Stmts {
		if err := g.compileStmt(s, locals, lp); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) compileStmt(s ast.Stmt, locals semantic.LocalScope, lp loopLabels) error {
	switch s := s.(type) {
	case *ast.VarDecl:
		// its slot was reserved by the prologue's `sp += local_count`;
		// an unassigned declaration needs no instruction.
		return nil

	case *ast.VarDeclAssign:
		if err := g.compileExpr(s.Expr, locals); err != nil {
			return err
		}
		return g.emitOpcode("set_local", strconv.Itoa(locals[s.Name]))

	case *ast.VarAssign:
		if err := g.compileExpr(s.Expr, locals); err != nil {
			return err
		}
		return g.emitOpcode("set_local", strconv.Itoa(locals[s.Name]))

	case *ast.ReturnVal:
		if err := g.compileExpr(s.Expr, locals); err != nil {
			return err
		}
		if err := g.emitOpcode("set_local", "0"); err != nil {
			return err
		}
		return g.emitJmp(g.retLabel)

	case *ast.Return:
		return g.emitJmp(g.retLabel)

	case *ast.FnCallStmt:
		return g.compileCall(s.Name, s.Args, locals, true)

	case *ast.BuiltinCallStmt:
		switch s.Name {
		case "log":
			return g.emitOpcode("log", strconv.Itoa(locals[s.Arg]))
		case "cmd":
			return g.emitLine(s.Arg)
		default:
			return Error{Message: fmt.Sprintf("internal: unknown builtin `%s`", s.Name)}
		}

	case *ast.If:
		return g.compileIf(s, locals, lp)

	case *ast.For:
		return g.compileFor(s, locals)

	case *ast.Break:
		return g.emitJmp(lp.end)

	case *ast.Continue:
		return g.emitJmp(lp.start)

	default:
		return Error{Message: fmt.Sprintf("internal: unhandled statement type %T", s)}
	}
}

func (g *generator) compileExpr(e ast.Expr, locals semantic.LocalScope) error {
	switch e := e.(type) {
	case *ast.IntLit:
		return g.emitOpcode("const", strconv.Itoa(int(e.Value)))

	case *ast.VarRef:
		return g.emitOpcode("get_local", strconv.Itoa(locals[e.Name]))

	case *ast.BinOp:
		if err := g.compileExpr(e.LHS, locals); err != nil {
			return err
		}
		if err := g.compileExpr(e.RHS, locals); err != nil {
			return err
		}
		name, err := binOpOpcode(e.Op)
		if err != nil {
			return err
		}
		return g.emitOpcode(name, "")

	case *ast.CallExpr:
		return g.compileCall(e.Name, e.Args, locals, false)

	default:
		return Error{Message: fmt.Sprintf("internal: unhandled expression type %T", e)}
	}
}

// compileCall lowers a call to F with args per spec.md §4.4's calling
// convention. stmtCtx distinguishes a statement-form call (drops the
// unused return slot too) from an expression-form call.
func (g *generator) compileCall(name string, args []ast.Expr, locals semantic.LocalScope, stmtCtx bool) error {
	if err := g.emitLine("scoreboard players add sp redvm.regs 1"); err != nil {
		return err
	}
	for _, arg := range args {
		if err := g.compileExpr(arg, locals); err != nil {
			return err
		}
	}
	if err := g.emitCallLabel(name); err != nil {
		return err
	}
	n := len(args)
	if stmtCtx {
		n++
	}
	return g.emitLine(fmt.Sprintf("scoreboard players remove sp redvm.regs %d", n))
}

// compileIf lowers an if/else-if chain per spec.md §4.4: a shared
// end_label, and for each branch in order a fresh then_label/else_label
// pair, falling through the chain of else_labels until the final one
// hosts the else body (or an empty block if there is none).
func (g *generator) compileIf(s *ast.If, locals semantic.LocalScope, lp loopLabels) error {
	endLabel := g.newJmpLabel()
	thenLabel := g.newJmpLabel()
	elseLabel := g.newJmpLabel()

	if err := g.compileExpr(s.Cond, locals); err != nil {
		return err
	}
	if err := g.emitJmpIf(thenLabel); err != nil {
		return err
	}
	if err := g.emitJmp(elseLabel); err != nil {
		return err
	}
	g.setJmpLabel(thenLabel)
	if err := g.compileBlock(s.Then, locals, lp); err != nil {
		return err
	}
	if err := g.emitJmp(endLabel); err != nil {
		return err
	}

	for _, ei := range s.ElseIfs {
		g.setJmpLabel(elseLabel)
		thenLabel = g.newJmpLabel()
		elseLabel = g.newJmpLabel()

		if err := g.compileExpr(ei.Cond, locals); err != nil {
			return err
		}
		if err := g.emitJmpIf(thenLabel); err != nil {
			return err
		}
		if err := g.emitJmp(elseLabel); err != nil {
			return err
		}
		g.setJmpLabel(thenLabel)
		if err := g.compileBlock(ei.Then, locals, lp); err != nil {
			return err
		}
		if err := g.emitJmp(endLabel); err != nil {
			return err
		}
	}

	g.setJmpLabel(elseLabel)
	if err := g.compileBlock(s.Else, locals, lp); err != nil {
		return err
	}

	g.setJmpLabel(endLabel)
	return nil
}

// compileFor lowers a three-clause loop per spec.md §4.4: init once,
// then start_label, the condition test (jumping to end_label when false;
// an absent condition emits no test, so the body is unconditional, i.e.
// an infinite loop), body, post, an unconditional jump back to
// start_label, and end_label.
func (g *generator) compileFor(s *ast.For, locals semantic.LocalScope) error {
	if s.Init != nil {
		if err := g.compileStmt(s.Init, locals, loopLabels{}); err != nil {
			return err
		}
	}

	startLabel := g.newJmpLabel()
	endLabel := g.newJmpLabel()
	g.setJmpLabel(startLabel)

	if s.Cond != nil {
		bodyLabel := g.newJmpLabel()
		if err := g.compileExpr(s.Cond, locals); err != nil {
			return err
		}
		if err := g.emitJmpIf(bodyLabel); err != nil {
			return err
		}
		if err := g.emitJmp(endLabel); err != nil {
			return err
		}
		g.setJmpLabel(bodyLabel)
	}

	if err := g.compileBlock(s.Body, locals, loopLabels{start: startLabel, end: endLabel, active: true}); err != nil {
		return err
	}

	if s.Post != nil {
		if err := g.compileStmt(s.Post, locals, loopLabels{}); err != nil {
			return err
		}
	}

	if err := g.emitJmp(startLabel); err != nil {
		return err
	}
	g.setJmpLabel(endLabel)
	return nil
}

func binOpOpcode(op token.Type) (string, error) {
	switch op {
	case token.ADD:
		return "add", nil
	case token.SUB:
		return "sub", nil
	case token.MUL:
		return "mul", nil
	case token.DIV:
		return "div", nil
	case token.EQ:
		return "eq", nil
	case token.NE:
		return "ne", nil
	case token.GT:
		return "gt", nil
	case token.GE:
		return "ge", nil
	case token.LT:
		return "lt", nil
	case token.LE:
		return "le", nil
	case token.AND:
		return "and", nil
	case token.OR:
		return "or", nil
	default:
		return "", Error{Message: fmt.Sprintf("internal: %s is not a binary operator", op)}
	}
}

// --- low-level emission -----------------------------------------------

func (g *generator) writeRaw(s string) error {
	_, err := g.sink.Write([]byte(s))
	return err
}

// emitLine writes one instruction line carrying payload verbatim inside
// the `data modify storage redvm insts append value '...'` wrapper
// (spec.md §6) and advances ip.
func (g *generator) emitLine(payload string) error {
	if err := g.writeRaw(fmt.Sprintf("data modify storage redvm insts append value '%s'\n", payload)); err != nil {
		return err
	}
	g.ip++
	return nil
}

// emitOpcode emits a VM opcode instruction; operand is empty for opcodes
// that take none (the arithmetic/comparison/logical family).
func (g *generator) emitOpcode(name, operand string) error {
	if operand == "" {
		return g.emitLine(fmt.Sprintf("function redvm:insts/%s", name))
	}
	return g.emitLine(fmt.Sprintf("function redvm:insts/%s {_:%s}", name, operand))
}

// emitLineWithPlaceholder writes payloadPrefix, then the fixed-width
// address placeholder, then payloadSuffix, all within the standard
// instruction wrapper, and returns the byte offset the placeholder
// digits start at so it can be backpatched later.
func (g *generator) emitLineWithPlaceholder(payloadPrefix, payloadSuffix string) (int64, error) {
	if err := g.writeRaw(fmt.Sprintf("data modify storage redvm insts append value '%s", payloadPrefix)); err != nil {
		return 0, err
	}
	pos, err := g.sink.Tell()
	if err != nil {
		return 0, err
	}
	if err := g.writeRaw(placeholderDigits); err != nil {
		return 0, err
	}
	if err := g.writeRaw(payloadSuffix + "'\n"); err != nil {
		return 0, err
	}
	g.ip++
	return pos, nil
}

func (g *generator) emitCallLabel(name string) error {
	pos, err := g.emitLineWithPlaceholder("function redvm:insts/call {_:", "}")
	if err != nil {
		return err
	}
	g.callUsages = append(g.callUsages, callUsage{pos: pos, name: name})
	return nil
}

func (g *generator) emitJmpIf(label int) error {
	pos, err := g.emitLineWithPlaceholder("function redvm:insts/jmp_if {_:", "}")
	if err != nil {
		return err
	}
	g.jmpUsages = append(g.jmpUsages, jmpUsage{pos: pos, label: label})
	return nil
}

func (g *generator) emitJmp(label int) error {
	pos, err := g.emitLineWithPlaceholder("scoreboard players set ip redvm.regs ", "")
	if err != nil {
		return err
	}
	g.jmpUsages = append(g.jmpUsages, jmpUsage{pos: pos, label: label})
	return nil
}

func (g *generator) newJmpLabel() int {
	g.jmpLabels = append(g.jmpLabels, -1)
	return len(g.jmpLabels) - 1
}

func (g *generator) setJmpLabel(label int) {
	g.jmpLabels[label] = g.ip
}

// setCallLabel marks the current ip as fn's entry point and writes a
// plain, non-instruction comment line identifying it — purely a
// disassembly aid, so it does not advance ip.
func (g *generator) setCallLabel(name string) error {
	if err := g.writeRaw(fmt.Sprintf("\n# %s\n", name)); err != nil {
		return err
	}
	g.callLabels[name] = g.ip
	return nil
}

// writeCallLabels backpatches every recorded call-address placeholder
// with its (by now fully known) target ip. Call labels are
// program-global, so this runs once after every function is emitted.
func (g *generator) writeCallLabels() error {
	endPos, err := g.sink.Tell()
	if err != nil {
		return err
	}

	for _, u := range g.callUsages {
		ip, ok := g.callLabels[u.name]
		if !ok {
			return Error{Message: fmt.Sprintf("internal: call to undefined function `%s`", u.name)}
		}
		if err := g.sink.Seek(u.pos); err != nil {
			return err
		}
		if err := g.writeRaw(fmt.Sprintf("%010d", ip)); err != nil {
			return err
		}
	}
	return g.sink.Seek(endPos)
}

// writeJmpLabels backpatches every jump-address placeholder recorded
// during the current function's emission, then clears the table: jump
// labels are local to a function (spec.md §4.4 Label mechanics).
func (g *generator) writeJmpLabels() error {
	endPos, err := g.sink.Tell()
	if err != nil {
		return err
	}

	for _, u := range g.jmpUsages {
		ip := g.jmpLabels[u.label]
		if ip < 0 {
			return Error{Message: fmt.Sprintf("internal: jump label %d never set", u.label)}
		}
		if err := g.sink.Seek(u.pos); err != nil {
			return err
		}
		if err := g.writeRaw(fmt.Sprintf("%010d", ip)); err != nil {
			return err
		}
	}

	g.jmpLabels = g.jmpLabels[:0]
	g.jmpUsages = g.jmpUsages[:0]
	return g.sink.Seek(endPos)
}
