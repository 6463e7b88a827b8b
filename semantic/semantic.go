// Package semantic walks a parsed ast.Program and assigns every local
// variable a stack slot, while validating names, call arity,
// return-value obligations and loop-context legality (spec.md §4.3).
//
// It runs in two passes, mirroring the original `red` compiler's
// Analyzer: first a global pass collects every function's signature
// (and rejects redeclarations), then a per-function pass walks each
// body assigning slots and checking everything that pass can only know
// once the whole program's signatures are visible (call targets, arity,
// whether a callee returns a value).
package semantic

import (
	"fmt"

	"github.com/redlang/redc/ast"
	"github.com/redlang/redc/token"
)

// Error is a semantic-analysis failure: redeclaration, an unknown name,
// an arity mismatch, a missing or unexpected return value, or
// break/continue outside a loop (spec.md §7).
type Error struct {
	Loc     token.Loc
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

func errf(loc token.Loc, format string, args ...any) error {
	return Error{Loc: loc, Message: fmt.Sprintf(format, args...)}
}

// LocalScope maps a variable name to its stack-slot index, relative to
// the function's frame base (spec.md §3's sp2-relative offset).
type LocalScope map[string]int

// FuncScope is the result of analyzing a single function: its
// declaration, its resolved local scope, and the number of stack slots
// its frame occupies (params + result reservation + locals).
type FuncScope struct {
	Decl     *ast.FnDecl
	Locals   LocalScope
	NumSlots int
}

// Analyze runs both passes over prog and returns one FuncScope per
// function, in the same order as prog.Fns, or the first error found.
func Analyze(prog *ast.Program) ([]*FuncScope, error) {
	global := make(map[string]*ast.FnDecl, len(prog.Fns))
	for _, fn := range prog.Fns {
		if _, dup := global[fn.Name]; dup {
			return nil, errf(fn.Loc, "redeclaration of function `%s`", fn.Name)
		}
		global[fn.Name] = fn
	}

	scopes := make([]*FuncScope, 0, len(prog.Fns))
	for _, fn := range prog.Fns {
		scope, err := analyzeFn(fn, global)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}

type analyzer struct {
	global map[string]*ast.FnDecl
	fn     *ast.FnDecl
	locals LocalScope
	next   int
}

// analyzeFn assigns slots per the invariant of spec.md §3: slot 0 holds
// the return value when HasResult, slots 1..P (or 0..P-1 with no result)
// hold parameters in order, and every later local declaration gets the
// next increasing slot starting at P+R.
func analyzeFn(fn *ast.FnDecl, global map[string]*ast.FnDecl) (*FuncScope, error) {
	a := &analyzer{global: global, fn: fn, locals: make(LocalScope, len(fn.Params))}

	r := 0
	if fn.HasResult {
		r = 1
	}
	for i, name := range fn.Params {
		if _, dup := a.locals[name]; dup {
			return nil, errf(fn.Loc, "redeclaration of parameter `%s`", name)
		}
		a.locals[name] = i + r
	}
	a.next = len(fn.Params) + r

	if fn.HasResult {
		if err := a.checkReturnValue(fn.Body); err != nil {
			return nil, err
		}
	}

	if err := a.block(fn.Body, false); err != nil {
		return nil, err
	}

	return &FuncScope{Decl: fn, Locals: a.locals, NumSlots: a.next}, nil
}

// checkReturnValue requires the last statement of a result-bearing
// function's body to be a ReturnVal (spec.md §4.3).
func (a *analyzer) checkReturnValue(body ast.Block) error {
	if len(body.Stmts) == 0 {
		return errf(a.fn.Loc, "function `%s` is missing a return value", a.fn.Name)
	}
	last := body.Stmts[len(body.Stmts)-1]
	if _, ok := last.(*ast.ReturnVal); !ok {
		return errf(last.StmtLoc(), "return value is missing")
	}
	return nil
}

func (a *analyzer) block(b ast.Block, inLoop bool) error {
	for _, stmt := range b.Stmts {
		if err := a.stmt(stmt, inLoop); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) stmt(s ast.Stmt, inLoop bool) error {
	switch s := s.(type) {
	case *ast.VarDecl:
		if _, dup := a.locals[s.Name]; dup {
			return errf(s.Loc, "redeclaration of variable `%s`", s.Name)
		}
		a.locals[s.Name] = a.next
		a.next++
		return nil

	case *ast.VarDeclAssign:
		if _, dup := a.locals[s.Name]; dup {
			return errf(s.Loc, "redeclaration of variable `%s`", s.Name)
		}
		// the initializer is analyzed before the slot exists, so it
		// cannot reference its own left-hand side.
		if err := a.expr(s.Expr); err != nil {
			return err
		}
		a.locals[s.Name] = a.next
		a.next++
		return nil

	case *ast.VarAssign:
		if _, ok := a.locals[s.Name]; !ok {
			return errf(s.Loc, "variable `%s` doesn't exist", s.Name)
		}
		return a.expr(s.Expr)

	case *ast.FnCallStmt:
		callee, ok := a.global[s.Name]
		if !ok {
			return errf(s.Loc, "function `%s` doesn't exist", s.Name)
		}
		if len(s.Args) != len(callee.Params) {
			return errf(s.Loc, "function `%s` accepts %d parameter(s), got %d", s.Name, len(callee.Params), len(s.Args))
		}
		for _, arg := range s.Args {
			if err := a.expr(arg); err != nil {
				return err
			}
		}
		return nil

	case *ast.BuiltinCallStmt:
		switch s.Name {
		case "cmd":
			return nil
		case "log":
			if _, ok := a.locals[s.Arg]; !ok {
				return errf(s.Loc, "variable `%s` doesn't exist", s.Arg)
			}
			return nil
		default:
			return errf(s.Loc, "builtin function `%s` doesn't exist", s.Name)
		}

	case *ast.If:
		if err := a.expr(s.Cond); err != nil {
			return err
		}
		if err := a.block(s.Then, inLoop); err != nil {
			return err
		}
		for _, ei := range s.ElseIfs {
			if err := a.expr(ei.Cond); err != nil {
				return err
			}
			if err := a.block(ei.Then, inLoop); err != nil {
				return err
			}
		}
		return a.block(s.Else, inLoop)

	case *ast.For:
		if s.Init != nil {
			if err := a.stmt(s.Init, inLoop); err != nil {
				return err
			}
		}
		if s.Cond != nil {
			if err := a.expr(s.Cond); err != nil {
				return err
			}
		}
		if s.Post != nil {
			if err := a.stmt(s.Post, inLoop); err != nil {
				return err
			}
		}
		return a.block(s.Body, true)

	case *ast.Break:
		if !inLoop {
			return errf(s.Loc, "`break` is not in a loop")
		}
		return nil

	case *ast.Continue:
		if !inLoop {
			return errf(s.Loc, "`continue` is not in a loop")
		}
		return nil

	case *ast.Return:
		if a.fn.HasResult {
			return errf(s.Loc, "function `%s` must return a value", a.fn.Name)
		}
		return nil

	case *ast.ReturnVal:
		if !a.fn.HasResult {
			return errf(s.Loc, "function `%s` must not return a value", a.fn.Name)
		}
		return a.expr(s.Expr)

	default:
		return errf(s.StmtLoc(), "internal: unhandled statement type %T", s)
	}
}

func (a *analyzer) expr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.IntLit:
		return nil

	case *ast.VarRef:
		if _, ok := a.locals[e.Name]; !ok {
			return errf(e.Loc, "variable `%s` doesn't exist", e.Name)
		}
		return nil

	case *ast.CallExpr:
		callee, ok := a.global[e.Name]
		if !ok {
			return errf(e.Loc, "function `%s` doesn't exist", e.Name)
		}
		if !callee.HasResult {
			return errf(e.Loc, "function `%s` doesn't return a value", e.Name)
		}
		if len(e.Args) != len(callee.Params) {
			return errf(e.Loc, "function `%s` accepts %d parameter(s), got %d", e.Name, len(callee.Params), len(e.Args))
		}
		for _, arg := range e.Args {
			if err := a.expr(arg); err != nil {
				return err
			}
		}
		return nil

	case *ast.BinOp:
		if err := a.expr(e.LHS); err != nil {
			return err
		}
		return a.expr(e.RHS)

	default:
		return errf(e.ExprLoc(), "internal: unhandled expression type %T", e)
	}
}
