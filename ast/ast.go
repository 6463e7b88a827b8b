// Package ast defines the syntax tree the parser produces: an ordered
// sequence of function declarations, each with a body of statements
// built from integer expressions. Identifier text throughout is the
// Lexeme string of the lexer's token; no node here copies a name again.
package ast

import "github.com/redlang/redc/token"

// Program is the root node: an ordered sequence of function declarations.
type Program struct {
	Fns []*FnDecl
}

// FnDecl is a function declaration: name, parameters (all integers, named
// only), whether it returns a value, and its body.
type FnDecl struct {
	Name      string
	Params    []string
	HasResult bool
	Body      Block
	Loc       token.Loc
}

// Block is an ordered sequence of statements. Blocks do not introduce a
// nested scope (spec.md §3: scoping is function-flat).
type Block struct {
	Stmts []Stmt
}

// Stmt is the marker interface every statement node implements.
type Stmt interface {
	stmtNode()
	StmtLoc() token.Loc
}

// StmtBase is the embeddable location carrier every Stmt implementation
// includes; callers outside this package construct it as
// ast.StmtBase{Loc: loc}.
type StmtBase struct {
	Loc token.Loc
}

func (StmtBase) stmtNode()            {}
func (s StmtBase) StmtLoc() token.Loc { return s.Loc }

// VarDecl declares a fresh local slot without an initializer: `x;`.
type VarDecl struct {
	StmtBase
	Name string
}

// VarDeclAssign declares a fresh local slot and initializes it: `x := e;`.
type VarDeclAssign struct {
	StmtBase
	Name string
	Expr Expr
}

// VarAssign assigns to an existing local: `x = e;`.
type VarAssign struct {
	StmtBase
	Name string
	Expr Expr
}

// FnCallStmt is a function call used as a statement, discarding any result.
type FnCallStmt struct {
	StmtBase
	Name string
	Args []Expr
}

// BuiltinCallStmt is `log <var>;` or `cmd <raw text>;`. For `log`, Arg is
// the referenced variable's name; for `cmd`, Arg is the raw command text,
// never tokenized, passed through verbatim (spec.md §3).
type BuiltinCallStmt struct {
	StmtBase
	Name string
	Arg  string
}

// ElseIf is one `else if` arm of an If statement.
type ElseIf struct {
	Cond Expr
	Then Block
	Loc  token.Loc
}

// If is `if cond { then } (else if cond2 { ... })* (else { else })?`.
// Else defaults to an empty block when no `else` clause is present.
type If struct {
	StmtBase
	Cond    Expr
	Then    Block
	ElseIfs []ElseIf
	Else    Block
}

// For is the C-style loop with all three clauses optional; a fully
// omitted head (`for { ... }`) is an infinite loop.
type For struct {
	StmtBase
	Init Stmt // nil if absent
	Cond Expr // nil if absent
	Post Stmt // nil if absent
	Body Block
}

// Break is `break;`.
type Break struct{ StmtBase }

// Continue is `continue;`.
type Continue struct{ StmtBase }

// Return is `return;`, legal only in functions without a result.
type Return struct{ StmtBase }

// ReturnVal is `return expr;`, legal only in functions with a result.
type ReturnVal struct {
	StmtBase
	Expr Expr
}

// Expr is the marker interface every expression node implements.
type Expr interface {
	exprNode()
	ExprLoc() token.Loc
}

// ExprBase is the embeddable location carrier every Expr implementation
// includes; callers outside this package construct it as
// ast.ExprBase{Loc: loc}.
type ExprBase struct {
	Loc token.Loc
}

func (ExprBase) exprNode()            {}
func (e ExprBase) ExprLoc() token.Loc { return e.Loc }

// IntLit is an integer literal.
type IntLit struct {
	ExprBase
	Value int32
}

// VarRef is a reference to a local variable by name.
type VarRef struct {
	ExprBase
	Name string
}

// BinOp is a binary operation: lhs OP rhs.
type BinOp struct {
	ExprBase
	Op  token.Type
	LHS Expr
	RHS Expr
}

// CallExpr is a function call used as an expression; the callee must
// return a value (checked in the semantic pass).
type CallExpr struct {
	ExprBase
	Name string
	Args []Expr
}
