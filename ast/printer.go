package ast

import "encoding/json"

// ToJSON renders prog as an indented, human-readable JSON tree for
// debugging (the `redc ast` subcommand), in the spirit of the teacher
// project's parser.PrintASTJSON: every node becomes a map carrying a
// "type" tag plus its fields, since the Stmt/Expr marker interfaces
// would otherwise serialize without one.
func ToJSON(prog *Program) ([]byte, error) {
	fns := make([]any, 0, len(prog.Fns))
	for _, fn := range prog.Fns {
		fns = append(fns, fnJSON(fn))
	}
	return json.MarshalIndent(map[string]any{"fns": fns}, "", "  ")
}

func fnJSON(fn *FnDecl) any {
	return map[string]any{
		"type":      "FnDecl",
		"name":      fn.Name,
		"params":    fn.Params,
		"hasResult": fn.HasResult,
		"body":      blockJSON(fn.Body),
	}
}

func blockJSON(b Block) any {
	stmts := make([]any, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		stmts = append(stmts, stmtJSON(s))
	}
	return stmts
}

func stmtJSON(s Stmt) any {
	switch s := s.(type) {
	case *VarDecl:
		return map[string]any{"type": "VarDecl", "name": s.Name}
	case *VarDeclAssign:
		return map[string]any{"type": "VarDeclAssign", "name": s.Name, "expr": exprJSON(s.Expr)}
	case *VarAssign:
		return map[string]any{"type": "VarAssign", "name": s.Name, "expr": exprJSON(s.Expr)}
	case *FnCallStmt:
		return map[string]any{"type": "FnCallStmt", "name": s.Name, "args": exprsJSON(s.Args)}
	case *BuiltinCallStmt:
		return map[string]any{"type": "BuiltinCallStmt", "name": s.Name, "arg": s.Arg}
	case *If:
		elseIfs := make([]any, 0, len(s.ElseIfs))
		for _, ei := range s.ElseIfs {
			elseIfs = append(elseIfs, map[string]any{
				"cond": exprJSON(ei.Cond),
				"then": blockJSON(ei.Then),
			})
		}
		return map[string]any{
			"type":    "If",
			"cond":    exprJSON(s.Cond),
			"then":    blockJSON(s.Then),
			"elseIfs": elseIfs,
			"else":    blockJSON(s.Else),
		}
	case *For:
		var init, post any
		if s.Init != nil {
			init = stmtJSON(s.Init)
		}
		if s.Post != nil {
			post = stmtJSON(s.Post)
		}
		var cond any
		if s.Cond != nil {
			cond = exprJSON(s.Cond)
		}
		return map[string]any{
			"type": "For",
			"init": init,
			"cond": cond,
			"post": post,
			"body": blockJSON(s.Body),
		}
	case *Break:
		return map[string]any{"type": "Break"}
	case *Continue:
		return map[string]any{"type": "Continue"}
	case *Return:
		return map[string]any{"type": "Return"}
	case *ReturnVal:
		return map[string]any{"type": "ReturnVal", "expr": exprJSON(s.Expr)}
	default:
		return map[string]any{"type": "unknown"}
	}
}

func exprsJSON(es []Expr) []any {
	out := make([]any, 0, len(es))
	for _, e := range es {
		out = append(out, exprJSON(e))
	}
	return out
}

func exprJSON(e Expr) any {
	switch e := e.(type) {
	case *IntLit:
		return map[string]any{"type": "IntLit", "value": e.Value}
	case *VarRef:
		return map[string]any{"type": "VarRef", "name": e.Name}
	case *BinOp:
		return map[string]any{
			"type": "BinOp",
			"op":   e.Op.String(),
			"lhs":  exprJSON(e.LHS),
			"rhs":  exprJSON(e.RHS),
		}
	case *CallExpr:
		return map[string]any{"type": "CallExpr", "name": e.Name, "args": exprsJSON(e.Args)}
	default:
		return map[string]any{"type": "unknown"}
	}
}
