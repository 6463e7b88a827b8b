// Package parser implements the recursive-descent statement/function
// parser and the Pratt (precedence-climbing) expression parser described
// in spec.md §4.2. It consumes tokens from a lexer.Lexer one at a time
// and produces the ast.Program, whose identifier text is the Lexeme
// strings of the lexer's tokens.
package parser

import (
	"fmt"

	"github.com/redlang/redc/ast"
	"github.com/redlang/redc/lexer"
	"github.com/redlang/redc/token"
)

// SyntaxError is every parse-time failure spec.md §7 calls "Syntax":
// unexpected token, unexpected EOF, mismatched delimiters, a missing
// required punctuator.
type SyntaxError struct {
	Loc     token.Loc
	Message string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

func unexpected(loc token.Loc, tok token.Token) error {
	return SyntaxError{Loc: loc, Message: fmt.Sprintf("unexpected token %s", tok)}
}

// Parser drives a lexer.Lexer through the language grammar.
type Parser struct {
	lx *lexer.Lexer
}

// New creates a Parser over the given lexer.
func New(lx *lexer.Lexer) *Parser {
	return &Parser{lx: lx}
}

// Parse parses the entire token stream into a Program: zero or more
// function declarations, in source order. Declaration order does not
// matter for name resolution (forward references are legal, spec.md §3).
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	for {
		tok, ok, err := p.lx.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if tok.Type != token.FN {
			return nil, unexpected(tok.Loc, tok)
		}
		fn, err := p.parseFnDecl(tok.Loc)
		if err != nil {
			return nil, err
		}
		prog.Fns = append(prog.Fns, fn)
	}
	return prog, nil
}

func (p *Parser) parseFnDecl(loc token.Loc) (*ast.FnDecl, error) {
	name, err := p.lx.ExpectIdent()
	if err != nil {
		return nil, err
	}

	if err := p.lx.ExpectPunct(token.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}

	peeked, err := p.lx.ExpectPeekAny()
	if err != nil {
		return nil, err
	}
	hasResult := false
	switch peeked.Type {
	case token.LBRACE:
		// no result annotation
	case token.INTTYPE:
		p.lx.Next()
		hasResult = true
	default:
		return nil, unexpected(peeked.Loc, peeked)
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.FnDecl{
		Name:      name,
		Params:    params,
		HasResult: hasResult,
		Body:      body,
		Loc:       loc,
	}, nil
}

// parseParams parses the comma-separated parameter name list; an empty
// list is legal.
func (p *Parser) parseParams() ([]string, error) {
	var params []string

	tok, err := p.lx.ExpectAny()
	if err != nil {
		return nil, err
	}
	if tok.Type == token.RPAREN {
		return params, nil
	}
	if tok.Type != token.IDENT {
		return nil, unexpected(tok.Loc, tok)
	}
	params = append(params, tok.Lexeme)

	for {
		tok, err := p.lx.ExpectAny()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case token.RPAREN:
			return params, nil
		case token.COMMA:
			name, err := p.lx.ExpectIdent()
			if err != nil {
				return nil, err
			}
			params = append(params, name)
		default:
			return nil, unexpected(tok.Loc, tok)
		}
	}
}

// parseBlock parses `{ Stmt* }`. Statements are dispatched on their
// leading token; `break`, `continue`, `log` and `cmd` are not in the
// keyword table (spec.md §3 lists only {if, else, fn, return, for, int}
// as keywords), so they are recognized here by lexeme text when an
// identifier leads a statement — see the IDENT case below.
func (p *Parser) parseBlock() (ast.Block, error) {
	if err := p.lx.ExpectPunct(token.LBRACE); err != nil {
		return ast.Block{}, err
	}

	var block ast.Block
	for {
		tok, err := p.lx.ExpectAny()
		if err != nil {
			return ast.Block{}, err
		}
		if tok.Type == token.RBRACE {
			return block, nil
		}

		stmt, err := p.parseStmt(tok)
		if err != nil {
			return ast.Block{}, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}
}

func (p *Parser) parseStmt(lead token.Token) (ast.Stmt, error) {
	switch lead.Type {
	case token.FOR:
		return p.parseFor(lead.Loc)
	case token.IF:
		return p.parseIf(lead.Loc)
	case token.RETURN:
		return p.parseReturn(lead.Loc)
	case token.IDENT:
		return p.parseIdentLed(lead)
	default:
		return nil, unexpected(lead.Loc, lead)
	}
}

// parseIdentLed handles every statement that starts with an identifier:
// the soft keywords `break`, `continue`, `log`, `cmd`, a variable
// declaration/assignment, or a function call statement.
func (p *Parser) parseIdentLed(lead token.Token) (ast.Stmt, error) {
	switch lead.Lexeme {
	case "break":
		if err := p.lx.ExpectPunct(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.Break{ast.StmtBase{Loc: lead.Loc}}, nil
	case "continue":
		if err := p.lx.ExpectPunct(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.Continue{ast.StmtBase{Loc: lead.Loc}}, nil
	case "log":
		name, err := p.lx.ExpectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.lx.ExpectPunct(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.BuiltinCallStmt{ast.StmtBase{Loc: lead.Loc}, "log", name}, nil
	case "cmd":
		raw, err := p.lx.RawUntilSemicolon()
		if err != nil {
			return nil, err
		}
		if err := p.lx.ExpectPunct(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.BuiltinCallStmt{ast.StmtBase{Loc: lead.Loc}, "cmd", raw}, nil
	}

	next, err := p.lx.ExpectAny()
	if err != nil {
		return nil, err
	}
	switch next.Type {
	case token.SEMI:
		return &ast.VarDecl{ast.StmtBase{Loc: lead.Loc}, lead.Lexeme}, nil

	case token.COLON:
		if err := p.lx.ExpectPunct(token.ASSIGN); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.lx.ExpectPunct(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.VarDeclAssign{ast.StmtBase{Loc: lead.Loc}, lead.Lexeme, expr}, nil

	case token.ASSIGN:
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.lx.ExpectPunct(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.VarAssign{ast.StmtBase{Loc: lead.Loc}, lead.Lexeme, expr}, nil

	case token.LPAREN:
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if err := p.lx.ExpectPunct(token.SEMI); err != nil {
			return nil, err
		}
		return &ast.FnCallStmt{ast.StmtBase{Loc: lead.Loc}, lead.Lexeme, args}, nil

	default:
		return nil, unexpected(next.Loc, next)
	}
}

func (p *Parser) parseFor(loc token.Loc) (ast.Stmt, error) {
	peeked, err := p.lx.ExpectPeekAny()
	if err != nil {
		return nil, err
	}
	if peeked.Type == token.LBRACE {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.For{ast.StmtBase{Loc: loc}, nil, nil, nil, body}, nil
	}

	// A head without `;` separators is a lone condition: `for cond { ... }`.
	// Try that first and rewind the lexer if the head is a clause list.
	saved := *p.lx
	if cond, err := p.parseExpr(0); err == nil {
		if next, err := p.lx.ExpectPeekAny(); err == nil && next.Type == token.LBRACE {
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			return &ast.For{ast.StmtBase{Loc: loc}, nil, cond, nil, body}, nil
		}
	}
	*p.lx = saved

	var init ast.Stmt
	if peeked, err := p.lx.ExpectPeekAny(); err != nil {
		return nil, err
	} else if peeked.Type != token.SEMI {
		init, err = p.parseForClauseStmt()
		if err != nil {
			return nil, err
		}
	}
	if err := p.lx.ExpectPunct(token.SEMI); err != nil {
		return nil, err
	}

	var cond ast.Expr
	if peeked, err := p.lx.ExpectPeekAny(); err != nil {
		return nil, err
	} else if peeked.Type != token.SEMI {
		cond, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	if err := p.lx.ExpectPunct(token.SEMI); err != nil {
		return nil, err
	}

	var post ast.Stmt
	if peeked, err := p.lx.ExpectPeekAny(); err != nil {
		return nil, err
	} else if peeked.Type != token.LBRACE {
		post, err = p.parseForClauseStmt()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{ast.StmtBase{Loc: loc}, init, cond, post, body}, nil
}

// parseForClauseStmt parses the bare `name := e`/`name = e` forms
// legal in a for-head's init/post position (no trailing `;` consumed —
// the caller owns the clause separators).
func (p *Parser) parseForClauseStmt() (ast.Stmt, error) {
	lead, err := p.lx.ExpectAny()
	if err != nil {
		return nil, err
	}
	if lead.Type != token.IDENT {
		return nil, unexpected(lead.Loc, lead)
	}
	next, err := p.lx.ExpectAny()
	if err != nil {
		return nil, err
	}
	switch next.Type {
	case token.COLON:
		if err := p.lx.ExpectPunct(token.ASSIGN); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return &ast.VarDeclAssign{ast.StmtBase{Loc: lead.Loc}, lead.Lexeme, expr}, nil
	case token.ASSIGN:
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return &ast.VarAssign{ast.StmtBase{Loc: lead.Loc}, lead.Lexeme, expr}, nil
	default:
		return nil, unexpected(next.Loc, next)
	}
}

func (p *Parser) parseIf(loc token.Loc) (ast.Stmt, error) {
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	stmt := &ast.If{StmtBase: ast.StmtBase{Loc: loc}, Cond: cond, Then: then}

	for {
		peeked, err := p.lx.ExpectPeekAny()
		if err != nil {
			return nil, err
		}
		if peeked.Type != token.ELSE {
			break
		}
		p.lx.Next()

		peeked, err = p.lx.ExpectPeekAny()
		if err != nil {
			return nil, err
		}
		if peeked.Type == token.IF {
			elseIfLoc := peeked.Loc
			p.lx.Next()
			econd, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			ethen, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Cond: econd, Then: ethen, Loc: elseIfLoc})
			continue
		}

		stmt.Else, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
		break
	}

	return stmt, nil
}

func (p *Parser) parseReturn(loc token.Loc) (ast.Stmt, error) {
	peeked, err := p.lx.ExpectPeekAny()
	if err != nil {
		return nil, err
	}
	if peeked.Type == token.SEMI {
		p.lx.Next()
		return &ast.Return{ast.StmtBase{Loc: loc}}, nil
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if err := p.lx.ExpectPunct(token.SEMI); err != nil {
		return nil, err
	}
	return &ast.ReturnVal{ast.StmtBase{Loc: loc}, expr}, nil
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	var args []ast.Expr

	peeked, err := p.lx.ExpectPeekAny()
	if err != nil {
		return nil, err
	}
	if peeked.Type == token.RPAREN {
		p.lx.Next()
		return args, nil
	}

	for {
		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, expr)

		tok, err := p.lx.ExpectAny()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case token.RPAREN:
			return args, nil
		case token.COMMA:
			continue
		default:
			return nil, unexpected(tok.Loc, tok)
		}
	}
}

// parseExpr is the Pratt (precedence-climbing) expression parser,
// following spec.md §4.2: parse a primary, then repeatedly consume a
// binary operator whose precedence is >= minPrec, recursing with prec+1
// for the right-hand side. Every operator here is left-associative
// (spec.md §3), so the right-hand recursion must require strictly
// higher precedence than the operator just consumed — recursing at the
// same precedence would let a same-precedence chain like `1 - 2 - 3`
// swallow the trailing operators into the right-hand side and associate
// to the right instead of the left.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	lhs, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		peeked, err := p.lx.ExpectPeekAny()
		if err != nil {
			return nil, err
		}
		switch peeked.Type {
		case token.SEMI, token.RPAREN, token.COMMA, token.LBRACE:
			return lhs, nil
		}
		if !peeked.IsBinOp() {
			return nil, unexpected(peeked.Loc, peeked)
		}

		prec := token.BinOpPrecedence[peeked.Type]
		if prec < minPrec {
			return lhs, nil
		}
		p.lx.Next()

		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinOp{ExprBase: ast.ExprBase{Loc: peeked.Loc}, Op: peeked.Type, LHS: lhs, RHS: rhs}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok, err := p.lx.ExpectAny()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case token.INT:
		return &ast.IntLit{ExprBase: ast.ExprBase{Loc: tok.Loc}, Value: tok.IntValue}, nil

	case token.IDENT:
		peeked, err := p.lx.ExpectPeekAny()
		if err != nil {
			return nil, err
		}
		if peeked.Type != token.LPAREN {
			return &ast.VarRef{ExprBase: ast.ExprBase{Loc: tok.Loc}, Name: tok.Lexeme}, nil
		}
		p.lx.Next()
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr{ExprBase: ast.ExprBase{Loc: tok.Loc}, Name: tok.Lexeme, Args: args}, nil

	case token.LPAREN:
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.lx.ExpectPunct(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil

	default:
		return nil, unexpected(tok.Loc, tok)
	}
}
