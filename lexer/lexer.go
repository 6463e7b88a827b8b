// Package lexer turns source bytes into a stream of token.Token values.
//
// The scanner is lazy and keeps at most one token of lookahead: Peek and
// Next both produce the token starting at the current read position, but
// only Next consumes it. This mirrors the teacher project's Peek in spirit
// while following the original `red` compiler's lexer.rs exactly for the
// tokenization rules themselves (greedy two-character operators, keyword
// table lookup, 32-bit integer literals).
package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/redlang/redc/token"
)

func isAlpha(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlnum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// Error is a lexical error: invalid UTF-8, an out-of-range integer literal,
// or a byte that matches no token rule (spec.md §7).
type Error struct {
	Loc     token.Loc
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

// Lexer scans a byte slice into tokens on demand, keeping one token of
// lookahead. It keeps the slice passed to New without copying it; each
// returned token's Lexeme is a string copied from the bytes it spans.
type Lexer struct {
	src []byte
	pos int
	row int
	col int

	peeked    *token.Token
	peekedErr error
}

// New creates a Lexer over src. Row/column tracking starts at (1, 1).
func New(src []byte) *Lexer {
	return &Lexer{src: src, row: 1, col: 1}
}

func (lx *Lexer) loc() token.Loc {
	return token.Loc{Row: lx.row, Col: lx.col}
}

func (lx *Lexer) atEnd() bool {
	return lx.pos >= len(lx.src)
}

func (lx *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if lx.pos >= len(lx.src) {
			return
		}
		if lx.src[lx.pos] == '\n' {
			lx.row++
			lx.col = 1
		} else {
			lx.col++
		}
		lx.pos++
	}
}

func (lx *Lexer) skipWhitespace() {
	for !lx.atEnd() && isSpace(lx.src[lx.pos]) {
		lx.advance(1)
	}
}

func (lx *Lexer) byteAt(offset int) byte {
	i := lx.pos + offset
	if i >= len(lx.src) {
		return 0
	}
	return lx.src[i]
}

// Peek returns the next token without consuming it. Calling Peek again
// before Next returns the same token (spec.md §8: peek is idempotent).
func (lx *Lexer) Peek() (token.Token, bool, error) {
	if lx.peeked != nil || lx.peekedErr != nil {
		if lx.peekedErr != nil {
			return token.Token{}, false, lx.peekedErr
		}
		return *lx.peeked, true, nil
	}

	tok, ok, err := lx.scan()
	if err != nil {
		lx.peekedErr = err
		return token.Token{}, false, err
	}
	if ok {
		lx.peeked = &tok
	}
	return tok, ok, nil
}

// Next returns and consumes the next token, clearing any pending peek.
func (lx *Lexer) Next() (token.Token, bool, error) {
	tok, ok, err := lx.Peek()
	lx.peeked = nil
	lx.peekedErr = nil
	return tok, ok, err
}

// ExpectAny consumes and returns the next token, failing if the input is
// exhausted.
func (lx *Lexer) ExpectAny() (token.Token, error) {
	tok, ok, err := lx.Next()
	if err != nil {
		return token.Token{}, err
	}
	if !ok {
		return token.Token{}, Error{Loc: lx.loc(), Message: "token expected, reached end"}
	}
	return tok, nil
}

// ExpectPeekAny peeks the next token, failing if the input is exhausted.
func (lx *Lexer) ExpectPeekAny() (token.Token, error) {
	tok, ok, err := lx.Peek()
	if err != nil {
		return token.Token{}, err
	}
	if !ok {
		return token.Token{}, Error{Loc: lx.loc(), Message: "token expected, reached end"}
	}
	return tok, nil
}

// ExpectIdent consumes and requires an identifier token, returning its text.
func (lx *Lexer) ExpectIdent() (string, error) {
	tok, err := lx.ExpectAny()
	if err != nil {
		return "", err
	}
	if tok.Type != token.IDENT {
		return "", Error{Loc: tok.Loc, Message: fmt.Sprintf("identifier expected, found %s", tok)}
	}
	return tok.Lexeme, nil
}

// ExpectPunct consumes and requires punctuator p.
func (lx *Lexer) ExpectPunct(p token.Type) error {
	tok, err := lx.ExpectAny()
	if err != nil {
		return err
	}
	if tok.Type != p {
		return Error{Loc: tok.Loc, Message: fmt.Sprintf("punctuator `%s` expected, found %s", p, tok)}
	}
	return nil
}

// RawUntilSemicolon consumes and returns the raw source text, unparsed and
// untokenized, from the current position up to (but not including) the
// next `;`. It is used for `cmd <raw text>;` statements, whose
// body is passed through to the output verbatim (spec.md §3, §4.4). Any
// pending Peek is discarded: raw capture always restarts scanning from the
// true current byte position.
func (lx *Lexer) RawUntilSemicolon() (string, error) {
	lx.peeked = nil
	lx.peekedErr = nil
	lx.skipWhitespace()

	start := lx.pos
	for {
		if lx.atEnd() {
			return "", Error{Loc: lx.loc(), Message: "unterminated `cmd` statement, expected `;`"}
		}
		if lx.src[lx.pos] == ';' {
			break
		}
		lx.advance(1)
	}
	text := string(lx.src[start:lx.pos])
	// trim trailing whitespace the caller's skip-whitespace loop would
	// otherwise have absorbed into the next token.
	end := len(text)
	for end > 0 && isSpace(text[end-1]) {
		end--
	}
	return text[:end], nil
}

// scan produces the single next token starting at pos, or (zero, false,
// nil) at end of input. It never looks past the token it returns, which is
// what lets RawUntilSemicolon resume raw scanning mid-stream.
func (lx *Lexer) scan() (token.Token, bool, error) {
	lx.skipWhitespace()
	if lx.atEnd() {
		return token.Token{}, false, nil
	}

	loc := lx.loc()
	b := lx.src[lx.pos]

	switch {
	case isAlpha(b):
		return lx.scanIdent(loc)
	case isDigit(b):
		return lx.scanNumber(loc)
	}

	if typ, width, ok := lx.scanOperatorOrPunct(); ok {
		lexeme := string(lx.src[lx.pos : lx.pos+width])
		lx.advance(width)
		return token.Token{Type: typ, Lexeme: lexeme, Loc: loc}, true, nil
	}

	return token.Token{}, false, Error{Loc: loc, Message: fmt.Sprintf("undefined token %q", string(b))}
}

func (lx *Lexer) scanIdent(loc token.Loc) (token.Token, bool, error) {
	start := lx.pos
	end := start + 1
	for end < len(lx.src) && isAlnum(lx.src[end]) {
		end++
	}
	raw := lx.src[start:end]
	if !utf8.Valid(raw) {
		lx.advance(end - start)
		return token.Token{}, false, Error{Loc: loc, Message: "invalid UTF-8 in identifier"}
	}
	text := string(raw)
	lx.advance(end - start)

	if kw, ok := token.Keywords[text]; ok {
		return token.Token{Type: kw, Lexeme: text, Loc: loc}, true, nil
	}
	return token.Token{Type: token.IDENT, Lexeme: text, Loc: loc}, true, nil
}

func (lx *Lexer) scanNumber(loc token.Loc) (token.Token, bool, error) {
	start := lx.pos
	end := start + 1
	for end < len(lx.src) && isDigit(lx.src[end]) {
		end++
	}
	text := string(lx.src[start:end])
	lx.advance(end - start)

	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return token.Token{}, false, Error{Loc: loc, Message: fmt.Sprintf("invalid 32-bit integer literal %q", text)}
	}
	return token.Token{Type: token.INT, Lexeme: text, IntValue: int32(n), Loc: loc}, true, nil
}

// scanOperatorOrPunct matches the greedy two-character operators (==, !=,
// &&, ||, >=, <=) before falling back to one-character operators and
// punctuators, per spec.md §4.1.
func (lx *Lexer) scanOperatorOrPunct() (token.Type, int, bool) {
	b0 := lx.byteAt(0)
	b1 := lx.byteAt(1)

	switch b0 {
	case '=':
		if b1 == '=' {
			return token.EQ, 2, true
		}
		return token.ASSIGN, 1, true
	case '!':
		if b1 == '=' {
			return token.NE, 2, true
		}
		return token.ILLEGAL, 0, false
	case '&':
		if b1 == '&' {
			return token.AND, 2, true
		}
		return token.ILLEGAL, 0, false
	case '|':
		if b1 == '|' {
			return token.OR, 2, true
		}
		return token.ILLEGAL, 0, false
	case '>':
		if b1 == '=' {
			return token.GE, 2, true
		}
		return token.GT, 1, true
	case '<':
		if b1 == '=' {
			return token.LE, 2, true
		}
		return token.LT, 1, true
	case '+':
		return token.ADD, 1, true
	case '-':
		return token.SUB, 1, true
	case '*':
		return token.MUL, 1, true
	case '/':
		return token.DIV, 1, true
	case ';':
		return token.SEMI, 1, true
	case ',':
		return token.COMMA, 1, true
	case ':':
		return token.COLON, 1, true
	case '(':
		return token.LPAREN, 1, true
	case ')':
		return token.RPAREN, 1, true
	case '{':
		return token.LBRACE, 1, true
	case '}':
		return token.RBRACE, 1, true
	}
	return token.ILLEGAL, 0, false
}
