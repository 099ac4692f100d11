// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package parser implements a recursive-descent parser for the turtle
// language.
//
// Design overview:
//
//   - Statements are parsed with straightforward recursive descent.
//   - Open '[' and 'to' scopes are tracked on an explicit stack, so a ']' or
//     'end' is checked against the innermost opener as soon as it is read.
//     Openers still on the stack at end of input are reported then.
//   - An argument is an operand optionally followed by exactly one operator
//     and a second operand. A third operand is left for the next statement.
//   - The first error aborts the parse; there is no recovery.
//   - The scope stack doubles as the nesting depth. Openers beyond
//     Config.MaxNesting fail with ErrMaxNesting before the recursion can
//     exhaust the goroutine stack.
//
// Grammar:
//
//	statement := motion arg | penup | pendown | setcolor arg arg arg
//	           | 'repeat' arg block | 'if' condition block
//	           | 'to' IDENT VAR* statement* 'end'
//	           | IDENT arg*
//	block     := '[' statement* ']'
//	arg       := operand ( op operand )?
//	condition := arg comparator arg
//	operand   := NUMBER | VAR
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/probechain/go-turtle/lang/ast"
	"github.com/probechain/go-turtle/lang/lexer"
	"github.com/probechain/go-turtle/lang/token"
)

var (
	// ErrSyntax is wrapped by every error the parser returns.
	ErrSyntax = errors.New("syntax error")

	// ErrMaxNesting is wrapped by syntax errors for programs nested deeper
	// than the configured limit.
	ErrMaxNesting = fmt.Errorf("%w: nesting limit reached", ast.ErrResourceExhausted)
)

// Config bounds a parse. A zero limit disables the check.
type Config struct {
	MaxNesting int // open '[' and 'to' scopes
}

// DefaultConfig is used by Parse and ParseTokens.
var DefaultConfig = Config{MaxNesting: 2048}

// SyntaxError is a positioned parse failure.
type SyntaxError struct {
	Pos   token.Position
	Token token.Token // offending token
	Msg   string

	// Incomplete is set when the input ran out before the construct being
	// parsed was finished, so appending more input may make it valid.
	Incomplete bool

	// Err is the specific cause, if any, besides ErrSyntax.
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Pos, ErrSyntax, e.Msg)
}

func (e *SyntaxError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSyntax, e.Err}
	}
	return []error{ErrSyntax}
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

// Parser holds the mutable state for a single parse run.
type Parser struct {
	toks []token.Token
	pos  int         // index of cur in toks
	cur  token.Token // current token

	// scopes holds the '[' and 'to' tokens not yet closed, innermost last.
	scopes     []token.Token
	maxNesting int
}

// Parse is the public entry point. It normalizes and tokenizes source, then
// parses the token stream with DefaultConfig.
func Parse(filename, source string) (*ast.Program, error) {
	return DefaultConfig.Parse(filename, source)
}

// ParseTokens parses an already lexed token sequence with DefaultConfig.
func ParseTokens(toks []token.Token) (*ast.Program, error) {
	return DefaultConfig.ParseTokens(toks)
}

// Parse normalizes and tokenizes source, then parses it under c.
func (c Config) Parse(filename, source string) (*ast.Program, error) {
	return c.ParseTokens(lexer.Tokenize(filename, source))
}

// ParseTokens parses an already lexed token sequence under c. A missing
// trailing EOF token is tolerated.
func (c Config) ParseTokens(toks []token.Token) (*ast.Program, error) {
	p := &Parser{toks: toks, maxNesting: c.MaxNesting}
	p.cur = p.at(0)
	return p.parseProgram()
}

// ---------------------------------------------------------------------------
// Token navigation helpers
// ---------------------------------------------------------------------------

func (p *Parser) at(i int) token.Token {
	if i < len(p.toks) {
		return p.toks[i]
	}
	var pos token.Position
	if n := len(p.toks); n > 0 {
		pos = p.toks[n-1].Pos
	}
	return token.Token{Type: token.EOF, Pos: pos}
}

// advance moves to the next token.
func (p *Parser) advance() {
	if p.pos < len(p.toks) {
		p.pos++
	}
	p.cur = p.at(p.pos)
}

// curIs returns true if the current token has the given type.
func (p *Parser) curIs(typ token.Type) bool { return p.cur.Type == typ }

// errorf builds a syntax error at tok.
func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) error {
	return &SyntaxError{
		Pos:        tok.Pos,
		Token:      tok,
		Msg:        fmt.Sprintf(format, args...),
		Incomplete: p.cur.Type == token.EOF,
	}
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return strconv.Quote(tok.String())
}

// ---------------------------------------------------------------------------
// Scope stack
// ---------------------------------------------------------------------------

func (p *Parser) openScope(tok token.Token) error {
	if p.maxNesting > 0 && len(p.scopes) >= p.maxNesting {
		return &SyntaxError{
			Pos:   tok.Pos,
			Token: tok,
			Msg:   fmt.Sprintf("%s nested more than %d deep", describe(tok), p.maxNesting),
			Err:   ErrMaxNesting,
		}
	}
	p.scopes = append(p.scopes, tok)
	return nil
}

// closeScope pops the innermost opener and checks that closer matches it.
func (p *Parser) closeScope(closer token.Token) error {
	want := token.LBRACKET
	if closer.Type == token.END {
		want = token.TO
	}
	n := len(p.scopes)
	if n == 0 {
		return p.errorf(closer, "unexpected %s with no open %s", describe(closer), describe(token.Token{Type: want}))
	}
	open := p.scopes[n-1]
	p.scopes = p.scopes[:n-1]
	if open.Type != want {
		return p.errorf(closer, "unexpected %s, %s opened at %s is still open", describe(closer), describe(open), open.Pos)
	}
	return nil
}

// unclosed reports the innermost scope left open at end of input.
func (p *Parser) unclosed() error {
	open := p.scopes[len(p.scopes)-1]
	if open.Type == token.TO {
		return p.errorf(open, "missing 'end' for procedure opened at %s", open.Pos)
	}
	return p.errorf(open, "missing ']' for block opened at %s", open.Pos)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseProgram() (*ast.Program, error) {
	stmts, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if len(p.scopes) > 0 {
		return nil, p.unclosed()
	}
	return &ast.Program{Statements: stmts}, nil
}

// parseStatements parses until end of input or a closer. A closer is checked
// against the scope stack and consumed.
func (p *Parser) parseStatements() ([]ast.Statement, error) {
	var stmts []ast.Statement
	for !p.curIs(token.EOF) {
		if p.curIs(token.RBRACKET) || p.curIs(token.END) {
			closer := p.cur
			if err := p.closeScope(closer); err != nil {
				return nil, err
			}
			p.advance()
			return stmts, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// parseStatement dispatches on the current token.
func (p *Parser) parseStatement() (ast.Statement, error) {
	switch tok := p.cur; {
	case tok.Type.IsMotion():
		p.advance()
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		return &ast.MoveStmt{Token: tok, Command: tok.Type, Arg: arg}, nil

	case tok.Type == token.PENUP, tok.Type == token.PENDOWN:
		p.advance()
		return &ast.PenStmt{Token: tok, Down: tok.Type == token.PENDOWN}, nil

	case tok.Type == token.SETCOLOR:
		return p.parseSetColor()

	case tok.Type == token.REPEAT:
		return p.parseRepeat()

	case tok.Type == token.IF:
		return p.parseIf()

	case tok.Type == token.TO:
		return p.parseTo()

	case tok.Type == token.IDENT:
		return p.parseCall()

	default:
		return nil, p.errorf(tok, "unexpected %s", describe(tok))
	}
}

// setcolor arg arg arg
func (p *Parser) parseSetColor() (ast.Statement, error) {
	stmt := &ast.SetColorStmt{Token: p.cur}
	p.advance()

	var err error
	for _, ch := range []*ast.Expression{&stmt.R, &stmt.G, &stmt.B} {
		if *ch, err = p.parseArg(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// 'repeat' arg block
func (p *Parser) parseRepeat() (ast.Statement, error) {
	tok := p.cur
	p.advance()

	count, err := p.parseArg()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock("repeat count")
	if err != nil {
		return nil, err
	}
	return &ast.RepeatStmt{Token: tok, Count: count, Body: body}, nil
}

// 'if' condition block
func (p *Parser) parseIf() (ast.Statement, error) {
	tok := p.cur
	p.advance()

	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock("if condition")
	if err != nil {
		return nil, err
	}
	return &ast.IfStmt{Token: tok, Cond: cond, Body: body}, nil
}

// parseBlock parses '[' statement* ']'. The closing bracket may be missing
// at end of input; parseProgram reports it from the scope stack.
func (p *Parser) parseBlock(after string) (*ast.Block, error) {
	if !p.curIs(token.LBRACKET) {
		return nil, p.errorf(p.cur, "expected '[' after %s, got %s", after, describe(p.cur))
	}
	open := p.cur
	if err := p.openScope(open); err != nil {
		return nil, err
	}
	p.advance()

	stmts, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	return &ast.Block{Token: open, Statements: stmts}, nil
}

// 'to' IDENT VAR* statement* 'end'
func (p *Parser) parseTo() (ast.Statement, error) {
	tok := p.cur
	p.advance()

	if !p.curIs(token.IDENT) {
		return nil, p.errorf(p.cur, "expected procedure name after 'to', got %s", describe(p.cur))
	}
	stmt := &ast.ToStmt{Token: tok, Name: p.cur.Literal}
	p.advance()

	for p.curIs(token.VAR) {
		stmt.Params = append(stmt.Params, p.cur.Literal)
		p.advance()
	}

	if err := p.openScope(tok); err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

// IDENT arg*, taking arguments for as long as an operand follows.
func (p *Parser) parseCall() (ast.Statement, error) {
	stmt := &ast.CallStmt{Token: p.cur, Name: p.cur.Literal}
	p.advance()

	for p.cur.Type.IsOperand() {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		stmt.Args = append(stmt.Args, arg)
	}
	return stmt, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// parseArg parses operand ( op operand )?.
func (p *Parser) parseArg() (ast.Expression, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if !p.cur.Type.IsOperator() {
		return left, nil
	}
	op := p.cur
	p.advance()

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Token: op, Left: left, Op: op.Type, Right: right}, nil
}

// parseCondition parses arg comparator arg.
func (p *Parser) parseCondition() (*ast.Condition, error) {
	left, err := p.parseArg()
	if err != nil {
		return nil, err
	}
	if !p.cur.Type.IsComparator() {
		return nil, p.errorf(p.cur, "expected comparison operator, got %s", describe(p.cur))
	}
	op := p.cur
	p.advance()

	right, err := p.parseArg()
	if err != nil {
		return nil, err
	}
	return &ast.Condition{Token: op, Left: left, Op: op.Type, Right: right}, nil
}

// parseOperand parses a number literal or a variable reference.
func (p *Parser) parseOperand() (ast.Operand, error) {
	tok := p.cur
	switch tok.Type {
	case token.NUMBER:
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, p.errorf(tok, "malformed number %s", describe(tok))
		}
		p.advance()
		return &ast.NumberLit{Token: tok, Value: v}, nil

	case token.VAR:
		p.advance()
		return &ast.VarRef{Token: tok, Name: tok.Literal}, nil

	default:
		return nil, p.errorf(tok, "expected number or variable, got %s", describe(tok))
	}
}
