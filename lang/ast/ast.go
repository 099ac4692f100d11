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

// Package ast defines the Abstract Syntax Tree for the turtle language.
//
// Design overview:
//
//   - All AST nodes implement the Node interface via TokenLiteral and String.
//   - Statement, Expression and Operand are sealed marker interfaces; the
//     unexported marker methods keep the variant set closed to this package.
//   - A BinaryExpr holds two Operands, never Expressions, so an argument can
//     carry at most one arithmetic application.
//   - String renders nodes back into source form, which round-trips through
//     the parser.
package ast

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/probechain/go-turtle/lang/token"
)

// ErrResourceExhausted is the parent of every limit error, whether it is
// raised while building a tree or while walking one.
var ErrResourceExhausted = errors.New("resource exhausted")

// ---------------------------------------------------------------------------
// Core interfaces
// ---------------------------------------------------------------------------

// Node is the base interface that every AST node must implement.
type Node interface {
	// TokenLiteral returns the literal value of the token that originated this
	// node. Used primarily for debugging and testing.
	TokenLiteral() string

	// String returns the node in source form.
	String() string

	// Pos returns the position of the originating token.
	Pos() token.Position
}

// Statement is a marker interface for all statement nodes.
type Statement interface {
	Node
	statementNode()
}

// Expression is a marker interface for numeric argument expressions.
type Expression interface {
	Node
	expressionNode()
}

// Operand is an expression that can appear on either side of a BinaryExpr:
// a number literal or a variable reference.
type Operand interface {
	Expression
	operandNode()
}

// ---------------------------------------------------------------------------
// Program
// ---------------------------------------------------------------------------

// Program is the top-level AST node.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Position{}
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteByte('\n')
	}
	return out.String()
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// NumberLit is a numeric literal.
type NumberLit struct {
	Token token.Token
	Value float64
}

func (e *NumberLit) expressionNode()      {}
func (e *NumberLit) operandNode()         {}
func (e *NumberLit) TokenLiteral() string { return e.Token.Literal }
func (e *NumberLit) Pos() token.Position  { return e.Token.Pos }
func (e *NumberLit) String() string {
	if e.Token.Literal != "" {
		return e.Token.Literal
	}
	return strconv.FormatFloat(e.Value, 'g', -1, 64)
}

// VarRef is a `:name` variable reference. Name excludes the marker.
type VarRef struct {
	Token token.Token
	Name  string
}

func (e *VarRef) expressionNode()      {}
func (e *VarRef) operandNode()         {}
func (e *VarRef) TokenLiteral() string { return e.Token.Literal }
func (e *VarRef) Pos() token.Position  { return e.Token.Pos }
func (e *VarRef) String() string       { return string(token.VarMarker) + e.Name }

// BinaryExpr applies one arithmetic operator to two operands.
type BinaryExpr struct {
	Token token.Token // the operator token
	Left  Operand
	Op    token.Type
	Right Operand
}

func (e *BinaryExpr) expressionNode()      {}
func (e *BinaryExpr) TokenLiteral() string { return e.Token.Literal }
func (e *BinaryExpr) Pos() token.Position  { return e.Token.Pos }
func (e *BinaryExpr) String() string {
	return e.Left.String() + " " + e.Op.String() + " " + e.Right.String()
}

// Condition compares two argument expressions. It only appears as the test
// of an IfStmt.
type Condition struct {
	Token token.Token // the comparator token
	Left  Expression
	Op    token.Type
	Right Expression
}

func (c *Condition) TokenLiteral() string { return c.Token.Literal }
func (c *Condition) Pos() token.Position  { return c.Token.Pos }
func (c *Condition) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// MoveStmt is forward, back, right or left with one argument.
type MoveStmt struct {
	Token   token.Token // the command keyword
	Command token.Type  // FORWARD, BACK, RIGHT or LEFT
	Arg     Expression
}

func (s *MoveStmt) statementNode()       {}
func (s *MoveStmt) TokenLiteral() string { return s.Token.Literal }
func (s *MoveStmt) Pos() token.Position  { return s.Token.Pos }
func (s *MoveStmt) String() string       { return s.Command.String() + " " + s.Arg.String() }

// PenStmt is penup or pendown.
type PenStmt struct {
	Token token.Token
	Down  bool
}

func (s *PenStmt) statementNode()       {}
func (s *PenStmt) TokenLiteral() string { return s.Token.Literal }
func (s *PenStmt) Pos() token.Position  { return s.Token.Pos }
func (s *PenStmt) String() string {
	if s.Down {
		return token.PENDOWN.String()
	}
	return token.PENUP.String()
}

// SetColorStmt sets the stroke color from three channel expressions.
type SetColorStmt struct {
	Token   token.Token
	R, G, B Expression
}

func (s *SetColorStmt) statementNode()       {}
func (s *SetColorStmt) TokenLiteral() string { return s.Token.Literal }
func (s *SetColorStmt) Pos() token.Position  { return s.Token.Pos }
func (s *SetColorStmt) String() string {
	return token.SETCOLOR.String() + " " + s.R.String() + " " + s.G.String() + " " + s.B.String()
}

// Block is a bracketed statement list.
type Block struct {
	Token      token.Token // '['
	Statements []Statement
}

func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) Pos() token.Position  { return b.Token.Pos }
func (b *Block) String() string {
	parts := make([]string, 0, len(b.Statements)+2)
	parts = append(parts, "[")
	for _, s := range b.Statements {
		parts = append(parts, s.String())
	}
	parts = append(parts, "]")
	return strings.Join(parts, " ")
}

// RepeatStmt runs Body Count times.
type RepeatStmt struct {
	Token token.Token
	Count Expression
	Body  *Block
}

func (s *RepeatStmt) statementNode()       {}
func (s *RepeatStmt) TokenLiteral() string { return s.Token.Literal }
func (s *RepeatStmt) Pos() token.Position  { return s.Token.Pos }
func (s *RepeatStmt) String() string {
	return token.REPEAT.String() + " " + s.Count.String() + " " + s.Body.String()
}

// IfStmt runs Body once when Cond holds. There is no else branch.
type IfStmt struct {
	Token token.Token
	Cond  *Condition
	Body  *Block
}

func (s *IfStmt) statementNode()       {}
func (s *IfStmt) TokenLiteral() string { return s.Token.Literal }
func (s *IfStmt) Pos() token.Position  { return s.Token.Pos }
func (s *IfStmt) String() string {
	return token.IF.String() + " " + s.Cond.String() + " " + s.Body.String()
}

// ToStmt defines a procedure.
type ToStmt struct {
	Token  token.Token
	Name   string
	Params []string // parameter names without the marker, in order
	Body   []Statement
}

func (s *ToStmt) statementNode()       {}
func (s *ToStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ToStmt) Pos() token.Position  { return s.Token.Pos }
func (s *ToStmt) String() string {
	parts := []string{token.TO.String(), s.Name}
	for _, p := range s.Params {
		parts = append(parts, string(token.VarMarker)+p)
	}
	for _, st := range s.Body {
		parts = append(parts, st.String())
	}
	parts = append(parts, token.END.String())
	return strings.Join(parts, " ")
}

// CallStmt invokes a procedure with positional arguments.
type CallStmt struct {
	Token token.Token
	Name  string
	Args  []Expression
}

func (s *CallStmt) statementNode()       {}
func (s *CallStmt) TokenLiteral() string { return s.Token.Literal }
func (s *CallStmt) Pos() token.Position  { return s.Token.Pos }
func (s *CallStmt) String() string {
	parts := []string{s.Name}
	for _, a := range s.Args {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Traversal
// ---------------------------------------------------------------------------

// Inspect calls fn for every statement in stmts, depth first, descending into
// blocks and procedure bodies. Returning false from fn skips the children of
// that statement.
func Inspect(stmts []Statement, fn func(Statement) bool) {
	for _, s := range stmts {
		if !fn(s) {
			continue
		}
		switch s := s.(type) {
		case *RepeatStmt:
			Inspect(s.Body.Statements, fn)
		case *IfStmt:
			Inspect(s.Body.Statements, fn)
		case *ToStmt:
			Inspect(s.Body, fn)
		}
	}
}

// Operands returns the operands referenced by an expression, left to right.
func Operands(e Expression) []Operand {
	switch e := e.(type) {
	case *BinaryExpr:
		return []Operand{e.Left, e.Right}
	case Operand:
		return []Operand{e}
	}
	return nil
}
