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

// Package token defines the lexical token types for the turtle language.
//
// The alphabet is small: motion, pen and color commands, control keywords,
// block delimiters, numeric literals, procedure names, `:`-prefixed variable
// references and the arithmetic and comparison operators. Every command
// keyword has a long form and a short alias (forward/fd, penup/pu, ...).
package token

import "fmt"

// VarMarker prefixes every variable reference (`:size`).
const VarMarker = ':'

// Token represents a lexical token.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}

func (t Token) String() string {
	switch t.Type {
	case NUMBER, IDENT:
		return t.Literal
	case VAR:
		return string(VarMarker) + t.Literal
	}
	return t.Type.String()
}

// Position tracks source location.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Type is the set of lexical token types.
type Type int

const (
	// Special tokens
	ILLEGAL Type = iota
	EOF

	// Literals
	NUMBER // 42, -3.5
	IDENT  // square, tree
	VAR    // :size (Literal holds "size")

	// Arithmetic, one application per argument
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Comparison
	EQ  // ==
	NEQ // !=
	LT  // <
	GT  // >

	// Block delimiters
	LBRACKET // [
	RBRACKET // ]

	keywordStart
	FORWARD  // forward fd
	BACK     // back bk
	RIGHT    // right rt
	LEFT     // left lt
	PENUP    // penup pu
	PENDOWN  // pendown pd
	SETCOLOR // setcolor sc
	REPEAT   // repeat
	IF       // if
	TO       // to
	END      // end
	keywordEnd
)

var tokenNames = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	NUMBER: "NUMBER",
	IDENT:  "IDENT",
	VAR:    "VAR",

	PLUS:  "+",
	MINUS: "-",
	STAR:  "*",
	SLASH: "/",

	EQ:  "==",
	NEQ: "!=",
	LT:  "<",
	GT:  ">",

	LBRACKET: "[",
	RBRACKET: "]",

	FORWARD:  "forward",
	BACK:     "back",
	RIGHT:    "right",
	LEFT:     "left",
	PENUP:    "penup",
	PENDOWN:  "pendown",
	SETCOLOR: "setcolor",
	REPEAT:   "repeat",
	IF:       "if",
	TO:       "to",
	END:      "end",
}

// aliases are the short spellings accepted for command keywords.
var aliases = map[string]Type{
	"fd": FORWARD,
	"bk": BACK,
	"rt": RIGHT,
	"lt": LEFT,
	"pu": PENUP,
	"pd": PENDOWN,
	"sc": SETCOLOR,
}

// String returns the string form of a token type.
func (t Type) String() string {
	if int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// IsKeyword returns true if the token is a keyword.
func (t Type) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// IsMotion reports whether t moves or turns the turtle.
func (t Type) IsMotion() bool {
	return t >= FORWARD && t <= LEFT
}

// IsOperator returns true if the token is an arithmetic operator.
func (t Type) IsOperator() bool {
	return t >= PLUS && t <= SLASH
}

// IsComparator returns true if the token is a comparison operator.
func (t Type) IsComparator() bool {
	return t >= EQ && t <= GT
}

// IsOperand reports whether a token of this type can stand alone as an
// argument expression.
func (t Type) IsOperand() bool {
	return t == NUMBER || t == VAR
}

// keywords maps keyword strings and aliases to token types.
var keywords map[string]Type

func init() {
	keywords = make(map[string]Type)
	for i := keywordStart + 1; i < keywordEnd; i++ {
		keywords[tokenNames[i]] = i
	}
	for alias, typ := range aliases {
		keywords[alias] = typ
	}
}

// LookupIdent checks if an identifier is a keyword. The identifier must
// already be lower case.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
