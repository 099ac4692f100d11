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

// Package lexer implements a single-pass, no-backtracking lexer for the
// turtle language.
//
//   - Words are lower-cased as they are read, so keyword matching is exact.
//     Positions always refer to the source as given.
//   - Whitespace and newlines separate tokens; there is no terminator.
//   - A sign directly before a digit belongs to the number unless the
//     previous token ended an operand, in which case it is an operator.
//   - Characters outside the alphabet are skipped and remembered, never
//     reported as errors.
package lexer

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/probechain/go-turtle/lang/token"
)

// Lexer holds the state for a single-pass tokenization run.
type Lexer struct {
	filename string
	input    []byte

	// pos is the index into input of the next byte to be loaded into ch.
	// After advance(), ch == input[pos-1] and pos points one past it.
	pos  int
	line int // 1-based current line number
	col  int // 1-based current column number

	ch byte // current character; 0 when past end

	prev    token.Type    // type of the last emitted token, ILLEGAL at start
	skipped []token.Token // unrecognized characters, as ILLEGAL tokens
}

// Normalize folds a word to lower case. It is the only case handling the
// language has.
func Normalize(word string) string {
	return cases.Lower(language.Und).String(word)
}

// Tokenize returns the tokens of src, ending with EOF.
func Tokenize(filename, src string) []token.Token {
	return New(filename, src).Tokenize()
}

// New creates a new Lexer for the given filename and input string.
func New(filename, input string) *Lexer {
	l := &Lexer{
		filename: filename,
		input:    []byte(input),
		line:     1,
		col:      0,
		prev:     token.ILLEGAL,
	}
	l.advance() // prime l.ch with the first byte
	return l
}

// advance moves to the next byte in the input, updating line/column tracking.
// When the end of input is reached, ch is set to 0.
func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	if l.pos >= len(l.input) {
		l.ch = 0
		return
	}
	l.ch = l.input[l.pos]
	l.pos++
}

// peek returns the byte after the current character without consuming it.
// Returns 0 if at or past end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// currentPos returns a token.Position capturing the lexer's state right now.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		File:   l.filename,
		Line:   l.line,
		Column: l.col,
		Offset: l.pos - 1,
	}
}

func (l *Lexer) emit(typ token.Type, literal string, pos token.Position) token.Token {
	l.prev = typ
	return token.Token{Type: typ, Literal: literal, Pos: pos}
}

// skipWhitespace consumes space, tab, carriage return, and newline characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.advance()
	}
}

// afterOperand reports whether the last token could end an argument, which
// makes a following sign an operator rather than part of a number.
func (l *Lexer) afterOperand() bool {
	return l.prev.IsOperand()
}

// NextToken scans and returns the next token from the input.
// After EOF is reached, subsequent calls continue returning EOF tokens.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()

		pos := l.currentPos()
		ch := l.ch

		if ch == 0 {
			return l.emit(token.EOF, "", pos)
		}

		l.advance() // consume ch; from here on, l.ch is the character AFTER ch

		switch {
		case isIdentStart(ch):
			lit := l.readIdentFromFirst(ch)
			return l.emit(token.LookupIdent(lit), lit, pos)

		case isDigit(ch):
			return l.emit(token.NUMBER, l.readNumberFromFirst(ch), pos)

		case (ch == '-' || ch == '+') && isDigit(l.ch) && !l.afterOperand():
			first := l.ch
			l.advance()
			return l.emit(token.NUMBER, string(ch)+l.readNumberFromFirst(first), pos)

		case ch == token.VarMarker && isIdentContinue(l.ch):
			first := l.ch
			l.advance()
			return l.emit(token.VAR, l.readIdentFromFirst(first), pos)

		case ch == '+':
			return l.emit(token.PLUS, "+", pos)
		case ch == '-':
			return l.emit(token.MINUS, "-", pos)
		case ch == '*':
			return l.emit(token.STAR, "*", pos)
		case ch == '/':
			return l.emit(token.SLASH, "/", pos)

		case ch == '<':
			return l.emit(token.LT, "<", pos)
		case ch == '>':
			return l.emit(token.GT, ">", pos)
		case ch == '=' && l.ch == '=':
			l.advance()
			return l.emit(token.EQ, "==", pos)
		case ch == '!' && l.ch == '=':
			l.advance()
			return l.emit(token.NEQ, "!=", pos)

		case ch == '[':
			return l.emit(token.LBRACKET, "[", pos)
		case ch == ']':
			return l.emit(token.RBRACKET, "]", pos)
		}

		// Not in the alphabet: drop it, a whole rune at a time, and keep
		// scanning.
		lit := string([]byte{ch})
		if ch >= utf8.RuneSelf {
			_, size := utf8.DecodeRune(l.input[pos.Offset:])
			lit = string(l.input[pos.Offset : pos.Offset+size])
			for i := 1; i < size; i++ {
				l.advance()
			}
		}
		l.skipped = append(l.skipped, token.Token{Type: token.ILLEGAL, Literal: lit, Pos: pos})
	}
}

// Tokenize returns all tokens (including the final EOF) produced by repeated
// calls to NextToken.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

// Skipped returns the characters dropped so far, in input order.
func (l *Lexer) Skipped() []token.Token {
	return l.skipped
}

// readIdentFromFirst builds a lower-cased identifier literal starting with
// the already-consumed byte `first`, then consuming subsequent
// ident-continue bytes.
func (l *Lexer) readIdentFromFirst(first byte) string {
	buf := make([]byte, 1, 16)
	buf[0] = first
	for isIdentContinue(l.ch) {
		buf = append(buf, l.ch)
		l.advance()
	}
	return Normalize(string(buf))
}

// readNumberFromFirst builds a numeric literal from the already-consumed
// digit `first`:
//
//   - digits              →  42
//   - digits "." digits   →  3.25
func (l *Lexer) readNumberFromFirst(first byte) string {
	buf := make([]byte, 1, 24)
	buf[0] = first
	for isDigit(l.ch) {
		buf = append(buf, l.ch)
		l.advance()
	}
	if l.ch == '.' && isDigit(l.peek()) {
		buf = append(buf, '.')
		l.advance()
		for isDigit(l.ch) {
			buf = append(buf, l.ch)
			l.advance()
		}
	}
	return string(buf)
}

// ---------------------------------------------------------------------------
// Character classification helpers
// ---------------------------------------------------------------------------

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
