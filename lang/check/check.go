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

// Package check reports suspicious but legal constructs in a turtle program.
// Findings are advisory; none of them stop a program from running.
package check

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set"

	"github.com/probechain/go-turtle/lang/ast"
	"github.com/probechain/go-turtle/lang/lexer"
	"github.com/probechain/go-turtle/lang/parser"
	"github.com/probechain/go-turtle/lang/token"
)

// Kind classifies a warning.
type Kind int

const (
	UndefinedProcedure Kind = iota
	TopLevelVariable
	UnknownVariable
	ArityMismatch
	Redefinition
	UnusedProcedure
	SkippedInput
)

var kindNames = [...]string{
	UndefinedProcedure: "undefined-procedure",
	TopLevelVariable:   "top-level-variable",
	UnknownVariable:    "unknown-variable",
	ArityMismatch:      "arity-mismatch",
	Redefinition:       "redefinition",
	UnusedProcedure:    "unused-procedure",
	SkippedInput:       "skipped-input",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Warning is one finding.
type Warning struct {
	Pos  token.Position
	Kind Kind
	Msg  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Pos, w.Kind, w.Msg)
}

// Source lexes, parses and checks src. Characters the lexer dropped are
// reported alongside the program findings. A syntax error is returned as is.
func Source(filename, src string) ([]Warning, error) {
	lx := lexer.New(filename, src)
	toks := lx.Tokenize()
	prog, err := parser.ParseTokens(toks)
	if err != nil {
		return nil, err
	}
	warns := Program(prog)
	for _, tok := range lx.Skipped() {
		warns = append(warns, Warning{Pos: tok.Pos, Kind: SkippedInput, Msg: fmt.Sprintf("ignored character %q", tok.Literal)})
	}
	sortWarnings(warns)
	return warns, nil
}

// Program checks a parsed program. Warnings are ordered by position.
func Program(prog *ast.Program) []Warning {
	c := &checker{
		defs:   make(map[string]*ast.ToStmt),
		called: mapset.NewSet(),
	}
	// Definitions are collected up front: a call may legally precede the
	// definition inside a procedure body.
	ast.Inspect(prog.Statements, func(s ast.Statement) bool {
		if def, ok := s.(*ast.ToStmt); ok {
			if prev, seen := c.defs[def.Name]; seen {
				c.warnf(def.Pos(), Redefinition, "procedure %q redefined (previous definition at %s)", def.Name, prev.Pos())
			}
			c.defs[def.Name] = def
		}
		return true
	})
	c.walk(prog.Statements, nil)

	for name, def := range c.defs {
		if !c.called.Contains(name) {
			c.warnf(def.Pos(), UnusedProcedure, "procedure %q is never called", name)
		}
	}
	sortWarnings(c.warns)
	return c.warns
}

type checker struct {
	defs   map[string]*ast.ToStmt
	called mapset.Set
	warns  []Warning
}

func (c *checker) warnf(pos token.Position, kind Kind, format string, args ...interface{}) {
	c.warns = append(c.warns, Warning{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// walk visits stmts; params is nil at top level.
func (c *checker) walk(stmts []ast.Statement, params mapset.Set) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.MoveStmt:
			c.exprs(params, s.Arg)
		case *ast.SetColorStmt:
			c.exprs(params, s.R, s.G, s.B)
		case *ast.RepeatStmt:
			c.exprs(params, s.Count)
			c.walk(s.Body.Statements, params)
		case *ast.IfStmt:
			c.exprs(params, s.Cond.Left, s.Cond.Right)
			c.walk(s.Body.Statements, params)
		case *ast.ToStmt:
			inner := mapset.NewSet()
			for _, p := range s.Params {
				inner.Add(p)
			}
			c.walk(s.Body, inner)
		case *ast.CallStmt:
			c.exprs(params, s.Args...)
			c.call(s)
		}
	}
}

func (c *checker) call(s *ast.CallStmt) {
	c.called.Add(s.Name)
	def, ok := c.defs[s.Name]
	if !ok {
		c.warnf(s.Pos(), UndefinedProcedure, "call to undefined procedure %q", s.Name)
		return
	}
	if len(s.Args) != len(def.Params) {
		c.warnf(s.Pos(), ArityMismatch, "%q takes %d argument(s), called with %d", s.Name, len(def.Params), len(s.Args))
	}
}

func (c *checker) exprs(params mapset.Set, exprs ...ast.Expression) {
	for _, e := range exprs {
		for _, op := range ast.Operands(e) {
			v, ok := op.(*ast.VarRef)
			if !ok {
				continue
			}
			switch {
			case params == nil:
				c.warnf(v.Pos(), TopLevelVariable, "%s referenced outside of any procedure", v)
			case !params.Contains(v.Name):
				c.warnf(v.Pos(), UnknownVariable, "%s is not a parameter of the enclosing procedure", v)
			}
		}
	}
}

func sortWarnings(warns []Warning) {
	sort.SliceStable(warns, func(i, j int) bool {
		a, b := warns[i].Pos, warns[j].Pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}
