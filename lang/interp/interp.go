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

// Package interp walks a parsed turtle program and drives a turtle with it.
//
// An Interpreter bundles the procedure Environment and the Turtle of one run
// and is passed down the recursive evaluator. Variables resolve only against
// the Binding of the innermost procedure call; the top level has none.
package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/probechain/go-turtle/lang/ast"
	"github.com/probechain/go-turtle/lang/token"
	"github.com/probechain/go-turtle/log"
	"github.com/probechain/go-turtle/turtle"
)

var (
	// ErrUnboundVariable is returned when a variable is referenced outside any
	// procedure or is not a bound parameter of the current call.
	ErrUnboundVariable = errors.New("unbound variable")

	// ErrUndefinedProcedure is returned when a call names no known procedure.
	ErrUndefinedProcedure = errors.New("undefined procedure")

	// ErrUnsupportedOperator is returned when an argument expression carries an
	// operator that is not arithmetic.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrResourceExhausted is the parent of all budget errors. Parse-time
	// nesting errors wrap it too.
	ErrResourceExhausted = ast.ErrResourceExhausted

	ErrMaxDepth = fmt.Errorf("%w: depth limit reached", ErrResourceExhausted)
	ErrMaxSteps = fmt.Errorf("%w: step limit reached", ErrResourceExhausted)
)

// RuntimeError is an evaluation failure tied to the statement or expression
// that raised it.
type RuntimeError struct {
	Pos token.Position
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: runtime error: %v", e.Pos, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func runtimeErr(pos token.Position, err error, format string, args ...interface{}) error {
	if format != "" {
		err = fmt.Errorf("%w "+format, append([]interface{}{err}, args...)...)
	}
	return &RuntimeError{Pos: pos, Err: err}
}

// Config bounds a run. A zero limit disables that check.
type Config struct {
	MaxDepth int    // active procedure calls plus open repeat and if blocks
	MaxSteps uint64 // executed statements plus loop iterations
}

// DefaultConfig is used by callers that have no configuration of their own.
var DefaultConfig = Config{
	MaxDepth: 2048,
	MaxSteps: 10_000_000,
}

// Procedure is a user-defined command.
type Procedure struct {
	Name   string
	Params []string
	Body   []ast.Statement
	Pos    token.Position
}

// Environment maps procedure names to their definitions. A later definition
// replaces an earlier one of the same name.
type Environment struct {
	procs map[string]*Procedure
}

func NewEnvironment() *Environment {
	return &Environment{procs: make(map[string]*Procedure)}
}

// Define registers p, replacing any procedure with the same name. It reports
// whether a previous definition was replaced.
func (env *Environment) Define(p *Procedure) bool {
	_, replaced := env.procs[p.Name]
	env.procs[p.Name] = p
	return replaced
}

func (env *Environment) Lookup(name string) (*Procedure, bool) {
	p, ok := env.procs[name]
	return p, ok
}

// Names returns the defined procedure names in sorted order.
func (env *Environment) Names() []string {
	names := make([]string, 0, len(env.procs))
	for name := range env.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (env *Environment) Len() int { return len(env.procs) }

// Binding holds the evaluated arguments of one procedure call, keyed by
// parameter name. A nil Binding means top level.
type Binding map[string]float64

// Interpreter executes programs against one Environment and one Turtle.
// It is not safe for concurrent use; concurrent runs need separate
// interpreters.
type Interpreter struct {
	env    *Environment
	turtle *turtle.Turtle
	cfg    Config
	log    log.Logger

	depth int
	steps uint64
}

// New returns an interpreter. A nil env starts with no procedures.
func New(env *Environment, t *turtle.Turtle, cfg Config) *Interpreter {
	if env == nil {
		env = NewEnvironment()
	}
	return &Interpreter{
		env:    env,
		turtle: t,
		cfg:    cfg,
		log:    log.New("module", "interp"),
	}
}

func (in *Interpreter) Env() *Environment     { return in.env }
func (in *Interpreter) Turtle() *turtle.Turtle { return in.turtle }

// Steps returns the number of steps used by the last Exec.
func (in *Interpreter) Steps() uint64 { return in.steps }

// Exec runs prog at top level. The step budget starts afresh on every call
// while the environment and turtle carry over. Segments drawn before a
// failure stay on the canvas.
func (in *Interpreter) Exec(prog *ast.Program) error {
	in.steps, in.depth = 0, 0
	return in.execList(prog.Statements, nil)
}

func (in *Interpreter) step(pos token.Position) error {
	in.steps++
	if in.cfg.MaxSteps > 0 && in.steps > in.cfg.MaxSteps {
		return runtimeErr(pos, ErrMaxSteps, "(%d)", in.cfg.MaxSteps)
	}
	return nil
}

func (in *Interpreter) execList(stmts []ast.Statement, b Binding) error {
	for _, s := range stmts {
		if err := in.exec(s, b); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) exec(s ast.Statement, b Binding) error {
	if err := in.step(s.Pos()); err != nil {
		return err
	}
	switch s := s.(type) {
	case *ast.MoveStmt:
		v, err := in.eval(s.Arg, b)
		if err != nil {
			return err
		}
		switch s.Command {
		case token.FORWARD:
			in.turtle.Forward(v)
		case token.BACK:
			in.turtle.Back(v)
		case token.RIGHT:
			in.turtle.Right(v)
		case token.LEFT:
			in.turtle.Left(v)
		default:
			return runtimeErr(s.Pos(), ErrUnsupportedOperator, "%s in motion position", s.Command)
		}
		return nil

	case *ast.PenStmt:
		if s.Down {
			in.turtle.PenDown()
		} else {
			in.turtle.PenUp()
		}
		return nil

	case *ast.SetColorStmt:
		var rgb [3]float64
		for i, e := range []ast.Expression{s.R, s.G, s.B} {
			v, err := in.eval(e, b)
			if err != nil {
				return err
			}
			rgb[i] = v
		}
		in.turtle.SetColor(rgb[0], rgb[1], rgb[2])
		return nil

	case *ast.RepeatStmt:
		v, err := in.eval(s.Count, b)
		if err != nil {
			return err
		}
		n := RepeatCount(v)
		if n == 0 {
			return nil
		}
		if err := in.enter(s.Body); err != nil {
			return err
		}
		defer in.leave()
		for i := int64(0); i < n; i++ {
			if err := in.step(s.Pos()); err != nil {
				return err
			}
			if err := in.execList(s.Body.Statements, b); err != nil {
				return err
			}
		}
		return nil

	case *ast.IfStmt:
		ok, err := in.test(s.Cond, b)
		if err != nil || !ok {
			return err
		}
		if err := in.enter(s.Body); err != nil {
			return err
		}
		defer in.leave()
		return in.execList(s.Body.Statements, b)

	case *ast.ToStmt:
		replaced := in.env.Define(&Procedure{Name: s.Name, Params: s.Params, Body: s.Body, Pos: s.Pos()})
		in.log.Debug("Defined procedure", "name", s.Name, "params", len(s.Params), "replaced", replaced)
		return nil

	case *ast.CallStmt:
		return in.call(s, b)
	}
	return runtimeErr(s.Pos(), errors.New("unknown statement"), "%T", s)
}

// call binds the arguments, evaluated under the caller's binding, into a
// fresh binding for the callee. Arity is not checked: missing parameters stay
// unbound and extra arguments are evaluated then dropped.
func (in *Interpreter) call(s *ast.CallStmt, b Binding) error {
	proc, ok := in.env.Lookup(s.Name)
	if !ok {
		return runtimeErr(s.Pos(), ErrUndefinedProcedure, "%q", s.Name)
	}
	callee := make(Binding, len(proc.Params))
	for i, arg := range s.Args {
		v, err := in.eval(arg, b)
		if err != nil {
			return err
		}
		if i < len(proc.Params) {
			callee[proc.Params[i]] = v
		}
	}
	if in.cfg.MaxDepth > 0 && in.depth >= in.cfg.MaxDepth {
		return runtimeErr(s.Pos(), ErrMaxDepth, "(%d) calling %q", in.cfg.MaxDepth, s.Name)
	}
	in.depth++
	defer in.leave()

	in.log.Trace("Calling procedure", "name", s.Name, "args", len(s.Args), "depth", in.depth)
	return in.execList(proc.Body, callee)
}

// enter counts a block body against the depth limit. Calls and blocks share
// one counter since both recurse on the Go stack.
func (in *Interpreter) enter(body *ast.Block) error {
	if in.cfg.MaxDepth > 0 && in.depth >= in.cfg.MaxDepth {
		return runtimeErr(body.Pos(), ErrMaxDepth, "(%d) entering block", in.cfg.MaxDepth)
	}
	in.depth++
	return nil
}

func (in *Interpreter) leave() { in.depth-- }

func (in *Interpreter) eval(e ast.Expression, b Binding) (float64, error) {
	switch e := e.(type) {
	case *ast.NumberLit:
		return e.Value, nil
	case *ast.VarRef:
		return lookup(e, b)
	case *ast.BinaryExpr:
		l, err := in.eval(e.Left, b)
		if err != nil {
			return 0, err
		}
		r, err := in.eval(e.Right, b)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.PLUS:
			return l + r, nil
		case token.MINUS:
			return l - r, nil
		case token.STAR:
			return l * r, nil
		case token.SLASH:
			return l / r, nil
		}
		return 0, runtimeErr(e.Pos(), ErrUnsupportedOperator, "%q", e.Op.String())
	}
	return 0, runtimeErr(e.Pos(), errors.New("unknown expression"), "%T", e)
}

func lookup(v *ast.VarRef, b Binding) (float64, error) {
	if b == nil {
		return 0, runtimeErr(v.Pos(), ErrUnboundVariable, "%s outside of any procedure", v)
	}
	val, ok := b[v.Name]
	if !ok {
		return 0, runtimeErr(v.Pos(), ErrUnboundVariable, "%s", v)
	}
	return val, nil
}

// test evaluates a condition. A comparator outside < > == != yields false.
func (in *Interpreter) test(c *ast.Condition, b Binding) (bool, error) {
	l, err := in.eval(c.Left, b)
	if err != nil {
		return false, err
	}
	r, err := in.eval(c.Right, b)
	if err != nil {
		return false, err
	}
	switch c.Op {
	case token.LT:
		return l < r, nil
	case token.GT:
		return l > r, nil
	case token.EQ:
		return l == r, nil
	case token.NEQ:
		return l != r, nil
	}
	return false, nil
}

// RepeatCount truncates a loop count toward zero. NaN and non-positive
// counts run zero times; counts beyond int64 saturate.
func RepeatCount(v float64) int64 {
	switch {
	case math.IsNaN(v), v < 1:
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(v)
}
