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

package interp

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-turtle/canvas"
	"github.com/probechain/go-turtle/lang/ast"
	"github.com/probechain/go-turtle/lang/parser"
	"github.com/probechain/go-turtle/lang/token"
	"github.com/probechain/go-turtle/turtle"
)

const eps = 1e-9

var origin = turtle.Point{X: 200, Y: 200}

func newTestInterp(cfg Config) (*Interpreter, *canvas.Recorder) {
	rec := new(canvas.Recorder)
	t := turtle.New(rec, turtle.State{Position: origin, PenDown: true})
	return New(nil, t, cfg), rec
}

// run parses and executes src with the default budget.
func run(t *testing.T, src string) (*Interpreter, *canvas.Recorder, error) {
	t.Helper()
	return runWith(t, src, DefaultConfig)
}

func runWith(t *testing.T, src string, cfg Config) (*Interpreter, *canvas.Recorder, error) {
	t.Helper()
	prog, err := parser.Parse("test.logo", src)
	require.NoError(t, err, "parse %q", src)
	in, rec := newTestInterp(cfg)
	return in, rec, in.Exec(prog)
}

func lengths(segs []turtle.Segment) []float64 {
	out := make([]float64, len(segs))
	for i, s := range segs {
		out[i] = math.Round(math.Hypot(s.To.X-s.From.X, s.To.Y-s.From.Y)*1e6) / 1e6
	}
	return out
}

func TestForwardScenario(t *testing.T) {
	_, rec, err := run(t, "forward 100")
	require.NoError(t, err)

	segs := rec.Segments()
	require.Len(t, segs, 1)
	assert.Equal(t, origin, segs[0].From)
	assert.InDelta(t, origin.X, segs[0].To.X, eps)
	assert.InDelta(t, origin.Y-100, segs[0].To.Y, eps)
	assert.Equal(t, turtle.Color{}, segs[0].Color)
}

func TestSquareProcedure(t *testing.T) {
	in, rec, err := run(t, "to sq :n repeat 4 [ forward :n right 90 ] end sq 50")
	require.NoError(t, err)

	segs := rec.Segments()
	require.Len(t, segs, 4)
	assert.Equal(t, []float64{50, 50, 50, 50}, lengths(segs))
	for i := 1; i < len(segs); i++ {
		assert.InDelta(t, segs[i-1].To.X, segs[i].From.X, eps)
		assert.InDelta(t, segs[i-1].To.Y, segs[i].From.Y, eps)
	}
	// The path is closed.
	assert.InDelta(t, segs[0].From.X, segs[3].To.X, eps)
	assert.InDelta(t, segs[0].From.Y, segs[3].To.Y, eps)
	assert.Equal(t, 0.0, in.Turtle().Heading())
	assert.Equal(t, []string{"sq"}, in.Env().Names())
}

func TestRepeatCounts(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"repeat 0 [ fd 1 ]", 0},
		{"repeat -3 [ fd 1 ]", 0},
		{"repeat 4 [ fd 1 ]", 4},
		{"repeat 2.9 [ fd 1 ]", 2},
		{"repeat 0.5 [ fd 1 ]", 0},
		{"repeat 2 [ repeat 3 [ fd 1 ] ]", 6},
		{"to r :n repeat :n [ fd 1 ] end r 3", 3},
		{"to r :n repeat :n * 2 [ fd 1 ] end r 3", 6},
	}
	for _, tt := range tests {
		_, rec, err := run(t, tt.src)
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, rec.Len(), tt.src)
	}
}

func TestRepeatCount(t *testing.T) {
	assert.Equal(t, int64(0), RepeatCount(math.NaN()))
	assert.Equal(t, int64(0), RepeatCount(math.Inf(-1)))
	assert.Equal(t, int64(0), RepeatCount(-0.5))
	assert.Equal(t, int64(3), RepeatCount(3.99))
	assert.Equal(t, int64(math.MaxInt64), RepeatCount(math.Inf(1)))
	assert.Equal(t, int64(math.MaxInt64), RepeatCount(1e300))
}

func TestStepAccounting(t *testing.T) {
	// repeat itself, four iterations and four bodies.
	in, _, err := run(t, "repeat 4 [ fd 1 ]")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), in.Steps())
}

func TestIf(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"if 1 < 2 [ fd 1 ]", 1},
		{"if 2 < 1 [ fd 1 ]", 0},
		{"if 2 > 1 [ fd 1 ]", 1},
		{"if 2 == 2 [ fd 1 ]", 1},
		{"if 2 == 3 [ fd 1 ]", 0},
		{"if 2 != 3 [ fd 1 ]", 1},
		{"if 3 != 3 [ fd 1 ]", 0},
		{"if 1 + 1 == 4 / 2 [ fd 1 fd 1 ]", 2},
	}
	for _, tt := range tests {
		_, rec, err := run(t, tt.src)
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, rec.Len(), tt.src)
	}
}

func TestUnknownComparatorIsFalse(t *testing.T) {
	one := &ast.NumberLit{Value: 1}
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.IfStmt{
			Cond: &ast.Condition{Left: one, Op: token.PLUS, Right: one},
			Body: &ast.Block{Statements: []ast.Statement{
				&ast.MoveStmt{Command: token.FORWARD, Arg: &ast.NumberLit{Value: 10}},
			}},
		},
	}}
	in, rec := newTestInterp(DefaultConfig)
	require.NoError(t, in.Exec(prog))
	assert.Zero(t, rec.Len())
}

func TestUnsupportedArithmeticOperator(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.MoveStmt{Command: token.FORWARD, Arg: &ast.BinaryExpr{
			Token: token.Token{Type: token.LT, Literal: "<", Pos: token.Position{Line: 3, Column: 4}},
			Left:  &ast.NumberLit{Value: 1},
			Op:    token.LT,
			Right: &ast.NumberLit{Value: 2},
		}},
	}}
	in, rec := newTestInterp(DefaultConfig)
	err := in.Exec(prog)
	require.ErrorIs(t, err, ErrUnsupportedOperator)

	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 3, rerr.Pos.Line)
	assert.Zero(t, rec.Len())
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"fd 3 + 4", 7},
		{"fd 10 - 4", 6},
		{"fd 3 * 4", 12},
		{"fd 10 / 4", 2.5},
		{"fd -2 * -3", 6},
		{"to f :a :b fd :a - :b end f 10 3", 7},
	}
	for _, tt := range tests {
		_, rec, err := run(t, tt.src)
		require.NoError(t, err, tt.src)
		require.Equal(t, 1, rec.Len(), tt.src)
		assert.Equal(t, []float64{tt.want}, lengths(rec.Segments()), tt.src)
	}
}

func TestDivisionByZeroIsNotTrapped(t *testing.T) {
	in, rec, err := run(t, "to f :z fd 10 / :z end f 0")
	require.NoError(t, err)
	require.Equal(t, 1, rec.Len())
	assert.True(t, math.IsInf(in.Turtle().Position().Y, -1))
}

func TestUnboundVariableAtTopLevel(t *testing.T) {
	_, rec, err := run(t, "forward :x")
	require.ErrorIs(t, err, ErrUnboundVariable)
	assert.Zero(t, rec.Len())

	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, token.Position{File: "test.logo", Line: 1, Column: 9, Offset: 8}, rerr.Pos)
	assert.Contains(t, err.Error(), ":x")
}

func TestMissingArgumentIsUnbound(t *testing.T) {
	_, rec, err := run(t, "to f :a :b fd :a fd :b end f 5")
	require.ErrorIs(t, err, ErrUnboundVariable)
	assert.Equal(t, 1, rec.Len(), "segments before the failure stay committed")
}

func TestExtraArguments(t *testing.T) {
	_, rec, err := run(t, "to f :a fd :a end f 1 2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, lengths(rec.Segments()))

	// Extra arguments are still evaluated.
	_, rec, err = run(t, "to f :a fd :a end f 1 :nope")
	require.ErrorIs(t, err, ErrUnboundVariable)
	assert.Zero(t, rec.Len())
}

func TestUndefinedProcedure(t *testing.T) {
	_, rec, err := run(t, "fd 10 nothere fd 10")
	require.ErrorIs(t, err, ErrUndefinedProcedure)
	assert.Contains(t, err.Error(), `"nothere"`)
	assert.Equal(t, 1, rec.Len())
}

func TestRedefinitionReplaces(t *testing.T) {
	in, rec, err := run(t, "to f fd 1 end to f fd 2 end f")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, lengths(rec.Segments()))
	assert.Equal(t, 1, in.Env().Len())
}

func TestCallerBindingNotInherited(t *testing.T) {
	_, rec, err := run(t, "to inner fd :n end to outer :n fd :n inner end outer 5")
	require.ErrorIs(t, err, ErrUnboundVariable)
	assert.Equal(t, 1, rec.Len())
}

func TestRecursionDoesNotLeakBindings(t *testing.T) {
	src := `
to tree :s
  if :s > 1 [
    fd :s
    tree :s / 2
    bk :s
  ]
end
tree 8`
	in, rec, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 4, 2, 2, 4, 8}, lengths(rec.Segments()))
	assert.InDelta(t, origin.X, in.Turtle().Position().X, eps)
	assert.InDelta(t, origin.Y, in.Turtle().Position().Y, eps)
}

func TestSiblingRecursiveCalls(t *testing.T) {
	src := "to two :s if :s > 1 [ two :s / 2 fd :s two :s / 2 ] end two 4"
	_, rec, err := run(t, src)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 2}, lengths(rec.Segments()))
}

func TestPenAndColor(t *testing.T) {
	in, rec, err := run(t, "pu fd 10 pd sc 255 128.7 300 fd 10 rt 370")
	require.NoError(t, err)
	segs := rec.Segments()
	require.Len(t, segs, 1)
	assert.Equal(t, turtle.Color{R: 255, G: 128, B: 255}, segs[0].Color)
	assert.InDelta(t, origin.Y-10, segs[0].From.Y, eps)
	assert.Equal(t, 10.0, in.Turtle().Heading())
}

func TestMaxDepth(t *testing.T) {
	_, _, err := runWith(t, "to f f end f", Config{MaxDepth: 50})
	require.ErrorIs(t, err, ErrMaxDepth)
	require.ErrorIs(t, err, ErrResourceExhausted)
	assert.False(t, errors.Is(err, ErrMaxSteps))
}

func TestMaxSteps(t *testing.T) {
	_, rec, err := runWith(t, "repeat 1000000 [ fd 1 ]", Config{MaxSteps: 100})
	require.ErrorIs(t, err, ErrMaxSteps)
	require.ErrorIs(t, err, ErrResourceExhausted)
	assert.NotZero(t, rec.Len())
	assert.Less(t, rec.Len(), 100)
}

func TestDepthRestoredAfterCalls(t *testing.T) {
	// Sequential calls must not accumulate depth. The repeat block holds one
	// level, each call of f the other.
	_, _, err := runWith(t, "to f fd 1 end repeat 10 [ f ]", Config{MaxDepth: 2})
	require.NoError(t, err)

	_, _, err = runWith(t, "to f fd 1 end repeat 10 [ f ]", Config{MaxDepth: 1})
	require.ErrorIs(t, err, ErrMaxDepth)
}

func nested(opener string, n int) string {
	return strings.Repeat(opener+" [ ", n) + "fd 1" + strings.Repeat(" ]", n)
}

func TestMaxDepthCountsBlocks(t *testing.T) {
	for _, opener := range []string{"repeat 1", "if 1 < 2"} {
		_, rec, err := runWith(t, nested(opener, 16), Config{MaxDepth: 16})
		require.NoError(t, err, opener)
		assert.Equal(t, 1, rec.Len())

		_, rec, err = runWith(t, nested(opener, 17), Config{MaxDepth: 16})
		require.ErrorIs(t, err, ErrMaxDepth, opener)
		require.ErrorIs(t, err, ErrResourceExhausted, opener)
		assert.Zero(t, rec.Len())
	}
}

func TestMaxDepthStopsDeepTrees(t *testing.T) {
	// Trees deeper than any parse limit must still fail cleanly.
	prog, err := parser.Config{}.Parse("deep.logo", nested("repeat 1", 100000))
	require.NoError(t, err)

	in, rec := newTestInterp(Config{MaxDepth: 16})
	err = in.Exec(prog)
	require.ErrorIs(t, err, ErrResourceExhausted)
	assert.Zero(t, rec.Len())

	// The depth unwinds, so the interpreter stays usable.
	ok, err := parser.Parse("", "repeat 2 [ fd 1 ]")
	require.NoError(t, err)
	require.NoError(t, in.Exec(ok))
	assert.Equal(t, 2, rec.Len())
}

func TestZeroRepeatDoesNotEnterBlock(t *testing.T) {
	_, _, err := runWith(t, nested("repeat 1", 2)+" repeat 0 [ fd 1 ]", Config{MaxDepth: 2})
	require.NoError(t, err)
}

func TestSessionKeepsEnvironmentAndTurtle(t *testing.T) {
	in, rec := newTestInterp(DefaultConfig)

	first, err := parser.Parse("", "to sq :n repeat 4 [ fd :n rt 90 ] end rt 45")
	require.NoError(t, err)
	require.NoError(t, in.Exec(first))

	second, err := parser.Parse("", "sq 10")
	require.NoError(t, err)
	require.NoError(t, in.Exec(second))

	assert.Equal(t, 4, rec.Len())
	assert.Equal(t, 45.0, in.Turtle().Heading())
	assert.Equal(t, uint64(14), in.Steps())
}

func TestEnvironment(t *testing.T) {
	env := NewEnvironment()
	assert.False(t, env.Define(&Procedure{Name: "b"}))
	assert.False(t, env.Define(&Procedure{Name: "a"}))
	assert.True(t, env.Define(&Procedure{Name: "b", Params: []string{"x"}}))

	assert.Equal(t, []string{"a", "b"}, env.Names())
	p, ok := env.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, p.Params)
	_, ok = env.Lookup("c")
	assert.False(t, ok)
}
