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

package engine

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-turtle/canvas"
	"github.com/probechain/go-turtle/lang/interp"
	"github.com/probechain/go-turtle/lang/parser"
	"github.com/probechain/go-turtle/turtle"
	"github.com/probechain/go-turtle/turtleconfig"
)

func testConfig() *turtleconfig.Config {
	cfg := turtleconfig.Defaults
	cfg.Canvas.Width, cfg.Canvas.Height = 100, 100
	cfg.Engine.Workers = 4
	return &cfg
}

func TestRun(t *testing.T) {
	e := New(testConfig())
	var rec canvas.Recorder
	res, err := e.Run("sq", "to sq :n repeat 4 [ fd :n rt 90 ] end sq 20", &rec)
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.Len(t, res.Segments, 4)
	assert.Equal(t, rec.Segments(), res.Segments)
	assert.Equal(t, []string{"sq"}, res.Procedures)
	assert.InDelta(t, 50, res.Turtle.Position.X, 1e-9)
	assert.InDelta(t, 50, res.Turtle.Position.Y, 1e-9)
	assert.NotZero(t, res.Steps)
}

func TestRunSyntaxErrorDrawsNothing(t *testing.T) {
	e := New(testConfig())
	var rec canvas.Recorder
	res, err := e.Run("bad", "fd 10 repeat 4 [ fd 10", &rec)
	require.ErrorIs(t, err, parser.ErrSyntax)
	assert.Zero(t, rec.Len())
	assert.Empty(t, res.Segments)
	assert.Equal(t, e.Config().Start(), res.Turtle)
}

func TestRunSyntaxErrorReportsNormalizedStart(t *testing.T) {
	cfg := testConfig()
	cfg.Turtle.Heading = 450
	res, err := New(cfg).Run("bad", "repeat 4 [", nil)
	require.ErrorIs(t, err, parser.ErrSyntax)
	assert.Equal(t, 90.0, res.Turtle.Heading)
}

func TestParseNestingFollowsDepthLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Interp.MaxDepth = 8
	e := New(cfg)
	nest := func(n int) string {
		return strings.Repeat("if 1 < 2 [ ", n) + "fd 1" + strings.Repeat(" ]", n)
	}

	_, err := e.Parse("ok", nest(8))
	require.NoError(t, err)

	var rec canvas.Recorder
	res, err := e.Run("deep", nest(100000), &rec)
	require.ErrorIs(t, err, parser.ErrMaxNesting)
	require.ErrorIs(t, err, interp.ErrResourceExhausted)
	assert.Zero(t, rec.Len())
	assert.Empty(t, res.Segments)
}

func TestRunKeepsPartialOutput(t *testing.T) {
	e := New(testConfig())
	res, err := e.Run("partial", "fd 10 rt 90 fd 10 fd :x fd 10", nil)
	require.ErrorIs(t, err, interp.ErrUnboundVariable)
	assert.Len(t, res.Segments, 2)
	assert.Equal(t, 90.0, res.Turtle.Heading)
}

func TestRunBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Interp = interp.Config{MaxDepth: 10, MaxSteps: 1000}
	e := New(cfg)
	_, err := e.Run("loop", "to f fd 1 f end f", nil)
	require.ErrorIs(t, err, interp.ErrResourceExhausted)
}

func TestParseCache(t *testing.T) {
	e := New(testConfig())
	a, err := e.Parse("x", "fd 1")
	require.NoError(t, err)
	b, err := e.Parse("x", "fd 1")
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := e.Parse("y", "fd 1")
	require.NoError(t, err)
	assert.NotSame(t, a, c, "positions depend on the file name")

	_, err = e.Parse("x", "fd")
	require.Error(t, err)
	assert.Equal(t, 2, e.parsed.Len())
}

func TestParseWithoutCache(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.CacheSize = 0
	e := New(cfg)
	a, err := e.Parse("x", "fd 1")
	require.NoError(t, err)
	b, err := e.Parse("x", "fd 1")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestRender(t *testing.T) {
	cfg := testConfig()
	cfg.Turtle.Color = turtle.Color{R: 255}
	e := New(cfg)
	raster, res, err := e.Render("line", "fd 20")
	require.NoError(t, err)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, raster.Image().RGBAAt(50, 40))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, raster.Image().RGBAAt(10, 10))
}

func TestRenderAllIsolatesRuns(t *testing.T) {
	e := New(testConfig())
	var jobs []Job
	for i := 0; i < 16; i++ {
		src := fmt.Sprintf("to p%d :n repeat :n [ fd 1 ] end p%d %d", i, i, i)
		if i%5 == 0 {
			src += " fd :bad"
		}
		jobs = append(jobs, Job{Name: fmt.Sprintf("job%d", i), Source: src})
	}
	out := e.RenderAll(context.Background(), jobs)
	require.Len(t, out, len(jobs))

	for i, o := range out {
		assert.Equal(t, jobs[i], o.Job)
		require.NotNil(t, o.Result, o.Job.Name)
		assert.Len(t, o.Result.Segments, i, o.Job.Name)
		assert.Equal(t, []string{fmt.Sprintf("p%d", i)}, o.Result.Procedures)
		if i%5 == 0 {
			assert.ErrorIs(t, o.Err, interp.ErrUnboundVariable)
		} else {
			assert.NoError(t, o.Err)
		}
	}
}

func TestRenderAllCancelled(t *testing.T) {
	e := New(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := e.RenderAll(ctx, []Job{{Name: "a", Source: "fd 1"}})
	assert.ErrorIs(t, out[0].Err, context.Canceled)
	assert.Nil(t, out[0].Result)
}

func TestSession(t *testing.T) {
	e := New(testConfig())
	var extra canvas.Recorder
	s := e.NewSession(&extra)

	segs, err := s.Exec("to sq :n repeat 4 [ fd :n rt 90 ] end")
	require.NoError(t, err)
	assert.Empty(t, segs)

	segs, err = s.Exec("fd 5 nope")
	require.ErrorIs(t, err, interp.ErrUndefinedProcedure)
	assert.Len(t, segs, 1)

	_, err = s.Exec("repeat [")
	require.ErrorIs(t, err, parser.ErrSyntax)

	segs, err = s.Exec("sq 10")
	require.NoError(t, err)
	assert.Len(t, segs, 4)

	assert.Equal(t, []string{"sq"}, s.Procedures())
	assert.Len(t, s.Segments(), 5)
	assert.Equal(t, 5, extra.Len())
	assert.InDelta(t, 45, s.Turtle().Position.Y, 1e-9)
	assert.NotNil(t, s.Raster())
}
