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

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cespare/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-turtle/engine"
	"github.com/probechain/go-turtle/lang/interp"
	"github.com/probechain/go-turtle/lang/parser"
	"github.com/probechain/go-turtle/store"
	"github.com/probechain/go-turtle/turtleconfig"
)

// These tests are 'smoke tests' for the turtle subcommands and flags.
//
// Program fixtures from testdata are copied into a temporary directory so
// that rendered images land next to them.

func tmpWithFixtures(t *testing.T, names ...string) string {
	dir := t.TempDir()
	for _, name := range names {
		if err := cp.CopyFile(filepath.Join(dir, name), filepath.Join("testdata", name)); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// runTurtle runs the command line in process and returns its output.
func runTurtle(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err = app.Run(append([]string{clientIdentifier}, args...))
	return out.String(), errOut.String(), err
}

func TestRenderPNG(t *testing.T) {
	dir := tmpWithFixtures(t, "square.logo", "config.toml")
	stdout, _, err := runTurtle(t, "--config", filepath.Join(dir, "config.toml"), "render", filepath.Join(dir, "square.logo"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "(4 segments)")

	f, err := os.Open(filepath.Join(dir, "square.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())

	// The square starts at the center and goes up, in white on black.
	r, g, b, _ := img.At(20, 10).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})
	r, g, b, _ = img.At(2, 2).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})
}

func TestRenderSVG(t *testing.T) {
	dir := tmpWithFixtures(t, "tree.logo")
	out := filepath.Join(dir, "tree.svg")
	_, _, err := runTurtle(t, "--width", "100", "--height", "100", "render", "--out", out, filepath.Join(dir, "tree.logo"))
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<svg"))
	assert.Contains(t, string(data), `stroke="#008000"`)
}

func TestRenderRuntimeErrorWritesPartialImage(t *testing.T) {
	dir := tmpWithFixtures(t, "partial.logo")
	stdout, _, err := runTurtle(t, "render", filepath.Join(dir, "partial.logo"))
	require.ErrorIs(t, err, interp.ErrUnboundVariable)
	assert.Contains(t, stdout, "(1 segments)")
	assert.FileExists(t, filepath.Join(dir, "partial.png"))
}

func TestRenderSyntaxErrorWritesNothing(t *testing.T) {
	dir := tmpWithFixtures(t, "broken.logo")
	_, _, err := runTurtle(t, "render", filepath.Join(dir, "broken.logo"))
	require.ErrorIs(t, err, parser.ErrSyntax)
	assert.Contains(t, err.Error(), "missing ']'")
	assert.NoFileExists(t, filepath.Join(dir, "broken.png"))
}

func TestRenderMissingFile(t *testing.T) {
	_, _, err := runTurtle(t, "render")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing program file")

	_, _, err = runTurtle(t, "render", filepath.Join(t.TempDir(), "nope.logo"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRunJSON(t *testing.T) {
	dir := tmpWithFixtures(t, "square.logo")
	stdout, _, err := runTurtle(t, "run", "--json", filepath.Join(dir, "square.logo"))
	require.NoError(t, err)

	var res struct {
		Segments   []json.RawMessage `json:"segments"`
		Procedures []string          `json:"procedures"`
		Steps      uint64            `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Len(t, res.Segments, 4)
	assert.Equal(t, []string{"square"}, res.Procedures)
	assert.NotZero(t, res.Steps)
}

func TestRunSummary(t *testing.T) {
	dir := tmpWithFixtures(t, "square.logo")
	stdout, _, err := runTurtle(t, "--color", "#ff0000", "run", filepath.Join(dir, "square.logo"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "segments:   4")
	assert.Contains(t, stdout, "color:      #ff0000")
	assert.Contains(t, stdout, "procedures: square")
}

func TestRunBudgetFlag(t *testing.T) {
	dir := tmpWithFixtures(t, "tree.logo")
	_, _, err := runTurtle(t, "--maxsteps", "10", "run", filepath.Join(dir, "tree.logo"))
	require.ErrorIs(t, err, interp.ErrMaxSteps)
}

func TestBadColorFlag(t *testing.T) {
	dir := tmpWithFixtures(t, "square.logo")
	_, _, err := runTurtle(t, "--background", "white", "run", filepath.Join(dir, "square.logo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--background")
}

func TestTokens(t *testing.T) {
	dir := tmpWithFixtures(t, "square.logo")
	stdout, _, err := runTurtle(t, "tokens", filepath.Join(dir, "square.logo"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "repeat")
	assert.Contains(t, stdout, "size")
	assert.Contains(t, stdout, "5:1")
}

func TestTokensReportsSkipped(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "odd.logo")
	require.NoError(t, os.WriteFile(file, []byte("fd 10 ; rt 5"), 0644))
	_, stderr, err := runTurtle(t, "tokens", file)
	require.NoError(t, err)
	assert.Contains(t, stderr, `ignored character ";"`)
}

func TestAST(t *testing.T) {
	dir := tmpWithFixtures(t, "square.logo")
	stdout, _, err := runTurtle(t, "ast", filepath.Join(dir, "square.logo"))
	require.NoError(t, err)
	assert.Equal(t, "to square :size repeat 4 [ forward :size right 90 ] end\nsquare 10\n", stdout)

	stdout, _, err = runTurtle(t, "ast", "--dump", filepath.Join(dir, "square.logo"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "ToStmt")
	assert.Contains(t, stdout, "CallStmt")
	assert.NotContains(t, stdout, "repeat 4 [", "the dump must show fields, not the source form")
}

func TestCheck(t *testing.T) {
	dir := tmpWithFixtures(t, "lint.logo", "square.logo")
	stdout, _, err := runTurtle(t, "check", filepath.Join(dir, "lint.logo"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "arity-mismatch")
	assert.Contains(t, stdout, "undefined-procedure")

	stdout, _, err = runTurtle(t, "check", filepath.Join(dir, "square.logo"))
	require.NoError(t, err)
	assert.Equal(t, "no findings\n", stdout)
}

func TestLibrary(t *testing.T) {
	dir := tmpWithFixtures(t, "square.logo", "broken.logo")
	db := filepath.Join(dir, "programs")

	stdout, _, err := runTurtle(t, "--store", db, "save", "sq", filepath.Join(dir, "square.logo"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "saved sq")

	_, _, err = runTurtle(t, "--store", db, "save", "bad", filepath.Join(dir, "broken.logo"))
	require.ErrorIs(t, err, parser.ErrSyntax)

	stdout, _, err = runTurtle(t, "--store", db, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sq")
	assert.NotContains(t, stdout, "bad")

	_, _, err = runTurtle(t, "--store", db, "remove", "sq")
	require.NoError(t, err)
	_, _, err = runTurtle(t, "--store", db, "remove", "sq")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDumpConfigRoundTrip(t *testing.T) {
	dir := tmpWithFixtures(t, "config.toml")
	out := filepath.Join(dir, "dump.toml")
	_, _, err := runTurtle(t, "--config", filepath.Join(dir, "config.toml"), "--maxdepth", "7", "dumpconfig", out)
	require.NoError(t, err)

	var cfg turtleconfig.Config
	require.NoError(t, loadConfig(out, &cfg))
	assert.Equal(t, 40, cfg.Canvas.Width)
	assert.Equal(t, 7, cfg.Interp.MaxDepth)
	assert.Equal(t, uint64(100000), cfg.Interp.MaxSteps)
	assert.Equal(t, "#ffffff", cfg.Turtle.Color.String())
	assert.Equal(t, turtleconfig.Defaults.Server.Addr, cfg.Server.Addr)
}

func TestConfigUnknownField(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Canvas]\nDepth = 3\n"), 0644))
	_, _, err := runTurtle(t, "--config", file, "dumpconfig")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Depth' is not defined")
}

// scripted feeds canned lines to the session loop.
type scripted struct{ lines []string }

func (s *scripted) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestREPL(t *testing.T) {
	cfg := turtleconfig.Defaults
	cfg.Canvas.Width, cfg.Canvas.Height = 50, 50
	var out, errOut bytes.Buffer
	r := newREPL(engine.New(&cfg), &out, &errOut)

	svg := filepath.Join(t.TempDir(), "session.svg")
	var history []string
	r.loop(&scripted{lines: []string{
		"to sq :n",
		"  repeat 4 [ fd :n rt 90 ]",
		"end",
		"fd 5 nope",
		"sq 10",
		":procs",
		":save " + svg,
		":bogus",
		":quit",
		"fd 1",
	}}, func(s string) { history = append(history, s) })

	assert.Contains(t, out.String(), "drew 1 segment(s)")
	assert.Contains(t, out.String(), "drew 4 segment(s)")
	assert.Contains(t, out.String(), "sq\n")
	assert.Contains(t, out.String(), "unknown command")
	assert.Contains(t, errOut.String(), "undefined procedure")
	assert.Equal(t, "to sq :n   repeat 4 [ fd :n rt 90 ] end", history[0])
	assert.Len(t, r.session.Segments(), 5, "input after :quit must not run")
	assert.FileExists(t, svg)
}

func TestREPLBlankLineEndsContinuation(t *testing.T) {
	var out, errOut bytes.Buffer
	r := newREPL(engine.New(nil), &out, &errOut)
	r.loop(&scripted{lines: []string{"repeat 2 [ fd 1", "", "fd 2", ":reset", ":procs"}}, nil)

	assert.Contains(t, errOut.String(), "missing ']'")
	assert.Contains(t, out.String(), "drew 1 segment(s)")
	assert.Contains(t, out.String(), "session reset")
	assert.Contains(t, out.String(), "no procedures defined")
}
