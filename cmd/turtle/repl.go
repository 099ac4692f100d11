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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-turtle/canvas"
	"github.com/probechain/go-turtle/engine"
	"github.com/probechain/go-turtle/lang/parser"
)

const (
	historyFile = ".turtle_history"
	promptMain  = "turtle> "
	promptCont  = "...     "
)

var replCommand = cli.Command{
	Action:   runREPL,
	Name:     "repl",
	Usage:    "Start an interactive session",
	Category: "PROGRAM COMMANDS",
	Description: `
The repl command reads programs line by line. Procedures and the turtle carry
over between lines; an error only aborts the line that raised it. Unfinished
blocks and procedures continue on the next line. Type :help for commands.`,
}

const replHelp = `Commands:
  :help          show this text
  :quit          leave the session
  :reset         forget procedures and start a new drawing
  :procs         list defined procedures
  :state         show the turtle
  :load <file>   run a program file in this session
  :save <file>   write the drawing (.png or .svg)
`

// prompter is the part of liner the session loop needs.
type prompter interface {
	Prompt(prompt string) (string, error)
}

type repl struct {
	engine  *engine.Engine
	session *engine.Session
	out     io.Writer
	errOut  io.Writer
}

func newREPL(e *engine.Engine, out, errOut io.Writer) *repl {
	return &repl{engine: e, session: e.NewSession(nil), out: out, errOut: errOut}
}

func runREPL(ctx *cli.Context) error {
	e, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(ctx.App.Writer, "%s %s, type :help for help\n", clientIdentifier, version)
	r := newREPL(e, ctx.App.Writer, ctx.App.ErrWriter)
	r.loop(ln, ln.AppendHistory)

	if f, err := os.Create(histPath); err == nil {
		ln.WriteHistory(f)
		f.Close()
	}
	return nil
}

// loop reads and executes input until :quit or end of input.
func (r *repl) loop(p prompter, remember func(string)) {
	for {
		src, ok := r.read(p)
		if !ok {
			fmt.Fprintln(r.out)
			return
		}
		line := strings.TrimSpace(src)
		if line == "" {
			continue
		}
		if remember != nil {
			remember(strings.ReplaceAll(src, "\n", " "))
		}
		if strings.HasPrefix(line, ":") {
			if r.command(line) {
				return
			}
			continue
		}
		r.exec(src)
	}
}

// read collects lines until they form a complete program or a definite
// syntax error.
func (r *repl) read(p prompter) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		var se *parser.SyntaxError
		if _, err := parser.Parse("", src); errors.As(err, &se) && se.Incomplete && strings.TrimSpace(line) != "" {
			continue
		}
		return src, true
	}
}

func (r *repl) exec(src string) {
	segs, err := r.session.Exec(src)
	if err != nil {
		errorf(r.errOut, "%v", err)
	}
	if len(segs) > 0 {
		fmt.Fprintf(r.out, "drew %d segment(s)\n", len(segs))
	}
}

// command handles a :command line and reports whether the session ends.
func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Fprint(r.out, replHelp)

	case ":quit", ":exit":
		return true

	case ":reset":
		r.session = r.engine.NewSession(nil)
		fmt.Fprintln(r.out, "session reset")

	case ":procs":
		procs := r.session.Procedures()
		if len(procs) == 0 {
			fmt.Fprintln(r.out, "no procedures defined")
		} else {
			fmt.Fprintln(r.out, strings.Join(procs, " "))
		}

	case ":state":
		st := r.session.Turtle()
		fmt.Fprintf(r.out, "position %v heading %g pen %s color %s\n",
			st.Position, st.Heading, map[bool]string{true: "down", false: "up"}[st.PenDown], st.Color)

	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: :load <file>")
			return false
		}
		src, err := os.ReadFile(fields[1])
		if err != nil {
			errorf(r.errOut, "cannot read %s: %v", fields[1], err)
			return false
		}
		r.exec(string(src))

	case ":save":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: :save <file>")
			return false
		}
		if err := r.save(fields[1]); err != nil {
			errorf(r.errOut, "%v", err)
			return false
		}
		fmt.Fprintf(r.out, "wrote %s\n", fields[1])

	default:
		fmt.Fprintln(r.out, "unknown command, type :help for help")
	}
	return false
}

func (r *repl) save(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		cfg := r.engine.Config()
		svg := canvas.NewSVG(cfg.Canvas.Width, cfg.Canvas.Height, cfg.Canvas.Background)
		for _, s := range r.session.Segments() {
			svg.DrawLine(s.From, s.To, s.Color)
		}
		return writeFile(path, func(w io.Writer) error {
			_, err := svg.WriteTo(w)
			return err
		})
	}
	return writeFile(path, r.session.Raster().EncodePNG)
}
