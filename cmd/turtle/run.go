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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-turtle/canvas"
	"github.com/probechain/go-turtle/engine"
	"github.com/probechain/go-turtle/lang/check"
	"github.com/probechain/go-turtle/lang/lexer"
	"github.com/probechain/go-turtle/lang/parser"
	"github.com/probechain/go-turtle/turtle"
)

var (
	outputFlag = cli.StringFlag{
		Name:  "out, o",
		Usage: "Output image; the extension selects the format (.png or .svg)",
	}
	jsonFlag = cli.BoolFlag{
		Name:  "json",
		Usage: "Print the run result as JSON",
	}
	dumpFlag = cli.BoolFlag{
		Name:  "dump",
		Usage: "Dump the raw syntax tree instead of the source form",
	}

	runCommand = cli.Command{
		Action:    runProgram,
		Name:      "run",
		Usage:     "Run a program and report the turtle's final state",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{jsonFlag},
		Category:  "PROGRAM COMMANDS",
		Description: `
The run command executes a program without producing an image. A file name
of "-" reads the program from standard input.`,
	}
	renderCommand = cli.Command{
		Action:    renderProgram,
		Name:      "render",
		Usage:     "Run a program and write the drawing to an image file",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{outputFlag},
		Category:  "PROGRAM COMMANDS",
		Description: `
The render command executes a program and writes what it drew. When the
program fails while running, the partial drawing is still written.`,
	}
	tokensCommand = cli.Command{
		Action:    printTokens,
		Name:      "tokens",
		Usage:     "Print the token stream of a program",
		ArgsUsage: "<file>",
		Category:  "DEBUG COMMANDS",
	}
	astCommand = cli.Command{
		Action:    printAST,
		Name:      "ast",
		Usage:     "Print the parsed syntax tree of a program",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{dumpFlag},
		Category:  "DEBUG COMMANDS",
	}
	checkCommand = cli.Command{
		Action:    checkProgram,
		Name:      "check",
		Usage:     "Report suspicious constructs without running the program",
		ArgsUsage: "<file>",
		Category:  "DEBUG COMMANDS",
	}
)

// readSource returns the program named by the first argument.
func readSource(ctx *cli.Context) (name, src string, err error) {
	if ctx.NArg() < 1 {
		return "", "", fmt.Errorf("missing program file, usage: %s %s %s", ctx.App.Name, ctx.Command.Name, ctx.Command.ArgsUsage)
	}
	name = ctx.Args().First()
	var data []byte
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
		name = "<stdin>"
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", "", err
	}
	return name, string(data), nil
}

func makeEngine(ctx *cli.Context) (*engine.Engine, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg), nil
}

func runProgram(ctx *cli.Context) error {
	name, src, err := readSource(ctx)
	if err != nil {
		return err
	}
	e, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	res, runErr := e.Run(name, src, nil)
	if ctx.Bool(jsonFlag.Name) {
		enc := json.NewEncoder(ctx.App.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else if !errors.Is(runErr, parser.ErrSyntax) {
		printSummary(ctx.App.Writer, res)
	}
	return runErr
}

func printSummary(w io.Writer, res *engine.Result) {
	st := res.Turtle
	fmt.Fprintf(w, "segments:   %d\n", len(res.Segments))
	fmt.Fprintf(w, "steps:      %d\n", res.Steps)
	fmt.Fprintf(w, "position:   %v\n", st.Position)
	fmt.Fprintf(w, "heading:    %g\n", st.Heading)
	fmt.Fprintf(w, "pen:        %s\n", map[bool]string{true: "down", false: "up"}[st.PenDown])
	fmt.Fprintf(w, "color:      %s\n", st.Color)
	if len(res.Procedures) > 0 {
		fmt.Fprintf(w, "procedures: %s\n", strings.Join(res.Procedures, ", "))
	}
}

func renderProgram(ctx *cli.Context) error {
	name, src, err := readSource(ctx)
	if err != nil {
		return err
	}
	e, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	out := ctx.String("out")
	if out == "" {
		out = defaultOutput(name)
	}
	res, err := renderFile(e, name, src, out)
	if res != nil && !errors.Is(err, parser.ErrSyntax) {
		fmt.Fprintf(ctx.App.Writer, "wrote %s (%d segments)\n", out, len(res.Segments))
	}
	return err
}

// defaultOutput derives the image name from the program file name.
func defaultOutput(name string) string {
	if name == "<stdin>" {
		return "turtle.png"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
}

// renderFile runs src and writes the drawing to out. Runtime failures still
// write the partial drawing; syntax errors write nothing.
func renderFile(e *engine.Engine, name, src, out string) (*engine.Result, error) {
	var (
		sink  turtle.Canvas
		write func(io.Writer) error
		cfg   = e.Config()
	)
	if strings.EqualFold(filepath.Ext(out), ".svg") {
		svg := canvas.NewSVG(cfg.Canvas.Width, cfg.Canvas.Height, cfg.Canvas.Background)
		sink = svg
		write = func(w io.Writer) error {
			_, err := svg.WriteTo(w)
			return err
		}
	} else {
		raster := e.NewRaster()
		sink, write = raster, raster.EncodePNG
	}
	res, runErr := e.Run(name, src, sink)
	if errors.Is(runErr, parser.ErrSyntax) {
		return res, runErr
	}
	if err := writeFile(out, write); err != nil {
		return res, err
	}
	return res, runErr
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printTokens(ctx *cli.Context) error {
	name, src, err := readSource(ctx)
	if err != nil {
		return err
	}
	lx := lexer.New(name, src)
	toks := lx.Tokenize()

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Pos", "Type", "Literal"})
	table.SetAutoWrapText(false)
	for _, tok := range toks {
		table.Append([]string{fmt.Sprintf("%d:%d", tok.Pos.Line, tok.Pos.Column), tok.Type.String(), tok.Literal})
	}
	table.Render()

	for _, tok := range lx.Skipped() {
		warnf(ctx.App.ErrWriter, "%s: ignored character %q", tok.Pos, tok.Literal)
	}
	return nil
}

func printAST(ctx *cli.Context) error {
	name, src, err := readSource(ctx)
	if err != nil {
		return err
	}
	prog, err := parser.Parse(name, src)
	if err != nil {
		return err
	}
	if ctx.Bool(dumpFlag.Name) {
		cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
		cfg.Fdump(ctx.App.Writer, prog)
		return nil
	}
	_, err = io.WriteString(ctx.App.Writer, prog.String())
	return err
}

func checkProgram(ctx *cli.Context) error {
	name, src, err := readSource(ctx)
	if err != nil {
		return err
	}
	warns, err := check.Source(name, src)
	if err != nil {
		return err
	}
	if len(warns) == 0 {
		fmt.Fprintln(ctx.App.Writer, "no findings")
		return nil
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Pos", "Kind", "Message"})
	table.SetAutoWrapText(false)
	for _, w := range warns {
		table.Append([]string{fmt.Sprintf("%d:%d", w.Pos.Line, w.Pos.Column), w.Kind.String(), w.Msg})
	}
	table.Render()
	return nil
}
