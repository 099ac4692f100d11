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

// turtle is the command line front end of the turtle graphics engine.
package main

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-turtle/log"
)

const (
	clientIdentifier = "turtle"
	version          = "0.2.0"
)

var (
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: int(log.LvlWarn),
	}
	logfmtFlag = cli.BoolFlag{
		Name:  "log.logfmt",
		Usage: "Format logs as logfmt key=value pairs",
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = clientIdentifier
	app.Usage = "the turtle graphics command line interface"
	app.Version = version
	app.ErrWriter = os.Stderr
	app.Flags = append([]cli.Flag{verbosityFlag, logfmtFlag}, configFlags...)
	app.Commands = []cli.Command{
		runCommand,
		renderCommand,
		tokensCommand,
		astCommand,
		checkCommand,
		replCommand,
		watchCommand,
		serveCommand,
		saveCommand,
		listCommand,
		removeCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx.GlobalInt(verbosityFlag.Name), ctx.GlobalBool(logfmtFlag.Name), ctx.App.ErrWriter)
		return nil
	}
	return app
}

// setupLogging routes the root logger to w, using colors when w is a
// terminal.
func setupLogging(verbosity int, logfmt bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	format := log.TerminalFormat(false)
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		usecolor := (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
		if usecolor {
			w = colorable.NewColorableStderr()
		}
		format = log.TerminalFormat(usecolor)
	}
	if logfmt {
		format = log.LogfmtFormat()
	}
	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(verbosity), log.StreamHandler(w, format)))
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatalf("%v", err)
	}
}

// fatalf prints a red error to stderr, or to stdout when both point at the
// same file, and exits.
func fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	color.New(color.FgRed).Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

func splitAndTrim(input string) (ret []string) {
	for _, r := range strings.Split(input, ",") {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

// warnf prints a yellow diagnostic line.
func warnf(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(w, format+"\n", args...)
}

// errorf prints a red diagnostic line without exiting.
func errorf(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(w, format+"\n", args...)
}
