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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rjeczalik/notify"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-turtle/engine"
	"github.com/probechain/go-turtle/lang/parser"
	"github.com/probechain/go-turtle/log"
)

// watchSettle is how long to wait for a burst of file events to end before
// rendering. Editors often write a file in several steps.
const watchSettle = 100 * time.Millisecond

var watchCommand = cli.Command{
	Action:    watchProgram,
	Name:      "watch",
	Usage:     "Re-render a program every time its file changes",
	ArgsUsage: "<file>",
	Flags:     []cli.Flag{outputFlag},
	Category:  "PROGRAM COMMANDS",
}

func watchProgram(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("missing program file, usage: %s watch <file>", ctx.App.Name)
	}
	e, err := makeEngine(ctx)
	if err != nil {
		return err
	}
	path, err := filepath.Abs(ctx.Args().First())
	if err != nil {
		return err
	}
	out := ctx.String("out")
	if out == "" {
		out = defaultOutput(path)
	}
	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &watcher{engine: e, path: path, out: out, stdout: ctx.App.Writer, stderr: ctx.App.ErrWriter}
	return w.run(sigctx)
}

type watcher struct {
	engine         *engine.Engine
	path, out      string
	stdout, stderr io.Writer
}

// run renders once, then again after every change to the file, until ctx is
// done.
func (w *watcher) run(ctx context.Context) error {
	events := make(chan notify.EventInfo, 16)
	// Watch the directory: editors that save by renaming replace the file.
	if err := notify.Watch(filepath.Dir(w.path), events, notify.Write, notify.Create, notify.Rename); err != nil {
		return err
	}
	defer notify.Stop(events)
	log.Info("Watching program", "file", w.path, "output", w.out)

	w.render()
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if filepath.Clean(ev.Path()) != w.path {
				continue
			}
			log.Debug("Program changed", "event", ev.Event())
			settle = time.After(watchSettle)
		case <-settle:
			settle = nil
			w.render()
		}
	}
}

func (w *watcher) render() {
	src, err := os.ReadFile(w.path)
	if err != nil {
		errorf(w.stderr, "%v", err)
		return
	}
	res, err := renderFile(w.engine, w.path, string(src), w.out)
	if err != nil {
		errorf(w.stderr, "%v", err)
	}
	if res != nil && !errors.Is(err, parser.ErrSyntax) {
		fmt.Fprintf(w.stdout, "%s wrote %s (%d segments)\n", time.Now().Format("15:04:05"), w.out, len(res.Segments))
	}
}
