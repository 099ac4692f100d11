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

// Package engine ties the language front end, the interpreter and the canvas
// sinks into single calls: run a program, render it to an image, or render a
// batch of programs concurrently.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"

	"github.com/probechain/go-turtle/canvas"
	"github.com/probechain/go-turtle/lang/ast"
	"github.com/probechain/go-turtle/lang/interp"
	"github.com/probechain/go-turtle/lang/parser"
	"github.com/probechain/go-turtle/log"
	"github.com/probechain/go-turtle/turtle"
	"github.com/probechain/go-turtle/turtleconfig"
)

// Result describes one run. It is filled in even when the run fails, so the
// segments committed before the failure remain available.
type Result struct {
	RunID      string           `json:"runId"`
	Segments   []turtle.Segment `json:"segments"`
	Turtle     turtle.State     `json:"turtle"`
	Procedures []string         `json:"procedures"`
	Steps      uint64           `json:"steps"`
}

// Engine runs programs with a shared configuration. Parsed programs are
// cached by source hash. Every run gets its own environment and turtle, so an
// Engine is safe for concurrent use.
type Engine struct {
	cfg    turtleconfig.Config
	syntax parser.Config
	parsed *lru.ARCCache // hash of name and source -> *ast.Program
}

// New creates an engine. A nil config uses turtleconfig.Defaults.
func New(cfg *turtleconfig.Config) *Engine {
	if cfg == nil {
		cfg = &turtleconfig.Defaults
	}
	// Parsing shares the run depth limit.
	e := &Engine{cfg: *cfg, syntax: parser.Config{MaxNesting: cfg.Interp.MaxDepth}}
	if cfg.Engine.CacheSize > 0 {
		e.parsed, _ = lru.NewARC(cfg.Engine.CacheSize)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() turtleconfig.Config { return e.cfg }

func sourceKey(name, src string) (key [32]byte) {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(name))
	hasher.Write([]byte{0})
	hasher.Write([]byte(src))
	hasher.Sum(key[:0])
	return key
}

// Parse parses src, consulting the cache first. Only successful parses are
// cached. Nesting is limited to the configured run depth.
func (e *Engine) Parse(name, src string) (*ast.Program, error) {
	if e.parsed == nil {
		return e.syntax.Parse(name, src)
	}
	key := sourceKey(name, src)
	if prog, ok := e.parsed.Get(key); ok {
		return prog.(*ast.Program), nil
	}
	prog, err := e.syntax.Parse(name, src)
	if err != nil {
		return nil, err
	}
	e.parsed.Add(key, prog)
	return prog, nil
}

// Run parses and executes src, drawing onto c. The whole program is parsed
// before anything executes, so a syntax error leaves c untouched.
func (e *Engine) Run(name, src string, c turtle.Canvas) (*Result, error) {
	return e.run(name, src, c, e.cfg.Start())
}

func (e *Engine) run(name, src string, c turtle.Canvas, start turtle.State) (*Result, error) {
	var (
		res    = &Result{RunID: uuid.New().String(), Turtle: start}
		rec    = new(canvas.Recorder)
		logger = log.New("run", res.RunID, "program", name)
		begin  = time.Now()
	)
	logger.Debug("Starting run", "size", len(src))

	prog, err := e.Parse(name, src)
	if err != nil {
		logger.Debug("Run rejected", "err", err)
		return res, err
	}
	t := turtle.New(canvas.Multi(c, rec), start)
	in := interp.New(nil, t, e.cfg.Interp)
	err = in.Exec(prog)

	res.Segments = rec.Segments()
	res.Turtle = t.State()
	res.Procedures = in.Env().Names()
	res.Steps = in.Steps()

	ctx := []interface{}{"segments", len(res.Segments), "steps", res.Steps, "elapsed", time.Since(begin)}
	if err != nil {
		logger.Debug("Run failed", append(ctx, "err", err)...)
	} else {
		logger.Debug("Run finished", ctx...)
	}
	return res, err
}

// Render runs src on a fresh raster of the configured size.
func (e *Engine) Render(name, src string) (*canvas.Raster, *Result, error) {
	raster := e.NewRaster()
	res, err := e.Run(name, src, raster)
	return raster, res, err
}

// NewRaster creates a blank raster of the configured size.
func (e *Engine) NewRaster() *canvas.Raster {
	return canvas.NewRaster(e.cfg.Canvas.Width, e.cfg.Canvas.Height, e.cfg.Canvas.Background)
}

// Job is one program of a batch.
type Job struct {
	Name   string
	Source string
}

// Outcome is the result of one Job.
type Outcome struct {
	Job    Job
	Raster *canvas.Raster
	Result *Result
	Err    error
}

// RenderAll renders every job onto its own raster, running up to the
// configured number of workers at once. A failing job does not stop the
// others; its error is reported in its Outcome. Jobs not yet started when ctx
// is cancelled report the context error.
func (e *Engine) RenderAll(ctx context.Context, jobs []Job) []Outcome {
	out := make([]Outcome, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if e.cfg.Engine.Workers > 0 {
		g.SetLimit(e.cfg.Engine.Workers)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			out[i].Job = job
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Raster, out[i].Result, out[i].Err = e.Render(job.Name, job.Source)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	log.Info("Rendered batch", "programs", len(jobs), "failed", failed)
	return out
}
