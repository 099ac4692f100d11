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
	"github.com/probechain/go-turtle/canvas"
	"github.com/probechain/go-turtle/lang/interp"
	"github.com/probechain/go-turtle/turtle"
)

// Session executes programs one piece at a time against a single
// environment and turtle, as an interactive prompt does. A failing piece
// aborts itself only; definitions and drawing from earlier pieces remain.
type Session struct {
	e      *Engine
	raster *canvas.Raster
	rec    *canvas.Recorder
	in     *interp.Interpreter
}

// NewSession starts a session on a fresh raster. Segments are also sent to
// extra, if non-nil.
func (e *Engine) NewSession(extra turtle.Canvas) *Session {
	s := &Session{
		e:      e,
		raster: e.NewRaster(),
		rec:    new(canvas.Recorder),
	}
	t := turtle.New(canvas.Multi(s.raster, s.rec, extra), e.cfg.Start())
	s.in = interp.New(nil, t, e.cfg.Interp)
	return s
}

// Exec parses and runs one piece of source. It returns the segments the
// piece drew, including those drawn before an error.
func (s *Session) Exec(src string) ([]turtle.Segment, error) {
	before := s.rec.Len()
	prog, err := s.e.Parse("<input>", src)
	if err != nil {
		return nil, err
	}
	err = s.in.Exec(prog)
	return s.rec.Segments()[before:], err
}

func (s *Session) Raster() *canvas.Raster     { return s.raster }
func (s *Session) Turtle() turtle.State       { return s.in.Turtle().State() }
func (s *Session) Procedures() []string       { return s.in.Env().Names() }
func (s *Session) Segments() []turtle.Segment { return s.rec.Segments() }
