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


package canvas

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/probechain/go-turtle/turtle"
)

// Recorder keeps every segment in drawing order. It is safe for concurrent
// use so a run can be observed while it draws.
type Recorder struct {
	mu   sync.Mutex
	segs []turtle.Segment
}

func (r *Recorder) DrawLine(from, to turtle.Point, c turtle.Color) {
	r.mu.Lock()
	r.segs = append(r.segs, turtle.Segment{From: from, To: to, Color: c})
	r.mu.Unlock()
}

// Segments returns a copy of the recorded segments.
func (r *Recorder) Segments() []turtle.Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]turtle.Segment, len(r.segs))
	copy(out, r.segs)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.segs)
}

// Replay draws the recorded segments onto another canvas.
func (r *Recorder) Replay(c turtle.Canvas) {
	for _, s := range r.Segments() {
		c.DrawLine(s.From, s.To, s.Color)
	}
}

// WriteJSON encodes the segments as a JSON array.
func (r *Recorder) WriteJSON(w io.Writer) error {
	segs := r.Segments()
	if segs == nil {
		segs = []turtle.Segment{}
	}
	return json.NewEncoder(w).Encode(segs)
}
