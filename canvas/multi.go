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

import "github.com/probechain/go-turtle/turtle"

type multiCanvas []turtle.Canvas

// Multi returns a canvas that forwards every segment to each of the given
// canvases in order. Nil canvases are skipped.
func Multi(canvases ...turtle.Canvas) turtle.Canvas {
	var m multiCanvas
	for _, c := range canvases {
		if c == nil {
			continue
		}
		if inner, ok := c.(multiCanvas); ok {
			m = append(m, inner...)
		} else {
			m = append(m, c)
		}
	}
	return m
}

func (m multiCanvas) DrawLine(from, to turtle.Point, c turtle.Color) {
	for _, cv := range m {
		cv.DrawLine(from, to, c)
	}
}
