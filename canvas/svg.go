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
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/probechain/go-turtle/turtle"
)

// SVG collects segments and renders them as an SVG document, one polyline
// per segment.
type SVG struct {
	Width, Height int
	Background    turtle.Color

	rec Recorder
}

// NewSVG creates an SVG sink with the given viewport.
func NewSVG(width, height int, background turtle.Color) *SVG {
	return &SVG{Width: width, Height: height, Background: background}
}

func (s *SVG) DrawLine(from, to turtle.Point, c turtle.Color) { s.rec.DrawLine(from, to, c) }

// WriteTo writes the SVG document.
func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	bw := bufio.NewWriter(cw)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		s.Width, s.Height, s.Width, s.Height)
	fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", s.Background)
	for _, seg := range s.rec.Segments() {
		fmt.Fprintf(bw, `<polyline points="%s,%s %s,%s" stroke="%s" fill="none" stroke-width="1"/>`+"\n",
			coord(seg.From.X), coord(seg.From.Y), coord(seg.To.X), coord(seg.To.Y), seg.Color)
	}
	bw.WriteString("</svg>\n")
	err := bw.Flush()
	return cw.n, err
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
