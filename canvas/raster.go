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


// Package canvas contains the drawing sinks a turtle can be attached to.
package canvas

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/probechain/go-turtle/turtle"
)

// Raster rasterizes segments onto an in-memory RGBA image. Lines are one
// pixel wide and clipped to the image bounds.
type Raster struct {
	img *image.RGBA
	n   int
}

// NewRaster creates a width x height raster filled with the background color.
func NewRaster(width, height int, background turtle.Color) *Raster {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := rgba(background)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = bg.A
	}
	return &Raster{img: img}
}

// Center returns the middle of the raster, the default turtle start.
func (r *Raster) Center() turtle.Point {
	b := r.img.Bounds()
	return turtle.Point{X: float64(b.Dx()) / 2, Y: float64(b.Dy()) / 2}
}

// Image exposes the underlying image.
func (r *Raster) Image() *image.RGBA { return r.img }

// Lines returns how many segments were drawn.
func (r *Raster) Lines() int { return r.n }

// DrawLine clips the segment to the image, then plots it with Bresenham's
// algorithm. Its cost is bounded by the image size, however long the
// segment is.
func (r *Raster) DrawLine(from, to turtle.Point, c turtle.Color) {
	r.n++
	if !finite(from) || !finite(to) {
		return
	}
	// Pixel (x, y) covers [x-0.5, x+0.5) in both axes.
	b := r.img.Bounds()
	from, to, ok := clip(from, to,
		float64(b.Min.X)-0.5, float64(b.Min.Y)-0.5,
		float64(b.Max.X)-0.5, float64(b.Max.Y)-0.5)
	if !ok {
		return
	}
	var (
		col    = rgba(c)
		x0, y0 = round(from.X), round(from.Y)
		x1, y1 = round(to.X), round(to.Y)
		dx     = abs(x1 - x0)
		dy     = -abs(y1 - y0)
		sx, sy = 1, 1
	)
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(b) {
			r.img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// EncodePNG writes the raster as a PNG image.
func (r *Raster) EncodePNG(w io.Writer) error {
	return png.Encode(w, r.img)
}

func rgba(c turtle.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// clip cuts the segment a-b down to the rectangle [minX, maxX] x
// [minY, maxY] using the Liang-Barsky algorithm. It reports false when no
// part of the segment lies inside.
func clip(a, b turtle.Point, minX, minY, maxX, maxY float64) (turtle.Point, turtle.Point, bool) {
	// Halved so that far apart finite endpoints cannot overflow.
	dx, dy := b.X/2-a.X/2, b.Y/2-a.Y/2
	t0, t1 := 0.0, 1.0
	for _, edge := range [4][2]float64{
		{-dx, a.X/2 - minX/2},
		{dx, maxX/2 - a.X/2},
		{-dy, a.Y/2 - minY/2},
		{dy, maxY/2 - a.Y/2},
	} {
		p, q := edge[0], edge[1]
		if p == 0 {
			// Parallel to this edge: inside or out for its whole length.
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return a, b, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	// Cancellation on huge segments can push a cut point off the rectangle.
	at := func(t float64) turtle.Point {
		return turtle.Point{
			X: math.Max(minX, math.Min(maxX, a.X+2*(t*dx))),
			Y: math.Max(minY, math.Min(maxY, a.Y+2*(t*dy))),
		}
	}
	from, to := a, b
	if t0 > 0 {
		from = at(t0)
	}
	if t1 < 1 {
		to = at(t1)
	}
	return from, to, true
}

func round(v float64) int { return int(math.Round(v)) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func finite(p turtle.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
