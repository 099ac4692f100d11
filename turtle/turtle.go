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

// Package turtle implements the drawing cursor: a position, a heading, a pen
// and a stroke color, plus the canvas sink that receives its line segments.
//
// Coordinates are screen-like: heading 0 faces up (negative y) and positive
// turns are clockwise.
package turtle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a position on the drawing plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// Color is an 8-bit RGB stroke color.
type Color struct {
	R, G, B uint8
}

func (c Color) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

var errBadColor = errors.New("color must be #rrggbb")

// ParseColor parses a "#rrggbb" hex color. The leading '#' is optional.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, errBadColor
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, errBadColor
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MarshalText encodes the color in its hex form, which keeps config files
// and JSON output readable.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Segment is one drawn line.
type Segment struct {
	From  Point `json:"from"`
	To    Point `json:"to"`
	Color Color `json:"color"`
}

// Canvas receives the segments a turtle draws. The canvas owns pixel format,
// size and persistence.
type Canvas interface {
	DrawLine(from, to Point, c Color)
}

// CanvasFunc adapts a function to the Canvas interface.
type CanvasFunc func(from, to Point, c Color)

func (f CanvasFunc) DrawLine(from, to Point, c Color) { f(from, to, c) }

// Discard is a Canvas that drops every segment.
var Discard Canvas = CanvasFunc(func(Point, Point, Color) {})

// State is a snapshot of a turtle.
type State struct {
	Position Point   `json:"position"`
	Heading  float64 `json:"heading"`
	PenDown  bool    `json:"penDown"`
	Color    Color   `json:"color"`
}

// Turtle is the mutable drawing cursor. It is not safe for concurrent use.
type Turtle struct {
	pos     Point
	heading float64
	penDown bool
	color   Color
	canvas  Canvas
}

// New creates a turtle in the given starting state, drawing onto canvas.
// A nil canvas discards segments.
func New(canvas Canvas, start State) *Turtle {
	if canvas == nil {
		canvas = Discard
	}
	return &Turtle{
		pos:     start.Position,
		heading: Normalize(start.Heading),
		penDown: start.PenDown,
		color:   start.Color,
		canvas:  canvas,
	}
}

// State returns a snapshot of the turtle.
func (t *Turtle) State() State {
	return State{Position: t.pos, Heading: t.heading, PenDown: t.penDown, Color: t.color}
}

func (t *Turtle) Position() Point { return t.pos }
func (t *Turtle) Heading() float64 { return t.heading }
func (t *Turtle) IsPenDown() bool { return t.penDown }
func (t *Turtle) Color() Color { return t.color }
func (t *Turtle) Canvas() Canvas { return t.canvas }

// Forward moves n units along the heading, drawing a segment if the pen is
// down. The position changes regardless of the pen.
func (t *Turtle) Forward(n float64) {
	rad := t.heading * math.Pi / 180
	next := Point{
		X: t.pos.X + math.Sin(rad)*n,
		Y: t.pos.Y - math.Cos(rad)*n,
	}
	if t.penDown {
		t.canvas.DrawLine(t.pos, next, t.color)
	}
	t.pos = next
}

// Back is Forward(-n).
func (t *Turtle) Back(n float64) { t.Forward(-n) }

// Right turns clockwise by deg degrees.
func (t *Turtle) Right(deg float64) { t.heading = Normalize(t.heading + deg) }

// Left is Right(-deg).
func (t *Turtle) Left(deg float64) { t.Right(-deg) }

func (t *Turtle) PenUp()   { t.penDown = false }
func (t *Turtle) PenDown() { t.penDown = true }

// SetColor sets the stroke color from three channel values.
func (t *Turtle) SetColor(r, g, b float64) {
	t.color = Color{R: Channel(r), G: Channel(g), B: Channel(b)}
}

// Normalize maps a heading into [0, 360). The integral part is reduced
// modulo 360 and the fractional part kept as is. Non-finite headings
// normalize to 0.
func Normalize(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	whole, frac := math.Modf(deg)
	h := math.Mod(whole, 360) + frac
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h -= 360
	}
	if h == 0 {
		return 0 // no negative zero
	}
	return h
}

// Channel truncates v to an 8-bit color channel, saturating at the bounds.
// NaN maps to 0.
func Channel(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
