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

// Package turtleconfig contains the configuration of the turtle engine and
// the services built on it.
package turtleconfig

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/probechain/go-turtle/lang/interp"
	"github.com/probechain/go-turtle/turtle"
)

// Defaults contains default settings for local use.
var Defaults = Config{
	Canvas: CanvasConfig{
		Width:      800,
		Height:     800,
		Background: turtle.Color{R: 255, G: 255, B: 255},
	},
	Turtle: TurtleConfig{
		Centered: true,
		PenDown:  true,
	},
	Interp: interp.DefaultConfig,
	Engine: EngineConfig{
		CacheSize: 256,
		Workers:   runtime.NumCPU(),
	},
	Server: ServerConfig{
		Addr:         "127.0.0.1:8845",
		CORSOrigins:  []string{"*"},
		RateLimit:    10,
		RateBurst:    20,
		CacheBytes:   32 * 1024 * 1024,
		MaxBodyBytes: 64 * 1024,
		WriteTimeout: 30 * time.Second,
	},
}

func init() {
	home := os.Getenv("HOME")
	if home == "" {
		if user, err := user.Current(); err == nil {
			home = user.HomeDir
		}
	}
	if runtime.GOOS == "darwin" {
		Defaults.Store.Path = filepath.Join(home, "Library", "Turtle", "programs")
	} else if runtime.GOOS == "windows" {
		localappdata := os.Getenv("LOCALAPPDATA")
		if localappdata != "" {
			Defaults.Store.Path = filepath.Join(localappdata, "Turtle", "programs")
		} else {
			Defaults.Store.Path = filepath.Join(home, "AppData", "Local", "Turtle", "programs")
		}
	} else {
		Defaults.Store.Path = filepath.Join(home, ".turtle", "programs")
	}
}

// Config is the top level configuration, one section per component.
type Config struct {
	Canvas CanvasConfig
	Turtle TurtleConfig
	Interp interp.Config
	Engine EngineConfig
	Server ServerConfig
	Store  StoreConfig
}

// CanvasConfig describes the raster every run draws onto.
type CanvasConfig struct {
	Width      int
	Height     int
	Background turtle.Color
}

// TurtleConfig is the turtle's state at the start of a run.
type TurtleConfig struct {
	Centered bool    // Start in the middle of the canvas, ignoring X and Y
	X, Y     float64 `toml:",omitempty"`
	Heading  float64
	PenDown  bool
	Color    turtle.Color
}

// Start resolves the starting turtle state for a canvas of the configured size.
func (c Config) Start() turtle.State {
	pos := turtle.Point{X: c.Turtle.X, Y: c.Turtle.Y}
	if c.Turtle.Centered {
		pos = turtle.Point{X: float64(c.Canvas.Width) / 2, Y: float64(c.Canvas.Height) / 2}
	}
	return turtle.State{
		Position: pos,
		Heading:  turtle.Normalize(c.Turtle.Heading),
		PenDown:  c.Turtle.PenDown,
		Color:    c.Turtle.Color,
	}
}

type EngineConfig struct {
	CacheSize int // Parsed programs kept in memory
	Workers   int // Concurrent runs in a batch render
}

type ServerConfig struct {
	Addr         string
	CORSOrigins  []string
	RateLimit    float64 // Requests per second per server, 0 disables limiting
	RateBurst    int
	CacheBytes   int   // Rendered image cache size
	MaxBodyBytes int64 // Largest accepted program
	WriteTimeout time.Duration
}

type StoreConfig struct {
	Path string // LevelDB directory of the program library
}
