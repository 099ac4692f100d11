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
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-turtle/turtle"
	"github.com/probechain/go-turtle/turtleconfig"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[file]",
		Category:    "MISCELLANEOUS COMMANDS",
		Description: `The dumpconfig command shows the effective configuration, after the config file and flags are applied.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	widthFlag = cli.IntFlag{
		Name:  "width",
		Usage: "Canvas width in pixels",
		Value: turtleconfig.Defaults.Canvas.Width,
	}
	heightFlag = cli.IntFlag{
		Name:  "height",
		Usage: "Canvas height in pixels",
		Value: turtleconfig.Defaults.Canvas.Height,
	}
	backgroundFlag = cli.StringFlag{
		Name:  "background",
		Usage: "Canvas background color (#rrggbb)",
		Value: turtleconfig.Defaults.Canvas.Background.String(),
	}
	penColorFlag = cli.StringFlag{
		Name:  "color",
		Usage: "Initial pen color (#rrggbb)",
		Value: turtleconfig.Defaults.Turtle.Color.String(),
	}
	maxDepthFlag = cli.IntFlag{
		Name:  "maxdepth",
		Usage: "Maximum procedure call depth (0 = unlimited)",
		Value: turtleconfig.Defaults.Interp.MaxDepth,
	}
	maxStepsFlag = cli.Uint64Flag{
		Name:  "maxsteps",
		Usage: "Maximum executed statements and loop iterations (0 = unlimited)",
		Value: turtleconfig.Defaults.Interp.MaxSteps,
	}
	storeFlag = cli.StringFlag{
		Name:  "store",
		Usage: "Program library directory",
		Value: turtleconfig.Defaults.Store.Path,
	}
	addrFlag = cli.StringFlag{
		Name:  "addr",
		Usage: "HTTP listening address",
		Value: turtleconfig.Defaults.Server.Addr,
	}
	corsFlag = cli.StringFlag{
		Name:  "cors",
		Usage: "Comma separated list of origins allowed to call the HTTP service",
	}

	configFlags = []cli.Flag{
		configFileFlag,
		widthFlag,
		heightFlag,
		backgroundFlag,
		penColorFlag,
		maxDepthFlag,
		maxStepsFlag,
		storeFlag,
		addrFlag,
		corsFlag,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

func loadConfig(file string, cfg *turtleconfig.Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the defaults, then the config file, then applies the
// flags that were set explicitly.
func makeConfig(ctx *cli.Context) (*turtleconfig.Config, error) {
	cfg := turtleconfig.Defaults

	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return nil, err
		}
	}
	if ctx.GlobalIsSet(widthFlag.Name) {
		cfg.Canvas.Width = ctx.GlobalInt(widthFlag.Name)
	}
	if ctx.GlobalIsSet(heightFlag.Name) {
		cfg.Canvas.Height = ctx.GlobalInt(heightFlag.Name)
	}
	if ctx.GlobalIsSet(backgroundFlag.Name) {
		c, err := turtle.ParseColor(ctx.GlobalString(backgroundFlag.Name))
		if err != nil {
			return nil, fmt.Errorf("--%s: %v", backgroundFlag.Name, err)
		}
		cfg.Canvas.Background = c
	}
	if ctx.GlobalIsSet(penColorFlag.Name) {
		c, err := turtle.ParseColor(ctx.GlobalString(penColorFlag.Name))
		if err != nil {
			return nil, fmt.Errorf("--%s: %v", penColorFlag.Name, err)
		}
		cfg.Turtle.Color = c
	}
	if ctx.GlobalIsSet(maxDepthFlag.Name) {
		cfg.Interp.MaxDepth = ctx.GlobalInt(maxDepthFlag.Name)
	}
	if ctx.GlobalIsSet(maxStepsFlag.Name) {
		cfg.Interp.MaxSteps = ctx.GlobalUint64(maxStepsFlag.Name)
	}
	if ctx.GlobalIsSet(storeFlag.Name) {
		cfg.Store.Path = ctx.GlobalString(storeFlag.Name)
	}
	if ctx.GlobalIsSet(addrFlag.Name) {
		cfg.Server.Addr = ctx.GlobalString(addrFlag.Name)
	}
	if ctx.GlobalIsSet(corsFlag.Name) {
		cfg.Server.CORSOrigins = splitAndTrim(ctx.GlobalString(corsFlag.Name))
	}
	return &cfg, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
