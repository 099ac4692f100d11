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
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-turtle/lang/parser"
	"github.com/probechain/go-turtle/store"
)

var (
	saveCommand = cli.Command{
		Action:    saveProgram,
		Name:      "save",
		Usage:     "Store a program in the library under a name",
		ArgsUsage: "<name> <file>",
		Category:  "LIBRARY COMMANDS",
		Description: `
The save command checks that the program parses and stores it in the program
library, replacing any program with the same name.`,
	}
	listCommand = cli.Command{
		Action:   listPrograms,
		Name:     "list",
		Usage:    "List stored programs",
		Category: "LIBRARY COMMANDS",
	}
	removeCommand = cli.Command{
		Action:    removeProgram,
		Name:      "remove",
		Usage:     "Delete a stored program",
		ArgsUsage: "<name>",
		Category:  "LIBRARY COMMANDS",
	}
)

func openStore(ctx *cli.Context) (*store.Store, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Store.Path, 0700); err != nil {
		return nil, err
	}
	return store.Open(cfg.Store.Path)
}

func saveProgram(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("usage: %s save %s", ctx.App.Name, ctx.Command.ArgsUsage)
	}
	name, file := ctx.Args().Get(0), ctx.Args().Get(1)
	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if _, err := parser.Parse(file, string(src)); err != nil {
		return err
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Put(name, string(src)); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "saved %s (%d bytes)\n", name, len(src))
	return nil
}

func listPrograms(ctx *cli.Context) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	entries, err := st.List()
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Name", "Size"})
	for _, e := range entries {
		table.Append([]string{e.Name, strconv.Itoa(e.Size)})
	}
	table.Render()
	return nil
}

func removeProgram(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: %s remove <name>", ctx.App.Name)
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Delete(ctx.Args().First())
}
