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
	"context"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-turtle/engine"
	"github.com/probechain/go-turtle/server"
	"github.com/probechain/go-turtle/store"
)

var serveCommand = cli.Command{
	Action:   serve,
	Name:     "serve",
	Usage:    "Start the HTTP render service",
	Category: "SERVICE COMMANDS",
	Description: `
The serve command renders programs over HTTP:

  POST /render                  program in the body, PNG out
  POST /segments                program in the body, JSON segments out
  GET  /stream                  websocket, one program per message
  GET  /programs                list stored programs
  GET  /programs/:name          stored program source
  PUT  /programs/:name          store a program
  DELETE /programs/:name        remove a stored program
  GET  /programs/:name/render   render a stored program`,
}

func serve(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(cfg.Server, engine.New(cfg), st).ListenAndServe(sigctx)
}
