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

package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/probechain/go-turtle/turtle"
)

const (
	streamWriteWait = 10 * time.Second
	streamReadLimit = 1 << 20
)

// Stream message types.
const (
	msgSegment = "segment"
	msgDone    = "done"
)

// streamMessage is one frame sent to a stream client. Every drawn segment is
// sent as it happens, followed by a single done frame per program.
type streamMessage struct {
	Type     string          `json:"type"`
	Segment  *turtle.Segment `json:"segment,omitempty"`
	RunID    string          `json:"runId,omitempty"`
	Segments int             `json:"segments,omitempty"`
	Turtle   *turtle.State   `json:"turtle,omitempty"`
	Error    string          `json:"error,omitempty"`
	Status   int             `json:"status,omitempty"`
}

// handleStream upgrades to a websocket. Each text message from the client is
// run as a program; programs on one connection run one after another.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(streamReadLimit)

	logger := s.log.New("remote", r.RemoteAddr)
	logger.Debug("Stream opened")
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Stream closed unexpectedly", "err", err)
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		if err := s.streamRun(conn, string(data)); err != nil {
			logger.Debug("Stream write failed", "err", err)
			return
		}
	}
}

func (s *Server) streamRun(conn *websocket.Conn, src string) error {
	var writeErr error
	send := func(msg streamMessage) {
		if writeErr != nil {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		writeErr = conn.WriteJSON(msg)
	}
	sink := turtle.CanvasFunc(func(from, to turtle.Point, c turtle.Color) {
		send(streamMessage{Type: msgSegment, Segment: &turtle.Segment{From: from, To: to, Color: c}})
	})
	res, err := s.engine.Run("stream", src, sink)

	done := streamMessage{
		Type:     msgDone,
		RunID:    res.RunID,
		Segments: len(res.Segments),
		Turtle:   &res.Turtle,
		Status:   statusOf(err),
	}
	if err != nil {
		done.Error = err.Error()
	}
	send(done)
	return writeErr
}
