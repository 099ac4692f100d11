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
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/sha3"

	"github.com/probechain/go-turtle/engine"
	"github.com/probechain/go-turtle/lang/parser"
	"github.com/probechain/go-turtle/store"
)

const (
	headerRunID    = "X-Turtle-Run"
	headerSegments = "X-Turtle-Segments"
	headerError    = "X-Turtle-Error"
	headerCache    = "X-Turtle-Cache"
)

var errBodyTooLarge = errors.New("program too large")

// statusOf maps a run error to an HTTP status: syntax errors are the
// client's fault, everything raised while running is unprocessable.
func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, parser.ErrSyntax):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusUnprocessableEntity
}

func (s *Server) readProgram(r *http.Request) (string, error) {
	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(body)) > limit {
		return "", errBodyTooLarge
	}
	return string(body), nil
}

func programName(r *http.Request, fallback string) string {
	if name := r.URL.Query().Get("name"); name != "" {
		return name
	}
	return fallback
}

func imageKey(name, src string) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(name))
	hasher.Write([]byte{0})
	hasher.Write([]byte(src))
	return hasher.Sum(nil)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	src, err := s.readProgram(r)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	s.renderPNG(w, programName(r, "request"), src)
}

func (s *Server) handleRenderStored(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	name := ps.ByName("name")
	src, err := s.store.Get(name)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	s.renderPNG(w, name, src)
}

// renderPNG answers with the rendered image. A program that fails at run
// time still gets its partial image, with a 422 status and the error in a
// header. Only complete renders are cached.
func (s *Server) renderPNG(w http.ResponseWriter, name, src string) {
	key := imageKey(name, src)
	if s.images != nil {
		if img := s.images.GetBig(nil, key); len(img) > 0 {
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set(headerCache, "hit")
			w.Write(img)
			return
		}
	}
	raster, res, err := s.engine.Render(name, src)
	if errors.Is(err, parser.ErrSyntax) {
		s.log.Debug("Rejected program", "name", name, "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if encErr := raster.EncodePNG(&buf); encErr != nil {
		http.Error(w, encErr.Error(), http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "image/png")
	h.Set(headerRunID, res.RunID)
	h.Set(headerSegments, strconv.Itoa(len(res.Segments)))
	if err != nil {
		h.Set(headerError, err.Error())
		w.WriteHeader(statusOf(err))
	} else if s.images != nil {
		s.images.SetBig(key, buf.Bytes())
		h.Set(headerCache, "miss")
	}
	w.Write(buf.Bytes())
	s.log.Debug("Rendered program", "name", name, "run", res.RunID, "segments", len(res.Segments), "err", err)
}

type segmentsResponse struct {
	*engine.Result
	Error string `json:"error,omitempty"`
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	src, err := s.readProgram(r)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	res, err := s.engine.Run(programName(r, "request"), src, nil)
	resp := segmentsResponse{Result: res}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, statusOf(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type programEntry struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	entries, err := s.store.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]programEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, programEntry{Name: e.Name, Size: e.Size})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	src, err := s.store.Get(ps.ByName("name"))
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, src)
}

// handlePutProgram stores a program after checking that it parses.
func (s *Server) handlePutProgram(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	name := ps.ByName("name")
	src, err := s.readProgram(r)
	if err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	if _, err := s.engine.Parse(name, src); err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	if err := s.store.Put(name, src); err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	if err := s.store.Delete(ps.ByName("name")); err != nil {
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
