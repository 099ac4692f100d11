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

// Package server exposes the turtle engine over HTTP: programs are posted and
// come back as PNG images or segment lists, stored programs can be rendered
// by name, and a websocket streams segments while a program runs.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/probechain/go-turtle/engine"
	"github.com/probechain/go-turtle/log"
	"github.com/probechain/go-turtle/store"
	"github.com/probechain/go-turtle/turtleconfig"
)

// Server is the HTTP front end of an engine.
type Server struct {
	cfg      turtleconfig.ServerConfig
	engine   *engine.Engine
	store    *store.Store // optional
	images   *fastcache.Cache
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	handler  http.Handler
	log      log.Logger
}

// New creates a server for e. The program routes answer 404 when st is nil.
func New(cfg turtleconfig.ServerConfig, e *engine.Engine, st *store.Store) *Server {
	s := &Server{
		cfg:    cfg,
		engine: e,
		store:  st,
		log:    log.New("module", "server"),
	}
	if cfg.CacheBytes > 0 {
		s.images = fastcache.New(cfg.CacheBytes)
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.allowedOrigin,
	}

	router := httprouter.New()
	router.POST("/render", s.handleRender)
	router.POST("/segments", s.handleSegments)
	router.GET("/stream", s.handleStream)
	router.GET("/programs", s.handleList)
	router.GET("/programs/:name", s.handleGetProgram)
	router.PUT("/programs/:name", s.handlePutProgram)
	router.DELETE("/programs/:name", s.handleDeleteProgram)
	router.GET("/programs/:name/render", s.handleRenderStored)

	s.handler = newCorsHandler(s.rateLimit(router), cfg.CORSOrigins)
	return s
}

// newCorsHandler wraps h with CORS headers for the allowed origins. An empty
// list leaves h as is.
func newCorsHandler(h http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return h
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{headerRunID, headerSegments, headerError, headerCache},
		MaxAge:         600,
	})
	return c.Handler(h)
}

func (s *Server) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) rateLimit(h http.Handler) http.Handler {
	if s.limiter == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.log.Debug("Rate limited request", "path", r.URL.Path, "remote", r.RemoteAddr)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()
	s.log.Info("HTTP server started", "endpoint", l.Addr(), "cors", s.cfg.CORSOrigins)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("HTTP server stopped", "endpoint", l.Addr())
	return nil
}
