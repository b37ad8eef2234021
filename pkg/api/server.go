// GlucoLink Core
// Copyright (c) 2026 The GlucoLink Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of GlucoLink Core.
//
// GlucoLink Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GlucoLink Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GlucoLink Core.  If not, see <http://www.gnu.org/licenses/>.

// Package api hosts the bridge's local endpoint: the websocket channel a
// device connects to, and a small status resource.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/GlucoLinkProject/glucolink-core/pkg/config"
)

// APIPath is the websocket channel endpoint.
const APIPath = "/api/v0.1"

const shutdownTimeout = 5 * time.Second

// Status is the bridge status resource shape.
type Status struct {
	LastSync        string `json:"lastSync,omitempty"`
	LastError       string `json:"lastError,omitempty"`
	Units           string `json:"units"`
	Readings        int    `json:"readings"`
	NewestAgeSecs   int    `json:"newestAgeSecs"`
	DeviceConnected bool   `json:"deviceConnected"`
}

// StatusFunc supplies the current sync-side status snapshot.
type StatusFunc func() Status

// Server hosts the channel endpoint and owns the device session.
type Server struct {
	cfg      *config.Instance
	channel  *Channel
	status   StatusFunc
	requests chan struct{}
}

// NewServer creates the bridge server. status may be nil.
func NewServer(cfg *config.Instance, status StatusFunc) *Server {
	s := &Server{
		cfg:      cfg,
		status:   status,
		requests: make(chan struct{}, 1),
	}
	s.channel = newChannel(cfg, s.notifyRequest)
	return s
}

// Channel returns the device channel for the transfer protocol.
func (s *Server) Channel() *Channel {
	return s.channel
}

// Requests delivers device-initiated sync triggers. The channel is
// buffered and coalescing: a trigger arriving while one is pending is
// folded into it.
func (s *Server) Requests() <-chan struct{} {
	return s.requests
}

func (s *Server) notifyRequest() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get(APIPath, func(w http.ResponseWriter, req *http.Request) {
		if err := s.channel.melody.HandleRequest(w, req); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	r.Get(APIPath+"/status", func(w http.ResponseWriter, _ *http.Request) {
		st := Status{Units: s.cfg.Units()}
		if s.status != nil {
			st = s.status()
		}
		st.DeviceConnected = s.channel.Connected()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			log.Error().Err(err).Msg("writing status response")
		}
	})

	return r
}

// Run serves the bridge endpoint until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.APIPort()),
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.cfg.APIPort()).Msg("bridge API listening")
		errs <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := s.channel.melody.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close websocket sessions")
		}
		return nil
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}
