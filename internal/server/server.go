/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kentakayama/comedores-dashboard/internal/config"
	"github.com/kentakayama/comedores-dashboard/internal/dashboard"
)

// Server wires the HTTP listener and request handling stack.
type Server struct {
	cfg     *config.Config
	handler *handler
	http    *http.Server
	logger  *zerolog.Logger
}

// New constructs a Server serving svc with the provided configuration.
func New(cfg *config.Config, svc *dashboard.Service) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	if svc == nil {
		return nil, errors.New("server: nil dashboard service")
	}
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	h, err := newHandler(svc, cfg, logger)
	if err != nil {
		return nil, err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	return &Server{
		cfg:     cfg,
		handler: h,
		http:    httpSrv,
		logger:  logger,
	}, nil
}

// Handler exposes the request handling stack, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("dashboard server listening")

	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully takes down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
