/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package server implements the manifest registry: an HTTP service
// that accepts signed firmware manifests, verifies them against an
// allow-list of trusted keys, and stores them for distribution.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fwsig/fwsig/internal/config"
	"github.com/fwsig/fwsig/internal/infra/sqlite"
)

// Server wires the HTTP listener and request handling stack.
type Server struct {
	cfg     config.RegistryConfig
	db      *sql.DB
	handler *handler
	http    *http.Server
	logger  *log.Logger
}

// New constructs a Server using the provided configuration, opening
// (and if necessary initialising) the registry database.
func New(ctx context.Context, cfg config.RegistryConfig) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	db, err := sqlite.InitDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	h := newHandler(db, cfg, logger)

	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout == 0 {
		readHeaderTimeout = 5 * time.Second
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return &Server{
		cfg:     cfg,
		db:      db,
		handler: h,
		http:    httpSrv,
		logger:  logger,
	}, nil
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.logger.Printf("Run manifest registry on %s (db: %s).", s.http.Addr, s.cfg.DBPath)

	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully takes down the HTTP server and closes the
// database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if closeErr := sqlite.CloseDB(s.db); err == nil {
		err = closeErr
	}
	return err
}
