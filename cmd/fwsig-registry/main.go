/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Command fwsig-registry runs the manifest registry service.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fwsig/fwsig/internal/config"
	"github.com/fwsig/fwsig/internal/server"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "fwsig.db", "path to the sqlite database")
	maxBundleBytes := flag.Int64("max-bundle-bytes", 0, "largest accepted publish body in bytes (0 for the default)")
	allowTransient := flag.Bool("allow-transient", false, "accept manifests signed with transient keys")
	flag.Parse()

	logger := log.New(os.Stderr, "fwsig-registry: ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, config.RegistryConfig{
		Addr:           *addr,
		DBPath:         *dbPath,
		Logger:         logger,
		MaxBundleBytes: *maxBundleBytes,
		AllowTransient: *allowTransient,
	})
	if err != nil {
		logger.Fatalf("starting server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", *addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatalf("server: %v", err)
		}
	case <-ctx.Done():
		logger.Print("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}
}
