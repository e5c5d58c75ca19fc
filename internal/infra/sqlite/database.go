/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database at dbPath and creates the schema.
func InitDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Connection-level pragmas; journal_mode is persistent per DB file.
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// createSchema creates all registry tables.
func createSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	-- Allow-listed verification keys.
	CREATE TABLE IF NOT EXISTS trusted_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_key BLOB UNIQUE NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		revoked_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trusted_keys_public_key ON trusted_keys(public_key);
	CREATE INDEX IF NOT EXISTS idx_trusted_keys_revoked_at ON trusted_keys(revoked_at);

	-- Published manifests. The encoded blob is the source of truth;
	-- app_name/app_version/transient_key are denormalised for listing.
	CREATE TABLE IF NOT EXISTS manifests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		digest BLOB UNIQUE NOT NULL,
		encoded BLOB NOT NULL,
		app_name TEXT NOT NULL,
		app_version TEXT NOT NULL,
		transient_key BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_manifests_digest ON manifests(digest);
	CREATE INDEX IF NOT EXISTS idx_manifests_app_name ON manifests(app_name);

	-- Composite index to accelerate "latest manifest for an app".
	CREATE INDEX IF NOT EXISTS idx_manifests_name_created ON manifests(app_name, created_at);
	`

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return tx.Commit()
}

// CloseDB closes the database connection.
func CloseDB(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
