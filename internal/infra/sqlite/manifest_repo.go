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

	"github.com/fwsig/fwsig/internal/domain/model"
)

// ManifestRepository handles published manifest persistence.
type ManifestRepository struct {
	db *sql.DB
}

func NewManifestRepository(db *sql.DB) *ManifestRepository {
	return &ManifestRepository{db: db}
}

// Create inserts a new manifest record and returns the inserted id.
func (r *ManifestRepository) Create(ctx context.Context, record *model.ManifestRecord) (int64, error) {
	const q = `
		INSERT INTO manifests (digest, encoded, app_name, app_version, transient_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q,
		record.Digest, record.Encoded, record.AppName, record.AppVersion,
		record.TransientKey, record.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert manifest: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindByDigest returns a manifest record by the checksum of its encoded
// form. Returns nil without error when absent.
func (r *ManifestRepository) FindByDigest(ctx context.Context, digest []byte) (*model.ManifestRecord, error) {
	const q = `
		SELECT id, digest, encoded, app_name, app_version, transient_key, created_at
		FROM manifests
		WHERE digest = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, q, digest)
	var record model.ManifestRecord
	if err := row.Scan(&record.ID, &record.Digest, &record.Encoded,
		&record.AppName, &record.AppVersion, &record.TransientKey, &record.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	return &record, nil
}

// ListByName returns the records for an application, newest first. An
// empty name lists everything.
func (r *ManifestRepository) ListByName(ctx context.Context, appName string) ([]model.ManifestRecord, error) {
	const q = `
		SELECT id, digest, encoded, app_name, app_version, transient_key, created_at
		FROM manifests
		WHERE (? = '' OR app_name = ?)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, appName, appName)
	if err != nil {
		return nil, fmt.Errorf("query manifests: %w", err)
	}
	defer rows.Close()

	var records []model.ManifestRecord
	for rows.Next() {
		var record model.ManifestRecord
		if err := rows.Scan(&record.ID, &record.Digest, &record.Encoded,
			&record.AppName, &record.AppVersion, &record.TransientKey, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan manifest: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Latest returns the most recently published record for an application,
// or nil when the application is unknown.
func (r *ManifestRepository) Latest(ctx context.Context, appName string) (*model.ManifestRecord, error) {
	const q = `
		SELECT id, digest, encoded, app_name, app_version, transient_key, created_at
		FROM manifests
		WHERE app_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, q, appName)
	var record model.ManifestRecord
	if err := row.Scan(&record.ID, &record.Digest, &record.Encoded,
		&record.AppName, &record.AppVersion, &record.TransientKey, &record.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan manifest: %w", err)
	}
	return &record, nil
}
