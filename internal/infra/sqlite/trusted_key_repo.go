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
	"time"

	"github.com/fwsig/fwsig/internal/domain/model"
)

// TrustedKeyRepository handles allow-listed verification key persistence.
type TrustedKeyRepository struct {
	db *sql.DB
}

func NewTrustedKeyRepository(db *sql.DB) *TrustedKeyRepository {
	return &TrustedKeyRepository{db: db}
}

// Create inserts a new trusted key and returns the inserted id.
func (r *TrustedKeyRepository) Create(ctx context.Context, key *model.TrustedKey) (int64, error) {
	const q = `
		INSERT INTO trusted_keys (public_key, name, created_at)
		VALUES (?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q, key.PublicKey, key.Name, key.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert trusted_key: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindByPublicKey returns a trusted key by its raw public key bytes,
// revoked or not. Returns nil without error when absent.
func (r *TrustedKeyRepository) FindByPublicKey(ctx context.Context, publicKey []byte) (*model.TrustedKey, error) {
	const q = `
		SELECT id, public_key, name, created_at, revoked_at
		FROM trusted_keys
		WHERE public_key = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, q, publicKey)
	var key model.TrustedKey
	if err := row.Scan(&key.ID, &key.PublicKey, &key.Name, &key.CreatedAt, &key.RevokedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan trusted_key: %w", err)
	}
	return &key, nil
}

// ListActive returns all non-revoked trusted keys, oldest first.
func (r *TrustedKeyRepository) ListActive(ctx context.Context) ([]model.TrustedKey, error) {
	const q = `
		SELECT id, public_key, name, created_at, revoked_at
		FROM trusted_keys
		WHERE revoked_at IS NULL
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query trusted_keys: %w", err)
	}
	defer rows.Close()

	var keys []model.TrustedKey
	for rows.Next() {
		var key model.TrustedKey
		if err := rows.Scan(&key.ID, &key.PublicKey, &key.Name, &key.CreatedAt, &key.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan trusted_key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Revoke marks the trusted key revoked. Revoking an unknown or already
// revoked key is a no-op.
func (r *TrustedKeyRepository) Revoke(ctx context.Context, publicKey []byte) error {
	const q = `
		UPDATE trusted_keys
		SET revoked_at = ?
		WHERE public_key = ? AND revoked_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, q, time.Now().UTC().Truncate(time.Second), publicKey); err != nil {
		return fmt.Errorf("revoke trusted_key: %w", err)
	}
	return nil
}
