/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package service

import (
	"context"

	"github.com/fwsig/fwsig/internal/domain/model"
)

// TrustedKeyRepository defines the interface for trusted key persistence.
type TrustedKeyRepository interface {
	Create(ctx context.Context, key *model.TrustedKey) (int64, error)
	FindByPublicKey(ctx context.Context, publicKey []byte) (*model.TrustedKey, error)
	ListActive(ctx context.Context) ([]model.TrustedKey, error)
	Revoke(ctx context.Context, publicKey []byte) error
}

// ManifestRepository defines the interface for manifest record persistence.
type ManifestRepository interface {
	Create(ctx context.Context, record *model.ManifestRecord) (int64, error)
	FindByDigest(ctx context.Context, digest []byte) (*model.ManifestRecord, error)
	ListByName(ctx context.Context, appName string) ([]model.ManifestRecord, error)
	Latest(ctx context.Context, appName string) (*model.ManifestRecord, error)
}
