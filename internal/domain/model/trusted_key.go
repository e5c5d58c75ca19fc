/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// TrustedKey is an allow-listed verification public key. Manifests are
// accepted by the registry only when their signing key matches an
// active (non-revoked) trusted key.
type TrustedKey struct {
	ID        int64
	PublicKey []byte // raw 32-byte Ed25519 public key
	Name      string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the key may currently anchor trust.
func (k *TrustedKey) Active() bool {
	return k.RevokedAt == nil
}
