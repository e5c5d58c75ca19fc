/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// ManifestRecord is a published manifest stored by the registry. The
// encoded form is the source of truth; the remaining columns are
// denormalised from it for listing and lookup.
type ManifestRecord struct {
	ID int64

	// Encoded is the full fixed-size encoded manifest.
	Encoded []byte

	// Digest is the checksum of Encoded, used for deduplication and
	// as the external identifier of the record.
	Digest []byte

	AppName      string
	AppVersion   string
	TransientKey bool
	CreatedAt    time.Time
}
