/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"crypto/sha512"
	"encoding/hex"
)

// ChecksumLen is the encoded width of a Checksum.
const ChecksumLen = 32

// Checksum is a content-addressing value: the SHA-512 digest of a byte
// sequence truncated to its first 32 bytes. Two checksums are equal iff
// their bytes are equal, so values can be compared with ==.
type Checksum [ChecksumLen]byte

// ComputeChecksum hashes data and returns its truncated digest.
func ComputeChecksum(data []byte) Checksum {
	sum := sha512.Sum512(data)

	var c Checksum
	copy(c[:], sum[:ChecksumLen])
	return c
}

// String returns the checksum as lowercase hex.
func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}
