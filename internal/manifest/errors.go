/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import "errors"

var (
	// Builder errors.
	ErrMissingAppChecksum  = errors.New("no application descriptor set on builder")
	ErrMissingMetaChecksum = errors.New("no metadata descriptor set on builder")
	ErrAppTooLarge         = errors.New("application exceeds maximum encodable length")
	ErrMetaTooLarge        = errors.New("metadata exceeds maximum encodable length")

	// Key and encoding errors.
	ErrInvalidHex        = errors.New("hex encode/decode failed")
	ErrInvalidPublicKey  = errors.New("invalid public key")
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrStringTooLong     = errors.New("string exceeds fixed field width")
	ErrInvalidLength     = errors.New("invalid encoded manifest length")

	// Signing errors.
	ErrSigningFailed = errors.New("signing manifest failed")

	// Trust errors.
	ErrNoMatchingKey      = errors.New("no matching key for manifest verification")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrVerificationFailed = errors.New("signature verification failed")

	// Integrity errors.
	ErrAppLengthMismatch    = errors.New("application length does not match manifest")
	ErrAppChecksumMismatch  = errors.New("application checksum does not match manifest")
	ErrMetaLengthMismatch   = errors.New("metadata length does not match manifest")
	ErrMetaChecksumMismatch = errors.New("metadata checksum does not match manifest")
)
