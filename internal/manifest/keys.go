/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"io"

	"filippo.io/edwards25519"
)

// Fixed widths of the Ed25519 key and signature material carried by a
// manifest.
const (
	PublicKeyLen  = ed25519.PublicKeySize
	PrivateKeyLen = ed25519.SeedSize
	SignatureLen  = ed25519.SignatureSize
)

// PublicKey is a raw 32-byte Ed25519 public key.
type PublicKey [PublicKeyLen]byte

// PrivateKey is a raw 32-byte Ed25519 private key (seed form).
type PrivateKey [PrivateKeyLen]byte

// Signature is a raw 64-byte Ed25519 signature.
type Signature [SignatureLen]byte

// GeneratePrivateKey produces a fresh private key from the provided
// entropy source. The source must be cryptographically secure (for
// example crypto/rand.Reader); there is deliberately no default, so a
// nil source is an error rather than a silent fallback.
func GeneratePrivateKey(random io.Reader) (PrivateKey, error) {
	if random == nil {
		return PrivateKey{}, fmt.Errorf("%w: no entropy source provided", ErrInvalidPrivateKey)
	}

	var k PrivateKey
	if _, err := io.ReadFull(random, k[:]); err != nil {
		return PrivateKey{}, fmt.Errorf("%w: reading entropy: %v", ErrInvalidPrivateKey, err)
	}
	return k, nil
}

// Public derives the public key. Derivation is deterministic and has no
// failure mode.
func (k PrivateKey) Public() PublicKey {
	priv := ed25519.NewKeyFromSeed(k[:])

	var pub PublicKey
	copy(pub[:], priv.Public().(ed25519.PublicKey))
	return pub
}

// ParsePrivateKey decodes a lowercase or uppercase hex private key.
func ParsePrivateKey(s string) (PrivateKey, error) {
	var k PrivateKey
	if err := decodeHexExact(k[:], s); err != nil {
		return PrivateKey{}, err
	}
	return k, nil
}

// ParsePublicKey decodes a hex public key and checks that the bytes
// form a decodable curve point.
func ParsePublicKey(s string) (PublicKey, error) {
	var k PublicKey
	if err := decodeHexExact(k[:], s); err != nil {
		return PublicKey{}, err
	}

	if _, err := new(edwards25519.Point).SetBytes(k[:]); err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return k, nil
}

// ParseSignature decodes a hex signature. Only the length and hex
// alphabet are checked here; cryptographic validity is decided during
// verification.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	if err := decodeHexExact(sig[:], s); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// decodeHexExact decodes s into dst, requiring the decoded length to
// match len(dst) exactly.
func decodeHexExact(dst []byte, s string) error {
	if hex.DecodedLen(len(s)) != len(dst) {
		return fmt.Errorf("%w: got %d hex chars, want %d", ErrInvalidHex, len(s), hex.EncodedLen(len(dst)))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return nil
}

func (k PublicKey) String() string  { return hex.EncodeToString(k[:]) }
func (k PrivateKey) String() string { return hex.EncodeToString(k[:]) }
func (s Signature) String() string  { return hex.EncodeToString(s[:]) }

// IsZero reports whether the signature is all zero bytes, the state of
// an unsigned manifest.
func (s Signature) IsZero() bool {
	return s == Signature{}
}

// IsZero reports whether the key is all zero bytes.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}
