/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package manifest implements the signed firmware manifest: a fixed
// 214-byte little-endian record binding an application binary and a
// metadata blob to a single Ed25519 signature.
//
// Validation is two independent phases. Check confirms integrity: the
// payload bytes match the lengths and checksums the manifest records,
// and the manifest's own signature is self-consistent. Verify confirms
// trust: the signing key appears on a caller-supplied allow-list and
// the signature verifies against it. A loader must run both before
// trusting a payload.
package manifest

import (
	"crypto"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
)

// Version is the manifest format version written by this package. The
// decoder accepts other values as-is; rejecting or migrating foreign
// versions is the caller's policy decision.
const Version uint16 = 0x0001

// EncodedLen is the exact encoded size of every manifest. The format
// has no variable-length fields, so a consumer can always locate a
// trailing manifest by taking the final EncodedLen bytes of a blob.
const EncodedLen = 2 + 2 + 2 + AppNameLen + AppVersionLen +
	4 + ChecksumLen +
	2 + 2 + ChecksumLen +
	PublicKeyLen + SignatureLen

// signedPrefixLen is the number of leading encoded bytes covered by the
// signature: every field except the signature itself.
const signedPrefixLen = EncodedLen - SignatureLen

// Manifest is the signed record. A fresh manifest is unsigned (Key and
// Sig all zero); Sign transitions it to signed exactly once, after
// which it is treated as an immutable value.
type Manifest struct {
	// Version is the format version (see the Version constant).
	Version uint16

	// Flags carries the manifest information flags.
	Flags Flags

	// Reserved is header padding held for future format revisions.
	// It is written as zero, preserved on decode, and covered by the
	// signature like every other field.
	Reserved uint16

	// AppName and AppVersion label the application binary.
	AppName    Stringish
	AppVersion Stringish

	// AppLen and AppChecksum describe the application binary.
	AppLen      uint32
	AppChecksum Checksum

	// MetaKind, MetaLen and MetaChecksum describe the metadata blob.
	MetaKind     MetadataKind
	MetaLen      uint16
	MetaChecksum Checksum

	// Key is the public key the manifest was signed with. For released
	// firmware the allowed keys are pinned by the loader; where no
	// release key is available a transient key is used and flagged.
	Key PublicKey

	// Sig is the Ed25519ph signature over every preceding field.
	Sig Signature
}

// New returns an empty unsigned manifest at the current format version.
func New() *Manifest {
	return &Manifest{
		Version:    Version,
		AppName:    stringishFromBytes(make([]byte, AppNameLen)),
		AppVersion: stringishFromBytes(make([]byte, AppVersionLen)),
	}
}

// appendFixed appends text padded with zero bytes to exactly width
// bytes, so a zero-value Stringish still occupies its full field.
func appendFixed(b []byte, text []byte, width int) []byte {
	b = append(b, text...)
	for i := len(text); i < width; i++ {
		b = append(b, 0)
	}
	return b
}

// Encode serialises the manifest into its fixed EncodedLen-byte form.
// Field order and little-endian integer encoding are part of the format
// since they determine both byte offsets and digest input order.
func (m *Manifest) Encode() []byte {
	b := make([]byte, 0, EncodedLen)
	b = m.appendSignedPrefix(b)
	b = append(b, m.Sig[:]...)
	return b
}

// appendSignedPrefix appends the first signedPrefixLen encoded bytes:
// every field except the signature, in declared order.
func (m *Manifest) appendSignedPrefix(b []byte) []byte {
	b = binary.LittleEndian.AppendUint16(b, m.Version)
	b = binary.LittleEndian.AppendUint16(b, uint16(m.Flags))
	b = binary.LittleEndian.AppendUint16(b, m.Reserved)
	b = appendFixed(b, m.AppName.Bytes(), AppNameLen)
	b = appendFixed(b, m.AppVersion.Bytes(), AppVersionLen)
	b = binary.LittleEndian.AppendUint32(b, m.AppLen)
	b = append(b, m.AppChecksum[:]...)
	b = binary.LittleEndian.AppendUint16(b, uint16(m.MetaKind))
	b = binary.LittleEndian.AppendUint16(b, m.MetaLen)
	b = append(b, m.MetaChecksum[:]...)
	b = append(b, m.Key[:]...)
	return b
}

// Decode reconstructs a manifest from exactly EncodedLen bytes.
// Malformed input fails with ErrInvalidLength; no field content causes
// a decode failure, so a tampered manifest still decodes and is then
// rejected by Check or Verify.
func Decode(b []byte) (*Manifest, error) {
	if len(b) != EncodedLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(b), EncodedLen)
	}

	var m Manifest
	off := 0

	m.Version = binary.LittleEndian.Uint16(b[off:])
	off += 2
	m.Flags = Flags(binary.LittleEndian.Uint16(b[off:]))
	off += 2
	m.Reserved = binary.LittleEndian.Uint16(b[off:])
	off += 2
	m.AppName = stringishFromBytes(b[off : off+AppNameLen])
	off += AppNameLen
	m.AppVersion = stringishFromBytes(b[off : off+AppVersionLen])
	off += AppVersionLen
	m.AppLen = binary.LittleEndian.Uint32(b[off:])
	off += 4
	off += copy(m.AppChecksum[:], b[off:])
	m.MetaKind = MetadataKind(binary.LittleEndian.Uint16(b[off:]))
	off += 2
	m.MetaLen = binary.LittleEndian.Uint16(b[off:])
	off += 2
	off += copy(m.MetaChecksum[:], b[off:])
	off += copy(m.Key[:], b[off:])
	copy(m.Sig[:], b[off:])

	return &m, nil
}

// digest computes the SHA-512 digest the signature covers: every field
// except Sig, hashed in declared order using each field's encoded
// representation. This is bit-identical to hashing the first
// signedPrefixLen bytes of Encode's output, which lets a signer digest
// without a full serialise pass and a verifier re-digest after
// deserialising.
func (m *Manifest) digest() [sha512.Size]byte {
	h := sha512.New()

	var scratch [4]byte
	writeU16 := func(v uint16) {
		binary.LittleEndian.PutUint16(scratch[:2], v)
		h.Write(scratch[:2])
	}
	writeU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:4], v)
		h.Write(scratch[:4])
	}

	writeU16(m.Version)
	writeU16(uint16(m.Flags))
	writeU16(m.Reserved)
	h.Write(appendFixed(nil, m.AppName.Bytes(), AppNameLen))
	h.Write(appendFixed(nil, m.AppVersion.Bytes(), AppVersionLen))
	writeU32(m.AppLen)
	h.Write(m.AppChecksum[:])
	writeU16(uint16(m.MetaKind))
	writeU16(m.MetaLen)
	h.Write(m.MetaChecksum[:])
	h.Write(m.Key[:])

	var d [sha512.Size]byte
	h.Sum(d[:0])
	return d
}

// Sign derives the public key from key, writes it into the manifest and
// produces an Ed25519ph signature over the manifest digest. The caller
// decides the transient-key flag before signing, since the flags field
// is covered by the digest.
func (m *Manifest) Sign(key PrivateKey) error {
	m.Key = key.Public()

	d := m.digest()
	priv := ed25519.NewKeyFromSeed(key[:])

	sig, err := priv.Sign(nil, d[:], &ed25519.Options{Hash: crypto.SHA512})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	copy(m.Sig[:], sig)
	return nil
}

// Verify is the trust phase: it requires the manifest's signing key to
// appear on the caller-supplied allow-list (ErrNoMatchingKey otherwise)
// and the signature to verify against that key. Integrity of the
// payloads is checked separately by Check.
func (m *Manifest) Verify(allowed []PublicKey) error {
	found := false
	for _, k := range allowed {
		if k == m.Key {
			found = true
			break
		}
	}
	if !found {
		return ErrNoMatchingKey
	}

	if m.Sig.IsZero() {
		return ErrInvalidSignature
	}

	d := m.digest()
	if err := ed25519.VerifyWithOptions(ed25519.PublicKey(m.Key[:]), d[:], m.Sig[:], &ed25519.Options{Hash: crypto.SHA512}); err != nil {
		return ErrVerificationFailed
	}
	return nil
}

// checkSig confirms the manifest's signature is self-consistent: it
// verifies against the embedded key. It does not consult any trust
// list; a valid signature from an unknown key passes.
func (m *Manifest) checkSig() error {
	if m.Sig.IsZero() {
		return ErrInvalidSignature
	}

	d := m.digest()
	if err := ed25519.VerifyWithOptions(ed25519.PublicKey(m.Key[:]), d[:], m.Sig[:], &ed25519.Options{Hash: crypto.SHA512}); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// Check is the integrity phase: self-signature, then application
// length and checksum, then metadata length and checksum, failing on
// the first mismatch. Length is compared before hashing so a truncated
// payload is rejected without touching its content.
func (m *Manifest) Check(app, meta []byte) error {
	if err := m.checkSig(); err != nil {
		return err
	}

	if len(app) != int(m.AppLen) {
		return fmt.Errorf("%w: got %d bytes, manifest records %d", ErrAppLengthMismatch, len(app), m.AppLen)
	}
	if ComputeChecksum(app) != m.AppChecksum {
		return ErrAppChecksumMismatch
	}

	if len(meta) != int(m.MetaLen) {
		return fmt.Errorf("%w: got %d bytes, manifest records %d", ErrMetaLengthMismatch, len(meta), m.MetaLen)
	}
	if ComputeChecksum(meta) != m.MetaChecksum {
		return ErrMetaChecksumMismatch
	}

	return nil
}

// CheckPrecomputed is Check for callers that stream content and hash it
// as it passes, for example while writing an image to flash, and so
// never hold the full payload in memory.
func (m *Manifest) CheckPrecomputed(appLen int, appSum Checksum, metaLen int, metaSum Checksum) error {
	if err := m.checkSig(); err != nil {
		return err
	}

	if appLen != int(m.AppLen) {
		return fmt.Errorf("%w: got %d bytes, manifest records %d", ErrAppLengthMismatch, appLen, m.AppLen)
	}
	if appSum != m.AppChecksum {
		return ErrAppChecksumMismatch
	}

	if metaLen != int(m.MetaLen) {
		return fmt.Errorf("%w: got %d bytes, manifest records %d", ErrMetaLengthMismatch, metaLen, m.MetaLen)
	}
	if metaSum != m.MetaChecksum {
		return ErrMetaChecksumMismatch
	}

	return nil
}
