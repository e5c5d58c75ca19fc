/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"crypto/rand"
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPrivateKey is a fixed signing key used by deterministic tests.
var testPrivateKey = PrivateKey{
	0x9d, 0x61, 0xb1, 0x9d, 0xef, 0xfd, 0x5a, 0x60,
	0xba, 0x84, 0x4a, 0xf4, 0x92, 0xec, 0x2c, 0xc4,
	0x44, 0x49, 0xc5, 0x69, 0x7b, 0x32, 0x69, 0x19,
	0x70, 0x3b, 0xac, 0x03, 0x1c, 0xae, 0x7f, 0x60,
}

func signedTestManifest(t *testing.T) *Manifest {
	t.Helper()

	m, err := NewBuilder().
		Name("demo-app").
		Version("1.2.3").
		AppBytes([]byte("application image contents")).
		MetaBytes(MetadataJSON, []byte(`{"build":"test"}`)).
		Build(&testPrivateKey, nil)
	require.NoError(t, err)
	return m
}

func TestManifest_EncodedLen(t *testing.T) {
	assert.Equal(t, 214, EncodedLen)

	m := signedTestManifest(t)
	assert.Len(t, m.Encode(), EncodedLen)
}

func TestManifest_EncodeDecodeRoundTrip(t *testing.T) {
	m := signedTestManifest(t)

	decoded, err := Decode(m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestManifest_DecodeRejectsBadLength(t *testing.T) {
	m := signedTestManifest(t)
	encoded := m.Encode()

	for _, n := range []int{0, 1, EncodedLen - 1, EncodedLen + 1} {
		b := make([]byte, n)
		copy(b, encoded)
		_, err := Decode(b)
		assert.ErrorIs(t, err, ErrInvalidLength, "length %d", n)
	}
}

func TestManifest_DigestEquivalence(t *testing.T) {
	// The field-wise digest must equal the hash of the first 150
	// encoded bytes: one code path signs before serialising, the
	// other verifies after deserialising.
	m := signedTestManifest(t)

	overEncoded := sha512.Sum512(m.Encode()[:EncodedLen-SignatureLen])
	fieldWise := m.digest()
	assert.Equal(t, overEncoded, fieldWise)
}

func TestManifest_SignVerify(t *testing.T) {
	m := signedTestManifest(t)

	require.Equal(t, testPrivateKey.Public(), m.Key)
	require.False(t, m.Sig.IsZero())

	assert.NoError(t, m.Verify([]PublicKey{testPrivateKey.Public()}))
}

func TestManifest_VerifyUnrelatedKey(t *testing.T) {
	m := signedTestManifest(t)

	other, err := GeneratePrivateKey(rand.Reader)
	require.NoError(t, err)

	err = m.Verify([]PublicKey{other.Public()})
	assert.ErrorIs(t, err, ErrNoMatchingKey)

	err = m.Verify(nil)
	assert.ErrorIs(t, err, ErrNoMatchingKey)
}

func TestManifest_VerifyAfterDecode(t *testing.T) {
	m := signedTestManifest(t)

	decoded, err := Decode(m.Encode())
	require.NoError(t, err)
	assert.NoError(t, decoded.Verify([]PublicKey{testPrivateKey.Public()}))
}

func TestManifest_TamperDetection(t *testing.T) {
	// Flipping any bit in the signed region or the signature itself
	// must fail verification. Byte offsets per the fixed layout.
	fields := map[string]int{
		"version":    0,
		"flags":      2,
		"reserved":   4,
		"app_name":   6,
		"app_ver":    22,
		"app_len":    46,
		"app_csum":   50,
		"meta_kind":  82,
		"meta_len":   84,
		"meta_csum":  86,
		"key":        118,
		"sig":        150,
		"sig_middle": 182,
	}

	allowed := []PublicKey{testPrivateKey.Public()}

	for name, offset := range fields {
		t.Run(name, func(t *testing.T) {
			m := signedTestManifest(t)
			encoded := m.Encode()
			encoded[offset] ^= 0x01

			tampered, err := Decode(encoded)
			require.NoError(t, err)

			if err := tampered.Verify(allowed); err == nil {
				t.Fatalf("tampered manifest (offset %d) verified", offset)
			}
		})
	}
}

func TestManifest_CorruptSignatureErrors(t *testing.T) {
	// A structurally present but wrong signature fails the trust phase
	// with ErrVerificationFailed and the integrity phase with
	// ErrInvalidSignature.
	m := signedTestManifest(t)
	m.Sig[10] ^= 0x01

	err := m.Verify([]PublicKey{testPrivateKey.Public()})
	assert.ErrorIs(t, err, ErrVerificationFailed)

	err = m.Check([]byte("application image contents"), []byte(`{"build":"test"}`))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestManifest_CheckOK(t *testing.T) {
	app := []byte("application image contents")
	meta := []byte(`{"build":"test"}`)

	m := signedTestManifest(t)
	assert.NoError(t, m.Check(app, meta))
}

func TestManifest_CheckOrdering(t *testing.T) {
	app := []byte("application image contents")
	meta := []byte(`{"build":"test"}`)
	m := signedTestManifest(t)

	// Wrong length fails before any hashing happens.
	err := m.Check(app[:len(app)-1], meta)
	assert.ErrorIs(t, err, ErrAppLengthMismatch)

	// Same length but altered content fails on the checksum.
	altered := make([]byte, len(app))
	copy(altered, app)
	altered[0] ^= 0xff
	err = m.Check(altered, meta)
	assert.ErrorIs(t, err, ErrAppChecksumMismatch)

	err = m.Check(app, meta[:len(meta)-1])
	assert.ErrorIs(t, err, ErrMetaLengthMismatch)

	alteredMeta := make([]byte, len(meta))
	copy(alteredMeta, meta)
	alteredMeta[0] ^= 0xff
	err = m.Check(app, alteredMeta)
	assert.ErrorIs(t, err, ErrMetaChecksumMismatch)
}

func TestManifest_CheckUnsigned(t *testing.T) {
	m := New()
	err := m.Check(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestManifest_CheckDoesNotConsultTrust(t *testing.T) {
	// Check is integrity only: a self-consistent manifest signed by a
	// key on no allow-list still passes Check and fails Verify.
	app := []byte("application image contents")
	meta := []byte(`{"build":"test"}`)

	m := signedTestManifest(t)
	require.NoError(t, m.Check(app, meta))

	err := m.Verify([]PublicKey{})
	assert.ErrorIs(t, err, ErrNoMatchingKey)
}

func TestManifest_CheckPrecomputed(t *testing.T) {
	app := []byte("application image contents")
	meta := []byte(`{"build":"test"}`)
	m := signedTestManifest(t)

	assert.NoError(t, m.CheckPrecomputed(
		len(app), ComputeChecksum(app),
		len(meta), ComputeChecksum(meta)))

	err := m.CheckPrecomputed(len(app)+1, ComputeChecksum(app), len(meta), ComputeChecksum(meta))
	assert.ErrorIs(t, err, ErrAppLengthMismatch)

	err = m.CheckPrecomputed(len(app), Checksum{}, len(meta), ComputeChecksum(meta))
	assert.ErrorIs(t, err, ErrAppChecksumMismatch)

	err = m.CheckPrecomputed(len(app), ComputeChecksum(app), len(meta), Checksum{})
	assert.ErrorIs(t, err, ErrMetaChecksumMismatch)
}

func TestManifest_EndToEnd(t *testing.T) {
	app := []byte("hello")
	meta := []byte("{}")

	m, err := NewBuilder().
		AppBytes(app).
		MetaBytes(MetadataJSON, meta).
		Build(&testPrivateKey, nil)
	require.NoError(t, err)

	assert.Equal(t, uint32(5), m.AppLen)
	assert.Equal(t, uint16(2), m.MetaLen)
	assert.Equal(t, MetadataJSON, m.MetaKind)
	assert.Equal(t, ComputeChecksum(app), m.AppChecksum)
	assert.Equal(t, ComputeChecksum(meta), m.MetaChecksum)
	assert.Len(t, m.Encode(), EncodedLen)

	require.NoError(t, m.Check(app, meta))
	require.NoError(t, m.Verify([]PublicKey{testPrivateKey.Public()}))

	unrelated, err := GeneratePrivateKey(rand.Reader)
	require.NoError(t, err)
	err = m.Verify([]PublicKey{unrelated.Public()})
	assert.ErrorIs(t, err, ErrNoMatchingKey)
}
