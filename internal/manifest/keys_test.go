/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys_HexRoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey(rand.Reader)
	require.NoError(t, err)
	pub := priv.Public()

	encoded := pub.String()
	assert.Len(t, encoded, 64)
	assert.Equal(t, strings.ToLower(encoded), encoded)

	parsed, err := ParsePublicKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, pub, parsed)

	parsedPriv, err := ParsePrivateKey(priv.String())
	require.NoError(t, err)
	assert.Equal(t, priv, parsedPriv)
}

func TestKeys_ParseInvalidHex(t *testing.T) {
	_, err := ParsePublicKey("zz" + strings.Repeat("00", 31))
	assert.ErrorIs(t, err, ErrInvalidHex)

	_, err = ParsePublicKey("abcd")
	assert.ErrorIs(t, err, ErrInvalidHex)

	_, err = ParsePrivateKey("not hex at all")
	assert.ErrorIs(t, err, ErrInvalidHex)

	_, err = ParseSignature(strings.Repeat("0g", 64))
	assert.ErrorIs(t, err, ErrInvalidHex)
}

func TestKeys_ParseInvalidPoint(t *testing.T) {
	// y = 2 has no square x on the curve, so decoding fails.
	_, err := ParsePublicKey("02" + strings.Repeat("00", 31))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestKeys_SignatureHexRoundTrip(t *testing.T) {
	m := signedTestManifest(t)

	encoded := m.Sig.String()
	assert.Len(t, encoded, 128)

	parsed, err := ParseSignature(encoded)
	require.NoError(t, err)
	assert.Equal(t, m.Sig, parsed)
}

func TestKeys_GenerateRequiresEntropy(t *testing.T) {
	_, err := GeneratePrivateKey(nil)
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestKeys_DerivationIsDeterministic(t *testing.T) {
	assert.Equal(t, testPrivateKey.Public(), testPrivateKey.Public())
}
