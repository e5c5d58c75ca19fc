/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package bundle implements the packaging conventions around a signed
// manifest. Combined mode concatenates application, metadata and
// manifest into one blob; the manifest is always the trailing fixed
// 214 bytes, so a reader needs no framing to find it. Detached mode
// distributes the encoded manifest alone, next to its payload files.
package bundle

import (
	"errors"
	"fmt"
	"os"

	"github.com/fwsig/fwsig/internal/manifest"
)

var (
	ErrTooShort       = errors.New("blob too short to contain a manifest")
	ErrLengthMismatch = errors.New("blob length does not match manifest payload lengths")
)

// Combine concatenates app, meta and the encoded manifest.
func Combine(app, meta []byte, m *manifest.Manifest) []byte {
	out := make([]byte, 0, len(app)+len(meta)+manifest.EncodedLen)
	out = append(out, app...)
	out = append(out, meta...)
	out = append(out, m.Encode()...)
	return out
}

// Split slices a combined blob back into its three parts. The decoded
// manifest's recorded lengths must account for every byte preceding
// the trailer; any surplus or deficit fails with ErrLengthMismatch.
// Split performs no integrity or trust checks on the parts.
func Split(data []byte) (app, meta []byte, m *manifest.Manifest, err error) {
	if len(data) < manifest.EncodedLen {
		return nil, nil, nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(data))
	}

	m, err = manifest.Decode(data[len(data)-manifest.EncodedLen:])
	if err != nil {
		return nil, nil, nil, err
	}

	appLen := int(m.AppLen)
	metaLen := int(m.MetaLen)
	if len(data) != appLen+metaLen+manifest.EncodedLen {
		return nil, nil, nil, fmt.Errorf("%w: %d bytes, manifest records %d+%d",
			ErrLengthMismatch, len(data), appLen, metaLen)
	}

	return data[:appLen], data[appLen : appLen+metaLen], m, nil
}

// VerifyCombined splits the blob, runs the integrity phase over the
// payloads and the trust phase against the allow-list. Both phases
// must pass; the decoded manifest is returned for inspection either
// way once splitting succeeds.
func VerifyCombined(data []byte, allowed []manifest.PublicKey) (*manifest.Manifest, error) {
	app, meta, m, err := Split(data)
	if err != nil {
		return nil, err
	}

	if err := m.Check(app, meta); err != nil {
		return m, err
	}
	if err := m.Verify(allowed); err != nil {
		return m, err
	}
	return m, nil
}

// VerifyDetached decodes a detached manifest and validates the
// separately supplied payloads against it, then checks trust.
func VerifyDetached(encoded, app, meta []byte, allowed []manifest.PublicKey) (*manifest.Manifest, error) {
	m, err := manifest.Decode(encoded)
	if err != nil {
		return nil, err
	}

	if err := m.Check(app, meta); err != nil {
		return m, err
	}
	if err := m.Verify(allowed); err != nil {
		return m, err
	}
	return m, nil
}

// WriteCombinedFile writes app, meta and the manifest to path as one
// combined blob.
func WriteCombinedFile(path string, app, meta []byte, m *manifest.Manifest) error {
	if err := os.WriteFile(path, Combine(app, meta, m), 0644); err != nil {
		return fmt.Errorf("writing combined bundle: %w", err)
	}
	return nil
}

// WriteManifestFile writes the encoded manifest alone to path
// (detached mode).
func WriteManifestFile(path string, m *manifest.Manifest) error {
	if err := os.WriteFile(path, m.Encode(), 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
