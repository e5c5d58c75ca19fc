/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"fmt"
	"io"
	"math"
	"os"
)

// Builder accumulates application and metadata descriptors and produces
// a signed Manifest. It is intended for single use: descriptor methods
// chain, and the first error they hit is deferred and reported by
// Build.
//
// Build with a nil signing key generates a fresh transient key from the
// supplied entropy source on every call, so repeated builds yield
// distinct manifests. That is intentional: a transient key exists only
// for the manifest it signed.
type Builder struct {
	flags   Flags
	name    Stringish
	version Stringish

	app  *appDescriptor
	meta *metaDescriptor

	err error
}

type appDescriptor struct {
	length   uint32
	checksum Checksum
}

type metaDescriptor struct {
	kind     MetadataKind
	length   uint16
	checksum Checksum
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		name:    NewStringishLossy(AppNameLen, ""),
		version: NewStringishLossy(AppVersionLen, ""),
	}
}

// Flags sets the caller-controlled manifest flags. The transient-key
// flag is owned by Build and overwritten there.
func (b *Builder) Flags(f Flags) *Builder {
	b.flags = f
	return b
}

// Name sets the application name (at most AppNameLen bytes of UTF-8).
func (b *Builder) Name(name string) *Builder {
	s, err := NewStringish(AppNameLen, name)
	if err != nil {
		b.fail(fmt.Errorf("app name: %w", err))
		return b
	}
	b.name = s
	return b
}

// Version sets the application version string (at most AppVersionLen
// bytes of UTF-8).
func (b *Builder) Version(version string) *Builder {
	s, err := NewStringish(AppVersionLen, version)
	if err != nil {
		b.fail(fmt.Errorf("app version: %w", err))
		return b
	}
	b.version = s
	return b
}

// AppBytes records the length and checksum of the application binary.
func (b *Builder) AppBytes(data []byte) *Builder {
	if uint64(len(data)) > math.MaxUint32 {
		b.fail(fmt.Errorf("%w: %d bytes", ErrAppTooLarge, len(data)))
		return b
	}
	b.app = &appDescriptor{
		length:   uint32(len(data)),
		checksum: ComputeChecksum(data),
	}
	return b
}

// AppFile reads the application binary from path and records it via
// AppBytes.
func (b *Builder) AppFile(path string) *Builder {
	data, err := os.ReadFile(path)
	if err != nil {
		b.fail(fmt.Errorf("reading app file: %w", err))
		return b
	}
	return b.AppBytes(data)
}

// MetaBytes records the kind, length and checksum of the metadata blob.
func (b *Builder) MetaBytes(kind MetadataKind, data []byte) *Builder {
	if len(data) > math.MaxUint16 {
		b.fail(fmt.Errorf("%w: %d bytes", ErrMetaTooLarge, len(data)))
		return b
	}
	b.meta = &metaDescriptor{
		kind:     kind,
		length:   uint16(len(data)),
		checksum: ComputeChecksum(data),
	}
	return b
}

// MetaFile reads the metadata blob from path and records it via
// MetaBytes.
func (b *Builder) MetaFile(kind MetadataKind, path string) *Builder {
	data, err := os.ReadFile(path)
	if err != nil {
		b.fail(fmt.Errorf("reading meta file: %w", err))
		return b
	}
	return b.MetaBytes(kind, data)
}

// Build assembles and signs the manifest. If key is nil a transient
// private key is generated from random, which must then be a
// cryptographically secure source, and the transient-key flag is set;
// an explicit key clears it.
func (b *Builder) Build(key *PrivateKey, random io.Reader) (*Manifest, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.app == nil {
		return nil, ErrMissingAppChecksum
	}
	if b.meta == nil {
		return nil, ErrMissingMetaChecksum
	}

	signingKey, transient := PrivateKey{}, false
	if key != nil {
		signingKey = *key
	} else {
		generated, err := GeneratePrivateKey(random)
		if err != nil {
			return nil, err
		}
		signingKey, transient = generated, true
	}

	flags := b.flags
	flags.SetTransientKey(transient)

	m := &Manifest{
		Version:      Version,
		Flags:        flags,
		AppName:      b.name,
		AppVersion:   b.version,
		AppLen:       b.app.length,
		AppChecksum:  b.app.checksum,
		MetaKind:     b.meta.kind,
		MetaLen:      b.meta.length,
		MetaChecksum: b.meta.checksum,
	}

	if err := m.Sign(signingKey); err != nil {
		return nil, err
	}
	return m, nil
}

// fail records the first deferred error.
func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
