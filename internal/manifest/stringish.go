/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import (
	"fmt"
	"unicode/utf8"
)

// Widths of the fixed-size text fields carried by a manifest.
const (
	AppNameLen    = 16
	AppVersionLen = 24

	// maxStringishWidth is the largest text field width in the layout.
	maxStringishWidth = AppVersionLen
)

// InvalidTextSentinel is returned by Stringish.Text when the stored
// bytes are not valid UTF-8 (for example after a lossy truncation that
// split a multi-byte code point).
const InvalidTextSentinel = "INVALID_UTF8"

// Stringish is a fixed-width, zero-padded, UTF-8 text field. The width
// is fixed at construction; encoding is the raw width bytes with no
// terminator beyond the zero padding. Values are comparable with ==.
type Stringish struct {
	width int
	buf   [maxStringishWidth]byte
}

// NewStringish builds a Stringish of the given width from s, failing
// with ErrStringTooLong if the UTF-8 byte length of s exceeds width.
func NewStringish(width int, s string) (Stringish, error) {
	if width <= 0 || width > maxStringishWidth {
		return Stringish{}, fmt.Errorf("unsupported field width %d", width)
	}
	if len(s) > width {
		return Stringish{}, fmt.Errorf("%w: %d bytes into %d", ErrStringTooLong, len(s), width)
	}

	v := Stringish{width: width}
	copy(v.buf[:], s)
	return v, nil
}

// NewStringishLossy builds a Stringish of the given width from s,
// silently truncating to the first width bytes. Truncation is by bytes,
// not code points, so the stored value may end mid-rune; Text then
// yields InvalidTextSentinel.
func NewStringishLossy(width int, s string) Stringish {
	if width <= 0 || width > maxStringishWidth {
		return Stringish{}
	}
	if len(s) > width {
		s = s[:width]
	}

	v := Stringish{width: width}
	copy(v.buf[:], s)
	return v
}

// stringishFromBytes rebuilds a Stringish from its raw encoded form.
// The caller guarantees len(raw) is a supported width.
func stringishFromBytes(raw []byte) Stringish {
	v := Stringish{width: len(raw)}
	copy(v.buf[:], raw)
	return v
}

// Width returns the fixed encoded width in bytes.
func (s Stringish) Width() int {
	return s.width
}

// Bytes returns the raw zero-padded field contents.
func (s Stringish) Bytes() []byte {
	return s.buf[:s.width]
}

// Text decodes the field up to (excluding) the first zero byte. If that
// prefix is not valid UTF-8 the fixed InvalidTextSentinel is returned
// instead of an error.
func (s Stringish) Text() string {
	end := s.width
	for i := 0; i < s.width; i++ {
		if s.buf[i] == 0 {
			end = i
			break
		}
	}

	if !utf8.Valid(s.buf[:end]) {
		return InvalidTextSentinel
	}
	return string(s.buf[:end])
}

func (s Stringish) String() string {
	return s.Text()
}
