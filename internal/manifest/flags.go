/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

// Flags is the manifest's 16-bit information flag set. Callers read and
// write individual flags through the named accessors; the raw bit
// layout is an encoding detail.
type Flags uint16

// flagTransientKey marks a manifest signed with an ephemeral key that
// was generated at build time rather than supplied by the caller. Such
// a signature proves integrity but not a durable identity, so it must
// not be used for key pinning or trust-on-first-use.
const flagTransientKey Flags = 1 << 0

// TransientKey reports whether the signing key was generated
// ephemerally.
func (f Flags) TransientKey() bool {
	return f&flagTransientKey != 0
}

// SetTransientKey sets or clears the transient-key flag.
func (f *Flags) SetTransientKey(transient bool) {
	if transient {
		*f |= flagTransientKey
	} else {
		*f &^= flagTransientKey
	}
}
