/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package manifest

import "fmt"

// MetadataKind identifies the encoding of the metadata payload a
// manifest describes. The numeric values are part of the wire format.
type MetadataKind uint16

const (
	MetadataBinary MetadataKind = 0x0000
	MetadataJSON   MetadataKind = 0x0001
	MetadataCBOR   MetadataKind = 0x0002
	MetadataOther  MetadataKind = 0xFFFF
)

// String returns the short form used on the command line and in
// registry listings.
func (k MetadataKind) String() string {
	switch k {
	case MetadataBinary:
		return "bin"
	case MetadataJSON:
		return "json"
	case MetadataCBOR:
		return "cbor"
	case MetadataOther:
		return "other"
	default:
		return fmt.Sprintf("unknown(0x%04x)", uint16(k))
	}
}

// ParseMetadataKind converts a short form back to a MetadataKind.
func ParseMetadataKind(s string) (MetadataKind, error) {
	switch s {
	case "bin", "binary":
		return MetadataBinary, nil
	case "json":
		return MetadataJSON, nil
	case "cbor":
		return MetadataCBOR, nil
	case "other":
		return MetadataOther, nil
	default:
		return 0, fmt.Errorf("unknown metadata kind %q", s)
	}
}
