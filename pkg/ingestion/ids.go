// Copyright 2026 KurtLabs
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// sectionIDPrefixLen is the fixed content-prefix length hashed into section
// IDs. Kept fixed so IDs stay stable across runs for identical content.
const sectionIDPrefixLen = 64

// SectionID generates a deterministic section ID from the section's content
// prefix and its absolute start offset.
// Strategy: hash(content[:64] + "|" + start_offset), truncated to 16 hex
// characters. Identical content at identical offsets always yields identical
// IDs, which is what makes delta-mode skips reliable.
func SectionID(content string, startOffset int) string {
	prefix := content
	if len(prefix) > sectionIDPrefixLen {
		prefix = prefix[:sectionIDPrefixLen]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", prefix, startOffset)))
	return hex.EncodeToString(sum[:8])
}

// DocumentID generates a deterministic document ID from the source
// reference (path or URL).
// Strategy: use the normalized reference directly when short enough,
// otherwise hash it to keep IDs manageable.
func DocumentID(source string) string {
	normalized := normalizeSource(source)

	if len(normalized) <= 256 {
		return fmt.Sprintf("doc:%s", normalized)
	}

	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("doc:%s", hex.EncodeToString(sum[:16]))
}

// ContentHash returns the full sha256 hash of a document's content, used for
// delta-mode change detection.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// normalizeSource normalizes a source reference for consistent ID
// generation: strips a leading "./", collapses backslashes, and trims a
// trailing slash.
func normalizeSource(source string) string {
	s := strings.TrimPrefix(source, "./")
	s = strings.ReplaceAll(s, "\\", "/")
	s = strings.TrimSuffix(s, "/")
	return s
}
