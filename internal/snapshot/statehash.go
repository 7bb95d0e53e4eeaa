// Package snapshot stores per-resource state copies and provides the
// canonical state hash used for cheap equality checks and audit.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/adwatchhq/adwatch/internal/platform"
)

// Hash returns the SHA-256 of the canonical serialization of a state. Two
// states with identical field values produce the same hash regardless of key
// order. The hash is stored alongside each snapshot; structural diffing stays
// authoritative for change detection.
func Hash(state platform.ResourceState) string {
	sum := sha256.Sum256([]byte(Canonical(state)))
	return hex.EncodeToString(sum[:])
}

// Canonical serializes a value with object keys sorted lexicographically at
// every nesting level.
func Canonical(value any) string {
	var b strings.Builder
	writeCanonical(&b, value)
	return b.String()
}

func writeCanonical(b *strings.Builder, value any) {
	switch typed := value.(type) {
	case nil:
		b.WriteString("null")
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeJSON(b, k)
			b.WriteByte(':')
			writeCanonical(b, typed[k])
		}
		b.WriteByte('}')
	case platform.ResourceState:
		writeCanonical(b, map[string]any(typed))
	case []any:
		b.WriteByte('[')
		for i, item := range typed {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	default:
		encodeJSON(b, typed)
	}
}

func encodeJSON(b *strings.Builder, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		// Non-serializable values only occur on programmer error; keep the
		// hash deterministic rather than panicking mid-detection.
		b.WriteString(fmt.Sprintf("%q", fmt.Sprintf("%v", value)))
		return
	}
	b.Write(encoded)
}
