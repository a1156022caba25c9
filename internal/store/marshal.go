package store

import (
	"fmt"
	"time"

	"github.com/roach88/dicegraph/internal/ir"
	"github.com/roach88/dicegraph/internal/render"
)

// marshalResult converts a result value to canonical JSON TEXT and its hash.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalResult(v render.Value) (string, string, error) {
	enc := v.Encode()
	data, err := ir.MarshalCanonical(enc)
	if err != nil {
		return "", "", fmt.Errorf("marshal result: %w", err)
	}
	hash, err := ir.ResultHash(enc)
	if err != nil {
		return "", "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), hash, nil
}

// timeLayout keeps sub-second precision so rows written in the same second
// still read back distinct.
const timeLayout = time.RFC3339Nano

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal created_at: %w", err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
