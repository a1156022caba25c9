package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints. The version suffix
// allows the encoding to change without colliding with old values.
const (
	DomainExpression = "dicegraph/expression/v1"
	DomainResult     = "dicegraph/result/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint identifies an IR tree by its structure. Two trees that format
// identically and have the same node shapes share a fingerprint.
func Fingerprint(n Node) (string, error) {
	canonical, err := MarshalCanonical(Encode(n))
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainExpression, canonical), nil
}

// ResultHash identifies a finished evaluation result.
func ResultHash(result JSONValue) (string, error) {
	canonical, err := MarshalCanonical(result)
	if err != nil {
		return "", fmt.Errorf("result hash: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}
