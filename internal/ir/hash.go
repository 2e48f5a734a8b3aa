package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change without collisions.
const (
	DomainComposite = "xacc/composite/v1"
	DomainGraph     = "xacc/graph/v1"
	DomainEmbedding = "xacc/embedding/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash hashes the canonical JSON form of v under domain.
func ContentHash(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("content hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// CompositeHash is the content address of a composite tree. Two trees with
// the same structure, parameters and enabled flags hash equally regardless
// of object identity.
func CompositeHash(c *Composite) (string, error) {
	canonical, err := MarshalComposite(c)
	if err != nil {
		return "", fmt.Errorf("CompositeHash: %w", err)
	}
	return hashWithDomain(DomainComposite, canonical), nil
}

// MustCompositeHash is like CompositeHash but panics on error.
// Use only in tests or when the tree is known to be encodable.
func MustCompositeHash(c *Composite) string {
	h, err := CompositeHash(c)
	if err != nil {
		panic(err)
	}
	return h
}
