package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// ResultFingerprint is the deterministic digest over a computed artifact.
// Two runs over the same stored events must produce equal fingerprints.
type ResultFingerprint Hash

func (h ResultFingerprint) String() string { return Hash(h).String() }

// ComputeResultFingerprint folds a sorted view of named scalar values into a
// fingerprint. Map iteration order must never leak into the digest.
func ComputeResultFingerprint(sessionID SessionID, values map[string]float64) ResultFingerprint {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	data.WriteString(sessionID.String())
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("%.12f", values[key]))
	}

	return ResultFingerprint(NewHash([]byte(data.String())))
}
