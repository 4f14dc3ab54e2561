// Package id generates URL-safe identifiers.
//
// Identifiers are UUIDv4 bytes encoded as lowercase base32 (RFC 4648) with
// no padding, 26 characters long.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a fresh identifier.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(u[:])), nil
}

// NewPrefixed returns prefix + "_" + NewID(), e.g. "batch_…".
func NewPrefixed(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("id prefix is required")
	}
	value, err := NewID()
	if err != nil {
		return "", err
	}
	return prefix + "_" + value, nil
}
