// Package random provides cryptographic seed generation helpers.
//
// Seeds initialise the keeper's pseudo-random dice source; the draws
// themselves only need to be uniform, not unpredictable.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// SeedOrNew returns configured when it is non-zero, otherwise a fresh seed.
func SeedOrNew(configured int64) (int64, error) {
	if configured != 0 {
		return configured, nil
	}
	return NewSeed()
}
