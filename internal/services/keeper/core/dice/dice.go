// Package dice provides the randomness used by keeper rolls.
package dice

import (
	"math/rand"
	"sync"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
)

// Source yields uniform integers in [0, n).
//
// Implementations must be safe for concurrent use.
type Source interface {
	Intn(n int) int
}

// PercentileSides is the number of faces on a percentile die.
const PercentileSides = 100

// ErrInvalidSides indicates a die with fewer than one face.
var ErrInvalidSides = apperrors.New(apperrors.CodeRollInvalidSides, "dice must have positive sides")

// ErrMissingSource indicates a nil source was passed to a roll.
var ErrMissingSource = apperrors.New(apperrors.CodeUnknown, "dice source is required")

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a mutex-guarded source seeded with seed.
//
// The same seed always yields the same sequence of draws.
func NewSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Roll draws one die with the given number of sides, returning a value in
// [1, sides].
func Roll(source Source, sides int) (int, error) {
	if source == nil {
		return 0, ErrMissingSource
	}
	if sides <= 0 {
		return 0, ErrInvalidSides
	}
	return source.Intn(sides) + 1, nil
}

// Percentile draws a value in [1, 100].
func Percentile(source Source) (int, error) {
	return Roll(source, PercentileSides)
}

// Sequence is a deterministic source that replays fixed die faces.
//
// Each value is a 1-based face; Intn returns value-1 clamped to [0, n). When
// the sequence is exhausted it starts over.
type Sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequence builds a replaying source from 1-based faces.
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: append([]int(nil), values...)}
}

func (s *Sequence) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 || n <= 0 {
		return 0
	}
	value := s.values[s.next%len(s.values)] - 1
	s.next++
	if value < 0 {
		return 0
	}
	if value >= n {
		return n - 1
	}
	return value
}

// Calls reports how many draws have been taken.
func (s *Sequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
