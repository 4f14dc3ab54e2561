package random

import "testing"

func TestSeedOrNewKeepsConfiguredSeed(t *testing.T) {
	seed, err := SeedOrNew(42)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if seed != 42 {
		t.Fatalf("seed = %d, want 42", seed)
	}
}

func TestSeedOrNewDrawsFreshSeed(t *testing.T) {
	first, err := SeedOrNew(0)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	second, err := SeedOrNew(0)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct seeds, got %d twice", first)
	}
}
