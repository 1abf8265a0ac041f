package domain_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/randomtoy/tarot-spread/internal/domain"
)

func TestSeedToState(t *testing.T) {
	tests := []struct {
		seed string
		want uint32
	}{
		{"a", 97},
		{"abc", 96354},
		{"abd", 96355},
		{"test1", 110251487},
		{"hello world", 1794106052},
		// Accumulator goes negative; the state is its absolute value.
		{"zzzzzzzzzz", 1580979136},
		{"🂡é", 54948260},
	}

	for _, tt := range tests {
		got, err := domain.SeedToState(tt.seed)
		if err != nil {
			t.Fatalf("seed %q: unexpected error: %v", tt.seed, err)
		}
		if got != tt.want {
			t.Errorf("seed %q: got %d, want %d", tt.seed, got, tt.want)
		}
	}
}

func TestSeedToState_Empty(t *testing.T) {
	_, err := domain.SeedToState("")
	if !errors.Is(err, domain.ErrInvalidSeed) {
		t.Errorf("expected ErrInvalidSeed, got %v", err)
	}
}

func TestNextRandom(t *testing.T) {
	state, _ := domain.SeedToState("test1")

	want := []float64{0.7364711934156378, 0.12989111796982167, 0.32860939643347054}
	for i, w := range want {
		var f float64
		f, state = domain.NextRandom(state)
		if f != w {
			t.Errorf("draw %d: got %v, want %v", i, f, w)
		}
		if f < 0 || f >= 1 {
			t.Errorf("draw %d: %v outside [0, 1)", i, f)
		}
	}
}

func TestSeededRandom_MatchesNextRandom(t *testing.T) {
	src, err := domain.NewSeededRandom("stream")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, _ := domain.SeedToState("stream")

	for i := range 100 {
		var want float64
		want, state = domain.NextRandom(state)
		if got := src.Float64(); got != want {
			t.Fatalf("draw %d: got %v, want %v", i, got, want)
		}
	}
}

func TestGenerateSeed(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	got := domain.GenerateSeed(now, &deterministicRNG{values: []int{0, 35}})
	if got != "loyw3v280z" {
		t.Errorf("unexpected seed: %s", got)
	}

	urlSafe := regexp.MustCompile(`^[0-9a-z]+$`)
	for _, v := range []int{0, 1, 36, 0xABCDEF, 0xFFFFFF} {
		seed := domain.GenerateSeed(time.Now(), &deterministicRNG{values: []int{v}})
		if !urlSafe.MatchString(seed) {
			t.Errorf("seed %q is not URL path safe", seed)
		}
	}
}
