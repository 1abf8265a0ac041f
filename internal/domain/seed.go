package domain

import (
	"strconv"
	"time"
	"unicode/utf16"
)

// LCG parameters. Changing any of them changes every deck ever issued.
const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// maxSeedComponent bounds each random part of a fresh seed (inclusive).
const maxSeedComponent = 0xFFFFFF

// GenerateSeed returns a compact seed: base36 epoch milliseconds followed by
// two base36 random values, without separators. Only [0-9a-z] is produced,
// so the seed can be used as a URL path segment as is. Uniqueness is not
// guaranteed.
func GenerateSeed(now time.Time, rng RNG) string {
	t := strconv.FormatInt(now.UnixMilli(), 36)
	r1 := strconv.FormatInt(int64(rng.Intn(maxSeedComponent+1)), 36)
	r2 := strconv.FormatInt(int64(rng.Intn(maxSeedComponent+1)), 36)
	return t + r1 + r2
}

// SeedToState folds the seed into the initial PRNG state. Each UTF-16 code
// unit is mixed in as acc = acc*31 + unit with 32-bit two's-complement
// wraparound; the result is the absolute value of the signed accumulator.
func SeedToState(seed string) (uint32, error) {
	if seed == "" {
		return 0, ErrInvalidSeed
	}

	var acc int32
	for _, u := range utf16.Encode([]rune(seed)) {
		acc = acc<<5 - acc + int32(u)
	}

	v := int64(acc)
	if v < 0 {
		v = -v
	}
	return uint32(v), nil
}

// NextRandom advances the LCG once and returns the draw in [0, 1) together
// with the new state.
func NextRandom(state uint32) (float64, uint32) {
	next := uint32((uint64(state)*lcgMultiplier + lcgIncrement) % lcgModulus)
	return float64(next) / lcgModulus, next
}

// SeededRandom is a stream of NextRandom draws. Draw order determines the
// generated deck, so a stream must never be shared between generations.
type SeededRandom struct {
	state uint32
}

// NewSeededRandom returns a stream positioned at the state derived from seed.
func NewSeededRandom(seed string) (*SeededRandom, error) {
	state, err := SeedToState(seed)
	if err != nil {
		return nil, err
	}
	return &SeededRandom{state: state}, nil
}

// Float64 returns the next draw in [0, 1).
func (r *SeededRandom) Float64() float64 {
	var f float64
	f, r.state = NextRandom(r.state)
	return f
}

// Intn returns floor(Float64() * n).
func (r *SeededRandom) Intn(n int) int {
	return int(r.Float64() * float64(n))
}
