package domain

import (
	"fmt"
	"time"
)

// shufflePasses is the number of full Fisher-Yates passes over the deck.
const shufflePasses = 4

// GenerateSpreadFromSeed regenerates the deck for seed. The same seed and
// deckSize always yield the same entries in the same order. A negative
// deckSize is treated as zero.
func GenerateSpreadFromSeed(seed string, deckSize int) ([]DeckEntry, error) {
	src, err := NewSeededRandom(seed)
	if err != nil {
		return nil, err
	}
	return generateDeck(src, deckSize), nil
}

func generateDeck(src *SeededRandom, deckSize int) []DeckEntry {
	deckSize = max(deckSize, 0)

	deck := make([]DeckEntry, deckSize)
	for i := range deck {
		deck[i] = DeckEntry{Index: i, Orientation: Upright}
	}

	for range shufflePasses {
		for i := len(deck) - 1; i > 0; i-- {
			j := src.Intn(i + 1)
			deck[i], deck[j] = deck[j], deck[i]
		}
	}

	// Orientation belongs to the position, drawn only after all passes.
	for i := range deck {
		if src.Float64() < 0.5 {
			deck[i].Orientation = Upright
		} else {
			deck[i].Orientation = Reversed
		}
	}

	return deck
}

// VerifyDeck reports ErrSizeMismatch when deck does not hold exactly
// deckSize entries. A mismatch is a generator bug, not bad input.
func VerifyDeck(deck []DeckEntry, deckSize int) error {
	if len(deck) != deckSize {
		return fmt.Errorf("%w: want %d, got %d", ErrSizeMismatch, deckSize, len(deck))
	}
	return nil
}

// CreateSpread mints a new seed for a full deck. The deck is not generated
// here; callers regenerate it from the seed when they need it.
func CreateSpread(now time.Time, rng RNG) SpreadInfo {
	return SpreadInfo{
		Seed:       GenerateSeed(now, rng),
		TotalCards: DeckSize,
		Timestamp:  now.UnixMilli(),
	}
}

// GenerateThrowawaySpread shuffles a deck from a freshly minted seed and
// discards the seed. The result cannot be reproduced; use CreateSpread and
// GenerateSpreadFromSeed wherever the deck must be shown again.
func GenerateThrowawaySpread(deckSize int, now time.Time, rng RNG) []DeckEntry {
	// GenerateSeed never returns an empty seed.
	src, _ := NewSeededRandom(GenerateSeed(now, rng))
	return generateDeck(src, deckSize)
}
