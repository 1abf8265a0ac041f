package app

import (
	"strconv"
	"strings"
)

// IndexBase is the numbering a caller uses for deck positions.
type IndexBase int

const (
	// ZeroBased positions run 0..deckSize-1 (JSON API, WebSocket).
	ZeroBased IndexBase = 0
	// OneBased positions run 1..deckSize (HTML flows).
	OneBased IndexBase = 1
)

// ParsePositions parses a comma-separated list of positions numbered from
// base and returns them 0-based. Tokens that are not integers or fall
// outside the deck are returned untouched in rejected; empty tokens are
// skipped.
func ParsePositions(raw string, base IndexBase, deckSize int) (positions []int, rejected []string) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			rejected = append(rejected, tok)
			continue
		}
		pos := n - int(base)
		if pos < 0 || pos >= deckSize {
			rejected = append(rejected, tok)
			continue
		}
		positions = append(positions, pos)
	}
	return positions, rejected
}
