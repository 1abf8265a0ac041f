package ports

import (
	"context"

	"github.com/randomtoy/tarot-spread/internal/domain"
)

// DeckStore provides access to card-definition tables.
type DeckStore interface {
	GetDeck(ctx context.Context, deckID string) (domain.Deck, error)
}
