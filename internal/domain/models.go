package domain

// DeckSize is the number of cards in a full tarot spread deck.
const DeckSize = 72

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Orientation of a card at a deck position: +1 upright, -1 reversed.
type Orientation int

const (
	Upright  Orientation = 1
	Reversed Orientation = -1
)

func (o Orientation) String() string {
	if o == Upright {
		return "upright"
	}
	return "reversed"
}

// DeckEntry is one position of a generated deck.
type DeckEntry struct {
	Index       int         `json:"index"`
	Orientation Orientation `json:"orientation"`
}

// SpreadInfo describes a freshly created spread. The deck itself is not
// part of it; regenerate it from Seed with GenerateSpreadFromSeed.
type SpreadInfo struct {
	Seed       string `json:"seed"`
	TotalCards int    `json:"total_cards"`
	Timestamp  int64  `json:"timestamp"`
}

// CardDefinition is the normalized metadata of a single card.
type CardDefinition struct {
	Name            string   `json:"name"`
	MeaningUpright  string   `json:"meaning_upright"`
	MeaningReversed string   `json:"meaning_reversed"`
	Keywords        []string `json:"keywords,omitempty"`
	Description     string   `json:"description,omitempty"`
}

// Meaning selects the upright or reversed meaning.
func (c CardDefinition) Meaning(o Orientation) string {
	if o == Upright {
		return c.MeaningUpright
	}
	return c.MeaningReversed
}

// Deck is a named card-definition table.
type Deck struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Cards []CardDefinition `json:"cards"`
}

// DrawnCard is a card resolved from a deck position.
type DrawnCard struct {
	CardDefinition
	// Position is the 0-based deck position the card was drawn from.
	Position    int         `json:"position"`
	Index       int         `json:"index"`
	Orientation Orientation `json:"orientation"`
}

// Meaning is the meaning matching the drawn orientation.
func (d DrawnCard) Meaning() string {
	return d.CardDefinition.Meaning(d.Orientation)
}
