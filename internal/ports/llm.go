package ports

import "context"

// InterpretInput is a drawn reading plus the querent's question.
type InterpretInput struct {
	DeckID   string
	Seed     string
	Question string
	Lang     string
	Cards    []CardInput
}

// CardInput is one drawn card as the interpreter sees it. Meaning is
// already resolved for the card's orientation.
type CardInput struct {
	Name        string
	Position    int
	Orientation string
	Keywords    []string
	Meaning     string
}

// InterpretOutput is a finished reading.
type InterpretOutput struct {
	Text       string `json:"text"`
	Style      string `json:"style"`
	Disclaimer string `json:"disclaimer"`
	// Model is the model that produced the output; not part of the LLM reply.
	Model string `json:"-"`
}

// Interpreter turns drawn cards into prose.
type Interpreter interface {
	Interpret(ctx context.Context, in InterpretInput) (InterpretOutput, error)
}
