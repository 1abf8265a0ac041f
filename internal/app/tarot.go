package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/randomtoy/tarot-spread/internal/domain"
	"github.com/randomtoy/tarot-spread/internal/ports"
)

// CreateSpreadResponse is a new spread plus its share token, if requested.
type CreateSpreadResponse struct {
	domain.SpreadInfo
	Token string
}

// ReadSpreadRequest is the application-level input (no HTTP types).
type ReadSpreadRequest struct {
	Seed   string
	DeckID string
	// Positions are 0-based deck positions.
	Positions []int
	Question  string
	Lang      string
	Interpret bool
}

// ReadSpreadResponse is the application-level output.
type ReadSpreadResponse struct {
	Seed           string
	DeckID         string
	TotalCards     int
	Cards          []domain.DrawnCard
	Interpretation *ports.InterpretOutput
	Model          string
	LatencyMS      int64
}

// SpreadService resolves seeds into cards. It keeps no per-spread state:
// every call regenerates the deck from the seed it is given.
type SpreadService struct {
	deckStore   ports.DeckStore
	interpreter ports.Interpreter
	tokens      ports.TokenSigner
	rng         domain.RNG
	model       string
	now         func() time.Time
}

// NewSpreadService wires the service. A nil interpreter disables
// interpretation and a nil token signer disables share tokens.
func NewSpreadService(ds ports.DeckStore, interp ports.Interpreter, tokens ports.TokenSigner, rng domain.RNG, model string) *SpreadService {
	return &SpreadService{
		deckStore:   ds,
		interpreter: interp,
		tokens:      tokens,
		rng:         rng,
		model:       model,
		now:         time.Now,
	}
}

func (s *SpreadService) InterpretEnabled() bool { return s.interpreter != nil }
func (s *SpreadService) TokensEnabled() bool    { return s.tokens != nil }

func (s *SpreadService) CreateSpread(withToken bool) (CreateSpreadResponse, error) {
	resp := CreateSpreadResponse{SpreadInfo: domain.CreateSpread(s.now(), s.rng)}
	if !withToken {
		return resp, nil
	}
	tok, err := s.IssueToken(resp.Seed)
	if err != nil {
		return CreateSpreadResponse{}, err
	}
	resp.Token = tok
	return resp, nil
}

// Deck regenerates the full deck for seed.
func (s *SpreadService) Deck(seed string) ([]domain.DeckEntry, error) {
	seed = strings.TrimSpace(seed)
	deck, err := domain.GenerateSpreadFromSeed(seed, domain.DeckSize)
	if err != nil {
		return nil, err
	}
	if err := domain.VerifyDeck(deck, domain.DeckSize); err != nil {
		return nil, err
	}
	return deck, nil
}

func (s *SpreadService) ReadSpread(ctx context.Context, req ReadSpreadRequest) (ReadSpreadResponse, error) {
	table, err := s.deckStore.GetDeck(ctx, req.DeckID)
	if err != nil {
		return ReadSpreadResponse{}, fmt.Errorf("get deck: %w", err)
	}

	seed := strings.TrimSpace(req.Seed)
	deck, err := s.Deck(seed)
	if err != nil {
		return ReadSpreadResponse{}, fmt.Errorf("regenerate deck: %w", err)
	}

	cards := make([]domain.DrawnCard, 0, len(req.Positions))
	for _, pos := range req.Positions {
		if pos < 0 || pos >= len(deck) {
			return ReadSpreadResponse{}, fmt.Errorf("%w: %d", domain.ErrInvalidPosition, pos)
		}
		entry := deck[pos]
		if entry.Index >= len(table.Cards) {
			return ReadSpreadResponse{}, fmt.Errorf("%w: %d", domain.ErrCardNotFound, entry.Index)
		}
		cards = append(cards, domain.DrawnCard{
			CardDefinition: table.Cards[entry.Index],
			Position:       pos,
			Index:          entry.Index,
			Orientation:    entry.Orientation,
		})
	}

	resp := ReadSpreadResponse{
		Seed:       seed,
		DeckID:     req.DeckID,
		TotalCards: len(deck),
		Cards:      cards,
	}

	if !req.Interpret || len(cards) == 0 {
		return resp, nil
	}
	if s.interpreter == nil {
		return ReadSpreadResponse{}, domain.ErrInterpretDisabled
	}

	llmInput := ports.InterpretInput{
		DeckID:   req.DeckID,
		Seed:     seed,
		Question: req.Question,
		Lang:     req.Lang,
		Cards:    toCardInputs(cards),
	}

	start := time.Now()
	interpretation, err := s.interpreter.Interpret(ctx, llmInput)
	resp.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		return ReadSpreadResponse{}, fmt.Errorf("interpret: %w", err)
	}

	resp.Interpretation = &interpretation
	resp.Model = interpretationModel(interpretation.Model, s.model)
	return resp, nil
}

// IssueToken signs a share token for seed.
func (s *SpreadService) IssueToken(seed string) (string, error) {
	if s.tokens == nil {
		return "", domain.ErrTokensDisabled
	}
	tok, err := s.tokens.Sign(seed)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

// SeedFromToken resolves the seed carried by a share token.
func (s *SpreadService) SeedFromToken(token string) (string, error) {
	if s.tokens == nil {
		return "", domain.ErrTokensDisabled
	}
	return s.tokens.Parse(strings.TrimSpace(token))
}

func interpretationModel(fromLLM, fallback string) string {
	if fromLLM != "" {
		return fromLLM
	}
	return fallback
}

func toCardInputs(cards []domain.DrawnCard) []ports.CardInput {
	out := make([]ports.CardInput, len(cards))
	for i, c := range cards {
		out[i] = ports.CardInput{
			Name:        c.Name,
			Position:    c.Position,
			Orientation: c.Orientation.String(),
			Keywords:    c.Keywords,
			Meaning:     c.Meaning(),
		}
	}
	return out
}
