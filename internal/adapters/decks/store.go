package decks

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/randomtoy/tarot-spread/internal/domain"
)

//go:embed data/*.json
var deckFS embed.FS

const (
	DefaultDeckID = "classic"
	CustomDeckID  = "custom"
)

// registry maps embedded deck IDs to their JSON filenames inside data/.
var registry = map[string]string{
	DefaultDeckID: "data/classic.json",
}

// EmbeddedStore serves the embedded decks plus any table files registered
// with WithFile. Everything is loaded on first use and never changes after.
type EmbeddedStore struct {
	files map[string]string

	once  sync.Once
	decks map[string]domain.Deck
	err   error
}

type Option func(*EmbeddedStore)

// WithFile registers a JSON or YAML card table on disk under deckID.
func WithFile(deckID, path string) Option {
	return func(s *EmbeddedStore) {
		s.files[deckID] = path
	}
}

func NewEmbeddedStore(opts ...Option) *EmbeddedStore {
	s := &EmbeddedStore{files: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EmbeddedStore) init() {
	s.decks = make(map[string]domain.Deck, len(registry)+len(s.files))
	for id, filename := range registry {
		raw, err := deckFS.ReadFile(filename)
		if err != nil {
			s.err = fmt.Errorf("read embedded deck %s: %w", id, err)
			return
		}
		if err := s.add(id, raw, "json"); err != nil {
			s.err = fmt.Errorf("parse embedded deck %s: %w", id, err)
			return
		}
	}
	for id, path := range s.files {
		raw, err := os.ReadFile(path)
		if err != nil {
			s.err = fmt.Errorf("read deck file %s: %w", path, err)
			return
		}
		if err := s.add(id, raw, formatOf(path)); err != nil {
			s.err = fmt.Errorf("parse deck file %s: %w", path, err)
			return
		}
	}
}

func (s *EmbeddedStore) add(id string, raw []byte, format string) error {
	table, err := parseTable(raw, format)
	if err != nil {
		return err
	}
	deck, err := toDeck(id, table)
	if err != nil {
		return err
	}
	s.decks[id] = deck
	return nil
}

// Load forces the tables to be read and reports the first load error.
func (s *EmbeddedStore) Load() error {
	s.once.Do(s.init)
	return s.err
}

func (s *EmbeddedStore) GetDeck(_ context.Context, deckID string) (domain.Deck, error) {
	if err := s.Load(); err != nil {
		return domain.Deck{}, err
	}
	deck, ok := s.decks[deckID]
	if !ok {
		return domain.Deck{}, domain.ErrDeckNotFound
	}
	return deck, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
