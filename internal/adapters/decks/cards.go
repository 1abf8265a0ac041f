package decks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randomtoy/tarot-spread/internal/domain"
)

const (
	fallbackUpright  = "Positive energy and forward movement"
	fallbackReversed = "Blocked energy or reversed meaning"
)

// rawTable is a card table file: either {"cards": [...]} or a bare list.
type rawTable struct {
	Name  string    `json:"name" yaml:"name"`
	Cards []rawCard `json:"cards" yaml:"cards"`
}

// rawCard accepts both known table shapes: a direct upright/reversed pair,
// or light/shadow lists under meanings.
type rawCard struct {
	Name            string       `json:"name" yaml:"name"`
	MeaningUpright  string       `json:"meaning_upright" yaml:"meaning_upright"`
	MeaningReversed string       `json:"meaning_reversed" yaml:"meaning_reversed"`
	Meanings        *rawMeanings `json:"meanings" yaml:"meanings"`
	Keywords        textList     `json:"keywords" yaml:"keywords"`
	FortuneTelling  textList     `json:"fortune_telling" yaml:"fortune_telling"`
}

type rawMeanings struct {
	Light  textList `json:"light" yaml:"light"`
	Shadow textList `json:"shadow" yaml:"shadow"`
}

// textList decodes from a single string or a list of strings.
type textList []string

func (l *textList) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*l = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = textList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

func (l *textList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		if n.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = textList{n.Value}
		return nil
	}
	var list []string
	if err := n.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

func normalizeCard(c rawCard) domain.CardDefinition {
	def := domain.CardDefinition{
		Name:        c.Name,
		Keywords:    c.Keywords,
		Description: strings.Join(c.FortuneTelling, ", "),
	}

	switch {
	case c.MeaningUpright != "" && c.MeaningReversed != "":
		def.MeaningUpright = c.MeaningUpright
		def.MeaningReversed = c.MeaningReversed
	case c.Meanings != nil && c.Meanings.Light != nil && c.Meanings.Shadow != nil:
		// Empty lists still count and yield an empty meaning.
		def.MeaningUpright = strings.Join(c.Meanings.Light, ". ")
		def.MeaningReversed = strings.Join(c.Meanings.Shadow, ". ")
	default:
		def.MeaningUpright = fallbackUpright
		def.MeaningReversed = fallbackReversed
	}

	return def
}

// parseTable decodes a card table. format is "json" or "yaml".
func parseTable(raw []byte, format string) (rawTable, error) {
	var t rawTable
	switch format {
	case "json":
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &t.Cards); err != nil {
				return rawTable{}, err
			}
			return t, nil
		}
		if err := json.Unmarshal(trimmed, &t); err != nil {
			return rawTable{}, err
		}
	case "yaml":
		var doc yaml.Node
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return rawTable{}, err
		}
		if len(doc.Content) == 0 {
			return t, nil
		}
		root := doc.Content[0]
		if root.Kind == yaml.SequenceNode {
			if err := root.Decode(&t.Cards); err != nil {
				return rawTable{}, err
			}
			return t, nil
		}
		if err := root.Decode(&t); err != nil {
			return rawTable{}, err
		}
	default:
		return rawTable{}, fmt.Errorf("unsupported card table format %q", format)
	}
	return t, nil
}

func toDeck(id string, t rawTable) (domain.Deck, error) {
	if len(t.Cards) < domain.DeckSize {
		return domain.Deck{}, fmt.Errorf("deck %s has %d cards, need at least %d", id, len(t.Cards), domain.DeckSize)
	}
	cards := make([]domain.CardDefinition, len(t.Cards))
	for i, c := range t.Cards {
		cards[i] = normalizeCard(c)
	}
	name := t.Name
	if name == "" {
		name = id
	}
	return domain.Deck{ID: id, Name: name, Cards: cards}, nil
}
