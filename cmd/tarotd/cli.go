package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randomtoy/tarot-spread/internal/adapters/decks"
	"github.com/randomtoy/tarot-spread/internal/app"
	"github.com/randomtoy/tarot-spread/internal/domain"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Print a fresh spread seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), domain.GenerateSeed(time.Now(), stdRNG{}))
			return err
		},
	}
}

type drawOptions struct {
	choose    string
	oneBased  bool
	deckSize  int
	deckID    string
	cardsFile string
}

func newDrawCmd() *cobra.Command {
	var opts drawOptions

	cmd := &cobra.Command{
		Use:   "draw [seed]",
		Short: "Print the cards at chosen positions of a spread",
		Long: `Print the cards at chosen positions of a spread.
Without a seed the deck is shuffled once and thrown away. For example:
  tarotd draw test1 --choose 0,1,2
  tarotd draw test1 --choose 1,2,3 --one-based
  tarotd draw --deck-size 22 --choose 0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := ""
			if len(args) == 1 {
				seed = args[0]
			}
			return draw(cmd, seed, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.choose, "choose", "c", "0,1,2", "comma-separated deck positions")
	flags.BoolVar(&opts.oneBased, "one-based", false, "number positions from 1")
	flags.IntVar(&opts.deckSize, "deck-size", domain.DeckSize, "number of cards to shuffle")
	flags.StringVar(&opts.deckID, "deck", decks.DefaultDeckID, "card table to name cards from")
	flags.StringVar(&opts.cardsFile, "cards-file", "", "external card table, registered as deck \"custom\"")
	return cmd
}

func draw(cmd *cobra.Command, seed string, opts drawOptions) error {
	out := cmd.OutOrStdout()

	var deck []domain.DeckEntry
	seed = strings.TrimSpace(seed)
	if seed == "" {
		deck = domain.GenerateThrowawaySpread(opts.deckSize, time.Now(), stdRNG{})
		color.New(color.FgHiBlack).Fprintln(out, "unseeded deck, this draw cannot be repeated")
	} else {
		var err error
		if deck, err = domain.GenerateSpreadFromSeed(seed, opts.deckSize); err != nil {
			return err
		}
		if err := domain.VerifyDeck(deck, max(opts.deckSize, 0)); err != nil {
			return err
		}
		color.New(color.FgCyan, color.Bold).Fprintf(out, "seed %s\n", seed)
	}

	base := app.ZeroBased
	if opts.oneBased {
		base = app.OneBased
	}
	positions, rejected := app.ParsePositions(opts.choose, base, len(deck))
	if len(rejected) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPosition, strings.Join(rejected, ","))
	}

	store, err := loadDecks(opts.cardsFile)
	if err != nil {
		return err
	}
	table, err := store.GetDeck(cmd.Context(), opts.deckID)
	if err != nil {
		return fmt.Errorf("deck %q: %w", opts.deckID, err)
	}

	for _, pos := range positions {
		printCard(out, pos+int(base), deck[pos], table)
	}
	return nil
}

func printCard(w io.Writer, number int, e domain.DeckEntry, table domain.Deck) {
	name := fmt.Sprintf("card #%d", e.Index)
	meaning := ""
	if e.Index < len(table.Cards) {
		card := table.Cards[e.Index]
		name = card.Name
		meaning = card.Meaning(e.Orientation)
	}

	orientation := color.New(color.FgGreen)
	if e.Orientation == domain.Reversed {
		orientation = color.New(color.FgRed)
	}

	fmt.Fprintf(w, "%3d  %s ", number, name)
	orientation.Fprintf(w, "(%s)", e.Orientation)
	fmt.Fprintln(w)
	if meaning != "" {
		color.New(color.FgHiBlack).Fprintf(w, "     %s\n", meaning)
	}
}
