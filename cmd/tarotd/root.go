package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tarotd",
		Short: "Seed-reproducible tarot spreads",
		Long: `Tarot spreads that are fully determined by a short seed.
The same seed always yields the same 72-card deck, so a reading can be
shared as a link and regenerated later. For example:
  tarotd serve
  tarotd seed
  tarotd draw loyw3v289zldr9ix --choose 0,1,2`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd(), newSeedCmd(), newDrawCmd())
	return root
}
