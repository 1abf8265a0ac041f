package main

import (
	"log/slog"
	"math/rand/v2"
	"os"
)

// stdRNG delegates to math/rand/v2 (auto-seeded).
type stdRNG struct{}

func (stdRNG) Intn(n int) int { return rand.IntN(n) }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("tarotd failed", "error", err)
		os.Exit(1)
	}
}
