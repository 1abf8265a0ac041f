package ports

// TokenSigner issues and resolves signed share tokens that carry a seed.
type TokenSigner interface {
	Sign(seed string) (string, error)
	// Parse returns the seed of a valid token.
	Parse(token string) (string, error)
}
