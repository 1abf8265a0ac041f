package domain

import "errors"

var (
	ErrInvalidSeed       = errors.New("invalid or missing seed")
	ErrSizeMismatch      = errors.New("generated deck size mismatch")
	ErrDeckNotFound      = errors.New("deck not found")
	ErrCardNotFound      = errors.New("card index not in deck")
	ErrInvalidPosition   = errors.New("invalid card position")
	ErrInvalidToken      = errors.New("invalid spread token")
	ErrTokensDisabled    = errors.New("spread tokens are disabled")
	ErrInterpretDisabled = errors.New("interpretation is disabled")
	ErrUpstreamLLM       = errors.New("upstream LLM failure")
	ErrInvalidLLMJSON    = errors.New("LLM returned invalid JSON after retry")
)
