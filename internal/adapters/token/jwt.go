package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/randomtoy/tarot-spread/internal/domain"
)

type claims struct {
	Seed string `json:"seed"`
	jwt.RegisteredClaims
}

// Signer implements ports.TokenSigner with HS256 JWTs.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Signer)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner returns a signer. A zero ttl issues tokens without expiry.
func NewSigner(secret, issuer string, ttl time.Duration, opts ...Option) *Signer {
	s := &Signer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Signer) Sign(seed string) (string, error) {
	if seed == "" {
		return "", domain.ErrInvalidSeed
	}
	now := s.now().UTC()
	c := claims{
		Seed: seed,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Signer) Parse(tokenString string) (string, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithLeeway(30*time.Second),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid || c.Seed == "" {
		return "", domain.ErrInvalidToken
	}
	return c.Seed, nil
}

// RandomSecret returns a hex secret for processes started without one.
// Tokens signed with it do not survive a restart.
func RandomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
