package recipe

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	shortLinkAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultShortLinkLength = 6
	maxShortLinkLength     = 16
	maxShortLinkAttempts   = 64
)

var ErrShortLinkExhausted = errors.New("could not generate an unused short link")

// ShortLinkGenerator draws random tokens from [a-zA-Z0-9].
type ShortLinkGenerator struct {
	length int
}

func NewShortLinkGenerator(length int) *ShortLinkGenerator {
	if length <= 0 {
		length = defaultShortLinkLength
	}
	if length > maxShortLinkLength {
		length = maxShortLinkLength
	}
	return &ShortLinkGenerator{length: length}
}

func (g *ShortLinkGenerator) random() (string, error) {
	b := make([]byte, g.length)
	max := big.NewInt(int64(len(shortLinkAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = shortLinkAlphabet[n.Int64()]
	}
	return string(b), nil
}

// Generate returns a token for which exists reports false, retrying on collision.
func (g *ShortLinkGenerator) Generate(exists func(token string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxShortLinkAttempts; attempt++ {
		token, err := g.random()
		if err != nil {
			return "", err
		}
		taken, err := exists(token)
		if err != nil {
			return "", err
		}
		if !taken {
			return token, nil
		}
	}
	return "", ErrShortLinkExhausted
}
