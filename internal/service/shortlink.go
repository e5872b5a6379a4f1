package service

import (
	"crypto/rand"
	"fmt"
)

const (
	// base62 keeps tokens URL-safe without escaping.
	shortLinkAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// ShortLinkLength of 8 gives 62^8 (~218 trillion) tokens, so collisions
	// stay negligible and the retry loop below is a formality.
	ShortLinkLength = 8
	// maxShortLinkAttempts bounds the collision retry loop; hitting it means
	// something is wrong with the randomness source, not the token space.
	maxShortLinkAttempts = 10
)

// GenerateShortLink produces a random base62 token for recipe share URLs.
func GenerateShortLink() (string, error) {
	buf := make([]byte, ShortLinkLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate short link: %w", err)
	}
	for i, b := range buf {
		buf[i] = shortLinkAlphabet[int(b)%len(shortLinkAlphabet)]
	}
	return string(buf), nil
}

// UniqueShortLink generates tokens until exists reports one as unused.
// The attempt count is bounded; callers treat exhaustion as an internal error.
func UniqueShortLink(exists func(string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxShortLinkAttempts; attempt++ {
		token, err := GenerateShortLink()
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
	return "", fmt.Errorf("failed to find an unused short link in %d attempts", maxShortLinkAttempts)
}
