package token

import (
	"crypto/rand"
	"encoding/base64"

	"cardroom-server/internal/rng"
)

// codeAlphabet holds the characters allowed in a join code. Easily confused
// characters (0/O, 1/I/L) are left out since players type these by hand.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Generate returns a crypto-secure random string of length n
// The random string is contains the following characters:
// ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_
func Generate(n int) (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	// base64 increases size by ~33%
	return base64.RawURLEncoding.EncodeToString(b)[0:n], nil
}

// Code returns a room join code of length n
func Code(n int) string {
	return CodeWithRNG(rng.Crypto{}, n)
}

// CodeWithRNG returns a join code using the provided generator
func CodeWithRNG(g rng.Generator, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[g.Intn(len(codeAlphabet))]
	}

	return string(b)
}
