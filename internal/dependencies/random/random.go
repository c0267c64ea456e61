package random

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const digits = "0123456789"

// Random provides the randomness behind codes and tokens.
type Random interface {
	// Digits returns a string of n random decimal digits.
	Digits(n int) string

	// Token returns n random bytes hex-encoded.
	Token(n int) (string, error)
}

// CryptoRandom implements Random using crypto/rand.
type CryptoRandom struct{}

// New creates a new CryptoRandom.
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Digits returns n cryptographically random decimal digits.
func (r *CryptoRandom) Digits(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, n)
	max := big.NewInt(int64(len(digits)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		out[i] = digits[v.Int64()]
	}
	return string(out)
}

// Token returns n random bytes hex-encoded.
func (r *CryptoRandom) Token(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
