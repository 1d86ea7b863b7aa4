// Package random mints unguessable tokens for oauth state and request ids.
package random

import (
	crand "crypto/rand"
	"fmt"
	"math/big"
)

const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var charsetLen = big.NewInt(int64(len(charset)))

// String returns a base62 string read from crypto/rand.
func String(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := crand.Int(crand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}

// MustString is String for package initialisation, where a broken random
// source is fatal anyway.
func MustString(length int) string {
	s, err := String(length)
	if err != nil {
		panic(err)
	}
	return s
}
