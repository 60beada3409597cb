package internal

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

const (
	sessionIDSize = 32

	digits       = "0123456789"
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// NewSessionID returns 32 random bytes encoded as unpadded base64url.
func NewSessionID() (string, error) {
	return URLSafeToken(sessionIDSize)
}

// URLSafeToken returns n random bytes encoded as unpadded base64url.
func URLSafeToken(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid token size")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HexToken returns n random bytes hex encoded.
func HexToken(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid token size")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NumericToken returns a string of n uniformly random decimal digits,
// suitable for one-time codes.
func NumericToken(n int) (string, error) {
	return pick(digits, n)
}

// AlphanumericToken returns n characters from [A-Za-z0-9].
func AlphanumericToken(n int) (string, error) {
	return pick(alphanumeric, n)
}

func pick(alphabet string, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid token length")
	}

	var b strings.Builder
	b.Grow(n)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}
