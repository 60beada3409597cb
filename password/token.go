package password

import "github.com/MrEthical07/authsvc/internal"

// GenerateToken returns n random bytes as unpadded base64url, for links
// and opaque identifiers.
func GenerateToken(n int) (string, error) {
	return internal.URLSafeToken(n)
}

// GenerateHexToken returns n random bytes hex encoded.
func GenerateHexToken(n int) (string, error) {
	return internal.HexToken(n)
}

// GenerateNumericCode returns a one-time code of n decimal digits.
func GenerateNumericCode(n int) (string, error) {
	return internal.NumericToken(n)
}

// GenerateAlphanumericCode returns n characters drawn from [A-Za-z0-9].
func GenerateAlphanumericCode(n int) (string, error) {
	return internal.AlphanumericToken(n)
}
