package password

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// weakSequences are lower-cased substrings that mark a password as trivially
// guessable (sequential runs and keyboard walks).
var weakSequences = []string{
	"123456", "abcdef", "qwerty", "asdf", "zxcv",
	"654321", "fedcba", "ytrewq", "fdsa", "vcxz",
	"asdfgh", "zxcvbn", "qaz", "wsx", "edc",
}

// minDistinctRunes is the floor below which a password is treated as a
// repetitive pattern regardless of MinUniqueChars.
const minDistinctRunes = 4

// Policy describes password strength requirements. Lengths count characters,
// not bytes.
type Policy struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSymbol  bool
	MinUniqueChars int
}

// DefaultPolicy returns 8..128 characters, every character class required and
// at least 6 distinct characters.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:      8,
		MaxLength:      128,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSymbol:  true,
		MinUniqueChars: 6,
	}
}

// Validate checks pw against every rule and returns all violations together.
// ok is true only when violations is empty.
func (p Policy) Validate(pw string) (ok bool, violations []string) {
	length := utf8.RuneCountInString(pw)

	if p.MinLength > 0 && length < p.MinLength {
		violations = append(violations, fmt.Sprintf("Password must be at least %d characters long", p.MinLength))
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		violations = append(violations, fmt.Sprintf("Password must not exceed %d characters", p.MaxLength))
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	distinct := make(map[rune]struct{}, length)
	for _, r := range pw {
		distinct[r] = struct{}{}
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case isASCIIPunct(r):
			hasSymbol = true
		}
	}

	if p.RequireUpper && !hasUpper {
		violations = append(violations, "Password must contain at least one uppercase letter")
	}
	if p.RequireLower && !hasLower {
		violations = append(violations, "Password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		violations = append(violations, "Password must contain at least one digit")
	}
	if p.RequireSymbol && !hasSymbol {
		violations = append(violations, "Password must contain at least one special character")
	}
	if p.MinUniqueChars > 0 && len(distinct) < p.MinUniqueChars {
		violations = append(violations, fmt.Sprintf("Password must contain at least %d unique characters", p.MinUniqueChars))
	}
	if len(distinct) < minDistinctRunes || containsWeakSequence(pw) {
		violations = append(violations, "Password contains common patterns and is too weak")
	}

	return len(violations) == 0, violations
}

func containsWeakSequence(pw string) bool {
	lower := strings.ToLower(pw)
	for _, seq := range weakSequences {
		if strings.Contains(lower, seq) {
			return true
		}
	}
	return false
}

func isASCIIPunct(r rune) bool {
	return r < utf8.RuneSelf && strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r)
}
