package internal

import "strings"

// SanitizeEmail trims surrounding whitespace and lower-cases the address.
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeUsername trims, lower-cases and drops every character outside
// [a-z0-9_-].
func SanitizeUsername(username string) string {
	username = strings.ToLower(strings.TrimSpace(username))

	var b strings.Builder
	b.Grow(len(username))
	for i := 0; i < len(username); i++ {
		c := username[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EmailLocalPart returns the portion of email before the last '@', or the
// whole string when there is none.
func EmailLocalPart(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
