// Package password implements credential hashing with Argon2id and password
// strength validation.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsRehash] compares the parameters embedded in a stored hash with
// the configured ones so callers can upgrade the credential after the next
// successful login without re-deriving anything from plaintext.
//
// # Strength policy
//
// [Policy.Validate] never stops at the first failure. Every violated rule is
// reported so the caller can show the full list.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other authsvc package.
//   - Log plaintext passwords.
package password
