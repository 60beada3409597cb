// Package jwt issues and verifies the typed HMAC tokens used by authsvc and
// keeps the Redis blacklist for explicit revocation.
//
// # Token types
//
// Every token carries a "type" claim of access, refresh or password_reset.
// [Manager.VerifyType] refuses a token of any other type, so a refresh token
// is never accepted where an access token is required and vice versa.
//
// # Revocation
//
// Signature/expiry verification and the blacklist lookup are independent.
// A token is usable only when both pass. [Revocation] stores markers under
// "blacklist:token:<raw token>" with a TTL equal to the token's remaining
// lifetime.
package jwt
