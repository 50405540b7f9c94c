package usecase

import "regexp"

var userIDPattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// DeriveUserID maps an email address to the canonical user ID shared by the
// identity platform and the conversation store. Every character outside
// [A-Za-z0-9_-] becomes an underscore, so distinct addresses can collide
// (e.g. "a.b@x.io" and "a_b@x.io"); callers treat the result as the user's
// identity, not the address.
func DeriveUserID(email string) string {
	return userIDPattern.ReplaceAllString(email, "_")
}
