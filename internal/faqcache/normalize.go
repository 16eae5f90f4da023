// Package faqcache is the exact-match answer cache. Questions are normalized
// and hashed; two phrasings that normalize identically share one entry.
package faqcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Normalize canonicalizes a question for cache lookup: lowercase, punctuation
// stripped, runs of whitespace collapsed to single spaces, ends trimmed.
// Semantic similarity beyond that is out of scope; "reset password" and
// "Reset  Password???" hit the same entry, "forgot password" does not.
func Normalize(question string) string {
	var b strings.Builder
	b.Grow(len(question))
	lastSpace := true
	for _, r := range strings.ToLower(question) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Digest returns the hex SHA-256 of the normalized question. This is the
// cache key; collisions across distinct normalized questions are not a
// practical concern.
func Digest(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
