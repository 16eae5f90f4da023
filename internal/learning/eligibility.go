package learning

import (
	"strings"

	"github.com/deskhive/deskhive/internal/store"
)

// minComments is the floor below which a thread cannot contain a usable
// problem/resolution exchange.
const minComments = 2

// tailWindow is how many trailing comments are scanned for resolution
// language. Resolution talk near the top of a long thread usually refers to
// something else.
const tailWindow = 3

var resolutionPhrases = []string{
	"resolved",
	"fixed",
	"solved",
	"solution",
	"works now",
	"working now",
	"that worked",
	"this worked",
	"issue is gone",
	"no longer an issue",
	"root cause",
	"closing this",
}

// eligible reports whether a resolved ticket's thread is worth an extraction
// call: at least minComments comments, with resolution language somewhere in
// the tail of the thread.
func eligible(comments []store.Comment) (bool, string) {
	if len(comments) < minComments {
		return false, "too few comments"
	}
	start := len(comments) - tailWindow
	if start < 0 {
		start = 0
	}
	for _, c := range comments[start:] {
		lower := strings.ToLower(c.Body)
		for _, phrase := range resolutionPhrases {
			if strings.Contains(lower, phrase) {
				return true, ""
			}
		}
	}
	return false, "no resolution language in thread tail"
}

// deriveTags builds article tags from ticket attributes. Model-supplied tags
// are merged on top by the caller.
func deriveTags(t *store.Ticket) []string {
	var tags []string
	if t.Category != "" {
		tags = append(tags, strings.ToLower(t.Category))
	}
	if t.Priority == "high" || t.Priority == "urgent" {
		tags = append(tags, "priority-"+t.Priority)
	}
	return tags
}

// mergeTags deduplicates case-insensitively, preserving first-seen order.
func mergeTags(groups ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range groups {
		for _, tag := range group {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if !seen[key] {
				seen[key] = true
				out = append(out, tag)
			}
		}
	}
	return out
}
