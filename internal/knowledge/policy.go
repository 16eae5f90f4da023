// Package knowledge governs the article lifecycle. Policy decisions are pure
// functions; persistence lives in the service.
package knowledge

import (
	"fmt"
	"strings"

	"github.com/deskhive/deskhive/internal/store"
)

// PublishPolicy controls how drafts reach the published state.
type PublishPolicy struct {
	// ApprovalRequired keeps system-generated drafts out of the published
	// pool until a human approves them.
	ApprovalRequired bool
	MinContentLength int
}

// Decision of a publish evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// EvaluatePublish applies publish rules to an article:
//   - only drafts can publish
//   - content must meet the minimum length
//   - system-generated articles (CreatedBy nil) need approval unless the
//     policy waives it; approved=true represents the human sign-off
func EvaluatePublish(a *store.KnowledgeArticle, approved bool, policy PublishPolicy) Decision {
	if a.Status != store.ArticleDraft {
		return Decision{Reason: fmt.Sprintf("article is %s, only drafts publish", a.Status)}
	}
	if policy.MinContentLength > 0 && len(strings.TrimSpace(a.Content)) < policy.MinContentLength {
		return Decision{Reason: "content below minimum length"}
	}
	if policy.ApprovalRequired && a.CreatedBy == nil && !approved {
		return Decision{Reason: "system-generated draft needs approval"}
	}
	return Decision{Allowed: true}
}

// transitions is the article lifecycle. Articles are never deleted; archive
// is the terminal-ish state and restore goes back through draft for re-review.
var transitions = map[string][]string{
	store.ArticleDraft:     {store.ArticlePublished, store.ArticleArchived},
	store.ArticlePublished: {store.ArticleArchived},
	store.ArticleArchived:  {store.ArticleDraft},
}

// CanTransition reports whether a lifecycle move is legal.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateArticle checks the fields every stored article must have.
func ValidateArticle(a *store.KnowledgeArticle) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("article title is required")
	}
	if strings.TrimSpace(a.Content) == "" {
		return fmt.Errorf("article content is required")
	}
	return nil
}
