// Package feedback turns user ratings into effectiveness adjustments.
package feedback

import (
	"fmt"
	"log/slog"

	"github.com/deskhive/deskhive/internal/store"
)

// Ratings are binary: helpful or not. The 1..5 scale exists only at the edge
// for UI compatibility.
const (
	RatingUnhelpful = 1
	RatingHelpful   = 5
)

// scoreStep is how far one rating moves an article's effectiveness score.
// Small on purpose: one vote should nudge, not swing.
const scoreStep = 0.05

// ScoreDelta maps a rating to its signed effectiveness adjustment. The store
// clamps the resulting score to [0, 1] atomically when applying it.
func ScoreDelta(rating int) float64 {
	if rating == RatingHelpful {
		return scoreStep
	}
	return -scoreStep
}

type feedbackStore interface {
	ApplyArticleFeedback(id string, helpfulDelta, unhelpfulDelta int, scoreDelta float64) error
	IncrementArticleUsage(id string) error
	SetAutoResponseHelpful(id int64, helpful bool) error
	SaveFeedback(f *store.FeedbackEntry) error
}

// Recorder persists ratings and keeps target aggregates in sync.
type Recorder struct {
	store  feedbackStore
	logger *slog.Logger
}

func NewRecorder(s feedbackStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, logger: logger}
}

// Record saves one rating. Only RatingHelpful and RatingUnhelpful are
// accepted. The feedback row is append-only; the target's aggregate fields
// are updated alongside it.
func (r *Recorder) Record(f *store.FeedbackEntry) error {
	if f.Rating != RatingHelpful && f.Rating != RatingUnhelpful {
		return fmt.Errorf("invalid rating %d: must be %d or %d", f.Rating, RatingUnhelpful, RatingHelpful)
	}

	switch f.TargetType {
	case store.FeedbackTargetArticle:
		helpful, unhelpful := 0, 0
		if f.Rating == RatingHelpful {
			helpful = 1
		} else {
			unhelpful = 1
		}
		if err := r.store.ApplyArticleFeedback(f.TargetID, helpful, unhelpful, ScoreDelta(f.Rating)); err != nil {
			return fmt.Errorf("feedback target: %w", err)
		}
		r.logger.Info("article feedback recorded", "article", f.TargetID, "rating", f.Rating)

	case store.FeedbackTargetAutoResponse:
		var responseID int64
		if _, err := fmt.Sscanf(f.TargetID, "%d", &responseID); err != nil {
			return fmt.Errorf("invalid auto-response id %q", f.TargetID)
		}
		if err := r.store.SetAutoResponseHelpful(responseID, f.Rating == RatingHelpful); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown feedback target type %q", f.TargetType)
	}

	if err := r.store.SaveFeedback(f); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

// RecordArticleView counts one surfacing of an article independent of rating.
func (r *Recorder) RecordArticleView(articleID string) error {
	return r.store.IncrementArticleUsage(articleID)
}
