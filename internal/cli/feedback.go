package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskhive/deskhive/internal/feedback"
	"github.com/deskhive/deskhive/internal/store"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <article|response> <id>",
	Short: "Rate an article or auto-response",
	Args:  cobra.ExactArgs(2),
	RunE:  runFeedback,
}

var (
	feedbackHelpful bool
	feedbackUser    string
	feedbackComment string
)

func init() {
	feedbackCmd.Flags().BoolVar(&feedbackHelpful, "helpful", true, "whether the target was helpful")
	feedbackCmd.Flags().StringVar(&feedbackUser, "user", "cli", "user id")
	feedbackCmd.Flags().StringVar(&feedbackComment, "comment", "", "optional comment")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	var targetType string
	switch args[0] {
	case "article":
		targetType = store.FeedbackTargetArticle
	case "response":
		targetType = store.FeedbackTargetAutoResponse
	default:
		return fmt.Errorf("target must be 'article' or 'response', got %q", args[0])
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	rating := feedback.RatingUnhelpful
	if feedbackHelpful {
		rating = feedback.RatingHelpful
	}
	if err := a.feedback.Record(&store.FeedbackEntry{
		TargetType: targetType,
		TargetID:   args[1],
		UserID:     feedbackUser,
		Rating:     rating,
		Comment:    feedbackComment,
	}); err != nil {
		return err
	}
	fmt.Println("Feedback recorded.")
	return nil
}
