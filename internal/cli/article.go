package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var articleCmd = &cobra.Command{
	Use:   "article",
	Short: "Review and manage knowledge articles",
}

var articleStatusFilter string
var articleApproved bool

var articleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List articles, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		articles, err := a.articles.List(articleStatusFilter, 50)
		if err != nil {
			return err
		}
		for _, art := range articles {
			fmt.Printf("%s [%s] score=%.2f votes=+%d/-%d uses=%d\n  %s\n",
				art.ID, art.Status, art.EffectivenessScore,
				art.HelpfulVotes, art.UnhelpfulVotes, art.UsageCount, art.Title)
		}
		if len(articles) == 0 {
			fmt.Println("No articles.")
		}
		return nil
	},
}

var articlePublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Publish a draft article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.articles.Publish(args[0], articleApproved); err != nil {
			return err
		}
		fmt.Println(color.GreenString("Published %s", args[0]))
		return nil
	},
}

var articleArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive an article (never deleted)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.articles.Archive(args[0]); err != nil {
			return err
		}
		fmt.Printf("Archived %s\n", args[0])
		return nil
	},
}

var articleRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore an archived article to draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.articles.Restore(args[0]); err != nil {
			return err
		}
		fmt.Printf("Restored %s to draft\n", args[0])
		return nil
	},
}

var articleSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Keyword search over published articles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		articles, err := a.articles.Search(args[0], 10)
		if err != nil {
			return err
		}
		for _, art := range articles {
			fmt.Printf("%s score=%.2f\n  %s\n  %s\n", art.ID, art.EffectivenessScore, art.Title, art.Summary)
			if err := a.feedback.RecordArticleView(art.ID); err != nil {
				a.logger.Warn("usage count failed", "article", art.ID, "error", err)
			}
		}
		if len(articles) == 0 {
			fmt.Println("No matches.")
		}
		return nil
	},
}

func init() {
	articleListCmd.Flags().StringVar(&articleStatusFilter, "status", "", "filter by status (draft|published|archived)")
	articlePublishCmd.Flags().BoolVar(&articleApproved, "approve", false, "record human approval for a system-generated draft")
	articleCmd.AddCommand(articleListCmd, articlePublishCmd, articleArchiveCmd, articleRestoreCmd, articleSearchCmd)
}
