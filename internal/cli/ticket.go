package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deskhive/deskhive/internal/store"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Create, analyze, and resolve tickets",
}

var (
	ticketTitle       string
	ticketDescription string
	ticketCategory    string
	ticketPriority    string
	ticketCaller      string
)

var ticketCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a ticket and run triage on it",
	RunE:  runTicketCreate,
}

var ticketResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Mark a ticket resolved and queue it for learning",
	Args:  cobra.ExactArgs(1),
	RunE:  runTicketResolve,
}

var ticketShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a ticket with its analysis and responses",
	Args:  cobra.ExactArgs(1),
	RunE:  runTicketShow,
}

func init() {
	ticketCreateCmd.Flags().StringVar(&ticketTitle, "title", "", "ticket title (required)")
	ticketCreateCmd.Flags().StringVar(&ticketDescription, "description", "", "ticket description (required)")
	ticketCreateCmd.Flags().StringVar(&ticketCategory, "category", "", "ticket category")
	ticketCreateCmd.Flags().StringVar(&ticketPriority, "priority", "", "ticket priority")
	ticketCreateCmd.Flags().StringVar(&ticketCaller, "caller", "cli", "caller id for rate limiting")
	ticketCreateCmd.MarkFlagRequired("title")
	ticketCreateCmd.MarkFlagRequired("description")
	ticketCmd.AddCommand(ticketCreateCmd, ticketResolveCmd, ticketShowCmd)
}

func runTicketCreate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ticket, err := a.store.CreateTicket(&store.Ticket{
		Title:       ticketTitle,
		Description: ticketDescription,
		Category:    ticketCategory,
		Priority:    ticketPriority,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created ticket #%d\n", ticket.ID)

	result, err := a.pipeline.TicketCreated(context.Background(), ticket.ID, ticketCaller)
	if err != nil {
		return err
	}
	an := result.Analysis
	if an.Blocked {
		fmt.Println(color.YellowString("Triage blocked: %s (est. $%.4f)", an.BlockedReason, an.EstimatedCost))
		for _, s := range result.Suggestions {
			fmt.Printf("  suggested article: %s\n", s.Title)
		}
	} else {
		fmt.Printf("Complexity: %d  Confidence: %.2f  Source: %s\n",
			an.ComplexityScore, an.Confidence, an.Source)
		if an.Applied {
			fmt.Println(color.GreenString("Auto-response applied:"))
			fmt.Println(an.AutoResponse)
		}
	}
	if result.Escalation.Escalate {
		fmt.Println(color.RedString("Escalated to %s (%s)",
			result.Escalation.TargetTeam, result.Escalation.Reason))
	}
	return nil
}

func runTicketResolve(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ticket id %q", args[0])
	}
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.store.DB().Exec(
		`UPDATE tickets SET status = ?, resolved_at = datetime('now') WHERE id = ?`,
		store.TicketResolved, id); err != nil {
		return err
	}
	if err := a.pipeline.TicketResolved(id); err != nil {
		return err
	}
	fmt.Printf("Ticket #%d resolved and queued for learning\n", id)
	fmt.Println("Run 'deskhive run' (or wait for the sweep) to extract knowledge.")
	return nil
}

func runTicketShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid ticket id %q", args[0])
	}
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ticket, err := a.store.GetTicket(id)
	if err != nil {
		return err
	}
	fmt.Printf("#%d [%s/%s] %s\n", ticket.ID, ticket.Category, ticket.Priority, ticket.Title)
	fmt.Printf("Status: %s\n%s\n", ticket.Status, ticket.Description)

	if score, err := a.store.LatestComplexityScore(id); err == nil && score != nil {
		fmt.Printf("\nComplexity: %d (%s)\n", score.Score, score.Rationale)
	}
	if ar, err := a.store.GetAppliedAutoResponse(id); err == nil && ar != nil {
		fmt.Printf("\nApplied response (confidence %.2f):\n%s\n", ar.Confidence, ar.Body)
	}
	comments, err := a.store.ListComments(id)
	if err != nil {
		return err
	}
	if len(comments) > 0 {
		fmt.Println("\nThread:")
		for _, c := range comments {
			fmt.Printf("  %s: %s\n", c.AuthorID, c.Body)
		}
	}
	return nil
}
