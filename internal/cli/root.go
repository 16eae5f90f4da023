// Package cli implements the deskhive command surface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/deskhive/deskhive/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"     _           _    _     _\n" +
		"  __| | ___  ___| | _| |__ (_)_   _____\n" +
		" / _` |/ _ \\/ __| |/ / '_ \\| \\ \\ / / _ \\\n" +
		"| (_| |  __/\\__ \\   <| | | | |\\ V /  __/\n" +
		" \\__,_|\\___||___/_|\\_\\_| |_|_| \\_/ \\___|\n"
)

var rootCmd = &cobra.Command{
	Use:   "deskhive",
	Short: "deskhive - AI helpdesk triage and knowledge pipeline",
	Long:  color.CyanString(logo) + "\nTicket triage, answer caching, and self-learning knowledge articles.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(ticketCmd)
	rootCmd.AddCommand(articleCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(limitsCmd)
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}
