package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/scheduler"
	"github.com/deskhive/deskhive/internal/store"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ deskhive Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline status: config, spend, queues",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	printHeader("📊 deskhive Status")
	fmt.Printf("Version: %s\n", version)

	configPath, _ := config.ConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config:  " + color.GreenString("✓") + " " + configPath)
	} else {
		fmt.Println("Config:  " + color.RedString("✗") + " not found (run 'deskhive init')")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config load failed: %v\n", err)
		return nil
	}
	fmt.Printf("Model:   %s\n", cfg.Model.Name)
	printNextSweep(cfg)

	st, err := store.New(cfg.Storage.Path)
	if err != nil {
		fmt.Printf("Database: %s\n", color.RedString("✗ %v", err))
		return nil
	}
	defer st.Close()
	fmt.Println("Database: " + color.GreenString("✓") + " " + cfg.Storage.Path)

	a, err := buildApp()
	if err != nil {
		// Status still works without a resolvable provider.
		fmt.Printf("Provider: %s\n", color.YellowString("? %v", err))
		printQueues(st)
		return nil
	}
	defer a.close()
	fmt.Println("Provider: " + color.GreenString("✓"))

	spend, err := a.ledger.TodaySpend()
	if err == nil {
		fmt.Printf("Spend today: $%.4f\n", spend)
	}
	if blocked, err := a.ledger.ListBlocked(5); err == nil && len(blocked) > 0 {
		fmt.Printf("Recent blocked calls: %d\n", len(blocked))
		for _, b := range blocked {
			fmt.Printf("  - %s/%s: %s\n", b.CallerID, b.Operation, b.Reason)
		}
	}
	printQueues(st)
	return nil
}

func printNextSweep(cfg *config.Config) {
	if !cfg.Scheduler.Enabled {
		fmt.Println("Sweep:   scheduler disabled")
		return
	}
	cron, err := scheduler.ParseCron(cfg.Scheduler.SweepCron)
	if err != nil {
		fmt.Printf("Sweep:   %s\n", color.RedString("bad cron %q: %v", cfg.Scheduler.SweepCron, err))
		return
	}
	next := cron.Next(time.Now())
	if next.IsZero() {
		fmt.Printf("Sweep:   %q never fires\n", cfg.Scheduler.SweepCron)
		return
	}
	fmt.Printf("Sweep:   next run %s (%s)\n", next.Format("2006-01-02 15:04"), cfg.Scheduler.SweepCron)
}

func printQueues(st *store.Store) {
	pending, _ := st.ListLearningQueue(store.LearnPending, 100)
	processing, _ := st.ListLearningQueue(store.LearnProcessing, 100)
	fmt.Printf("Learning queue: %d pending, %d processing\n", len(pending), len(processing))

	drafts, _ := st.ListArticles(store.ArticleDraft, 100)
	published, _ := st.ListArticles(store.ArticlePublished, 100)
	fmt.Printf("Articles: %d drafts, %d published\n", len(drafts), len(published))
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		printHeader("🚀 deskhive Init")
		configPath, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(configPath); err == nil {
			fmt.Println("Config already exists: " + configPath)
			return nil
		}
		if err := config.Save(config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Println("Wrote " + configPath)
		fmt.Println("Set OPENAI_API_KEY (or edit the config) before running.")
		return nil
	},
}
