package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/governor"
	"github.com/deskhive/deskhive/internal/store"
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show or set per-caller governor limits",
}

var limitsShowCmd = &cobra.Command{
	Use:   "show <caller>",
	Short: "Show the effective limits for a caller",
	Args:  cobra.ExactArgs(1),
	RunE:  runLimitsShow,
}

var (
	limitsPerMinute   int
	limitsPerHour     int
	limitsPerDay      int
	limitsMaxTokens   int
	limitsDailyCost   float64
	limitsMonthlyCost float64
	limitsRestricted  bool
)

var limitsSetCmd = &cobra.Command{
	Use:   "set <caller>",
	Short: "Set per-caller limits (restricted accounts are clamped to the hard ceilings)",
	Args:  cobra.ExactArgs(1),
	RunE:  runLimitsSet,
}

func init() {
	limitsSetCmd.Flags().IntVar(&limitsPerMinute, "per-minute", 0, "max requests per minute (0 = unlimited)")
	limitsSetCmd.Flags().IntVar(&limitsPerHour, "per-hour", 0, "max requests per hour (0 = unlimited)")
	limitsSetCmd.Flags().IntVar(&limitsPerDay, "per-day", 0, "max requests per day (0 = unlimited)")
	limitsSetCmd.Flags().IntVar(&limitsMaxTokens, "max-tokens", 0, "max tokens per request (0 = unlimited)")
	limitsSetCmd.Flags().Float64Var(&limitsDailyCost, "daily-cost", 0, "daily cost ceiling in USD (0 = unlimited)")
	limitsSetCmd.Flags().Float64Var(&limitsMonthlyCost, "monthly-cost", 0, "monthly cost ceiling in USD (0 = unlimited)")
	limitsSetCmd.Flags().BoolVar(&limitsRestricted, "restricted", false, "mark the caller as a restricted account")
	limitsCmd.AddCommand(limitsShowCmd)
	limitsCmd.AddCommand(limitsSetCmd)
}

func openStore() (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return store.New(cfg.Storage.Path)
}

func runLimitsShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var l governor.Limits
	row, err := st.GetCostLimits(args[0])
	if err != nil {
		return err
	}
	if row != nil {
		l = governor.FromRow(row)
		fmt.Printf("Caller %s (per-caller override)\n", args[0])
	} else {
		settings, err := st.Settings()
		if err != nil {
			return err
		}
		l = governor.FromSettings(settings)
		fmt.Printf("Caller %s (installation defaults)\n", args[0])
	}
	printLimit := func(name string, v int) {
		if v > 0 {
			fmt.Printf("  %-22s %d\n", name, v)
		} else {
			fmt.Printf("  %-22s unlimited\n", name)
		}
	}
	printLimit("requests/minute:", l.MaxRequestsPerMinute)
	printLimit("requests/hour:", l.MaxRequestsPerHour)
	printLimit("requests/day:", l.MaxRequestsPerDay)
	printLimit("tokens/request:", l.MaxTokensPerRequest)
	if l.DailyCostLimit > 0 {
		fmt.Printf("  %-22s $%.2f\n", "daily cost:", l.DailyCostLimit)
	}
	if l.MonthlyCostLimit > 0 {
		fmt.Printf("  %-22s $%.2f\n", "monthly cost:", l.MonthlyCostLimit)
	}
	fmt.Printf("  %-22s %v\n", "restricted:", l.Restricted)
	return nil
}

func runLimitsSet(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	// Clamp before persisting so the stored row is always the effective one.
	l := governor.Clamp(governor.Limits{
		MaxRequestsPerMinute: limitsPerMinute,
		MaxRequestsPerHour:   limitsPerHour,
		MaxRequestsPerDay:    limitsPerDay,
		MaxTokensPerRequest:  limitsMaxTokens,
		DailyCostLimit:       limitsDailyCost,
		MonthlyCostLimit:     limitsMonthlyCost,
		Restricted:           limitsRestricted,
	})
	if err := st.SaveCostLimits(&store.CostLimits{
		CallerID:             args[0],
		MaxRequestsPerMinute: l.MaxRequestsPerMinute,
		MaxRequestsPerHour:   l.MaxRequestsPerHour,
		MaxRequestsPerDay:    l.MaxRequestsPerDay,
		MaxTokensPerRequest:  l.MaxTokensPerRequest,
		DailyCostLimit:       l.DailyCostLimit,
		MonthlyCostLimit:     l.MonthlyCostLimit,
		Restricted:           l.Restricted,
	}); err != nil {
		return err
	}
	fmt.Printf("Limits saved for %s.\n", args[0])
	return nil
}
