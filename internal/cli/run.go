package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/deskhive/deskhive/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the triage worker and learning sweeps",
	RunE:  runRun,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one learning sweep over resolved tickets and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.sweeper.Sweep(cmd.Context())
	},
}

func runRun(cmd *cobra.Command, args []string) error {
	printHeader("🐝 deskhive worker")

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.events.Dispatch(ctx) })
	g.Go(func() error { return a.sweeper.Run(ctx) })

	if a.cfg.Scheduler.Enabled {
		sched := scheduler.New(a.cfg.Scheduler, a.store, a.logger)
		cron, err := scheduler.ParseCron(a.cfg.Scheduler.SweepCron)
		if err != nil {
			return fmt.Errorf("sweep cron: %w", err)
		}
		sched.Register(&scheduler.Job{
			Name:     "learning-sweep",
			Cron:     cron,
			Category: scheduler.CategoryLLM,
			Run:      a.sweeper.Sweep,
		})
		g.Go(func() error { return sched.Run(ctx) })
	}

	fmt.Printf("Model: %s\n", a.cfg.Model.Name)
	fmt.Printf("Database: %s\n", a.cfg.Storage.Path)
	fmt.Println("Running. Ctrl-C to stop.")

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
