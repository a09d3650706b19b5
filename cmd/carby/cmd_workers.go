package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/carby/internal/kernel"
)

var (
	queueWorkersFlag int
	scheduleOnceFlag bool
)

// carby queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process queued jobs (redis queue driver)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.QueueDriver != "redis" {
			return fmt.Errorf("queue:work needs QUEUE_DRIVER=redis; the memory queue is worked inside serve")
		}

		k, err := kernel.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer k.Close()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = cfg.QueueWorkers
		}

		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		k.Queue.Start(ctx, workers)

		<-ctx.Done()
		k.Queue.Wait()
		fmt.Println("Queue worker stopped.")
		return nil
	},
}

// carby schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run the maintenance scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		k, err := kernel.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer k.Close()

		fmt.Println("Registered scheduled tasks:")
		for _, t := range k.Scheduler.List() {
			fmt.Println("  •", t)
		}

		if scheduleOnceFlag {
			return k.Scheduler.RunAll(ctx)
		}

		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		k.Scheduler.Start(ctx)

		<-ctx.Done()
		k.Scheduler.Wait()
		fmt.Println("Scheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default QUEUE_WORKERS)")
	scheduleRunCmd.Flags().BoolVar(&scheduleOnceFlag, "once", false, "Run every task once and exit")
}
