// cmd/dispatchctl/main.go
//
// dispatchctl is the operator CLI: manual scheduler/queue passes, failed-item
// recovery, stats, and retention cleanup.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/app"
	"github.com/coldpilot/coldpilot-backend/internal/config"
)

func main() {
	cfg := config.Load()

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	var application *app.App

	root := &cobra.Command{
		Use:          "dispatchctl",
		Short:        "Operate the campaign dispatch core",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			application, err = app.Build(cfg, logger)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if application != nil {
				application.Close()
			}
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one scheduler pass over all active campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := application.Scheduler.ProcessActiveCampaigns(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("campaigns: %d processed, %d skipped, %d emails queued, %d completed\n",
				result.Processed, result.Skipped, result.TotalEmailsQueued, result.CampaignsCompleted)
			for _, msg := range result.Errors {
				fmt.Println("error:", msg)
			}
			return nil
		},
	})

	var batchSize int
	processQueue := &cobra.Command{
		Use:   "process-queue",
		Short: "Run one queue batch pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := application.Queue.ProcessBatch(context.Background(), batchSize)
			if err != nil {
				return err
			}
			fmt.Printf("processed %d: %d succeeded, %d failed\n",
				result.Processed, result.Succeeded, result.Failed)
			for _, e := range result.Errors {
				fmt.Printf("error: item %s: %s\n", e.ItemID, e.Message)
			}
			return nil
		},
	}
	processQueue.Flags().IntVar(&batchSize, "batch-size", 0, "items per pass (default from QUEUE_BATCH_SIZE)")
	root.AddCommand(processQueue)

	root.AddCommand(&cobra.Command{
		Use:   "retry-failed",
		Short: "Reset failed queue items with attempts left back to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := application.Queue.RetryFailed(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("requeued %d items\n", n)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show queue item counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := application.Queue.GetStats(context.Background())
			if err != nil {
				return err
			}
			for _, status := range []string{"pending", "processing", "sent", "failed"} {
				fmt.Printf("%-12s %d\n", status, stats[status])
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Delete sent/failed queue items past the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := application.Queue.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d items\n", n)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
