// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kmsync/internal/review"
	"github.com/pdiddy/kmsync/internal/sync"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Generate the weekly review report",
	Long: `Review collects this week's archives, their insight lines, high
frequency tags, and the thread checkbox counts, renders the weekly
review document, and saves it into the review directory.

With --sync the saved report is immediately pushed to the targets like
any other vault file. With --stdout the report is printed instead of
saved.`,
	RunE: runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	toStdout, _ := cmd.Flags().GetBool("stdout")
	alsoSync, _ := cmd.Flags().GetBool("sync")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	g := review.NewGenerator(cfg.Vault)
	report, err := g.Collect(review.CurrentWeek(time.Now()))
	if err != nil {
		return err
	}

	if toStdout {
		fmt.Print(report.Render())
		return nil
	}

	path, err := g.Save(report)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s\n", path)

	if !alsoSync {
		return nil
	}

	fc, err := feishuClient(cfg)
	if err != nil {
		return err
	}
	nc, err := notionClient(cfg)
	if err != nil {
		return err
	}
	store, err := sync.OpenStore(cfg.Vault.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := sync.NewEngine(cfg, fc, nc, store)
	summary, err := engine.SyncFiles(cmd.Context(), os.Stdout, []string{path})
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("review sync failed")
	}
	return nil
}

func init() {
	reviewCmd.Flags().Bool("stdout", false, "print the report instead of saving it")
	reviewCmd.Flags().Bool("sync", false, "sync the saved report to the targets")

	rootCmd.AddCommand(reviewCmd)
}
