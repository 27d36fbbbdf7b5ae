// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kmsync/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync [files...]",
	Short: "Sync the vault (or specific files) to the configured targets",
	Long: `Sync pushes changed Markdown files to the bitable workspace and, for
conversation archives, to the Notion database. Without arguments it
syncs every changed file in the vault; with file arguments it syncs
exactly those files.

Unchanged files are detected by content hash and skipped. Use --watch
to keep running and sync files as they change.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	statusOnly, _ := cmd.Flags().GetBool("status")
	watch, _ := cmd.Flags().GetBool("watch")
	all, _ := cmd.Flags().GetBool("all")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := sync.OpenStore(cfg.Vault.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	if statusOnly {
		// Status needs no API clients.
		engine := sync.NewEngine(cfg, nil, nil, store)
		return engine.Status(ctx, os.Stdout)
	}

	fc, err := feishuClient(cfg)
	if err != nil {
		return err
	}
	nc, err := notionClient(cfg)
	if err != nil {
		return err
	}
	engine := sync.NewEngine(cfg, fc, nc, store)
	engine.Force = all

	if watch {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := engine.Watch(ctx, os.Stdout); err != nil && err != context.Canceled {
			return err
		}
		return nil
	}

	var summary sync.BatchSummary
	if len(args) > 0 {
		summary, err = engine.SyncFiles(ctx, os.Stdout, args)
	} else {
		summary, err = engine.SyncAll(ctx, os.Stdout)
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed to sync", summary.Failed)
	}
	return nil
}

func init() {
	syncCmd.Flags().Bool("all", false, "re-sync every file, ignoring recorded state")
	syncCmd.Flags().Bool("status", false, "show sync state without syncing")
	syncCmd.Flags().Bool("watch", false, "keep running and sync files as they change")

	rootCmd.AddCommand(syncCmd)
}
