// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kmsync/internal/sync"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Sync the project-status document to the bitable",
	Long: `Projects parses the project-status document (one ## section per
project) and upserts one row per project into the 项目状态 table.`,
	RunE: runProjects,
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fc, err := feishuClient(cfg)
	if err != nil {
		return err
	}

	store, err := sync.OpenStore(cfg.Vault.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := sync.NewEngine(cfg, fc, nil, store)
	n, err := engine.SyncProjects(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d project(s) synced\n", n)
	return nil
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}
