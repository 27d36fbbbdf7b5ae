// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the bitable workspace and its tables",
	Long: `Init bootstraps the bitable side: it creates the bitable app (unless a
token is already configured) and the four tables the sync writes to.
Running it again is safe; existing tables are left alone.

On first run, save the printed bitable token into the config file or
.secrets/feishu-bitable-token.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fc, err := feishuClient(cfg)
	if err != nil {
		return err
	}

	token, err := fc.Init(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	if cfg.Feishu.BitableToken == "" {
		fmt.Printf("\nbitable token: %s\n", token)
		fmt.Println("save it as feishu.bitable_token in kmsync.yaml or .secrets/feishu-bitable-token")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
