// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the kmsync CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/kmsync/internal/feishu"
	"github.com/pdiddy/kmsync/internal/notion"
	"github.com/pdiddy/kmsync/internal/secrets"
	"github.com/pdiddy/kmsync/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the kmsync CLI.
var rootCmd = &cobra.Command{
	Use:   "kmsync",
	Short: "Sync a Markdown knowledge vault to bitable and Notion",
	Long: `kmsync pushes a local Markdown knowledge vault to cloud targets:
threads, conversation archives, knowledge notes, and project status go
into a bitable workspace; archives are mirrored to a Notion database.

Each concern is a subcommand: sync for the vault, projects for the
status document, review for the weekly report, report for the daily
report monitor, and parse to inspect what the extractors see.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments use .secrets/ or env vars.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./kmsync.yaml or ~/.config/kmsync/config.yaml)")
	rootCmd.PersistentFlags().String("vault", "", "vault base directory (overrides config)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kmsync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "kmsync"))
		}
	}

	viper.SetDefault("vault.base_dir", ".")
	viper.SetDefault("sync.doc_batch_size", 50)
	viper.SetDefault("sync.debounce_window", "2s")

	viper.SetEnvPrefix("KMSYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// secretDefault keeps an explicitly configured value, falling back to
// the .secrets/ directory.
func secretDefault(key, configured string) string {
	if configured != "" {
		return configured
	}
	return loadedSecrets[key]
}

// loadConfig assembles the effective configuration from the config
// file, environment, secrets directory, and flags.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if vault, _ := cmd.Flags().GetString("vault"); vault != "" {
		cfg.Vault.BaseDir = vault
	}
	cfg.Vault = cfg.Vault.WithDefaults()

	cfg.Feishu.AppID = secretDefault("feishu-app-id", cfg.Feishu.AppID)
	cfg.Feishu.AppSecret = secretDefault("feishu-app-secret", cfg.Feishu.AppSecret)
	cfg.Feishu.FolderToken = secretDefault("feishu-folder-token", cfg.Feishu.FolderToken)
	cfg.Feishu.BitableToken = secretDefault("feishu-bitable-token", cfg.Feishu.BitableToken)
	cfg.Notion.APIKey = secretDefault("notion-api-key", cfg.Notion.APIKey)
	cfg.Notion.DatabaseID = secretDefault("notion-database-id", cfg.Notion.DatabaseID)
	cfg.Report.WebhookURL = secretDefault("report-webhook-url", cfg.Report.WebhookURL)

	return cfg, nil
}

// feishuClient validates the bitable credentials and builds the client.
func feishuClient(cfg types.Config) (*feishu.Client, error) {
	if err := cfg.Feishu.Validate(); err != nil {
		return nil, fmt.Errorf("feishu config: %w", err)
	}
	return feishu.NewClient(cfg.Feishu), nil
}

// notionClient builds the Notion client when that target is configured,
// or nil when it is not.
func notionClient(cfg types.Config) (*notion.Client, error) {
	if !cfg.Notion.Enabled() {
		return nil, nil
	}
	if err := cfg.Notion.Validate(); err != nil {
		return nil, fmt.Errorf("notion config: %w", err)
	}
	return notion.NewClient(cfg.Notion), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
