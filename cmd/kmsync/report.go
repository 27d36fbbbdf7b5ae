// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kmsync/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Check the team's daily-report bitable and notify the group chat",
}

var reportDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Check yesterday's reports and post a reminder card",
	Long: `Daily lists yesterday's rows in the daily-report table, compares them
against the expected member list, and posts a card to the group chat
webhook: green when everyone has filed, orange naming whoever has not.

Use --dry-run to print the outcome without posting.`,
	RunE: runReportDaily,
}

func runReportDaily(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	m, err := monitorFromConfig(cmd)
	if err != nil {
		return err
	}

	details, err := m.CheckDaily(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d filed, %d missing\n",
		details.Date.Format("2006-01-02"), len(details.Filled), len(details.Missing))
	for _, name := range details.Missing {
		fmt.Printf("missing %s\n", name)
	}

	if dryRun {
		return nil
	}
	return m.NotifyDaily(cmd.Context(), details)
}

var reportWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Post last week's report counts and open follow-ups",
	Long: `Weekly aggregates the past seven days of reports per member, collects
still-open items from the follow-up table, and posts the summary card
to the group chat webhook.`,
	RunE: runReportWeekly,
}

func runReportWeekly(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	m, err := monitorFromConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	stats, err := m.CheckWeekly(ctx)
	if err != nil {
		return err
	}
	followUps, err := m.OpenFollowUps(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s ~ %s\n", stats.Since.Format("2006-01-02"), stats.Until.Format("2006-01-02"))
	for name, count := range stats.Counts {
		fmt.Printf("%s: %d\n", name, count)
	}
	fmt.Printf("open follow-ups: %d\n", len(followUps))

	if dryRun {
		return nil
	}
	return m.NotifyWeekly(ctx, stats, followUps)
}

func monitorFromConfig(cmd *cobra.Command) (*report.Monitor, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Report.Validate(); err != nil {
		return nil, fmt.Errorf("report config: %w", err)
	}
	fc, err := feishuClient(cfg)
	if err != nil {
		return nil, err
	}
	return report.NewMonitor(fc, cfg.Report), nil
}

func init() {
	reportCmd.PersistentFlags().Bool("dry-run", false, "print the outcome without posting to the webhook")

	reportCmd.AddCommand(reportDailyCmd)
	reportCmd.AddCommand(reportWeeklyCmd)
	rootCmd.AddCommand(reportCmd)
}
