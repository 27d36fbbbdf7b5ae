// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kmsync/internal/feishu"
)

// maxRecentArchives caps the 最近对话 section of fetch output.
const maxRecentArchives = 5

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch open threads and recent archives from the bitable",
	Long: `Fetch pulls the thread-tracking and archive tables back down and
prints the open threads plus the most recent conversation archives, so
a work session can start from what is actually pending rather than
from memory.

Use --context for a compact digest suitable for pasting into a session
prompt, --json for structured output, and --all to include completed
threads.`,
	RunE: runFetch,
}

// fetchedThread is one row of the thread table, flattened for display.
type fetchedThread struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Content  string `json:"content"`
	Source   string `json:"source,omitempty"`
}

// fetchedArchive is one row of the archive table, flattened for display.
type fetchedArchive struct {
	Date    string `json:"date"`
	Topic   string `json:"topic"`
	Summary string `json:"summary,omitempty"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	asContext, _ := cmd.Flags().GetBool("context")
	quiet, _ := cmd.Flags().GetBool("quiet")
	includeAll, _ := cmd.Flags().GetBool("all")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fc, err := feishuClient(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	threadTable, err := fc.TableIDByName(ctx, cfg.Feishu.BitableToken, "线头追踪")
	if err != nil {
		return err
	}
	threadRecords, err := fc.ListAllRecords(ctx, cfg.Feishu.BitableToken, threadTable)
	if err != nil {
		return err
	}
	threads := buildThreads(threadRecords, includeAll)

	// The archive table is read best-effort: a vault synced before
	// `kmsync init` finished may not have it yet.
	var archives []fetchedArchive
	if archiveTable, err := fc.TableIDByName(ctx, cfg.Feishu.BitableToken, "对话归档"); err == nil {
		archiveRecords, err := fc.ListAllRecords(ctx, cfg.Feishu.BitableToken, archiveTable)
		if err != nil {
			return err
		}
		archives = buildRecentArchives(archiveRecords, maxRecentArchives)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"threads":         threads,
			"recent_archives": archives,
		})
	}

	if asContext {
		renderContext(os.Stdout, threads, archives)
		return nil
	}

	if quiet {
		for _, th := range threads {
			fmt.Println(th.Title)
		}
		return nil
	}

	renderHuman(os.Stdout, threads, archives)
	return nil
}

// buildThreads flattens thread records, dropping completed ones unless
// includeAll is set.
func buildThreads(records []feishu.Record, includeAll bool) []fetchedThread {
	var threads []fetchedThread
	for _, rec := range records {
		th := fetchedThread{
			Title:    flattenField(rec.Fields["标题"]),
			Category: flattenField(rec.Fields["分类"]),
			Status:   flattenField(rec.Fields["状态"]),
			Priority: flattenField(rec.Fields["优先级"]),
			Content:  flattenField(rec.Fields["内容"]),
			Source:   flattenField(rec.Fields["来源"]),
		}
		if !includeAll && th.Status == "已完成" {
			continue
		}
		threads = append(threads, th)
	}
	return threads
}

// buildRecentArchives flattens archive records and keeps the max most
// recent by the 日期 field.
func buildRecentArchives(records []feishu.Record, max int) []fetchedArchive {
	type dated struct {
		when    int64
		archive fetchedArchive
	}

	var rows []dated
	for _, rec := range records {
		ms, ok := rec.Fields["日期"].(float64)
		if !ok {
			continue
		}
		rows = append(rows, dated{
			when: int64(ms),
			archive: fetchedArchive{
				Date:    time.UnixMilli(int64(ms)).UTC().Format("2006-01-02"),
				Topic:   flattenField(rec.Fields["主题"]),
				Summary: flattenField(rec.Fields["一句话总结"]),
			},
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].when > rows[j].when })
	if len(rows) > max {
		rows = rows[:max]
	}

	archives := make([]fetchedArchive, 0, len(rows))
	for _, r := range rows {
		archives = append(archives, r.archive)
	}
	return archives
}

// renderContext prints the session-context digest.
func renderContext(w io.Writer, threads []fetchedThread, archives []fetchedArchive) {
	fmt.Fprintln(w, "<session_context>")

	fmt.Fprintln(w, "当前待处理线头：")
	for _, th := range threads {
		line := fmt.Sprintf("- [%s] %s", th.Priority, th.Title)
		if th.Source != "" {
			line += fmt.Sprintf("（来自：%s）", th.Source)
		}
		fmt.Fprintln(w, line)
	}

	if len(archives) > 0 {
		fmt.Fprintln(w, "最近对话：")
		for _, a := range archives {
			line := fmt.Sprintf("- %s %s", a.Date, a.Topic)
			if a.Summary != "" {
				line += "：" + a.Summary
			}
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintln(w, "</session_context>")
}

// renderHuman prints the table-ish default output.
func renderHuman(w io.Writer, threads []fetchedThread, archives []fetchedArchive) {
	if len(threads) == 0 {
		fmt.Fprintln(w, "没有待处理的线头。")
	}
	for _, th := range threads {
		fmt.Fprintf(w, "%-4s  %-6s  %-8s  %s\n", th.Priority, th.Status, th.Category, th.Title)
		if th.Content != "" && th.Content != th.Title {
			fmt.Fprintf(w, "      %s\n", strings.ReplaceAll(th.Content, "\n", " / "))
		}
	}
	fmt.Fprintf(w, "\n%d threads\n", len(threads))

	if len(archives) > 0 {
		fmt.Fprintln(w, "\n最近对话：")
		for _, a := range archives {
			fmt.Fprintf(w, "%s  %-20s  %s\n", a.Date, a.Topic, a.Summary)
		}
	}
}

// flattenField reduces a bitable field value to display text.
func flattenField(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		var parts []string
		for _, item := range val {
			switch seg := item.(type) {
			case string:
				parts = append(parts, seg)
			case map[string]any:
				if text, ok := seg["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		return strings.TrimSpace(strings.Join(parts, ""))
	case float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}

func init() {
	fetchCmd.Flags().Bool("json", false, "output threads and recent archives as JSON")
	fetchCmd.Flags().Bool("context", false, "print a compact session-context digest")
	fetchCmd.Flags().Bool("quiet", false, "print thread titles only")
	fetchCmd.Flags().Bool("all", false, "include completed threads")

	rootCmd.AddCommand(fetchCmd)
}
