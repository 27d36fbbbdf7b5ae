// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review generates the weekly review report from the archive
// tree and the thread-tracking document.
package review

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/kmsync/pkg/types"
)

const (
	// maxInsightsPerFile caps how many lines one archive contributes.
	maxInsightsPerFile = 5

	// minInsightRunes drops fragments too short to mean anything.
	minInsightRunes = 6

	// maxTopTags caps the high-frequency tag list.
	maxTopTags = 10
)

var (
	stemDayRE  = regexp.MustCompile(`^(\d{2})(\d{2})_`)
	bulletRE   = regexp.MustCompile(`^[-*]\s+(.+)$`)
	numberedRE = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	tagRE      = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	checkboxRE = regexp.MustCompile(`^-\s\[([ x])\]`)
)

// Week is a Monday-to-Sunday span.
type Week struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls inside the span.
func (w Week) Contains(day time.Time) bool {
	return !day.Before(w.Start) && !day.After(w.End)
}

// OrdinalInMonth returns which review of the month this is, counted
// from the Monday's day of month.
func (w Week) OrdinalInMonth() int {
	return (w.Start.Day()-1)/7 + 1
}

// CurrentWeek returns the week containing now, normalized to midnight
// in now's location.
func CurrentWeek(now time.Time) Week {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := day.AddDate(0, 0, -(weekday - 1))
	return Week{Start: start, End: start.AddDate(0, 0, 6)}
}

// Report is the collected material for one weekly review.
type Report struct {
	Week      Week
	Archives  []string
	Insights  []string
	TopTags   []string
	Pending   int
	Completed int
}

// Generator builds weekly review reports from a vault.
type Generator struct {
	vault types.VaultConfig
}

func NewGenerator(vault types.VaultConfig) *Generator {
	return &Generator{vault: vault.WithDefaults()}
}

// Collect gathers the week's archives, their insight lines and tags,
// and the thread checkbox counts.
func (g *Generator) Collect(week Week) (*Report, error) {
	report := &Report{Week: week}

	tagCounts := make(map[string]int)
	for _, month := range weekMonths(week) {
		// The stem carries only MMDD; the year comes from the month
		// directory, which matters for weeks spanning a year boundary.
		monthStart, err := time.ParseInLocation("2006-01", month, week.Start.Location())
		if err != nil {
			continue
		}

		dir := filepath.Join(g.vault.ArchiveDir, month)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive month %s: %w", month, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			day, ok := stemDay(entry.Name(), monthStart.Year(), week.Start.Location())
			if !ok || !week.Contains(day) {
				continue
			}

			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("reading archive %s: %w", entry.Name(), err)
			}

			report.Archives = append(report.Archives, strings.TrimSuffix(entry.Name(), ".md"))
			report.Insights = append(report.Insights, harvestInsights(string(data))...)
			for _, tag := range harvestTags(string(data)) {
				tagCounts[tag]++
			}
		}
	}
	sort.Strings(report.Archives)
	report.TopTags = topTags(tagCounts, maxTopTags)

	if data, err := os.ReadFile(g.vault.ThreadsFile); err == nil {
		report.Pending, report.Completed = countCheckboxes(string(data))
	}

	return report, nil
}

// weekMonths lists the YYYY-MM directories a week can span. A week
// crossing a month boundary touches two.
func weekMonths(week Week) []string {
	start := week.Start.Format("2006-01")
	end := week.End.Format("2006-01")
	if start == end {
		return []string{start}
	}
	return []string{start, end}
}

// stemDay parses the MMDD_ filename prefix into a date in the given
// year.
func stemDay(name string, year int, loc *time.Location) (time.Time, bool) {
	m := stemDayRE.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation("20060102", fmt.Sprintf("%d%s%s", year, m[1], m[2]), loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// harvestInsights pulls list items out of an archive. This is looser
// than the metadata extractor's 核心洞见 scan on purpose: the weekly
// review wants anything worth re-reading, not just the curated section.
func harvestInsights(content string) []string {
	var insights []string
	for _, line := range strings.Split(content, "\n") {
		if len(insights) >= maxInsightsPerFile {
			break
		}
		trimmed := strings.TrimSpace(line)

		var text string
		if m := bulletRE.FindStringSubmatch(trimmed); m != nil {
			text = m[1]
		} else if m := numberedRE.FindStringSubmatch(trimmed); m != nil {
			text = m[1]
		} else {
			continue
		}
		if checkboxRE.MatchString(trimmed) {
			continue
		}
		if len([]rune(text)) < minInsightRunes {
			continue
		}
		insights = append(insights, text)
	}
	return insights
}

func harvestTags(content string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, m := range tagRE.FindAllStringSubmatch(content, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		tags = append(tags, m[1])
	}
	return tags
}

func topTags(counts map[string]int, max int) []string {
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > max {
		tags = tags[:max]
	}
	return tags
}

func countCheckboxes(content string) (pending, completed int) {
	for _, line := range strings.Split(content, "\n") {
		m := checkboxRE.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if m[1] == "x" {
			completed++
		} else {
			pending++
		}
	}
	return pending, completed
}

// Render produces the review document.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s 第%d周复盘\n\n", r.Week.Start.Format("2006-01"), r.Week.OrdinalInMonth())
	fmt.Fprintf(&b, "**时间范围**：%s ~ %s\n\n",
		r.Week.Start.Format("2006-01-02"), r.Week.End.Format("2006-01-02"))

	fmt.Fprintf(&b, "## 本周归档（%d 篇）\n\n", len(r.Archives))
	if len(r.Archives) == 0 {
		b.WriteString("本周没有归档。\n\n")
	} else {
		for _, name := range r.Archives {
			fmt.Fprintf(&b, "- %s\n", name)
		}
		b.WriteString("\n")
	}

	b.WriteString("## 本周洞见\n\n")
	if len(r.Insights) == 0 {
		b.WriteString("无。\n\n")
	} else {
		for i, insight := range r.Insights {
			fmt.Fprintf(&b, "%d. %s\n", i+1, insight)
		}
		b.WriteString("\n")
	}

	if len(r.TopTags) > 0 {
		b.WriteString("## 高频标签\n\n")
		for _, tag := range r.TopTags {
			fmt.Fprintf(&b, "#%s ", tag)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("## 线头盘点\n\n")
	fmt.Fprintf(&b, "- 待跟进：%d\n", r.Pending)
	fmt.Fprintf(&b, "- 已完成：%d\n", r.Completed)

	return b.String()
}

// FileName is the review's conventional filename.
func (r *Report) FileName() string {
	return fmt.Sprintf("%s_第%d周复盘.md", r.Week.Start.Format("2006-01"), r.Week.OrdinalInMonth())
}

// Save writes the rendered report into the review directory and returns
// its path.
func (g *Generator) Save(report *Report) (string, error) {
	if err := os.MkdirAll(g.vault.ReviewDir, 0o755); err != nil {
		return "", fmt.Errorf("creating review directory: %w", err)
	}
	path := filepath.Join(g.vault.ReviewDir, report.FileName())
	if err := os.WriteFile(path, []byte(report.Render()), 0o644); err != nil {
		return "", fmt.Errorf("writing review: %w", err)
	}
	return path, nil
}
