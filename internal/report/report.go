// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report watches the team's daily-report bitable and posts
// reminder cards to the group chat webhook.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/kmsync/internal/feishu"
	"github.com/pdiddy/kmsync/pkg/types"
)

// Table and field names in the daily-report bitable.
const (
	nameField = "姓名"
	dateField = "日期"

	followUpTable  = "跟进事项"
	followUpStatus = "状态"
	followUpTitle  = "事项"
	followUpOwner  = "负责人"
)

// followUpOpenStatuses are the 状态 values that count as still open.
var followUpOpenStatuses = []string{"待跟进", "跟进中"}

// Monitor reads the report bitable and builds notification cards.
type Monitor struct {
	client *feishu.Client
	cfg    types.ReportConfig

	// Now is the clock checks run against. Tests pin it.
	Now func() time.Time
}

func NewMonitor(client *feishu.Client, cfg types.ReportConfig) *Monitor {
	return &Monitor{client: client, cfg: cfg, Now: time.Now}
}

// DailyDetails is the outcome of one daily check.
type DailyDetails struct {
	Date    time.Time
	Filled  []string
	Missing []string
}

// AllFilled reports whether everyone expected has filed.
func (d DailyDetails) AllFilled() bool {
	return len(d.Missing) == 0
}

// CheckDaily inspects yesterday's reports and says who has not filed.
func (m *Monitor) CheckDaily(ctx context.Context) (DailyDetails, error) {
	now := m.Now()
	yesterday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)

	records, err := m.client.ListAllRecords(ctx, m.cfg.BitableToken, m.cfg.TableID)
	if err != nil {
		return DailyDetails{}, err
	}

	filled := make(map[string]struct{})
	for _, rec := range records {
		day, ok := fieldDate(rec.Fields[dateField], now.Location())
		if !ok || !day.Equal(yesterday) {
			continue
		}
		name := m.displayName(fieldString(rec.Fields[nameField]))
		if name != "" {
			filled[name] = struct{}{}
		}
	}

	details := DailyDetails{Date: yesterday}
	for _, member := range m.cfg.ExpectedMembers {
		if _, ok := filled[member]; ok {
			details.Filled = append(details.Filled, member)
		} else {
			details.Missing = append(details.Missing, member)
		}
	}
	return details, nil
}

// WeeklyStats counts reports per member over the last seven days.
type WeeklyStats struct {
	Since  time.Time
	Until  time.Time
	Counts map[string]int
}

// CheckWeekly aggregates the past week's report counts.
func (m *Monitor) CheckWeekly(ctx context.Context) (WeeklyStats, error) {
	now := m.Now()
	until := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	since := until.AddDate(0, 0, -6)

	records, err := m.client.ListAllRecords(ctx, m.cfg.BitableToken, m.cfg.TableID)
	if err != nil {
		return WeeklyStats{}, err
	}

	stats := WeeklyStats{Since: since, Until: until, Counts: make(map[string]int)}
	for _, member := range m.cfg.ExpectedMembers {
		stats.Counts[member] = 0
	}
	for _, rec := range records {
		day, ok := fieldDate(rec.Fields[dateField], now.Location())
		if !ok || day.Before(since) || day.After(until) {
			continue
		}
		// Only expected members count; the table can carry rows from
		// people outside the roster and the card layout stays fixed.
		name := m.displayName(fieldString(rec.Fields[nameField]))
		if _, expected := stats.Counts[name]; expected {
			stats.Counts[name]++
		}
	}
	return stats, nil
}

// FollowUp is one open item from the follow-up table.
type FollowUp struct {
	Title  string
	Owner  string
	Status string
}

// OpenFollowUps lists still-open items from the 跟进事项 table. A
// missing table is not an error; the feature is optional.
func (m *Monitor) OpenFollowUps(ctx context.Context) ([]FollowUp, error) {
	tableID, err := m.client.TableIDByName(ctx, m.cfg.BitableToken, followUpTable)
	if err != nil {
		return nil, nil
	}

	records, err := m.client.ListAllRecords(ctx, m.cfg.BitableToken, tableID)
	if err != nil {
		return nil, err
	}

	var open []FollowUp
	for _, rec := range records {
		status := fieldString(rec.Fields[followUpStatus])
		if !containsString(followUpOpenStatuses, status) {
			continue
		}
		open = append(open, FollowUp{
			Title:  fieldString(rec.Fields[followUpTitle]),
			Owner:  m.displayName(fieldString(rec.Fields[followUpOwner])),
			Status: status,
		})
	}
	return open, nil
}

// NotifyDaily sends the daily reminder card.
func (m *Monitor) NotifyDaily(ctx context.Context, details DailyDetails) error {
	return feishu.SendCard(ctx, m.client.HTTP, m.cfg.WebhookURL, DailyCard(details))
}

// NotifyWeekly sends the weekly stats card.
func (m *Monitor) NotifyWeekly(ctx context.Context, stats WeeklyStats, followUps []FollowUp) error {
	return feishu.SendCard(ctx, m.client.HTTP, m.cfg.WebhookURL, WeeklyCard(stats, followUps))
}

// displayName maps an opaque identifier through NameMapping.
func (m *Monitor) displayName(raw string) string {
	if mapped, ok := m.cfg.NameMapping[raw]; ok {
		return mapped
	}
	return raw
}

// DailyCard renders the daily check as a card: green when everyone has
// filed, orange otherwise.
func DailyCard(details DailyDetails) *feishu.Card {
	date := details.Date.Format("2006-01-02")
	if details.AllFilled() {
		return feishu.NewCard("green", "日报提醒").
			Markdown(fmt.Sprintf("**%s 日报已全员提交** ✅", date)).
			Note("每日自动检查")
	}

	card := feishu.NewCard("orange", "日报提醒").
		Markdown(fmt.Sprintf("**%s 日报未提交：**", date))
	for _, name := range details.Missing {
		card.Markdown("- " + name)
	}
	return card.Divider().
		Note(fmt.Sprintf("已提交 %d 人，未提交 %d 人", len(details.Filled), len(details.Missing)))
}

// WeeklyCard renders the weekly aggregation, appending open follow-ups
// when there are any.
func WeeklyCard(stats WeeklyStats, followUps []FollowUp) *feishu.Card {
	card := feishu.NewCard("blue", "周报统计").
		Markdown(fmt.Sprintf("**%s ~ %s 提交统计**",
			stats.Since.Format("2006-01-02"), stats.Until.Format("2006-01-02")))

	names := make([]string, 0, len(stats.Counts))
	for name := range stats.Counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if stats.Counts[names[i]] != stats.Counts[names[j]] {
			return stats.Counts[names[i]] > stats.Counts[names[j]]
		}
		return names[i] < names[j]
	})

	var lines []string
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s：%d 篇", name, stats.Counts[name]))
	}
	card.Markdown(strings.Join(lines, "\n"))

	if len(followUps) > 0 {
		card.Divider().Markdown("**待跟进事项**")
		var items []string
		for _, fu := range followUps {
			line := fmt.Sprintf("- %s（%s）", fu.Title, fu.Status)
			if fu.Owner != "" {
				line = fmt.Sprintf("- %s（%s，%s）", fu.Title, fu.Owner, fu.Status)
			}
			items = append(items, line)
		}
		card.Markdown(strings.Join(items, "\n"))
	}

	return card.Note("每周自动统计")
}

// fieldString flattens the shapes bitable field values arrive in: plain
// strings, text-segment lists, and person lists.
func fieldString(v any) string {
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
				} else if name, ok := seg["name"].(string); ok {
					parts = append(parts, name)
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

// fieldDate reads a millisecond-timestamp date field, truncated to the
// calendar day.
func fieldDate(v any, loc *time.Location) (time.Time, bool) {
	ms, ok := v.(float64)
	if !ok {
		return time.Time{}, false
	}
	t := time.UnixMilli(int64(ms)).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
