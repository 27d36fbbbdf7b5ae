// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/kmsync/pkg/types"
)

// sectionClass is the result of classifying a ## section heading: the
// category threads under it are filed as, and whether items there count
// as already done.
type sectionClass struct {
	category types.ThreadCategory
	done     bool
}

// sectionKeywords is the ordered (substring, class) table for section
// headings. Evaluated top to bottom, first match wins; order is part of
// the contract ("验证" must not shadow "待跟进", etc.), so this is a
// slice rather than a map.
var sectionKeywords = []struct {
	substr string
	class  sectionClass
}{
	{"待跟进", sectionClass{category: types.CategoryPending}},
	{"想法", sectionClass{category: types.CategoryRawIdea}},
	{"未成型", sectionClass{category: types.CategoryRawIdea}},
	{"假设", sectionClass{category: types.CategoryHypothesis}},
	{"验证", sectionClass{category: types.CategoryHypothesis}},
	{"深挖", sectionClass{category: types.CategoryPending}},
	{"问题", sectionClass{category: types.CategoryPending}},
	{"技术债", sectionClass{category: types.CategoryTechDebt}},
	{"完成", sectionClass{category: types.CategoryOther, done: true}},
	{"放弃", sectionClass{category: types.CategoryOther, done: true}},
}

// tableHeaderWords mark a table-header row for thread tables.
var tableHeaderWords = []string{"日期", "事项", "想法", "假设", "问题"}

var (
	sourceRE      = regexp.MustCompile(`[（(]来自[：:]?\s*(.+?)[）)]`)
	sourceStripRE = regexp.MustCompile(`[（(]来自.+?[）)]`)
)

// classifySection maps a ## heading's text to its section class.
func classifySection(heading string) sectionClass {
	for _, kw := range sectionKeywords {
		if strings.Contains(heading, kw.substr) {
			return kw.class
		}
	}
	return sectionClass{category: types.CategoryOther}
}

// ParseThreads extracts thread records from a thread-tracking document.
// Two shapes are recognized: rows of a Markdown table under a section
// with a recognized header row, and checkbox list items. The section
// class is carried from the nearest preceding ## heading. now supplies
// the created date for checkbox items and date-less rows.
func ParseThreads(content string, now func() time.Time) []types.ThreadRecord {
	var threads []types.ThreadRecord

	section := sectionClass{category: types.CategoryOther}
	inTable := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "## "):
			section = classifySection(strings.TrimSpace(trimmed[3:]))
			inTable = false

		case strings.Contains(trimmed, "|") && isThreadTableHeader(trimmed):
			inTable = true

		case strings.HasPrefix(trimmed, "|") && strings.Contains(trimmed, "---"):
			// Separator row.

		case inTable && strings.HasPrefix(trimmed, "|"):
			if rec, ok := threadFromRow(splitCells(trimmed), section, now); ok {
				threads = append(threads, rec)
			}

		case strings.HasPrefix(trimmed, "- [ ]") || strings.HasPrefix(trimmed, "- [x]"):
			threads = append(threads, threadFromCheckbox(trimmed, section, now))
		}
	}

	return threads
}

func isThreadTableHeader(line string) bool {
	for _, w := range tableHeaderWords {
		if strings.Contains(line, w) {
			return true
		}
	}
	return false
}

// threadFromRow builds a record from a table row's cells, laid out as
// 日期 | 事项 | 来源 | 下一步 | 优先级. A row needs at least a date and
// a title cell to count.
func threadFromRow(cells []string, section sectionClass, now func() time.Time) (types.ThreadRecord, bool) {
	if len(cells) < 2 {
		return types.ThreadRecord{}, false
	}

	title := cells[1]
	if title == "" {
		return types.ThreadRecord{}, false
	}

	created := parseDateCell(cells[0], now)

	source, nextAction, priorityCell := "", "", ""
	if len(cells) > 2 {
		source = cells[2]
	}
	if len(cells) > 3 {
		nextAction = cells[3]
	}
	if len(cells) > 4 {
		priorityCell = cells[4]
	}

	content := title
	if nextAction != "" {
		content = title + "\n下一步: " + nextAction
	}

	rec := types.ThreadRecord{
		Title:    title,
		Category: section.category,
		Status:   statusFor(section),
		Priority: normalizePriority(priorityCell),
		Content:  content,
		Source:   source,
		Created:  created,
	}
	return rec, true
}

// threadFromCheckbox builds a record from a "- [ ]" / "- [x]" item. A
// trailing （来自: xxx） annotation becomes the source and is stripped
// from the title; the full item text stays in Content.
func threadFromCheckbox(trimmed string, section sectionClass, now func() time.Time) types.ThreadRecord {
	done := strings.HasPrefix(trimmed, "- [x]")
	item := strings.TrimSpace(trimmed[len("- [x]"):])

	title, source := item, ""
	if m := sourceRE.FindStringSubmatch(item); m != nil {
		source = m[1]
		title = strings.TrimSpace(sourceStripRE.ReplaceAllString(item, ""))
	}

	status := types.StatusPending
	if done {
		status = types.StatusDone
	}

	return types.ThreadRecord{
		Title:    title,
		Category: section.category,
		Status:   status,
		Priority: types.PriorityMedium,
		Content:  item,
		Source:   source,
		Created:  truncateToDay(now()),
	}
}

// statusFor derives the record status from the section class alone:
// items under a 完成/放弃 section are done, everything else pending.
func statusFor(section sectionClass) types.ThreadStatus {
	if section.done {
		return types.StatusDone
	}
	return types.StatusPending
}

// normalizePriority folds free-text priority cells onto the three
// options: any 高 means high, any 低 means low, everything else medium.
func normalizePriority(cell string) types.ThreadPriority {
	switch {
	case strings.Contains(cell, "高"):
		return types.PriorityHigh
	case strings.Contains(cell, "低"):
		return types.PriorityLow
	default:
		return types.PriorityMedium
	}
}

// parseDateCell reads an ISO date cell, falling back to today.
func parseDateCell(cell string, now func() time.Time) time.Time {
	if t, err := time.Parse("2006-01-02", cell); err == nil {
		return t
	}
	if m := isoDateRE.FindString(cell); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t
		}
	}
	return truncateToDay(now())
}
