// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/kmsync/pkg/types"
)

var (
	isoDateRE  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	stemDateRE = regexp.MustCompile(`(\d{4})-?(\d{2})-?(\d{2})`)
	tagRE      = regexp.MustCompile(`#([^\s#]+)`)
	numberedRE = regexp.MustCompile(`^\d+\.\s*`)
)

// insightState tracks the insights scan: outside the 核心洞见 section,
// or inside it collecting ### entries.
type insightState int

const (
	outsideInsights insightState = iota
	insideInsights
)

// ExtractArchiveMeta scans one conversation archive and returns its
// structured metadata. stem is the document's filename without
// extension; it doubles as the Topic key and as the date fallback. now
// supplies the current date for the terminal fallback — pass time.Now
// outside tests.
//
// The five scans (date, tags, summary, insights, pending count) are
// fused into one pass over the lines but are independent: none reads
// another's intermediate result, so their semantics match running them
// separately. No input aborts extraction; absent markers leave fields
// at their defaults.
func ExtractArchiveMeta(content, stem string, now func() time.Time) types.ArchiveMeta {
	meta := types.ArchiveMeta{Topic: stem}

	var (
		dateStr      string
		awaitSummary bool
		insights     []string
		inState      insightState
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		// Date: first labelled line with an ISO-shaped substring wins.
		if dateStr == "" &&
			(strings.HasPrefix(trimmed, "**日期**") || strings.HasPrefix(trimmed, "日期：")) {
			dateStr = isoDateRE.FindString(line)
		}

		// Tags: the 标签 guard keeps ordinary headings from matching.
		if strings.Contains(line, "标签") && strings.Contains(line, "#") {
			for _, m := range tagRE.FindAllStringSubmatch(line, -1) {
				meta.Tags = appendUnique(meta.Tags, m[1])
			}
		}

		// Summary: the first non-empty line after the marker that is
		// neither a heading nor a divider.
		if meta.Summary == "" && strings.Contains(line, "一句话总结") {
			awaitSummary = true
			continue
		}
		if awaitSummary && trimmed != "" &&
			!strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "---") {
			meta.Summary = trimmed
			awaitSummary = false
		}

		// Insights: section opens at the marker, closes at a divider or
		// a ##-level (but not ###) heading. Every ### line inside is an
		// entry; truncation to three happens at emission, below.
		if strings.Contains(line, "核心洞见") {
			inState = insideInsights
			continue
		}
		if inState == insideInsights {
			switch {
			case strings.HasPrefix(trimmed, "---"):
				inState = outsideInsights
			case strings.HasPrefix(trimmed, "## ") && !strings.HasPrefix(trimmed, "###"):
				inState = outsideInsights
			case strings.HasPrefix(trimmed, "###"):
				text := strings.TrimSpace(trimmed[3:])
				text = numberedRE.ReplaceAllString(text, "")
				if text != "" {
					insights = append(insights, text)
				}
			}
		}

		if strings.HasPrefix(trimmed, "- [ ]") {
			meta.PendingCount++
		}
	}

	if len(insights) > 3 {
		insights = insights[:3]
	}
	meta.Insights = insights

	meta.Date = resolveDate(dateStr, stem, now)
	return meta
}

// resolveDate applies the fallback chain: labelled date, eight-digit
// shaped stem, current date. A four-digit stem like "0315_meeting" has
// no year and deliberately does not match.
func resolveDate(labelled, stem string, now func() time.Time) time.Time {
	if labelled != "" {
		if t, err := time.Parse("2006-01-02", labelled); err == nil {
			return t
		}
	}
	if m := stemDateRE.FindStringSubmatch(stem); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3]); err == nil {
			return t
		}
	}
	return truncateToDay(now())
}

// truncateToDay drops the time-of-day component so repeated extraction
// within one day stays byte-identical.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}

// Abstract returns the first content line of a note — non-empty, not a
// heading, not a divider — truncated to max runes. Used as the index
// summary for knowledge notes.
func Abstract(content string, max int) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "---") {
			continue
		}
		runes := []rune(trimmed)
		if len(runes) > max {
			return string(runes[:max])
		}
		return trimmed
	}
	return ""
}
