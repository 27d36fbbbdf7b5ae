// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markdown

import (
	"regexp"
	"strings"

	"github.com/pdiddy/kmsync/pkg/types"
)

// Placeholder defaults for project fields never overwritten by a
// labelled bullet.
const (
	projectFieldEmpty = "-"
	projectTodoEmpty  = "无"
)

// excludedProjectPrefixes mark ## sections of the status document that
// are generator boilerplate, not projects.
var excludedProjectPrefixes = []string{"自动", "主动"}

// projectLabels is the ordered (substring, pattern, assign) table for
// labelled bullets. First matching label wins per line; a later line
// with the same label overwrites the earlier value.
var projectLabels = []struct {
	substr  string
	pattern *regexp.Regexp
	assign  func(*types.ProjectRecord, string)
}{
	{"状态", regexp.MustCompile(`状态.*?：(.+)$`),
		func(p *types.ProjectRecord, v string) { p.Status = v }},
	{"最近修改", regexp.MustCompile(`最近修改.*?：(.+)$`),
		func(p *types.ProjectRecord, v string) { p.LastModified = v }},
	{"Git", regexp.MustCompile(`Git.*?：(.+)$`),
		func(p *types.ProjectRecord, v string) { p.CommitCount = v }},
	{"待办", regexp.MustCompile(`待办.*?：(.+)$`),
		func(p *types.ProjectRecord, v string) { p.Todo = v }},
}

// ParseProjects extracts one record per ##-level project section of a
// status document. The parser is a two-state machine: outside any
// project, or accumulating the current one. A new project heading (or
// end of input) flushes the accumulated record, so two back-to-back
// headings yield two records, the first all defaults.
func ParseProjects(content string) []types.ProjectRecord {
	var (
		projects []types.ProjectRecord
		current  *types.ProjectRecord
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "## ") {
			name := strings.TrimSpace(trimmed[3:])
			if isExcludedSection(name) {
				continue
			}
			if current != nil {
				projects = append(projects, *current)
			}
			current = &types.ProjectRecord{
				Name:         name,
				Status:       projectFieldEmpty,
				LastModified: projectFieldEmpty,
				CommitCount:  projectFieldEmpty,
				Todo:         projectTodoEmpty,
			}
			continue
		}

		if current == nil || !strings.HasPrefix(trimmed, "- **") {
			continue
		}

		for _, label := range projectLabels {
			if !strings.Contains(trimmed, label.substr) {
				continue
			}
			if m := label.pattern.FindStringSubmatch(trimmed); m != nil {
				label.assign(current, strings.TrimSpace(m[1]))
			}
			break
		}
	}

	if current != nil {
		projects = append(projects, *current)
	}

	return projects
}

func isExcludedSection(name string) bool {
	for _, prefix := range excludedProjectPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
