// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the record and configuration types shared across
// the sync pipeline stages.
package types

import "time"

// ArchiveMeta is the structured metadata extracted from one conversation
// archive document. All fields are best-effort: a missing marker leaves
// the field at its zero value, and Date falls back per the documented
// chain (date label, date-shaped filename stem, current date).
type ArchiveMeta struct {
	// Date is the archive's calendar date.
	Date time.Time `json:"date" yaml:"date"`

	// Topic is the document's natural key, normally the filename stem.
	Topic string `json:"topic" yaml:"topic"`

	// Summary is the line following the 一句话总结 marker.
	Summary string `json:"summary" yaml:"summary"`

	// Tags are the #tag tokens found on 标签-labelled lines, deduplicated.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Insights holds at most three entries from the 核心洞见 section,
	// heading markers and leading numbering stripped.
	Insights []string `json:"insights,omitempty" yaml:"insights,omitempty"`

	// PendingCount counts unchecked "- [ ]" items anywhere in the
	// document. It is a raw count, not scoped to any section.
	PendingCount int `json:"pending_count" yaml:"pending_count"`
}

// ThreadCategory is the bitable category option a thread is filed under.
type ThreadCategory string

const (
	CategoryPending    ThreadCategory = "待跟进事项"
	CategoryRawIdea    ThreadCategory = "未成型想法"
	CategoryHypothesis ThreadCategory = "待验证假设"
	CategoryTechDebt   ThreadCategory = "技术债务"
	CategoryOther      ThreadCategory = "其他"
)

// ThreadStatus is the bitable status option of a thread.
type ThreadStatus string

const (
	StatusPending ThreadStatus = "待处理"
	StatusDone    ThreadStatus = "已完成"
)

// ThreadPriority is the bitable priority option of a thread.
type ThreadPriority string

const (
	PriorityHigh   ThreadPriority = "高"
	PriorityMedium ThreadPriority = "中"
	PriorityLow    ThreadPriority = "低"
)

// ThreadRecord is one tracked thread, parsed from either a table row
// under a recognized section heading or a checkbox list item. Both input
// shapes produce the same record shape. Title is the upsert key.
type ThreadRecord struct {
	Title    string         `json:"title" yaml:"title"`
	Category ThreadCategory `json:"category" yaml:"category"`
	Status   ThreadStatus   `json:"status" yaml:"status"`
	Priority ThreadPriority `json:"priority" yaml:"priority"`
	Content  string         `json:"content" yaml:"content"`
	Source   string         `json:"source,omitempty" yaml:"source,omitempty"`
	Created  time.Time      `json:"created" yaml:"created"`
}

// ProjectRecord is one project's status, parsed from a ##-level section
// of the project-status document. All fields except Name are free text
// with placeholder defaults. Name is the upsert key.
type ProjectRecord struct {
	Name         string `json:"name" yaml:"name"`
	Status       string `json:"status" yaml:"status"`
	LastModified string `json:"last_modified" yaml:"last_modified"`
	CommitCount  string `json:"commit_count" yaml:"commit_count"`
	Todo         string `json:"todo" yaml:"todo"`
}

// KnowledgeKind categorizes a distilled knowledge note.
type KnowledgeKind string

const (
	KnowledgeMethodology KnowledgeKind = "方法论"
	KnowledgeSOP         KnowledgeKind = "SOP"
	KnowledgeInsight     KnowledgeKind = "洞见"
	KnowledgeOther       KnowledgeKind = "其他"
)

// KnowledgeRecord is the index row for one knowledge note. Title is the
// upsert key; Kind is derived from the note's path.
type KnowledgeRecord struct {
	Title    string        `json:"title" yaml:"title"`
	Kind     KnowledgeKind `json:"kind" yaml:"kind"`
	Abstract string        `json:"abstract" yaml:"abstract"`
}
