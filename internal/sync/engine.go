// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/kmsync/internal/feishu"
	"github.com/pdiddy/kmsync/internal/markdown"
	"github.com/pdiddy/kmsync/internal/notion"
	"github.com/pdiddy/kmsync/pkg/types"
)

// BatchSummary holds counts from a sync run.
type BatchSummary struct {
	Synced  int
	Skipped int
	Failed  int
}

// Total returns the number of files processed.
func (s BatchSummary) Total() int {
	return s.Synced + s.Skipped + s.Failed
}

// Engine drives the vault-to-target sync. Feishu is the primary target;
// Notion is optional and only receives conversation archives.
type Engine struct {
	cfg    types.Config
	feishu *feishu.Client
	notion *notion.Client
	store  *Store

	// Force re-syncs files even when their content hash matches the
	// state store.
	Force bool

	// Now is the clock used for record timestamps. Tests pin it.
	Now func() time.Time
}

// NewEngine builds an engine. notionClient may be nil when the Notion
// target is not configured.
func NewEngine(cfg types.Config, fc *feishu.Client, nc *notion.Client, store *Store) *Engine {
	cfg.Vault = cfg.Vault.WithDefaults()
	return &Engine{
		cfg:    cfg,
		feishu: fc,
		notion: nc,
		store:  store,
		Now:    time.Now,
	}
}

// SyncAll scans the vault and syncs every changed file, printing one
// progress line per file to w. Failures are reported and skipped so one
// bad file never aborts the batch.
func (e *Engine) SyncAll(ctx context.Context, w io.Writer) (BatchSummary, error) {
	paths, err := Scan(e.cfg.Vault)
	if err != nil {
		return BatchSummary{}, err
	}
	return e.SyncFiles(ctx, w, paths)
}

// SyncFiles syncs the given files, skipping those whose content hash
// matches the state store.
func (e *Engine) SyncFiles(ctx context.Context, w io.Writer, paths []string) (BatchSummary, error) {
	var summary BatchSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		rel := e.relPath(path)

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			continue
		}

		hash := ContentHash(data)
		stored, err := e.store.Hash(ctx, rel)
		if err != nil {
			return summary, err
		}
		if !e.Force && stored == hash {
			fmt.Fprintf(w, "skipped %s\n", rel)
			summary.Skipped++
			continue
		}

		if err := e.syncFile(ctx, path, string(data)); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			continue
		}

		if err := e.store.Mark(ctx, rel, hash, e.Now()); err != nil {
			return summary, err
		}
		fmt.Fprintf(w, "synced  %s\n", rel)
		summary.Synced++
	}

	fmt.Fprintf(w, "\nsynced: %d, skipped: %d, failed: %d\n",
		summary.Synced, summary.Skipped, summary.Failed)
	return summary, nil
}

// relPath makes progress lines and state keys stable across machines by
// keying on the vault-relative path where possible.
func (e *Engine) relPath(path string) string {
	if rel, err := filepath.Rel(e.cfg.Vault.BaseDir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func (e *Engine) syncFile(ctx context.Context, path, content string) error {
	switch Classify(path) {
	case KindThreads:
		return e.syncThreads(ctx, content)
	case KindArchive:
		return e.syncArchive(ctx, path, content)
	default:
		return e.syncKnowledge(ctx, path, content)
	}
}

// syncThreads upserts every parsed thread into the threads table.
func (e *Engine) syncThreads(ctx context.Context, content string) error {
	for _, rec := range markdown.ParseThreads(content, e.Now) {
		fields := map[string]any{
			"标题":   rec.Title,
			"分类":   string(rec.Category),
			"状态":   string(rec.Status),
			"优先级":  string(rec.Priority),
			"内容":   rec.Content,
			"来源":   rec.Source,
			"创建时间": feishu.DateMillis(rec.Created),
		}
		if _, err := e.feishu.Upsert(ctx, feishu.TableThreads, fields); err != nil {
			return fmt.Errorf("thread %q: %w", rec.Title, err)
		}
	}
	return nil
}

// syncArchive creates the detail document, upserts the archive index
// row, and mirrors the archive to Notion when that target is enabled.
func (e *Engine) syncArchive(ctx context.Context, path, content string) error {
	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	meta := markdown.ExtractArchiveMeta(content, stem, e.Now)

	blocks := markdown.Convert(content, markdown.Options{Tables: markdown.TableRowsAsText})
	docURL, err := e.feishu.CreateDocument(ctx, stem, blocks, e.cfg.Sync.DocBatchSize)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"日期":    feishu.DateMillis(meta.Date),
		"主题":    meta.Topic,
		"一句话总结": meta.Summary,
		"标签":    meta.Tags,
		"核心洞见":  strings.Join(meta.Insights, "\n"),
		"待跟进数":  meta.PendingCount,
		"详情链接":  map[string]any{"link": docURL, "text": "查看详情"},
	}
	if _, err := e.feishu.Upsert(ctx, feishu.TableArchives, fields); err != nil {
		return err
	}

	if e.notion == nil {
		return nil
	}
	return e.syncArchiveToNotion(ctx, meta, content)
}

func (e *Engine) syncArchiveToNotion(ctx context.Context, meta types.ArchiveMeta, content string) error {
	blocks := markdown.Convert(content, markdown.Options{Tables: markdown.TableRowsAsCode})

	pageID, err := e.notion.FindPageByTitle(ctx, meta.Topic)
	if err != nil {
		return err
	}
	if pageID != "" {
		return e.notion.UpdatePage(ctx, pageID, meta, blocks)
	}
	_, err = e.notion.CreatePage(ctx, meta, blocks)
	return err
}

// syncKnowledge creates the detail document and upserts the knowledge
// index row. The note's kind comes from its directory.
func (e *Engine) syncKnowledge(ctx context.Context, path, content string) error {
	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	rec := types.KnowledgeRecord{
		Title:    stem,
		Kind:     knowledgeKind(path),
		Abstract: markdown.Abstract(content, 100),
	}

	blocks := markdown.Convert(content, markdown.Options{Tables: markdown.TableRowsAsText})
	docURL, err := e.feishu.CreateDocument(ctx, stem, blocks, e.cfg.Sync.DocBatchSize)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"标题":   rec.Title,
		"类型":   string(rec.Kind),
		"摘要":   rec.Abstract,
		"创建时间": feishu.DateMillis(e.Now()),
		"详情链接": map[string]any{"link": docURL, "text": "查看详情"},
	}
	_, err = e.feishu.Upsert(ctx, feishu.TableKnowledge, fields)
	return err
}

// knowledgeKind derives a note's category from its path segments.
func knowledgeKind(path string) types.KnowledgeKind {
	switch {
	case strings.Contains(path, "方法论"):
		return types.KnowledgeMethodology
	case strings.Contains(path, "SOP"):
		return types.KnowledgeSOP
	case strings.Contains(path, "洞见"):
		return types.KnowledgeInsight
	default:
		return types.KnowledgeOther
	}
}

// SyncProjects parses the project-status document and upserts one row
// per project.
func (e *Engine) SyncProjects(ctx context.Context, w io.Writer) (int, error) {
	data, err := os.ReadFile(e.cfg.Vault.ProjectsFile)
	if err != nil {
		return 0, fmt.Errorf("reading projects file: %w", err)
	}

	records := markdown.ParseProjects(string(data))
	for _, rec := range records {
		fields := map[string]any{
			"项目名":   rec.Name,
			"状态":    rec.Status,
			"最近修改":  rec.LastModified,
			"Git提交数": rec.CommitCount,
			"待办":    rec.Todo,
			"更新时间":  feishu.DateMillis(e.Now()),
		}
		if _, err := e.feishu.Upsert(ctx, feishu.TableProjects, fields); err != nil {
			return 0, fmt.Errorf("project %q: %w", rec.Name, err)
		}
		fmt.Fprintf(w, "synced  %s\n", rec.Name)
	}
	return len(records), nil
}

// Status prints how many files the state store has seen and how many
// syncable files the vault currently holds.
func (e *Engine) Status(ctx context.Context, w io.Writer) error {
	tracked, err := e.store.Count(ctx)
	if err != nil {
		return err
	}
	paths, err := Scan(e.cfg.Vault)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "vault: %s\n", e.cfg.Vault.BaseDir)
	fmt.Fprintf(w, "syncable files: %d\n", len(paths))
	fmt.Fprintf(w, "tracked files:  %d\n", tracked)
	return nil
}
