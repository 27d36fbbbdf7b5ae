// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kmsync/internal/feishu"
	"github.com/pdiddy/kmsync/pkg/types"
)

// fakeWorkspace is an httptest stand-in for the bitable and docx APIs.
// It accepts every upsert as an insert and records the fields by table.
type fakeWorkspace struct {
	mu      sync.Mutex
	upserts map[string][]map[string]any
	docs    int
}

func (f *fakeWorkspace) records(table string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts[table]
}

func newFakeWorkspace(t *testing.T) (*feishu.Client, *fakeWorkspace) {
	t.Helper()
	f := &fakeWorkspace{upserts: make(map[string][]map[string]any)}

	tables := map[string]string{
		"tblthreads":   "线头追踪",
		"tblarchives":  "对话归档",
		"tblknowledge": "知识沉淀",
		"tblprojects":  "项目状态",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v3/tenant_access_token/internal", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "tenant_access_token": "t"})
	})
	mux.HandleFunc("/bitable/v1/apps/bascn123/tables", func(w http.ResponseWriter, _ *http.Request) {
		items := make([]map[string]string, 0, len(tables))
		for id, name := range tables {
			items = append(items, map[string]string{"table_id": id, "name": name})
		}
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{"items": items}})
	})
	for id := range tables {
		tableID := id
		mux.HandleFunc("/bitable/v1/apps/bascn123/tables/"+tableID+"/records/search", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{"items": []any{}}})
		})
		mux.HandleFunc("/bitable/v1/apps/bascn123/tables/"+tableID+"/records", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Fields map[string]any `json:"fields"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.mu.Lock()
			f.upserts[tableID] = append(f.upserts[tableID], body.Fields)
			f.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{
				"record": map[string]string{"record_id": "rec1"},
			}})
		})
	}
	mux.HandleFunc("/docx/v1/documents", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		f.docs++
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{
			"document": map[string]string{"document_id": "doc1"},
		}})
	})
	mux.HandleFunc("/docx/v1/documents/doc1/blocks/doc1/children", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 0})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	c := feishu.NewClient(types.FeishuConfig{
		AppID:        "cli_test",
		AppSecret:    "secret",
		BitableToken: "bascn123",
	})
	c.BaseURL = ts.URL
	c.HTTP = ts.Client()
	return c, f
}

func testEngine(t *testing.T, base string) (*Engine, *fakeWorkspace) {
	t.Helper()
	fc, f := newFakeWorkspace(t)

	store, err := OpenStore(filepath.Join(base, ".kmsync", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := types.Config{Vault: types.VaultConfig{BaseDir: base}}
	e := NewEngine(cfg, fc, nil, store)
	e.Now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return e, f
}

func writeVaultFile(t *testing.T, base, rel, content string) string {
	t.Helper()
	path := filepath.Join(base, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSyncFiles_ThreadsUpserted(t *testing.T) {
	base := t.TempDir()
	e, f := testEngine(t, base)

	content := "## 待跟进\n" +
		"- [ ] 修复缓存击穿（来自：0315_会议）\n" +
		"- [x] 升级依赖\n"
	path := writeVaultFile(t, base, "线头追踪.md", content)

	var out strings.Builder
	summary, err := e.SyncFiles(context.Background(), &out, []string{path})
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Synced: 1}, summary)

	records := f.records("tblthreads")
	require.Len(t, records, 2)
	assert.Equal(t, "修复缓存击穿", records[0]["标题"])
	assert.Equal(t, "0315_会议", records[0]["来源"])
	assert.Equal(t, "待处理", records[0]["状态"])
	assert.Equal(t, "已完成", records[1]["状态"])
	assert.Contains(t, out.String(), "synced  线头追踪.md")
}

func TestSyncFiles_ArchiveCreatesDocAndRow(t *testing.T) {
	base := t.TempDir()
	e, f := testEngine(t, base)

	content := "**日期**：2024-03-15\n" +
		"**标签**：#缓存 #架构\n" +
		"## 一句话总结\n" +
		"最终选了双删加延迟队列\n"
	path := writeVaultFile(t, base, "对话归档/2024-03/0315_缓存讨论.md", content)

	var out strings.Builder
	summary, err := e.SyncFiles(context.Background(), &out, []string{path})
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Synced: 1}, summary)
	assert.Equal(t, 1, f.docs)

	records := f.records("tblarchives")
	require.Len(t, records, 1)
	assert.Equal(t, "0315_缓存讨论", records[0]["主题"])
	assert.Equal(t, "最终选了双删加延迟队列", records[0]["一句话总结"])
	link := records[0]["详情链接"].(map[string]any)
	assert.Contains(t, link["link"], "/docx/doc1")
}

func TestSyncFiles_KnowledgeKindFromPath(t *testing.T) {
	base := t.TempDir()
	e, f := testEngine(t, base)

	path := writeVaultFile(t, base, "知识沉淀/方法论/复盘方法.md", "# 复盘方法\n先列事实再找规律。\n")

	var out strings.Builder
	_, err := e.SyncFiles(context.Background(), &out, []string{path})
	require.NoError(t, err)

	records := f.records("tblknowledge")
	require.Len(t, records, 1)
	assert.Equal(t, "复盘方法", records[0]["标题"])
	assert.Equal(t, "方法论", records[0]["类型"])
	assert.Equal(t, "先列事实再找规律。", records[0]["摘要"])
}

func TestSyncFiles_SkipsUnchanged(t *testing.T) {
	base := t.TempDir()
	e, f := testEngine(t, base)

	path := writeVaultFile(t, base, "知识沉淀/笔记.md", "# 笔记\n内容。\n")

	ctx := context.Background()
	var out strings.Builder
	_, err := e.SyncFiles(ctx, &out, []string{path})
	require.NoError(t, err)

	summary, err := e.SyncFiles(ctx, &out, []string{path})
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Skipped: 1}, summary)
	assert.Len(t, f.records("tblknowledge"), 1)

	// Changing the content forces a re-sync.
	writeVaultFile(t, base, "知识沉淀/笔记.md", "# 笔记\n更新的内容。\n")
	summary, err = e.SyncFiles(ctx, &out, []string{path})
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Synced: 1}, summary)
	assert.Len(t, f.records("tblknowledge"), 2)
}

func TestSyncFiles_BadFileDoesNotAbortBatch(t *testing.T) {
	base := t.TempDir()
	e, f := testEngine(t, base)

	missing := filepath.Join(base, "知识沉淀", "不存在.md")
	good := writeVaultFile(t, base, "知识沉淀/好的.md", "# 好的\n内容。\n")

	var out strings.Builder
	summary, err := e.SyncFiles(context.Background(), &out, []string{missing, good})
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Synced: 1, Failed: 1}, summary)
	assert.Len(t, f.records("tblknowledge"), 1)
	assert.Contains(t, out.String(), "failed")
}

func TestSyncAll_WalksVault(t *testing.T) {
	base := t.TempDir()
	e, _ := testEngine(t, base)

	writeVaultFile(t, base, "对话归档/2024-03/0315_会议.md", "# 会议\n内容。\n")
	writeVaultFile(t, base, "知识沉淀/笔记.md", "# 笔记\n内容。\n")
	writeVaultFile(t, base, "线头追踪.md", "## 待跟进\n- [ ] 事项\n")

	var out strings.Builder
	summary, err := e.SyncAll(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total())
	assert.Equal(t, 3, summary.Synced)
}

func TestSyncProjects(t *testing.T) {
	base := t.TempDir()
	e, f := testEngine(t, base)

	content := "## 数据管道\n" +
		"- **状态**：运行中\n" +
		"- **待办**：补监控\n" +
		"## 知识库\n"
	writeVaultFile(t, base, "项目状态.md", content)

	var out strings.Builder
	n, err := e.SyncProjects(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records := f.records("tblprojects")
	require.Len(t, records, 2)
	assert.Equal(t, "数据管道", records[0]["项目名"])
	assert.Equal(t, "运行中", records[0]["状态"])
	assert.Equal(t, "知识库", records[1]["项目名"])
	assert.Equal(t, "-", records[1]["状态"])
	assert.Equal(t, "无", records[1]["待办"])
}

func TestStatus_ReportsCounts(t *testing.T) {
	base := t.TempDir()
	e, _ := testEngine(t, base)

	path := writeVaultFile(t, base, "知识沉淀/笔记.md", "# 笔记\n内容。\n")

	ctx := context.Background()
	var out strings.Builder
	_, err := e.SyncFiles(ctx, &out, []string{path})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, e.Status(ctx, &out))
	assert.Contains(t, out.String(), "syncable files: 1")
	assert.Contains(t, out.String(), "tracked files:  1")
}
