// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kmsync/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want FileKind
	}{
		{"/vault/线头追踪.md", KindThreads},
		{"/vault/inbox/THREADS.md", KindThreads},
		{"/vault/对话归档/2024-03/0315_会议.md", KindArchive},
		{"/vault/复盘报告/2024-03_第2周复盘.md", KindArchive},
		{"/vault/知识沉淀/方法论/复盘方法.md", KindKnowledge},
		{"/vault/随手记.md", KindKnowledge},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func TestScan_CollectsMarkdownAndSkipsHidden(t *testing.T) {
	base := t.TempDir()
	vault := types.VaultConfig{BaseDir: base}.WithDefaults()

	mk := func(rel, content string) {
		path := filepath.Join(base, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	mk("对话归档/2024-03/0315_会议.md", "# 会议")
	mk("对话归档/2024-03/_draft.md", "草稿")
	mk("对话归档/.obsidian/workspace.md", "editor state")
	mk("知识沉淀/方法论/复盘方法.md", "# 方法")
	mk("知识沉淀/notes.txt", "not markdown")
	mk("复盘报告/2024-03_第2周复盘.md", "# 复盘")
	mk("线头追踪.md", "## 待跟进")

	paths, err := Scan(vault)
	require.NoError(t, err)

	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(base, p)
		require.NoError(t, err)
		rels = append(rels, rel)
	}
	assert.ElementsMatch(t, []string{
		filepath.Join("对话归档", "2024-03", "0315_会议.md"),
		filepath.Join("知识沉淀", "方法论", "复盘方法.md"),
		filepath.Join("复盘报告", "2024-03_第2周复盘.md"),
		"线头追踪.md",
	}, rels)
}

func TestScan_MissingDirectoriesAreNotErrors(t *testing.T) {
	vault := types.VaultConfig{BaseDir: filepath.Join(t.TempDir(), "empty")}.WithDefaults()
	paths, err := Scan(vault)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
