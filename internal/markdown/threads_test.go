package markdown

import (
	"testing"
	"time"

	"github.com/pdiddy/kmsync/pkg/types"
)

func TestParseThreads_TableRows(t *testing.T) {
	in := `## 待跟进事项

| 日期 | 事项 | 来源 | 下一步 | 优先级 |
|------|------|------|--------|--------|
| 2024-03-15 | 跟进客户反馈 | 周会 | 整理清单 | 高 |
| 2024-03-16 | 补充文档 | | | |
`
	threads := ParseThreads(in, fixedNow)
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}

	first := threads[0]
	if first.Title != "跟进客户反馈" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Category != types.CategoryPending {
		t.Errorf("Category = %s, want 待跟进事项", first.Category)
	}
	if first.Status != types.StatusPending {
		t.Errorf("Status = %s, want 待处理", first.Status)
	}
	if first.Priority != types.PriorityHigh {
		t.Errorf("Priority = %s, want 高", first.Priority)
	}
	if first.Source != "周会" {
		t.Errorf("Source = %q", first.Source)
	}
	if first.Content != "跟进客户反馈\n下一步: 整理清单" {
		t.Errorf("Content = %q", first.Content)
	}
	if want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC); !first.Created.Equal(want) {
		t.Errorf("Created = %v, want %v", first.Created, want)
	}

	second := threads[1]
	if second.Priority != types.PriorityMedium {
		t.Errorf("missing priority cell should default to 中, got %s", second.Priority)
	}
	if second.Content != "补充文档" {
		t.Errorf("Content without next action = %q", second.Content)
	}
}

func TestParseThreads_SectionClassification(t *testing.T) {
	tests := []struct {
		heading  string
		category types.ThreadCategory
		status   types.ThreadStatus
	}{
		{"## 待跟进事项", types.CategoryPending, types.StatusPending},
		{"## 未成型想法", types.CategoryRawIdea, types.StatusPending},
		{"## 待验证假设", types.CategoryHypothesis, types.StatusPending},
		{"## 需要深挖的问题", types.CategoryPending, types.StatusPending},
		{"## 技术债清单", types.CategoryTechDebt, types.StatusPending},
		{"## 已完成/放弃", types.CategoryOther, types.StatusDone},
		{"## 杂项", types.CategoryOther, types.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			in := tt.heading + "\n\n| 日期 | 事项 |\n|---|---|\n| 2024-01-01 | 条目 |\n"
			threads := ParseThreads(in, fixedNow)
			if len(threads) != 1 {
				t.Fatalf("got %d threads, want 1", len(threads))
			}
			if threads[0].Category != tt.category {
				t.Errorf("Category = %s, want %s", threads[0].Category, tt.category)
			}
			if threads[0].Status != tt.status {
				t.Errorf("Status = %s, want %s", threads[0].Status, tt.status)
			}
		})
	}
}

func TestParseThreads_Checkboxes(t *testing.T) {
	in := `## 待跟进事项

- [ ] 核对账单（来自：周报）
- [x] 已经处理的事
`
	threads := ParseThreads(in, fixedNow)
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}

	open := threads[0]
	if open.Title != "核对账单" {
		t.Errorf("source annotation should be stripped from title, got %q", open.Title)
	}
	if open.Source != "周报" {
		t.Errorf("Source = %q, want 周报", open.Source)
	}
	if open.Content != "核对账单（来自：周报）" {
		t.Errorf("Content keeps full item text, got %q", open.Content)
	}
	if open.Status != types.StatusPending {
		t.Errorf("Status = %s", open.Status)
	}
	if !open.Created.Equal(today) {
		t.Errorf("checkbox Created = %v, want today", open.Created)
	}

	if threads[1].Status != types.StatusDone {
		t.Errorf("checked item Status = %s, want 已完成", threads[1].Status)
	}
	if threads[1].Priority != types.PriorityMedium {
		t.Errorf("checkbox Priority = %s, want 中", threads[1].Priority)
	}
}

func TestParseThreads_RowsNeedDateAndTitle(t *testing.T) {
	in := "| 日期 | 事项 |\n|---|---|\n| 2024-01-01 |\n| 2024-01-02 | 有标题 |\n"
	threads := ParseThreads(in, fixedNow)
	if len(threads) != 1 {
		t.Fatalf("got %d threads, want 1 (single-cell row dropped)", len(threads))
	}
	if threads[0].Title != "有标题" {
		t.Errorf("Title = %q", threads[0].Title)
	}
}

func TestParseThreads_HeadingResetsTable(t *testing.T) {
	in := `| 日期 | 事项 |
|---|---|
| 2024-01-01 | 表内条目 |

## 新的小节

| 2024-01-02 | 不在表内 |
`
	threads := ParseThreads(in, fixedNow)
	// The second row follows a heading with no new header row, so table
	// mode is off and the line is ignored.
	if len(threads) != 1 {
		t.Fatalf("got %d threads, want 1", len(threads))
	}
}

func TestParseThreads_EmptyInput(t *testing.T) {
	if got := ParseThreads("", fixedNow); len(got) != 0 {
		t.Fatalf("empty input produced %d threads", len(got))
	}
}
