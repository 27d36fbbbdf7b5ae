package markdown

import (
	"testing"

	"github.com/pdiddy/kmsync/pkg/types"
)

func TestParseProjects(t *testing.T) {
	in := `# 项目状态

## 自动生成区（勿动）

- **状态**：不应出现

## 归档工具

- **状态**：运行中
- **最近修改**：2024-03-10
- **Git提交数**：42
- **待办**：补充测试

## 草稿箱
`
	projects := ParseProjects(in)
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}

	first := projects[0]
	want := types.ProjectRecord{
		Name:         "归档工具",
		Status:       "运行中",
		LastModified: "2024-03-10",
		CommitCount:  "42",
		Todo:         "补充测试",
	}
	if first != want {
		t.Errorf("project[0] = %+v, want %+v", first, want)
	}

	second := projects[1]
	if second.Name != "草稿箱" {
		t.Errorf("Name = %q", second.Name)
	}
	if second.Status != "-" || second.LastModified != "-" || second.CommitCount != "-" {
		t.Errorf("defaults not applied: %+v", second)
	}
	if second.Todo != "无" {
		t.Errorf("Todo default = %q, want 无", second.Todo)
	}
}

func TestParseProjects_ConsecutiveHeadings(t *testing.T) {
	in := "## 项目甲\n## 项目乙\n- **状态**：可用\n"
	projects := ParseProjects(in)
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
	if projects[0].Name != "项目甲" || projects[0].Status != "-" {
		t.Errorf("first project should be all defaults: %+v", projects[0])
	}
	if projects[1].Status != "可用" {
		t.Errorf("second project Status = %q", projects[1].Status)
	}
}

func TestParseProjects_LaterLabelOverwrites(t *testing.T) {
	in := "## 项目\n- **状态**：开发中\n- **状态**：可用\n"
	projects := ParseProjects(in)
	if len(projects) != 1 {
		t.Fatalf("got %d projects", len(projects))
	}
	if projects[0].Status != "可用" {
		t.Errorf("Status = %q, want last value", projects[0].Status)
	}
}

func TestParseProjects_ExcludedSections(t *testing.T) {
	in := "## 自动同步说明\n## 主动触发区\n## 真项目\n"
	projects := ParseProjects(in)
	if len(projects) != 1 {
		t.Fatalf("got %d projects, want 1", len(projects))
	}
	if projects[0].Name != "真项目" {
		t.Errorf("Name = %q", projects[0].Name)
	}
}

func TestParseProjects_BulletsBeforeAnyHeadingIgnored(t *testing.T) {
	in := "- **状态**：游离的属性\n## 项目\n"
	projects := ParseProjects(in)
	if len(projects) != 1 || projects[0].Status != "-" {
		t.Fatalf("stray bullet must not attach: %+v", projects)
	}
}

func TestParseProjects_EmptyInput(t *testing.T) {
	if got := ParseProjects(""); len(got) != 0 {
		t.Fatalf("empty input produced %d projects", len(got))
	}
}
