package markdown

import (
	"strings"
	"testing"

	"github.com/pdiddy/kmsync/pkg/types"
)

func kinds(blocks []types.Block) []types.BlockKind {
	out := make([]types.BlockKind, len(blocks))
	for i, b := range blocks {
		out[i] = b.Kind
	}
	return out
}

func TestConvert_Classification(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []types.Block
	}{
		{
			name: "headings",
			in:   "# One\n## Two\n### Three",
			want: []types.Block{
				{Kind: types.BlockHeading1, Text: "One"},
				{Kind: types.BlockHeading2, Text: "Two"},
				{Kind: types.BlockHeading3, Text: "Three"},
			},
		},
		{
			name: "bullet and star",
			in:   "- first\n* second",
			want: []types.Block{
				{Kind: types.BlockBullet, Text: "first"},
				{Kind: types.BlockBullet, Text: "second"},
			},
		},
		{
			name: "checkbox markers stripped",
			in:   "- [x] Done thing\n- [ ] Todo",
			want: []types.Block{
				{Kind: types.BlockBullet, Text: "Done thing"},
				{Kind: types.BlockBullet, Text: "Todo"},
			},
		},
		{
			name: "ordered item",
			in:   "1. first step\n12. twelfth step",
			want: []types.Block{
				{Kind: types.BlockOrdered, Text: "first step"},
				{Kind: types.BlockOrdered, Text: "twelfth step"},
			},
		},
		{
			name: "quote",
			in:   "> a remark",
			want: []types.Block{{Kind: types.BlockQuote, Text: "a remark"}},
		},
		{
			name: "dividers never become paragraphs",
			in:   "---\n***\n___",
			want: []types.Block{
				{Kind: types.BlockDivider},
				{Kind: types.BlockDivider},
				{Kind: types.BlockDivider},
			},
		},
		{
			name: "blank lines emit nothing",
			in:   "a\n\n\nb",
			want: []types.Block{
				{Kind: types.BlockParagraph, Text: "a"},
				{Kind: types.BlockParagraph, Text: "b"},
			},
		},
		{
			name: "empty heading text suppressed",
			in:   "## \ncontent",
			want: []types.Block{{Kind: types.BlockParagraph, Text: "content"}},
		},
		{
			name: "bare heading markers at every level suppressed",
			in:   "#\n## \n###\ncontent",
			want: []types.Block{{Kind: types.BlockParagraph, Text: "content"}},
		},
		{
			name: "indented bullet recognized after trim",
			in:   "  - indented",
			want: []types.Block{{Kind: types.BlockBullet, Text: "indented"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(tt.in, Options{Tables: TableRowsAsText})
			if len(got) != len(tt.want) {
				t.Fatalf("got %d blocks %v, want %d", len(got), kinds(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("block[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestConvert_PlainProseIsOneParagraphPerLine(t *testing.T) {
	in := "first line of prose\nsecond line\n\nthird line after a gap"
	got := Convert(in, Options{Tables: TableRowsAsText})

	want := []string{"first line of prose", "second line", "third line after a gap"}
	if len(got) != len(want) {
		t.Fatalf("got %d blocks, want %d", len(got), len(want))
	}
	for i, b := range got {
		if b.Kind != types.BlockParagraph || b.Text != want[i] {
			t.Errorf("block[%d] = %+v, want paragraph %q", i, b, want[i])
		}
	}
}

func TestConvert_CodeBlocks(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantText string
		wantLang string
	}{
		{
			name:     "fenced with language",
			in:       "```go\nfunc main() {}\n```",
			wantText: "func main() {}",
			wantLang: "go",
		},
		{
			name:     "unterminated fence keeps everything to EOF",
			in:       "```\nline one\nline two",
			wantText: "line one\nline two",
			wantLang: "",
		},
		{
			name:     "blank lines inside fence preserved verbatim",
			in:       "```\na\n\nb\n```",
			wantText: "a\n\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(tt.in, Options{Tables: TableRowsAsText})
			if len(got) != 1 {
				t.Fatalf("got %d blocks %v, want exactly 1 code block", len(got), kinds(got))
			}
			if got[0].Kind != types.BlockCode {
				t.Fatalf("kind = %s, want code", got[0].Kind)
			}
			if got[0].Text != tt.wantText {
				t.Errorf("text = %q, want %q", got[0].Text, tt.wantText)
			}
			if tt.wantLang != "" && got[0].Language != tt.wantLang {
				t.Errorf("language = %q, want %q", got[0].Language, tt.wantLang)
			}
		})
	}
}

func TestConvert_TextTablePolicy(t *testing.T) {
	in := "| 日期 | 事项 |\n|------|------|\n| 2024-03-15 | 跟进反馈 |"
	got := Convert(in, Options{Tables: TableRowsAsText})

	want := []types.Block{
		{Kind: types.BlockTableRow, Text: "日期 | 事项"},
		{Kind: types.BlockTableRow, Text: "2024-03-15 | 跟进反馈"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d blocks %v, want %d (separator row dropped)", len(got), kinds(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("block[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestConvert_CodeTablePolicy(t *testing.T) {
	in := "before\n| a | b |\n|---|---|\n| 1 | 2 |\nafter"
	got := Convert(in, Options{Tables: TableRowsAsCode})

	if len(got) != 3 {
		t.Fatalf("got %d blocks %v, want 3", len(got), kinds(got))
	}
	if got[1].Kind != types.BlockCode || got[1].Language != "plain text" {
		t.Fatalf("table run = %+v, want plain text code block", got[1])
	}
	if !strings.Contains(got[1].Text, "| a | b |") || !strings.Contains(got[1].Text, "| 1 | 2 |") {
		t.Errorf("table run text missing rows: %q", got[1].Text)
	}
	if got[2].Kind != types.BlockParagraph || got[2].Text != "after" {
		t.Errorf("block after table run = %+v", got[2])
	}
}

func TestConvert_EmptyInput(t *testing.T) {
	if got := Convert("", Options{}); len(got) != 0 {
		t.Fatalf("empty input produced %d blocks", len(got))
	}
}

func TestConvert_OrderMatchesInput(t *testing.T) {
	in := "# T\npara\n- item\n---\n> q"
	got := Convert(in, Options{Tables: TableRowsAsText})
	want := []types.BlockKind{
		types.BlockHeading1, types.BlockParagraph, types.BlockBullet,
		types.BlockDivider, types.BlockQuote,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", kinds(got))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("block[%d].Kind = %s, want %s", i, got[i].Kind, k)
		}
	}
}
