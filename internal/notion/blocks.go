// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"github.com/pdiddy/kmsync/pkg/types"
)

// notionLanguages is the subset of Notion's code-block language enum we
// ever see in fence info strings. Anything else becomes "plain text".
var notionLanguages = map[string]string{
	"bash":       "bash",
	"sh":         "shell",
	"shell":      "shell",
	"go":         "go",
	"python":     "python",
	"py":         "python",
	"json":       "json",
	"sql":        "sql",
	"yaml":       "yaml",
	"javascript": "javascript",
	"js":         "javascript",
	"typescript": "typescript",
	"ts":         "typescript",
	"markdown":   "markdown",
	"plain text": "plain text",
}

// notionBlocks renders converted blocks as Notion API block objects.
func notionBlocks(blocks []types.Block) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, notionBlock(b))
	}
	return out
}

func richText(content string) []map[string]any {
	return []map[string]any{
		{"type": "text", "text": map[string]any{"content": content}},
	}
}

func notionBlock(b types.Block) map[string]any {
	switch b.Kind {
	case types.BlockHeading1:
		return typed("heading_1", map[string]any{"rich_text": richText(b.Text)})
	case types.BlockHeading2:
		return typed("heading_2", map[string]any{"rich_text": richText(b.Text)})
	case types.BlockHeading3:
		return typed("heading_3", map[string]any{"rich_text": richText(b.Text)})
	case types.BlockBullet:
		return typed("bulleted_list_item", map[string]any{"rich_text": richText(b.Text)})
	case types.BlockOrdered:
		return typed("numbered_list_item", map[string]any{"rich_text": richText(b.Text)})
	case types.BlockCode:
		lang := notionLanguages[b.Language]
		if lang == "" {
			lang = "plain text"
		}
		return typed("code", map[string]any{
			"rich_text": richText(b.Text),
			"language":  lang,
		})
	case types.BlockQuote:
		return typed("quote", map[string]any{"rich_text": richText(b.Text)})
	case types.BlockDivider:
		return typed("divider", map[string]any{})
	default:
		return typed("paragraph", map[string]any{"rich_text": richText(b.Text)})
	}
}

func typed(blockType string, value map[string]any) map[string]any {
	return map[string]any{
		"object":  "block",
		"type":    blockType,
		blockType: value,
	}
}
